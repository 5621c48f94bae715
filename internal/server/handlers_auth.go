package server

import (
	"net/http"

	apperr "github.com/hilo-match/hilo/internal/errors"
)

type sendCodeRequest struct {
	Email string `json:"email"`
}

func (s *Server) sendCode(w http.ResponseWriter, r *http.Request) {
	var req sendCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, s.log, err)
		return
	}
	if req.Email == "" {
		writeError(w, s.log, apperr.Validation("email is required"))
		return
	}
	if err := s.codes.SendCode(r.Context(), req.Email); err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

type verifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (s *Server) verifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, s.log, err)
		return
	}
	if req.Email == "" || req.Code == "" {
		writeError(w, s.log, apperr.Validation("email and code are required"))
		return
	}

	user, err := s.codes.VerifyCode(r.Context(), req.Email, req.Code)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	pair, err := s.jwt.Issue(user.ID)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":   userView(user),
		"tokens": pair,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, s.log, err)
		return
	}
	pair, err := s.jwt.Refresh(req.RefreshToken)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}
