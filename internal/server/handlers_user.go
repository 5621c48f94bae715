package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hilo-match/hilo/internal/auth"
	"github.com/hilo-match/hilo/internal/db"
	apperr "github.com/hilo-match/hilo/internal/errors"
)

// nextMatchCacheTTL bounds how stale the cached next-match-time may get.
const nextMatchCacheTTL = 30 * time.Second

type userResponse struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	Status   string  `json:"status"`
	Grade    *string `json:"grade,omitempty"`
	WechatID *string `json:"wechat_id,omitempty"`
}

func userView(u *db.User) userResponse {
	return userResponse{
		ID:       u.ID,
		Email:    u.Email,
		Status:   string(u.Status),
		Grade:    u.Grade,
		WechatID: u.WechatID,
	}
}

func (s *Server) getMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.GetByID(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, userView(user))
}

type updateProfileRequest struct {
	WechatID *string `json:"wechat_id"`
	Grade    *string `json:"grade"`
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, s.log, err)
		return
	}
	userID := auth.UserID(r.Context())
	if err := s.users.UpdateProfile(r.Context(), userID, req.WechatID, req.Grade); err != nil {
		writeError(w, s.log, err)
		return
	}
	user, err := s.users.GetByID(r.Context(), userID)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, userView(user))
}

// requestVerification moves a fresh account into the admin review queue.
func (s *Server) requestVerification(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	ok, err := s.users.AdvanceStatus(r.Context(), userID,
		db.StatusVerificationPending, db.StatusUnverified)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	if !ok {
		writeError(w, s.log, apperr.State("verification can only be requested once"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(db.StatusVerificationPending)})
}

func (s *Server) getTagCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Tree())
}

func (s *Server) getTraitCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.traitList)
}

func (s *Server) submitForm(w http.ResponseWriter, r *http.Request) {
	var req formRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, s.log, err)
		return
	}

	userID := auth.UserID(r.Context())
	user, err := s.users.GetByID(r.Context(), userID)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	if !user.Status.CanFillForm() {
		writeError(w, s.log, apperr.State("form can only be submitted after verification and before matching"))
		return
	}

	form, err := s.buildForm(userID, &req)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	if err := s.forms.Upsert(r.Context(), form); err != nil {
		writeError(w, s.log, err)
		return
	}
	// First submission promotes the user; resubmissions leave status alone.
	if _, err := s.users.AdvanceStatus(r.Context(), userID,
		db.StatusFormCompleted, db.StatusVerified); err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, formView(form))
}

func (s *Server) getForm(w http.ResponseWriter, r *http.Request) {
	form, err := s.forms.GetByUserID(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, formView(form))
}

type previewEntry struct {
	CandidateID      string   `json:"candidate_id"`
	Score            float64  `json:"score"`
	EmailDomain      string   `json:"email_domain"`
	Grade            *string  `json:"grade,omitempty"`
	FamiliarTags     []string `json:"familiar_tags"`
	AspirationalTags []string `json:"aspirational_tags"`
	SelfTraits       []string `json:"self_traits"`
	RecentTopics     string   `json:"recent_topics"`
	SelfIntro        string   `json:"self_intro"`
	ProfilePhotoPath *string  `json:"profile_photo_path,omitempty"`
}

// getPreviews resolves the stored candidate list into anonymized profiles,
// preserving score order.
func (s *Server) getPreviews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserID(ctx)

	preview, err := s.previews.GetByUserID(ctx, userID)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	if preview == nil || len(preview.CandidateIDs) == 0 {
		writeJSON(w, http.StatusOK, []previewEntry{})
		return
	}

	ids := []string(preview.CandidateIDs)
	forms, err := s.forms.ListByUserIDs(ctx, ids)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	formOf := make(map[string]*db.Form, len(forms))
	for i := range forms {
		formOf[forms[i].UserID] = &forms[i]
	}

	entries := make([]previewEntry, 0, len(ids))
	for i, candidateID := range ids {
		form, ok := formOf[candidateID]
		if !ok {
			continue // candidate deleted since the preview run
		}
		candidate, err := s.users.GetByID(ctx, candidateID)
		if err != nil {
			writeError(w, s.log, err)
			return
		}
		entries = append(entries, previewEntry{
			CandidateID:      candidateID,
			Score:            preview.Scores[i],
			EmailDomain:      emailDomain(candidate.Email),
			Grade:            candidate.Grade,
			FamiliarTags:     form.FamiliarTags,
			AspirationalTags: form.AspirationalTags,
			SelfTraits:       form.SelfTraits,
			RecentTopics:     form.RecentTopics,
			SelfIntro:        form.SelfIntro,
			ProfilePhotoPath: form.ProfilePhotoPath,
		})
	}
	writeJSON(w, http.StatusOK, entries)
}

type vetoRequest struct {
	CandidateID string `json:"candidate_id"`
}

func (s *Server) addVeto(w http.ResponseWriter, r *http.Request) {
	var req vetoRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, s.log, err)
		return
	}
	if req.CandidateID == "" {
		writeError(w, s.log, apperr.Validation("candidate_id is required"))
		return
	}

	ctx := r.Context()
	userID := auth.UserID(ctx)
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	if !user.Status.CanVeto() {
		writeError(w, s.log, apperr.State("vetoes are only available before the final match"))
		return
	}
	if _, err := s.users.GetByID(ctx, req.CandidateID); err != nil {
		writeError(w, s.log, err)
		return
	}
	if err := s.vetoes.Add(ctx, userID, req.CandidateID); err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "vetoed"})
}

func (s *Server) listVetoes(w http.ResponseWriter, r *http.Request) {
	ids, err := s.vetoes.ListByVetoer(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"vetoed_ids": ids})
}

func (s *Server) removeVeto(w http.ResponseWriter, r *http.Request) {
	candidateID := chi.URLParam(r, "candidateID")
	removed, err := s.vetoes.Remove(r.Context(), auth.UserID(r.Context()), candidateID)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	if !removed {
		writeError(w, s.log, apperr.NotFound("veto not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (s *Server) acceptMatch(w http.ResponseWriter, r *http.Request) {
	if err := s.lifecycle.Accept(r.Context(), auth.UserID(r.Context())); err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

func (s *Server) rejectMatch(w http.ResponseWriter, r *http.Request) {
	if err := s.lifecycle.Reject(r.Context(), auth.UserID(r.Context())); err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

type partnerResponse struct {
	MatchID          string   `json:"match_id"`
	Score            float64  `json:"score"`
	Confirmed        bool     `json:"confirmed"`
	PartnerID        string   `json:"partner_id"`
	EmailDomain      string   `json:"email_domain"`
	Grade            *string  `json:"grade,omitempty"`
	FamiliarTags     []string `json:"familiar_tags"`
	AspirationalTags []string `json:"aspirational_tags"`
	SelfTraits       []string `json:"self_traits"`
	RecentTopics     string   `json:"recent_topics"`
	SelfIntro        string   `json:"self_intro"`
	ProfilePhotoPath *string  `json:"profile_photo_path,omitempty"`
	WechatID         *string  `json:"wechat_id,omitempty"`
}

// getPartner shows the final match partner. Contact details stay hidden
// until both sides are confirmed.
func (s *Server) getPartner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserID(ctx)

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	if user.Status != db.StatusMatched && user.Status != db.StatusConfirmed {
		writeError(w, s.log, apperr.State("no active final match"))
		return
	}

	match, err := s.matches.GetForUser(ctx, userID)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	partner, err := s.users.GetByID(ctx, match.PartnerID(userID))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	form, err := s.forms.GetByUserID(ctx, partner.ID)
	if err != nil {
		writeError(w, s.log, err)
		return
	}

	confirmed := user.Status == db.StatusConfirmed && partner.Status == db.StatusConfirmed
	resp := partnerResponse{
		MatchID:          match.ID,
		Score:            match.Score,
		Confirmed:        confirmed,
		PartnerID:        partner.ID,
		EmailDomain:      emailDomain(partner.Email),
		Grade:            partner.Grade,
		FamiliarTags:     form.FamiliarTags,
		AspirationalTags: form.AspirationalTags,
		SelfTraits:       form.SelfTraits,
		RecentTopics:     form.RecentTopics,
		SelfIntro:        form.SelfIntro,
		ProfilePhotoPath: form.ProfilePhotoPath,
	}
	if confirmed {
		resp.WechatID = partner.WechatID
	}
	writeJSON(w, http.StatusOK, resp)
}

// emailDomain strips the local part; candidate profiles never leak the full
// address.
func emailDomain(email string) string {
	if at := strings.LastIndex(email, "@"); at >= 0 {
		return email[at+1:]
	}
	return ""
}

// nextMatchTime reports the earliest pending slot, cached briefly in Redis
// since every signed-in client polls it.
func (s *Server) nextMatchTime(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if at, ok, err := s.cache.GetNextMatchTime(ctx); err == nil && ok {
		writeJSON(w, http.StatusOK, map[string]any{"next_match_time": at.UTC().Format(time.RFC3339)})
		return
	}

	at, err := s.schedules.NextPendingTime(ctx)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	if at == nil {
		writeJSON(w, http.StatusOK, map[string]any{"next_match_time": nil})
		return
	}
	if err := s.cache.SetNextMatchTime(ctx, *at, nextMatchCacheTTL); err != nil {
		s.log.Warn("failed to cache next match time", "err", err)
	}
	writeJSON(w, http.StatusOK, map[string]any{"next_match_time": at.UTC().Format(time.RFC3339)})
}
