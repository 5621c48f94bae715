package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hilo-match/hilo/internal/db"
	apperr "github.com/hilo-match/hilo/internal/errors"
)

func (s *Server) adminRunPreviews(w http.ResponseWriter, r *http.Request) {
	if err := s.previewGen.Run(r.Context()); err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

func (s *Server) adminRunMatch(w http.ResponseWriter, r *http.Request) {
	created, err := s.assigner.Run(r.Context())
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"matches_created": created})
}

type dryRunPair struct {
	UserAID string  `json:"user_a_id"`
	UserBID string  `json:"user_b_id"`
	Score   float64 `json:"score"`
}

// adminDryRunMatch previews the assignment the next run would produce
// without mutating anything.
func (s *Server) adminDryRunMatch(w http.ResponseWriter, r *http.Request) {
	pairs, err := s.assigner.DryRun(r.Context())
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	out := make([]dryRunPair, len(pairs))
	for i, p := range pairs {
		out[i] = dryRunPair{UserAID: p.UserAID, UserBID: p.UserBID, Score: p.Score}
	}
	writeJSON(w, http.StatusOK, map[string]any{"pairs": out, "count": len(out)})
}

type matchView struct {
	ID         string    `json:"id"`
	UserAID    string    `json:"user_a_id"`
	UserBID    string    `json:"user_b_id"`
	Score      float64   `json:"score"`
	UserAState string    `json:"user_a_state"`
	UserBState string    `json:"user_b_state"`
	CreatedAt  time.Time `json:"created_at"`
}

func (s *Server) adminListMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := s.matches.ListAll(r.Context())
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	out := make([]matchView, len(matches))
	for i, m := range matches {
		out[i] = matchView{
			ID:         m.ID,
			UserAID:    m.UserAID,
			UserBID:    m.UserBID,
			Score:      m.Score,
			UserAState: string(m.UserAState),
			UserBState: string(m.UserBState),
			CreatedAt:  m.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) adminDeleteMatch(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")
	if err := s.lifecycle.Revert(r.Context(), matchID); err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reverted"})
}

type createSlotsRequest struct {
	Times []string `json:"times"`
}

type slotView struct {
	ID             string     `json:"id"`
	ScheduledTime  time.Time  `json:"scheduled_time"`
	Status         string     `json:"status"`
	ExecutedAt     *time.Time `json:"executed_at,omitempty"`
	MatchesCreated *int       `json:"matches_created,omitempty"`
	ErrorMessage   *string    `json:"error_message,omitempty"`
}

func slotViews(slots []db.ScheduledMatch) []slotView {
	out := make([]slotView, len(slots))
	for i, slot := range slots {
		out[i] = slotView{
			ID:             slot.ID,
			ScheduledTime:  slot.ScheduledTime,
			Status:         string(slot.Status),
			ExecutedAt:     slot.ExecutedAt,
			MatchesCreated: slot.MatchesCreated,
			ErrorMessage:   slot.ErrorMessage,
		}
	}
	return out
}

func (s *Server) adminCreateSlots(w http.ResponseWriter, r *http.Request) {
	var req createSlotsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, s.log, err)
		return
	}
	if len(req.Times) == 0 {
		writeError(w, s.log, apperr.Validation("times is required"))
		return
	}

	times := make([]time.Time, len(req.Times))
	for i, raw := range req.Times {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, s.log, apperr.Validation("times must be RFC3339 timestamps"))
			return
		}
		times[i] = at
	}

	slots, err := s.schedules.CreateSlots(r.Context(), times)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	if err := s.cache.InvalidateNextMatchTime(r.Context()); err != nil {
		s.log.Warn("failed to invalidate next match time", "err", err)
	}
	writeJSON(w, http.StatusCreated, slotViews(slots))
}

func (s *Server) adminListSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := s.schedules.ListAll(r.Context())
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, slotViews(slots))
}

func (s *Server) adminDeleteSlot(w http.ResponseWriter, r *http.Request) {
	slotID := chi.URLParam(r, "slotID")
	if err := s.schedules.DeletePending(r.Context(), slotID); err != nil {
		writeError(w, s.log, err)
		return
	}
	if err := s.cache.InvalidateNextMatchTime(r.Context()); err != nil {
		s.log.Warn("failed to invalidate next match time", "err", err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type verifyUserRequest struct {
	Email string `json:"email"`
}

// adminVerifyUser approves a user's card review.
func (s *Server) adminVerifyUser(w http.ResponseWriter, r *http.Request) {
	var req verifyUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, s.log, err)
		return
	}
	if req.Email == "" {
		writeError(w, s.log, apperr.Validation("email is required"))
		return
	}

	user, err := s.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	ok, err := s.users.AdvanceStatus(r.Context(), user.ID, db.StatusVerified,
		db.StatusUnverified, db.StatusVerificationPending)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	if !ok {
		writeError(w, s.log, apperr.State("user is already verified"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(db.StatusVerified)})
}
