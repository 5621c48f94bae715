package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hilo-match/hilo/internal/db"
	apperr "github.com/hilo-match/hilo/internal/errors"
)

// Lifecycle drives a final match through accept/reject/auto-confirm.
//
// The FinalMatch row is the authoritative state; both users' status fields
// are derived and updated in the same transaction as the row mutation, so a
// reject can never leave one side reverted and the other matched.
type Lifecycle struct {
	db      *gorm.DB
	timeout time.Duration
	log     *slog.Logger
}

func NewLifecycle(gdb *gorm.DB, timeout time.Duration, log *slog.Logger) *Lifecycle {
	return &Lifecycle{db: gdb, timeout: timeout, log: log}
}

// Accept records one side's acceptance. When the other side has already
// accepted, both users are promoted to confirmed.
func (l *Lifecycle) Accept(ctx context.Context, userID string) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		match, err := l.matchForDecision(tx, userID)
		if err != nil {
			return err
		}

		sideColumn := "user_a_state"
		if userID == match.UserBID {
			sideColumn = "user_b_state"
		}

		err = tx.Model(&db.FinalMatch{}).
			Where("id = ?", match.ID).
			Update(sideColumn, db.AcceptAccepted).Error
		if err != nil {
			return fmt.Errorf("record acceptance: %w", err)
		}

		// The partner's state must come from a re-read: the update above
		// holds the row lock, so an acceptance committed by a concurrent
		// transaction is visible here even though the initial fetch
		// predates it. Two simultaneous accepts deciding from their
		// pre-update snapshots would both see a pending partner.
		if err := tx.First(match, "id = ?", match.ID).Error; err != nil {
			return fmt.Errorf("reload final match: %w", err)
		}
		otherState := match.UserBState
		if userID == match.UserBID {
			otherState = match.UserAState
		}

		if otherState != db.AcceptAccepted {
			l.log.Info("final match accepted by one side", "match_id", match.ID, "user_id", userID)
			return nil
		}

		if err := confirmBoth(tx, match); err != nil {
			return err
		}
		l.log.Info("final match confirmed by both sides", "match_id", match.ID)
		return nil
	})
}

// Reject deletes the final match and reverts both users to form_completed.
// Both users' preview rows are cleared; they belong to a round that is over
// for this pair.
func (l *Lifecycle) Reject(ctx context.Context, userID string) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		match, err := l.matchForDecision(tx, userID)
		if err != nil {
			return err
		}
		partnerID := match.PartnerID(userID)

		if err := tx.Delete(&db.FinalMatch{}, "id = ?", match.ID).Error; err != nil {
			return fmt.Errorf("delete final match: %w", err)
		}

		rejecter := tx.Model(&db.User{}).
			Where("id = ? AND status = ?", userID, db.StatusMatched).
			Update("status", db.StatusFormCompleted)
		if rejecter.Error != nil {
			return fmt.Errorf("revert rejecter: %w", rejecter.Error)
		}
		partner := tx.Model(&db.User{}).
			Where("id = ? AND status IN ?", partnerID,
				[]db.UserStatus{db.StatusMatched, db.StatusConfirmed}).
			Update("status", db.StatusFormCompleted)
		if partner.Error != nil {
			return fmt.Errorf("revert partner: %w", partner.Error)
		}
		if rejecter.RowsAffected == 0 || partner.RowsAffected == 0 {
			return fmt.Errorf("reject race on match %s: statuses moved underneath", match.ID)
		}

		for _, id := range []string{userID, partnerID} {
			if err := clearPreview(tx, id); err != nil {
				return err
			}
		}

		l.log.Info("final match rejected", "match_id", match.ID,
			"user_id", userID, "partner_id", partnerID)
		return nil
	})
}

// Revert deletes a match by ID and returns both users to form_completed,
// whatever their current state. Operator action for undoing a bad pairing,
// including already-confirmed ones.
func (l *Lifecycle) Revert(ctx context.Context, matchID string) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var match db.FinalMatch
		if err := tx.First(&match, "id = ?", matchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("final match not found")
			}
			return err
		}

		if err := tx.Delete(&db.FinalMatch{}, "id = ?", match.ID).Error; err != nil {
			return fmt.Errorf("delete final match: %w", err)
		}

		err := tx.Model(&db.User{}).
			Where("id IN ? AND status IN ?",
				[]string{match.UserAID, match.UserBID},
				[]db.UserStatus{db.StatusMatched, db.StatusConfirmed}).
			Update("status", db.StatusFormCompleted).Error
		if err != nil {
			return fmt.Errorf("revert matched users: %w", err)
		}

		for _, id := range []string{match.UserAID, match.UserBID} {
			if err := clearPreview(tx, id); err != nil {
				return err
			}
		}

		l.log.Info("final match reverted", "match_id", match.ID)
		return nil
	})
}

// SweepAutoConfirm promotes every match older than the accept timeout whose
// users are still awaiting confirmation. Safe to run repeatedly; each match
// is settled by conditional updates.
func (l *Lifecycle) SweepAutoConfirm(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-l.timeout)

	var expired []db.FinalMatch
	err := l.db.WithContext(ctx).
		Joins("JOIN users ua ON ua.id = final_matches.user_a_id").
		Joins("JOIN users ub ON ub.id = final_matches.user_b_id").
		Where("final_matches.created_at <= ?", cutoff).
		Where("ua.status = ? OR ub.status = ?", db.StatusMatched, db.StatusMatched).
		Find(&expired).Error
	if err != nil {
		return 0, fmt.Errorf("list expired matches: %w", err)
	}

	confirmed := 0
	for _, match := range expired {
		err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return confirmBoth(tx, &match)
		})
		if err != nil {
			// Keep sweeping; the next run retries this match.
			l.log.Error("auto-confirm failed", "match_id", match.ID, "err", err)
			continue
		}
		confirmed++
		l.log.Info("final match auto-confirmed", "match_id", match.ID)
	}
	return confirmed, nil
}

// matchForDecision loads the caller's final match and checks the caller may
// act on it.
func (l *Lifecycle) matchForDecision(tx *gorm.DB, userID string) (*db.FinalMatch, error) {
	var user db.User
	if err := tx.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	if !user.Status.CanDecideMatch() {
		return nil, apperr.State("user is not in matched status")
	}

	var match db.FinalMatch
	err := tx.Where("user_a_id = ? OR user_b_id = ?", userID, userID).First(&match).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("no final match found for user")
		}
		return nil, err
	}
	return &match, nil
}

// confirmBoth marks both sides accepted and both users confirmed. The
// conditional status update makes it idempotent against concurrent sweeps
// and accepts.
func confirmBoth(tx *gorm.DB, match *db.FinalMatch) error {
	err := tx.Model(&db.FinalMatch{}).
		Where("id = ?", match.ID).
		Updates(map[string]any{
			"user_a_state": db.AcceptAccepted,
			"user_b_state": db.AcceptAccepted,
		}).Error
	if err != nil {
		return fmt.Errorf("settle match states: %w", err)
	}

	err = tx.Model(&db.User{}).
		Where("id IN ? AND status = ?", []string{match.UserAID, match.UserBID}, db.StatusMatched).
		Update("status", db.StatusConfirmed).Error
	if err != nil {
		return fmt.Errorf("confirm users: %w", err)
	}
	return nil
}

// clearPreview leaves the user with an empty preview row.
func clearPreview(tx *gorm.DB, userID string) error {
	preview := db.MatchPreview{
		UserID:       userID,
		CandidateIDs: datatypes.NewJSONSlice([]string{}),
		Scores:       datatypes.NewJSONSlice([]float64{}),
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"candidate_ids", "scores", "updated_at"}),
	}).Create(&preview).Error
	if err != nil {
		return fmt.Errorf("clear preview for user %s: %w", userID, err)
	}
	return nil
}
