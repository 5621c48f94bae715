package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/hilo-match/hilo/internal/db"
	apperr "github.com/hilo-match/hilo/internal/errors"
)

// errorMessageLimit bounds what a failed run may persist in its slot row.
const errorMessageLimit = 512

// ScheduleRepository provides data access for scheduled final-match slots.
// The Claim conditional update is the primitive that gives each slot
// at-most-one execution across concurrent dispatchers.
type ScheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(database *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: database}
}

// CreateSlots inserts one slot per timestamp. Times must be in the future
// and not collide with an existing slot.
func (r *ScheduleRepository) CreateSlots(ctx context.Context, times []time.Time) ([]db.ScheduledMatch, error) {
	now := time.Now().UTC()
	for _, at := range times {
		if !at.After(now) {
			return nil, apperr.Validation("scheduled time must be in the future")
		}
	}

	slots := make([]db.ScheduledMatch, 0, len(times))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, at := range times {
			slot := db.ScheduledMatch{
				ScheduledTime: at.UTC(),
				Status:        db.SchedulePending,
			}
			if err := tx.Create(&slot).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return apperr.Conflict("a slot already exists at " + at.UTC().Format(time.RFC3339))
				}
				return err
			}
			slots = append(slots, slot)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return slots, nil
}

// ListAll returns all slots ordered by scheduled time.
func (r *ScheduleRepository) ListAll(ctx context.Context) ([]db.ScheduledMatch, error) {
	var slots []db.ScheduledMatch
	err := r.db.WithContext(ctx).Order("scheduled_time").Find(&slots).Error
	return slots, err
}

// ListDuePending returns pending slots whose time has passed, earliest
// first. On startup this doubles as drift catch-up: slots missed while the
// process was down surface here immediately.
func (r *ScheduleRepository) ListDuePending(ctx context.Context, now time.Time) ([]db.ScheduledMatch, error) {
	var slots []db.ScheduledMatch
	err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_time <= ?", db.SchedulePending, now.UTC()).
		Order("scheduled_time").
		Find(&slots).Error
	return slots, err
}

// NextPendingTime returns the earliest pending slot time, or nil when
// nothing is scheduled.
func (r *ScheduleRepository) NextPendingTime(ctx context.Context) (*time.Time, error) {
	var slot db.ScheduledMatch
	err := r.db.WithContext(ctx).
		Where("status = ?", db.SchedulePending).
		Order("scheduled_time").
		First(&slot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	at := slot.ScheduledTime
	return &at, nil
}

// Claim flips the slot from pending to running. Returns false when another
// worker won the slot (or it was cancelled).
func (r *ScheduleRepository) Claim(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&db.ScheduledMatch{}).
		Where("id = ? AND status = ?", id, db.SchedulePending).
		Update("status", db.ScheduleRunning)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkCompleted records a successful run.
func (r *ScheduleRepository) MarkCompleted(ctx context.Context, id string, executedAt time.Time, matchesCreated int) error {
	return r.db.WithContext(ctx).Model(&db.ScheduledMatch{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":          db.ScheduleCompleted,
			"executed_at":     executedAt.UTC(),
			"matches_created": matchesCreated,
			"error_message":   nil,
		}).Error
}

// MarkFailed records a failed run, truncating the message to a bounded size.
func (r *ScheduleRepository) MarkFailed(ctx context.Context, id string, executedAt time.Time, message string) error {
	if len(message) > errorMessageLimit {
		message = message[:errorMessageLimit]
	}
	return r.db.WithContext(ctx).Model(&db.ScheduledMatch{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        db.ScheduleFailed,
			"executed_at":   executedAt.UTC(),
			"error_message": message,
		}).Error
}

// DeletePending cancels a slot. Slots that started executing (or finished)
// are no longer cancellable.
func (r *ScheduleRepository) DeletePending(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, db.SchedulePending).
		Delete(&db.ScheduledMatch{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&db.ScheduledMatch{}).
		Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperr.NotFound("scheduled slot not found")
	}
	return apperr.State("only pending slots can be deleted")
}
