package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hilo-match/hilo/internal/db"
	apperr "github.com/hilo-match/hilo/internal/errors"
)

// FormRepository provides data access for the Form model.
type FormRepository struct {
	db *gorm.DB
}

func NewFormRepository(database *gorm.DB) *FormRepository {
	return &FormRepository{db: database}
}

// Upsert creates or replaces the user's form in one statement; the unique
// user_id index guarantees one form per user.
func (r *FormRepository) Upsert(ctx context.Context, form *db.Form) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"gender", "familiar_tags", "aspirational_tags", "recent_topics",
				"self_traits", "ideal_traits", "physical_boundary", "self_intro",
				"profile_photo_path", "updated_at",
			}),
		}).
		Create(form).Error
}

func (r *FormRepository) GetByUserID(ctx context.Context, userID string) (*db.Form, error) {
	var form db.Form
	if err := r.db.WithContext(ctx).First(&form, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("form not found")
		}
		return nil, err
	}
	return &form, nil
}

func (r *FormRepository) ListByUserIDs(ctx context.Context, userIDs []string) ([]db.Form, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var forms []db.Form
	err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&forms).Error
	return forms, err
}
