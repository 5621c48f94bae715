package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/hilo-match/hilo/internal/db"
)

// PreviewRepository provides read access to persisted match previews.
// Writes happen in the preview generator and the match lifecycle, which own
// the replacement semantics.
type PreviewRepository struct {
	db *gorm.DB
}

func NewPreviewRepository(database *gorm.DB) *PreviewRepository {
	return &PreviewRepository{db: database}
}

// GetByUserID returns the user's preview row. A user without a row yet is
// indistinguishable from an empty list, so both return (nil, nil).
func (r *PreviewRepository) GetByUserID(ctx context.Context, userID string) (*db.MatchPreview, error) {
	var preview db.MatchPreview
	if err := r.db.WithContext(ctx).First(&preview, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &preview, nil
}
