package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/hilo-match/hilo/internal/db"
	apperr "github.com/hilo-match/hilo/internal/errors"
)

// MatchRepository provides read access to final matches. State transitions
// go through the matching lifecycle, which keeps match rows and user
// statuses in one transaction.
type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

func (r *MatchRepository) GetByID(ctx context.Context, id string) (*db.FinalMatch, error) {
	var match db.FinalMatch
	if err := r.db.WithContext(ctx).First(&match, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("final match not found")
		}
		return nil, err
	}
	return &match, nil
}

// GetForUser returns the user's current final match.
func (r *MatchRepository) GetForUser(ctx context.Context, userID string) (*db.FinalMatch, error) {
	var match db.FinalMatch
	err := r.db.WithContext(ctx).
		Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		First(&match).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("no final match found for user")
		}
		return nil, err
	}
	return &match, nil
}

// ListAll returns every final match ordered by creation time.
func (r *MatchRepository) ListAll(ctx context.Context) ([]db.FinalMatch, error) {
	var matches []db.FinalMatch
	err := r.db.WithContext(ctx).Order("created_at, id").Find(&matches).Error
	return matches, err
}
