package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hilo-match/hilo/internal/db"
	apperr "github.com/hilo-match/hilo/internal/errors"
)

// UserRepository provides data access for the User model.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// GetByID fetches a user or returns a NotFound error.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*db.User, error) {
	var user db.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*db.User, error) {
	var user db.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	return &user, nil
}

// GetOrCreateByEmail returns the existing user for the email or creates one
// in unverified status. Used on first successful email verification.
func (r *UserRepository) GetOrCreateByEmail(ctx context.Context, email string) (*db.User, error) {
	user := db.User{Email: email, Status: db.StatusUnverified}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoNothing: true,
		}).
		Create(&user).Error
	if err != nil {
		return nil, err
	}
	// Re-read: on conflict the insert returns no row, and we want the
	// stored status either way.
	return r.GetByEmail(ctx, email)
}

// ListByStatus returns all users in any of the given statuses, ordered by ID.
func (r *UserRepository) ListByStatus(ctx context.Context, statuses ...db.UserStatus) ([]db.User, error) {
	var users []db.User
	err := r.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("id").
		Find(&users).Error
	return users, err
}

// AdvanceStatus moves a user from one of the expected statuses to the target
// status. Returns false without error when the user was not in an expected
// status (somebody else advanced it first).
func (r *UserRepository) AdvanceStatus(ctx context.Context, id string, to db.UserStatus, from ...db.UserStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&db.User{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SetWechatID stores the user's WeChat handle, shown to the partner once a
// match is mutually confirmed.
func (r *UserRepository) SetWechatID(ctx context.Context, id, wechatID string) error {
	return r.db.WithContext(ctx).Model(&db.User{}).
		Where("id = ?", id).
		Update("wechat_id", wechatID).Error
}

// UpdateProfile applies the provided profile fields; nil means unchanged.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, wechatID, grade *string) error {
	updates := map[string]any{}
	if wechatID != nil {
		updates["wechat_id"] = *wechatID
	}
	if grade != nil {
		updates["grade"] = *grade
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&db.User{}).
		Where("id = ?", id).
		Updates(updates).Error
}
