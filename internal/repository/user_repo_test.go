package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hilo-match/hilo/internal/db"
	apperr "github.com/hilo-match/hilo/internal/errors"
)

func TestGetOrCreateByEmail(t *testing.T) {
	gdb := testDB(t)
	repo := NewUserRepository(gdb)
	ctx := context.Background()

	created, err := repo.GetOrCreateByEmail(ctx, "ada@example.edu")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, db.StatusUnverified, created.Status)

	// Second call returns the same row with its stored status.
	require.NoError(t, gdb.Model(&db.User{}).
		Where("id = ?", created.ID).
		Update("status", db.StatusFormCompleted).Error)

	again, err := repo.GetOrCreateByEmail(ctx, "ada@example.edu")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, db.StatusFormCompleted, again.Status)

	var count int64
	require.NoError(t, gdb.Model(&db.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestGetByIDNotFound(t *testing.T) {
	repo := NewUserRepository(testDB(t))
	_, err := repo.GetByID(context.Background(), "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestAdvanceStatus(t *testing.T) {
	gdb := testDB(t)
	repo := NewUserRepository(gdb)
	ctx := context.Background()
	createUser(t, gdb, "u1", db.StatusVerified)

	ok, err := repo.AdvanceStatus(ctx, "u1", db.StatusFormCompleted, db.StatusVerified)
	require.NoError(t, err)
	assert.True(t, ok)

	// Wrong precondition: no-op, no error.
	ok, err = repo.AdvanceStatus(ctx, "u1", db.StatusFormCompleted, db.StatusVerified)
	require.NoError(t, err)
	assert.False(t, ok)

	user, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, db.StatusFormCompleted, user.Status)
}

func TestUpdateProfile(t *testing.T) {
	gdb := testDB(t)
	repo := NewUserRepository(gdb)
	ctx := context.Background()
	createUser(t, gdb, "u1", db.StatusVerified)

	wechat := "wx-handle"
	require.NoError(t, repo.UpdateProfile(ctx, "u1", &wechat, nil))

	grade := "2024"
	require.NoError(t, repo.UpdateProfile(ctx, "u1", nil, &grade))

	user, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, user.WechatID)
	assert.Equal(t, "wx-handle", *user.WechatID)
	require.NotNil(t, user.Grade)
	assert.Equal(t, "2024", *user.Grade)
}

func TestListByStatus(t *testing.T) {
	gdb := testDB(t)
	repo := NewUserRepository(gdb)
	createUser(t, gdb, "u2", db.StatusFormCompleted)
	createUser(t, gdb, "u1", db.StatusFormCompleted)
	createUser(t, gdb, "u3", db.StatusVerified)

	users, err := repo.ListByStatus(context.Background(), db.StatusFormCompleted)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "u1", users[0].ID)
	assert.Equal(t, "u2", users[1].ID)
}
