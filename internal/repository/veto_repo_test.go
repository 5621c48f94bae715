package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hilo-match/hilo/internal/db"
	apperr "github.com/hilo-match/hilo/internal/errors"
)

func TestVetoAddIsIdempotent(t *testing.T) {
	gdb := testDB(t)
	repo := NewVetoRepository(gdb)
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, "u1", "u2"))
	require.NoError(t, repo.Add(ctx, "u1", "u2"))

	var count int64
	require.NoError(t, gdb.Model(&db.Veto{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// The reverse direction is a distinct edge.
	require.NoError(t, repo.Add(ctx, "u2", "u1"))
	require.NoError(t, gdb.Model(&db.Veto{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestVetoSelfRejected(t *testing.T) {
	repo := NewVetoRepository(testDB(t))
	err := repo.Add(context.Background(), "u1", "u1")
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestVetoRemove(t *testing.T) {
	repo := NewVetoRepository(testDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, "u1", "u2"))

	removed, err := repo.Remove(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Remove(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestVetoListByVetoer(t *testing.T) {
	repo := NewVetoRepository(testDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, "u1", "u2"))
	require.NoError(t, repo.Add(ctx, "u1", "u3"))
	require.NoError(t, repo.Add(ctx, "u9", "u1"))

	ids, err := repo.ListByVetoer(ctx, "u1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u2", "u3"}, ids)
}
