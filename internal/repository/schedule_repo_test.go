package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hilo-match/hilo/internal/db"
	apperr "github.com/hilo-match/hilo/internal/errors"
)

func TestCreateSlotsRejectsPast(t *testing.T) {
	repo := NewScheduleRepository(testDB(t))
	_, err := repo.CreateSlots(context.Background(), []time.Time{
		time.Now().Add(-time.Minute),
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCreateSlotsRejectsDuplicateTime(t *testing.T) {
	repo := NewScheduleRepository(testDB(t))
	ctx := context.Background()
	at := time.Now().Add(time.Hour).UTC().Truncate(time.Second)

	_, err := repo.CreateSlots(ctx, []time.Time{at})
	require.NoError(t, err)

	_, err = repo.CreateSlots(ctx, []time.Time{at})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	// The whole batch rolls back on a collision.
	later := at.Add(time.Hour)
	_, err = repo.CreateSlots(ctx, []time.Time{later, at})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	slots, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, slots, 1)
}

func TestListDuePendingOrdersByTime(t *testing.T) {
	gdb := testDB(t)
	repo := NewScheduleRepository(gdb)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, offset := range []time.Duration{-time.Minute, -time.Hour, time.Hour} {
		slot := db.ScheduledMatch{ScheduledTime: now.Add(offset), Status: db.SchedulePending}
		require.NoError(t, gdb.Create(&slot).Error)
	}

	due, err := repo.ListDuePending(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.True(t, due[0].ScheduledTime.Before(due[1].ScheduledTime))
}

func TestClaimIsExclusive(t *testing.T) {
	gdb := testDB(t)
	repo := NewScheduleRepository(gdb)
	ctx := context.Background()

	slot := db.ScheduledMatch{
		ScheduledTime: time.Now().UTC().Add(-time.Minute),
		Status:        db.SchedulePending,
	}
	require.NoError(t, gdb.Create(&slot).Error)

	claimed, err := repo.Claim(ctx, slot.ID)
	require.NoError(t, err)
	assert.True(t, claimed)

	// Second claim loses.
	claimed, err = repo.Claim(ctx, slot.ID)
	require.NoError(t, err)
	assert.False(t, claimed)

	// Running slots are no longer due.
	due, err := repo.ListDuePending(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestMarkCompletedAndFailed(t *testing.T) {
	gdb := testDB(t)
	repo := NewScheduleRepository(gdb)
	ctx := context.Background()
	executedAt := time.Now().UTC()

	slot := db.ScheduledMatch{ScheduledTime: executedAt.Add(time.Hour), Status: db.ScheduleRunning}
	require.NoError(t, gdb.Create(&slot).Error)

	require.NoError(t, repo.MarkFailed(ctx, slot.ID, executedAt, strings.Repeat("x", 2000)))
	var got db.ScheduledMatch
	require.NoError(t, gdb.First(&got, "id = ?", slot.ID).Error)
	assert.Equal(t, db.ScheduleFailed, got.Status)
	require.NotNil(t, got.ErrorMessage)
	assert.Len(t, *got.ErrorMessage, 512)

	require.NoError(t, repo.MarkCompleted(ctx, slot.ID, executedAt, 7))
	require.NoError(t, gdb.First(&got, "id = ?", slot.ID).Error)
	assert.Equal(t, db.ScheduleCompleted, got.Status)
	require.NotNil(t, got.MatchesCreated)
	assert.Equal(t, 7, *got.MatchesCreated)
	assert.Nil(t, got.ErrorMessage)
}

func TestNextPendingTime(t *testing.T) {
	gdb := testDB(t)
	repo := NewScheduleRepository(gdb)
	ctx := context.Background()

	at, err := repo.NextPendingTime(ctx)
	require.NoError(t, err)
	assert.Nil(t, at)

	early := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	late := early.Add(time.Hour)
	for _, ts := range []time.Time{late, early} {
		slot := db.ScheduledMatch{ScheduledTime: ts, Status: db.SchedulePending}
		require.NoError(t, gdb.Create(&slot).Error)
	}

	at, err = repo.NextPendingTime(ctx)
	require.NoError(t, err)
	require.NotNil(t, at)
	assert.True(t, at.Equal(early))
}

func TestDeletePendingRules(t *testing.T) {
	gdb := testDB(t)
	repo := NewScheduleRepository(gdb)
	ctx := context.Background()

	pending := db.ScheduledMatch{
		ScheduledTime: time.Now().UTC().Add(time.Hour),
		Status:        db.SchedulePending,
	}
	running := db.ScheduledMatch{
		ScheduledTime: time.Now().UTC().Add(2 * time.Hour),
		Status:        db.ScheduleRunning,
	}
	require.NoError(t, gdb.Create(&pending).Error)
	require.NoError(t, gdb.Create(&running).Error)

	require.NoError(t, repo.DeletePending(ctx, pending.ID))

	err := repo.DeletePending(ctx, running.ID)
	assert.Equal(t, apperr.KindState, apperr.KindOf(err))

	err = repo.DeletePending(ctx, pending.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
