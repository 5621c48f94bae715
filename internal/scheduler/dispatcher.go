// Package scheduler runs the background loops: the durable slot dispatcher
// that fires final-match runs at operator-configured instants, and the
// lifecycle sweeper that auto-confirms stale matches.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/hilo-match/hilo/internal/cache"
	"github.com/hilo-match/hilo/internal/repository"
)

// PreviewRunner refreshes match previews before an assignment run.
type PreviewRunner interface {
	Run(ctx context.Context) error
}

// MatchRunner executes one final assignment round and reports how many
// matches it created.
type MatchRunner interface {
	Run(ctx context.Context) (int, error)
}

// Dispatcher executes scheduled final-match slots. Every tick it claims each
// due pending slot with a conditional update and runs it; slots whose claim
// fails were taken by another worker (or cancelled) and are skipped. The
// first tick after startup naturally executes any slot missed while the
// process was down, earliest first.
type Dispatcher struct {
	slots    *repository.ScheduleRepository
	previews PreviewRunner
	assigner MatchRunner
	cache    *cache.RedisCache
	tick     time.Duration
	log      *slog.Logger
}

func NewDispatcher(
	slots *repository.ScheduleRepository,
	previews PreviewRunner,
	assigner MatchRunner,
	redisCache *cache.RedisCache,
	tick time.Duration,
	log *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		slots:    slots,
		previews: previews,
		assigner: assigner,
		cache:    redisCache,
		tick:     tick,
		log:      log,
	}
}

// Run loops until the context is cancelled. The first pass runs immediately
// to catch up on slots that came due while the process was down.
func (d *Dispatcher) Run(ctx context.Context) {
	if err := d.RunDue(ctx); err != nil {
		d.log.Error("scheduler pass failed", "err", err)
	}

	ticker := time.NewTicker(d.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.RunDue(ctx); err != nil {
				d.log.Error("scheduler pass failed", "err", err)
			}
		}
	}
}

// RunDue claims and executes every due pending slot in scheduled order.
func (d *Dispatcher) RunDue(ctx context.Context) error {
	due, err := d.slots.ListDuePending(ctx, time.Now())
	if err != nil {
		return err
	}

	for _, slot := range due {
		claimed, err := d.slots.Claim(ctx, slot.ID)
		if err != nil {
			return err
		}
		if !claimed {
			d.log.Debug("slot claimed elsewhere, skipping", "slot_id", slot.ID)
			continue
		}
		d.execute(ctx, slot.ID)
	}
	return nil
}

// execute runs one claimed slot end to end and records the outcome on the
// slot row. Failures are persisted, not propagated: the dispatcher keeps
// running.
func (d *Dispatcher) execute(ctx context.Context, slotID string) {
	executedAt := time.Now().UTC()

	// Refresh previews first so the assignment works from current tag
	// statistics. A preview failure fails the slot; the assigner would
	// otherwise run against stale state.
	if err := d.previews.Run(ctx); err != nil {
		d.fail(ctx, slotID, executedAt, err)
		return
	}

	created, err := d.assigner.Run(ctx)
	if err != nil {
		d.fail(ctx, slotID, executedAt, err)
		return
	}

	if err := d.slots.MarkCompleted(ctx, slotID, executedAt, created); err != nil {
		d.log.Error("failed to mark slot completed", "slot_id", slotID, "err", err)
		return
	}
	if d.cache != nil {
		_ = d.cache.InvalidateNextMatchTime(ctx)
	}
	d.log.Info("scheduled final match completed",
		"slot_id", slotID, "matches_created", created)
}

func (d *Dispatcher) fail(ctx context.Context, slotID string, executedAt time.Time, cause error) {
	d.log.Error("scheduled final match failed", "slot_id", slotID, "err", cause)
	if err := d.slots.MarkFailed(ctx, slotID, executedAt, cause.Error()); err != nil {
		d.log.Error("failed to mark slot failed", "slot_id", slotID, "err", err)
	}
	if d.cache != nil {
		_ = d.cache.InvalidateNextMatchTime(ctx)
	}
}
