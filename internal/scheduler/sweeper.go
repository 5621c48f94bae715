package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/hilo-match/hilo/internal/matching"
)

// Sweeper periodically auto-confirms final matches older than the accept
// timeout. Each pass is idempotent, so the interval only bounds how late an
// auto-confirmation can land.
type Sweeper struct {
	lifecycle *matching.Lifecycle
	interval  time.Duration
	log       *slog.Logger
}

func NewSweeper(lifecycle *matching.Lifecycle, interval time.Duration, log *slog.Logger) *Sweeper {
	return &Sweeper{lifecycle: lifecycle, interval: interval, log: log}
}

// Run loops until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			confirmed, err := s.lifecycle.SweepAutoConfirm(ctx)
			if err != nil {
				s.log.Error("auto-confirm sweep failed", "err", err)
				continue
			}
			if confirmed > 0 {
				s.log.Info("auto-confirm sweep done", "confirmed", confirmed)
			}
		}
	}
}
