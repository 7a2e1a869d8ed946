package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Scheduler triggers full recalculation runs on a fixed interval.
// There is no run overlap: ticks arriving while a run is in flight are
// absorbed by the ticker.
type Scheduler struct {
	Engine   *Engine
	Interval time.Duration
	Log      zerolog.Logger
}

// Run blocks until ctx is cancelled. The first run starts immediately.
// An interrupted run leaves the last-written per-product state in
// place; the next cycle corrects it.
func (s *Scheduler) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	s.Log.Info().Dur("interval", interval).Msg("recalculation scheduler started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.Engine.RecalculateAll(ctx); err != nil {
			s.Log.Error().Err(err).Msg("recalculation run failed")
		}
		select {
		case <-ctx.Done():
			s.Log.Info().Msg("recalculation scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}
