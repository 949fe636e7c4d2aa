package importer

import (
	"context"
	"log/slog"
	"time"
)

// Runner executes a single auto-import pass.
type Runner interface {
	RunOnce(context.Context) error
}

// Scheduler triggers the Runner on a fixed interval. It owns all timing;
// the reconciler itself stays a plain request/response component.
type Scheduler struct {
	Runner   Runner
	Interval time.Duration
}

func (s *Scheduler) Run(ctx context.Context) {
	if s.Runner == nil || s.Interval <= 0 {
		return
	}

	// Run immediately at startup.
	if err := s.Runner.RunOnce(ctx); err != nil {
		slog.Error("initial auto import failed", "err", err)
	}

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Runner.RunOnce(ctx); err != nil {
				slog.Error("scheduled auto import failed", "err", err)
			}
		}
	}
}
