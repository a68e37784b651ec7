package core

// janitor.go provides the background maintenance loop for the run registry.
// Finished runs are pruned on admission too, but a quiet service would
// otherwise hold its last runs in memory forever.
//
// The loop is long-running and context-aware for graceful shutdown. Pruning
// failures cannot happen here, so the loop only logs what it removed.

import (
	"context"
	"log/slog"
	"time"
)

// DefaultJanitorInterval is how often finished runs are pruned.
const DefaultJanitorInterval = 10 * time.Minute

// StartJanitor starts a background goroutine that periodically prunes
// finished runs past the retention window. It returns immediately; cancel
// ctx to stop the loop.
func (s *Service) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultJanitorInterval
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		s.log.Info("run janitor started", slog.Duration("interval", interval))

		for {
			select {
			case <-ctx.Done():
				s.log.Info("run janitor stopped")
				return
			case <-ticker.C:
				if removed := s.pruneFinished(); removed > 0 {
					s.log.Debug("pruned finished runs", slog.Int("removed", removed))
				}
			}
		}
	}()
}

// pruneFinished removes finished runs past retention and reports how many
// were dropped.
func (s *Service) pruneFinished() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.runs)
	s.pruneLocked()
	return before - len(s.runs)
}
