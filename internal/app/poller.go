package app

import (
	"context"
	"log/slog"
	"time"
)

// maxBackoff caps the delay between failing cycles unless the configured
// interval is already longer.
const maxBackoff = 30 * time.Second

// Synchronizer runs one synchronization cycle. *syncer.Syncer implements it.
type Synchronizer interface {
	Initialize(ctx context.Context) error
}

// StartPoller runs a cycle immediately and then every interval until ctx is
// cancelled. Consecutive failures stretch the wait with exponential backoff.
// The returned channel is closed when the goroutine exits.
func StartPoller(ctx context.Context, s Synchronizer, interval time.Duration, logger *slog.Logger) <-chan struct{} {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "poller")
	done := make(chan struct{})

	go func() {
		defer close(done)
		failures := 0
		for {
			err := s.Initialize(ctx)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				failures++
			} else {
				failures = 0
			}

			wait := calculateBackoff(failures, interval)
			if failures > 0 {
				log.Debug("backing off after failed cycle", "failures", failures, "wait", wait)
			}

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
	return done
}

// calculateBackoff doubles base once per consecutive failure, capped at
// maxBackoff (or base when base is larger).
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	limit := max(maxBackoff, base)
	backoff := base
	for range failures {
		backoff *= 2
		if backoff >= limit {
			return limit
		}
	}
	return backoff
}
