package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/five82/spotter/internal/state"
	"github.com/five82/spotter/internal/workout"
)

const (
	defaultPollInterval = 5 * time.Second
	maxBackoff          = 30 * time.Second
)

// SessionFetcher loads the current workout session. *workout.Client
// implements it.
type SessionFetcher interface {
	FetchSession(ctx context.Context, workoutID int64) (*workout.Session, error)
}

// StartPoller launches a background goroutine that keeps the workout
// overview fresh. Consecutive failures stretch the interval up to
// maxBackoff. It returns immediately.
func StartPoller(ctx context.Context, store *state.Store, fetcher SessionFetcher, workoutID int64, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go func() {
		for {
			refresh(ctx, store, fetcher, workoutID, logger)

			wait := calculateBackoff(store.Snapshot().ConsecutiveFailures, interval)
			t := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				t.Stop()
				return
			case <-t.C:
			}
		}
	}()
}

// calculateBackoff doubles base for every consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

func refresh(ctx context.Context, store *state.Store, fetcher SessionFetcher, workoutID int64, logger *slog.Logger) {
	sess, err := fetcher.FetchSession(ctx, workoutID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		store.UpdateDay(nil, err)
		logger.Debug("workout poll failed", "error", err)
		return
	}
	store.UpdateDay(&sess.WorkoutDay, nil)
}
