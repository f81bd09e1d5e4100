package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/fortify/timeout"

	"github.com/five82/spotter/internal/optimistic"
	"github.com/five82/spotter/internal/state"
	"github.com/five82/spotter/internal/workout"
)

const (
	sessionTimeout  = 5 * time.Second
	sessionAttempts = 3
)

// sessionAPI is the server surface spotter uses. *workout.Client
// implements it.
type sessionAPI interface {
	workout.SetsAPI
	SessionFetcher
	MoveSession(ctx context.Context, workoutID int64, next bool) error
}

var _ sessionAPI = (*workout.Client)(nil)

// remote adapts the server to optimistic.Remote by reloading sets through
// the workout session.
type remote struct {
	sessionAPI
	workoutID int64
}

var _ optimistic.Remote = remote{}

// ReloadSets returns the sets of exerciseID from the current session. It
// fails when the session no longer points at that exercise.
func (r remote) ReloadSets(ctx context.Context, exerciseID int64) ([]workout.Set, error) {
	s, err := r.FetchSession(ctx, r.workoutID)
	if err != nil {
		return nil, err
	}
	if s.Exercise.ID != exerciseID {
		return nil, fmt.Errorf("session moved to exercise %d", s.Exercise.ID)
	}
	return s.Exercise.Sets, nil
}

// exerciseLoader switches the mutation controller to another exercise.
type exerciseLoader interface {
	Load(exercise workout.Exercise)
}

// session keeps the cache and the controller on the exercise the server
// session points at.
type session struct {
	api       sessionAPI
	workoutID int64
	store     *state.Store
	ctrl      exerciseLoader
	logger    *slog.Logger
	retry     retry.Config
}

func newSession(api sessionAPI, workoutID int64, store *state.Store, ctrl exerciseLoader, logger *slog.Logger) *session {
	return &session{
		api:       api,
		workoutID: workoutID,
		store:     store,
		ctrl:      ctrl,
		logger:    logger,
		retry: retry.Config{
			MaxAttempts:   sessionAttempts,
			InitialDelay:  200 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// load fetches the session and replaces the cache and controller state.
func (s *session) load(ctx context.Context) error {
	r := retry.New[*workout.Session](s.retry)
	t := timeout.New[*workout.Session](timeout.Config{DefaultTimeout: sessionTimeout})

	sess, err := t.Execute(ctx, sessionTimeout, func(ctx context.Context) (*workout.Session, error) {
		return r.Do(ctx, func(ctx context.Context) (*workout.Session, error) {
			return s.api.FetchSession(ctx, s.workoutID)
		})
	})
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	s.store.LoadSession(*sess)
	s.ctrl.Load(sess.Exercise)
	s.store.UpdateDay(&sess.WorkoutDay, nil)
	s.logger.Info("session loaded",
		"workout_id", s.workoutID,
		"exercise_id", sess.Exercise.ID,
		"exercise_index", sess.ExerciseIndex,
		"sets", len(sess.Exercise.Sets),
	)
	return nil
}

// navigate moves the session to the next or previous exercise and reloads.
func (s *session) navigate(ctx context.Context, next bool) error {
	if err := s.api.MoveSession(ctx, s.workoutID, next); err != nil {
		return fmt.Errorf("move session: %w", err)
	}
	return s.load(ctx)
}
