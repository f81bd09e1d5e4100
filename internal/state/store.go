package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/spotter/internal/workout"
)

// NoticeTTL is how long a notice stays visible.
const NoticeTTL = 3 * time.Second

// Notice is a transient, user-visible message.
type Notice struct {
	Message string
	At      time.Time
}

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	// Exercise is the viewed exercise; its Sets field is the live set cache.
	Exercise      workout.Exercise
	ExerciseIndex int
	HasSession    bool

	// Day is the workout overview kept fresh by the poller.
	Day                 workout.WorkoutDay
	HasDay              bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures

	Notice Notice
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// ActiveNotice returns the notice if it is still within NoticeTTL of now.
func (s Snapshot) ActiveNotice(now time.Time) (Notice, bool) {
	if s.Notice.Message == "" || now.Sub(s.Notice.At) >= NoticeTTL {
		return Notice{}, false
	}
	return s.Notice, true
}

// Store coordinates concurrent updates to the snapshot. The set sequence is
// written only by the mutation controller; readers receive copies.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// LoadSession replaces the viewed exercise and its sets.
func (s *Store) LoadSession(session workout.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Exercise = session.Exercise
	s.snapshot.Exercise.Sets = cloneSets(session.Exercise.Sets)
	s.snapshot.ExerciseIndex = session.ExerciseIndex
	s.snapshot.HasSession = true
	if len(session.WorkoutDay.Exercises) > 0 || session.WorkoutDay.ID != 0 {
		s.snapshot.Day = cloneDay(session.WorkoutDay)
		s.snapshot.HasDay = true
	}
}

// Sets returns a copy of the cached set sequence.
func (s *Store) Sets() []workout.Set {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSets(s.snapshot.Exercise.Sets)
}

// ReplaceSets swaps the cached set sequence for a copy of sets.
func (s *Store) ReplaceSets(sets []workout.Set) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Exercise.Sets = cloneSets(sets)
}

// UpdateDay records a poll result. When err is non-nil the previous data is
// kept but the error is recorded for visibility.
func (s *Store) UpdateDay(day *workout.WorkoutDay, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	if day != nil {
		s.snapshot.Day = cloneDay(*day)
		s.snapshot.HasDay = true
	}
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// Notify records a transient notice.
func (s *Store) Notify(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Notice = Notice{Message: message, At: time.Now()}
}

// DismissNotice clears the current notice.
func (s *Store) DismissNotice() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Notice = Notice{}
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Exercise.Sets = cloneSets(s.snapshot.Exercise.Sets)
	snap.Day = cloneDay(s.snapshot.Day)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneSets(sets []workout.Set) []workout.Set {
	if len(sets) == 0 {
		return nil
	}
	dup := make([]workout.Set, len(sets))
	copy(dup, sets)
	return dup
}

func cloneDay(day workout.WorkoutDay) workout.WorkoutDay {
	if len(day.Exercises) == 0 {
		return day
	}
	exercises := make([]workout.Exercise, len(day.Exercises))
	for i, ex := range day.Exercises {
		ex.Sets = cloneSets(ex.Sets)
		exercises[i] = ex
	}
	day.Exercises = exercises
	return day
}
