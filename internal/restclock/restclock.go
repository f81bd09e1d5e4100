// Package restclock persists the rest countdown as absolute wall-clock
// values so a restarted client can resume it.
//
// The end instant is stored as decimal milliseconds since the Unix epoch
// under EndKey. The configured duration is stored separately under
// TotalKey so progress rendering is exact after a restart.
package restclock

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/five82/spotter/internal/kv"
)

const (
	EndKey   = "rest_timer_end"
	TotalKey = "rest_timer_total"
)

// ErrMalformed reports an end value that cannot be parsed.
var ErrMalformed = errors.New("restclock: malformed end timestamp")

// Record is the persisted countdown.
type Record struct {
	End time.Time
	// TotalSeconds is zero when no total was recorded.
	TotalSeconds int
}

// Store reads and writes the countdown slot. The slot is last-writer-wins.
type Store struct {
	kv kv.Store
}

// New wraps a key-value store.
func New(store kv.Store) *Store {
	return &Store{kv: store}
}

// Save writes the end instant and total duration.
func (s *Store) Save(end time.Time, totalSeconds int) error {
	if err := s.kv.Set(EndKey, strconv.FormatInt(end.UnixMilli(), 10)); err != nil {
		return fmt.Errorf("save rest end: %w", err)
	}
	if err := s.kv.Set(TotalKey, strconv.Itoa(totalSeconds)); err != nil {
		return fmt.Errorf("save rest total: %w", err)
	}
	return nil
}

// Load returns the persisted countdown. ok is false when nothing is stored.
func (s *Store) Load() (Record, bool, error) {
	raw, ok, err := s.kv.Get(EndKey)
	if err != nil {
		return Record{}, false, fmt.Errorf("load rest end: %w", err)
	}
	if !ok {
		return Record{}, false, nil
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || ms <= 0 {
		return Record{}, false, fmt.Errorf("%w: %q", ErrMalformed, raw)
	}

	rec := Record{End: time.UnixMilli(ms)}
	if rawTotal, ok, err := s.kv.Get(TotalKey); err == nil && ok {
		if total, err := strconv.Atoi(strings.TrimSpace(rawTotal)); err == nil && total > 0 {
			rec.TotalSeconds = total
		}
	}
	return rec, true, nil
}

// Clear removes the countdown.
func (s *Store) Clear() error {
	return errors.Join(s.kv.Remove(EndKey), s.kv.Remove(TotalKey))
}
