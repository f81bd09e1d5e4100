package timer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/five82/spotter/internal/restclock"
)

// DefaultSampleInterval is how often Run refreshes the derived state.
const DefaultSampleInterval = 500 * time.Millisecond

// Phase is the countdown lifecycle position.
type Phase string

const (
	PhaseIdle     Phase = stateIdle
	PhaseRunning  Phase = stateRunning
	PhasePaused   Phase = statePaused
	PhaseFinished Phase = stateFinished
)

// State is what observers render.
type State struct {
	Phase            Phase
	RemainingSeconds int
	TotalSeconds     int
	Running          bool
	// EndsAt is zero unless the countdown is running.
	EndsAt time.Time
}

// Progress returns the elapsed fraction in [0,1].
func (s State) Progress() float64 {
	if s.TotalSeconds <= 0 {
		return 0
	}
	p := 1 - float64(s.RemainingSeconds)/float64(s.TotalSeconds)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// Completion is broadcast once when a countdown reaches zero.
type Completion struct {
	TotalSeconds int
	At           time.Time
}

// Clock supplies wall-clock time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// ClockStore is the durable slot holding the countdown. *restclock.Store
// implements it.
type ClockStore interface {
	Save(end time.Time, totalSeconds int) error
	Load() (restclock.Record, bool, error)
	Clear() error
}

var _ ClockStore = (*restclock.Store)(nil)

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSampleInterval sets the Run cadence.
func WithSampleInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.interval = d
		}
	}
}

// Service owns the rest countdown. Remaining time is always derived from
// the stored end instant and the clock, never accumulated from ticks, so
// suspended processes and slow samplers cause no drift.
//
// Construct one per process and pass it to dependents. Call Init once to
// rehydrate from the store, then Run to drive sampling until the context
// ends.
type Service struct {
	mu       sync.Mutex
	store    ClockStore
	clock    Clock
	logger   *slog.Logger
	interval time.Duration
	machine  *lifecycle

	total  int
	end    time.Time
	frozen time.Duration // remaining while paused

	// durable is false after a failed write; the slot is then not trusted
	// for the running countdown.
	durable bool

	subs   map[uint64]func(Completion)
	nextID uint64
}

// New builds an idle service on top of store.
func New(store ClockStore, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("timer requires a clock store")
	}
	machine, err := newLifecycle()
	if err != nil {
		return nil, err
	}
	s := &Service{
		store:    store,
		clock:    systemClock{},
		logger:   slog.Default(),
		interval: DefaultSampleInterval,
		machine:  machine,
		durable:  true,
		subs:     make(map[uint64]func(Completion)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Init reads the persisted countdown once. A future end resumes running; a
// past or unreadable one is discarded without a completion signal.
func (s *Service) Init() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	rec, ok, err := s.store.Load()
	switch {
	case err != nil:
		s.logger.Warn("rest timer slot unreadable", "error", err)
		if errors.Is(err, restclock.ErrMalformed) {
			s.clearStoreLocked()
		}
	case !ok:
	case !rec.End.After(now):
		s.logger.Debug("discarding expired rest timer", "ended_at", rec.End)
		s.clearStoreLocked()
	default:
		s.adoptLocked(rec, now)
		s.logger.Info("resumed rest timer", "remaining_s", s.stateLocked(now).RemainingSeconds, "total_s", s.total)
	}
	return s.stateLocked(now)
}

// Start begins a new countdown of seconds, replacing any prior one.
// Non-positive durations are ignored.
func (s *Service) Start(seconds int) {
	if seconds <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	s.machine.start()
	s.total = seconds
	s.end = now.Add(time.Duration(seconds) * time.Second)
	s.frozen = 0

	if err := s.store.Save(s.end, seconds); err != nil {
		s.durable = false
		s.logger.Warn("rest timer not persisted", "error", err)
	} else {
		s.durable = true
	}
	s.logger.Debug("rest timer started", "seconds", seconds)
}

// Pause freezes the remaining time. It is a no-op unless running. A paused
// countdown is not persisted, so a restart does not resume it.
func (s *Service) Pause() {
	s.mu.Lock()
	if s.machine.phase() != PhaseRunning {
		s.mu.Unlock()
		return
	}

	now := s.clock.Now()
	remaining := s.end.Sub(now)
	if remaining <= 0 {
		// Already at zero; completing is the only consistent outcome.
		done := s.finishLocked(now)
		subs := s.subscribersLocked()
		s.mu.Unlock()
		broadcast(subs, done)
		return
	}

	s.machine.send(eventPause)
	s.frozen = remaining
	s.end = time.Time{}
	s.clearStoreLocked()
	s.mu.Unlock()
}

// Reset clears all state and the persisted slot.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.machine.reset()
	s.total = 0
	s.end = time.Time{}
	s.frozen = 0
	s.clearStoreLocked()
}

// State returns the current derived state without sampling the store.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked(s.clock.Now())
}

// Durable reports whether the current countdown would survive a restart.
func (s *Service) Durable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.durable
}

// Sample is one poll tick. It picks up countdowns written to the slot by
// another process and completes the countdown once it reaches zero.
// Completion is broadcast exactly once per countdown.
func (s *Service) Sample() State {
	s.mu.Lock()
	now := s.clock.Now()
	s.syncLocked(now)

	var (
		done  Completion
		fired bool
		subs  []func(Completion)
	)
	if s.machine.phase() == PhaseRunning && !now.Before(s.end) {
		done = s.finishLocked(now)
		fired = true
		subs = s.subscribersLocked()
	}
	st := s.stateLocked(now)
	s.mu.Unlock()

	if fired {
		broadcast(subs, done)
	}
	return st
}

// Run samples at the configured interval until ctx is done.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.Sample()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Subscribe registers fn for completion signals and returns a function
// that removes it. Listeners run on the sampling goroutine in no
// particular order.
func (s *Service) Subscribe(fn func(Completion)) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Service) syncLocked(now time.Time) {
	phase := s.machine.phase()
	if phase == PhaseRunning && !s.durable {
		return
	}

	rec, ok, err := s.store.Load()
	if err != nil {
		s.logger.Debug("rest timer slot unreadable", "error", err)
		return
	}

	switch {
	case !ok:
		if phase == PhaseRunning {
			// Stopped elsewhere; no completion.
			s.logger.Info("rest timer cleared by another process")
			s.machine.reset()
			s.total = 0
			s.end = time.Time{}
		}
	case !rec.End.After(now):
		// A stale record is finished by whoever owns it, or by Init.
	case phase != PhaseRunning || rec.End.UnixMilli() != s.end.UnixMilli():
		s.logger.Info("adopting rest timer from another process", "ends_at", rec.End)
		s.adoptLocked(rec, now)
	}
}

func (s *Service) adoptLocked(rec restclock.Record, now time.Time) {
	remaining := ceilSeconds(rec.End.Sub(now))
	total := rec.TotalSeconds
	if total < remaining {
		total = remaining
	}
	s.machine.start()
	s.total = total
	s.end = rec.End
	s.frozen = 0
	s.durable = true
}

func (s *Service) finishLocked(now time.Time) Completion {
	s.machine.send(eventExpire)
	s.end = time.Time{}
	s.frozen = 0
	s.clearStoreLocked()
	s.logger.Info("rest timer finished", "total_s", s.total)
	return Completion{TotalSeconds: s.total, At: now}
}

func (s *Service) clearStoreLocked() {
	if err := s.store.Clear(); err != nil {
		s.logger.Warn("rest timer slot not cleared", "error", err)
	}
}

func (s *Service) stateLocked(now time.Time) State {
	phase := s.machine.phase()
	st := State{Phase: phase, TotalSeconds: s.total}
	switch phase {
	case PhaseRunning:
		st.Running = true
		st.EndsAt = s.end
		st.RemainingSeconds = ceilSeconds(s.end.Sub(now))
	case PhasePaused:
		st.RemainingSeconds = ceilSeconds(s.frozen)
	}
	return st
}

func (s *Service) subscribersLocked() []func(Completion) {
	subs := make([]func(Completion), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}

func broadcast(subs []func(Completion), c Completion) {
	for _, fn := range subs {
		fn(c)
	}
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
