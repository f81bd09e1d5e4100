package timer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/spotter/internal/kv"
	"github.com/five82/spotter/internal/restclock"
	"github.com/five82/spotter/internal/testutil"
)

var epoch = time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC)

func newService(t *testing.T, store kv.Store, clock *testutil.ManualClock) *Service {
	t.Helper()
	svc, err := New(restclock.New(store), WithClock(clock))
	require.NoError(t, err)
	svc.Init()
	return svc
}

func TestStart_RemainingMatchesDuration(t *testing.T) {
	clock := testutil.NewManualClock(epoch)
	svc := newService(t, kv.NewMemory(), clock)

	for _, seconds := range []int{1, 45, 90, 3600} {
		svc.Start(seconds)
		st := svc.State()
		assert.True(t, st.Running)
		assert.Equal(t, PhaseRunning, st.Phase)
		assert.Equal(t, seconds, st.TotalSeconds)
		assert.GreaterOrEqual(t, st.RemainingSeconds, seconds-1)
		assert.LessOrEqual(t, st.RemainingSeconds, seconds)
	}
}

func TestStart_IgnoresNonPositive(t *testing.T) {
	clock := testutil.NewManualClock(epoch)
	svc := newService(t, kv.NewMemory(), clock)

	svc.Start(0)
	svc.Start(-5)
	assert.Equal(t, PhaseIdle, svc.State().Phase)
}

func TestStart_PersistsEndAndTotal(t *testing.T) {
	clock := testutil.NewManualClock(epoch)
	store := kv.NewMemory()
	svc := newService(t, store, clock)

	svc.Start(120)

	rec, ok, err := restclock.New(store).Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, epoch.Add(120*time.Second).UnixMilli(), rec.End.UnixMilli())
	assert.Equal(t, 120, rec.TotalSeconds)
}

func TestStart_ReplacesRunningCountdown(t *testing.T) {
	clock := testutil.NewManualClock(epoch)
	svc := newService(t, kv.NewMemory(), clock)

	svc.Start(300)
	clock.Advance(10 * time.Second)
	svc.Start(60)

	st := svc.State()
	assert.Equal(t, 60, st.TotalSeconds)
	assert.Equal(t, 60, st.RemainingSeconds)
}

func TestPause_FreezesAndIsIdempotent(t *testing.T) {
	clock := testutil.NewManualClock(epoch)
	store := kv.NewMemory()
	svc := newService(t, store, clock)

	svc.Start(90)
	clock.Advance(30 * time.Second)
	svc.Pause()
	first := svc.State()

	clock.Advance(20 * time.Second)
	svc.Pause()
	second := svc.State()

	assert.Equal(t, first, second)
	assert.Equal(t, PhasePaused, second.Phase)
	assert.False(t, second.Running)
	assert.Equal(t, 60, second.RemainingSeconds)
	assert.True(t, second.EndsAt.IsZero())

	_, ok, _ := store.Get(restclock.EndKey)
	assert.False(t, ok, "paused countdown must not be persisted")
}

func TestPause_WhenIdleIsNoop(t *testing.T) {
	clock := testutil.NewManualClock(epoch)
	svc := newService(t, kv.NewMemory(), clock)

	svc.Pause()
	assert.Equal(t, PhaseIdle, svc.State().Phase)
}

func TestReset_ClearsEverything(t *testing.T) {
	clock := testutil.NewManualClock(epoch)
	store := kv.NewMemory()
	svc := newService(t, store, clock)

	svc.Start(90)
	svc.Reset()

	assert.Equal(t, State{Phase: PhaseIdle}, svc.State())
	_, ok, _ := store.Get(restclock.EndKey)
	assert.False(t, ok)
	_, ok, _ = store.Get(restclock.TotalKey)
	assert.False(t, ok)

	// Unconditional.
	svc.Reset()
	assert.Equal(t, PhaseIdle, svc.State().Phase)
}

func TestInit_ResumesAfterRestart(t *testing.T) {
	clock := testutil.NewManualClock(epoch)
	store := kv.NewMemory()

	first := newService(t, store, clock)
	first.Start(100)

	clock.Advance(40 * time.Second)

	second, err := New(restclock.New(store), WithClock(clock))
	require.NoError(t, err)
	st := second.Init()

	assert.True(t, st.Running)
	assert.InDelta(t, 60, st.RemainingSeconds, 1)
	assert.Equal(t, 100, st.TotalSeconds)
}

func TestInit_DiscardsExpiredWithoutCompletion(t *testing.T) {
	clock := testutil.NewManualClock(epoch)
	store := kv.NewMemory()

	first := newService(t, store, clock)
	first.Start(100)

	clock.Advance(140 * time.Second)

	second, err := New(restclock.New(store), WithClock(clock))
	require.NoError(t, err)
	var fired atomic.Int32
	second.Subscribe(func(Completion) { fired.Add(1) })

	st := second.Init()
	second.Sample()

	assert.False(t, st.Running)
	assert.NotEqual(t, PhaseRunning, st.Phase)
	assert.Zero(t, fired.Load())
	_, ok, _ := store.Get(restclock.EndKey)
	assert.False(t, ok, "expired record should be removed")
}

func TestInit_TotalFallsBackToRemaining(t *testing.T) {
	clock := testutil.NewManualClock(epoch)
	store := kv.NewMemory()
	require.NoError(t, store.Set(restclock.EndKey, "1748802645000")) // epoch + 45s

	svc, err := New(restclock.New(store), WithClock(clock))
	require.NoError(t, err)
	st := svc.Init()

	assert.True(t, st.Running)
	assert.Equal(t, 45, st.RemainingSeconds)
	assert.Equal(t, 45, st.TotalSeconds)
}

func TestInit_MalformedSlotIsCleared(t *testing.T) {
	clock := testutil.NewManualClock(epoch)
	store := kv.NewMemory()
	require.NoError(t, store.Set(restclock.EndKey, "later"))

	svc, err := New(restclock.New(store), WithClock(clock))
	require.NoError(t, err)
	st := svc.Init()

	assert.Equal(t, PhaseIdle, st.Phase)
	_, ok, _ := store.Get(restclock.EndKey)
	assert.False(t, ok)
}

func TestSample_CompletionFiresExactlyOnce(t *testing.T) {
	clock := testutil.NewManualClock(epoch)
	store := kv.NewMemory()
	svc := newService(t, store, clock)

	var fired atomic.Int32
	var got Completion
	svc.Subscribe(func(c Completion) {
		fired.Add(1)
		got = c
	})

	svc.Start(3)
	for i := 0; i < 10; i++ {
		clock.Advance(500 * time.Millisecond)
		svc.Sample()
	}

	assert.Equal(t, int32(1), fired.Load())
	assert.Equal(t, 3, got.TotalSeconds)
	assert.True(t, got.At.Equal(epoch.Add(3*time.Second)))

	st := svc.State()
	assert.Equal(t, PhaseFinished, st.Phase)
	assert.False(t, st.Running)
	assert.Zero(t, st.RemainingSeconds)
	_, ok, _ := store.Get(restclock.EndKey)
	assert.False(t, ok)
}

func TestSample_ManyAndZeroSubscribers(t *testing.T) {
	clock := testutil.NewManualClock(epoch)
	svc := newService(t, kv.NewMemory(), clock)

	// Zero listeners.
	svc.Start(1)
	clock.Advance(2 * time.Second)
	assert.NotPanics(t, func() { svc.Sample() })

	var a, b, c atomic.Int32
	svc.Subscribe(func(Completion) { a.Add(1) })
	svc.Subscribe(func(Completion) { b.Add(1) })
	cancel := svc.Subscribe(func(Completion) { c.Add(1) })
	cancel()
	cancel()

	svc.Start(1)
	clock.Advance(2 * time.Second)
	svc.Sample()
	svc.Sample()

	assert.Equal(t, int32(1), a.Load())
	assert.Equal(t, int32(1), b.Load())
	assert.Zero(t, c.Load())
}

func TestSample_NoDriftAcrossSuspension(t *testing.T) {
	clock := testutil.NewManualClock(epoch)
	svc := newService(t, kv.NewMemory(), clock)

	svc.Start(120)
	svc.Sample()
	// No samples while "suspended".
	clock.Advance(75 * time.Second)
	st := svc.Sample()
	assert.Equal(t, 45, st.RemainingSeconds)
}

func TestSample_AdoptsCountdownFromAnotherProcess(t *testing.T) {
	clock := testutil.NewManualClock(epoch)
	store := kv.NewMemory()

	tui := newService(t, store, clock)
	cli := newService(t, store, clock)

	cli.Start(75)
	st := tui.Sample()
	assert.True(t, st.Running)
	assert.Equal(t, 75, st.TotalSeconds)

	// A later start elsewhere wins.
	clock.Advance(5 * time.Second)
	cli.Start(30)
	st = tui.Sample()
	assert.Equal(t, 30, st.RemainingSeconds)

	var fired atomic.Int32
	tui.Subscribe(func(Completion) { fired.Add(1) })
	cli.Reset()
	st = tui.Sample()
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.Zero(t, fired.Load(), "external stop must not signal completion")
}

type flakyStore struct {
	restclock.Store
	mu       sync.Mutex
	failSave bool
}

func (f *flakyStore) Save(end time.Time, total int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSave {
		return errors.New("quota exceeded")
	}
	return f.Store.Save(end, total)
}

func TestStart_StorageFailureIsNonFatal(t *testing.T) {
	clock := testutil.NewManualClock(epoch)
	store := &flakyStore{Store: *restclock.New(kv.NewMemory()), failSave: true}

	svc, err := New(store, WithClock(clock))
	require.NoError(t, err)
	svc.Init()

	svc.Start(10)
	assert.False(t, svc.Durable())

	clock.Advance(4 * time.Second)
	st := svc.Sample()
	assert.True(t, st.Running, "missing slot must not stop a memory-only countdown")
	assert.Equal(t, 6, st.RemainingSeconds)

	var fired atomic.Int32
	svc.Subscribe(func(Completion) { fired.Add(1) })
	clock.Advance(6 * time.Second)
	svc.Sample()
	assert.Equal(t, int32(1), fired.Load())
}

func TestPause_AtZeroCompletes(t *testing.T) {
	clock := testutil.NewManualClock(epoch)
	svc := newService(t, kv.NewMemory(), clock)

	var fired atomic.Int32
	svc.Subscribe(func(Completion) { fired.Add(1) })

	svc.Start(5)
	clock.Advance(5 * time.Second)
	svc.Pause()

	assert.Equal(t, PhaseFinished, svc.State().Phase)
	assert.Equal(t, int32(1), fired.Load())
}

func TestRun_SamplesUntilCancelled(t *testing.T) {
	clock := testutil.NewManualClock(epoch)
	svc, err := New(restclock.New(kv.NewMemory()), WithClock(clock), WithSampleInterval(5*time.Millisecond))
	require.NoError(t, err)
	svc.Init()

	done := make(chan Completion, 1)
	svc.Subscribe(func(c Completion) { done <- c })

	svc.Start(30)
	clock.Advance(31 * time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(stopped)
	}()

	select {
	case c := <-done:
		assert.Equal(t, 30, c.TotalSeconds)
	case <-time.After(2 * time.Second):
		t.Fatal("completion not observed")
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestState_Progress(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  float64
	}{
		{"idle", State{}, 0},
		{"start", State{TotalSeconds: 60, RemainingSeconds: 60}, 0},
		{"half", State{TotalSeconds: 60, RemainingSeconds: 30}, 0.5},
		{"done", State{TotalSeconds: 60}, 1},
		{"clamped", State{TotalSeconds: 10, RemainingSeconds: 20}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.state.Progress(), 1e-9)
		})
	}
}
