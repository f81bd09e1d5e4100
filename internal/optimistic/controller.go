package optimistic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/five82/spotter/internal/state"
	"github.com/five82/spotter/internal/workout"
)

// FailureNotice is raised when a remote call is rejected and the change has
// been reverted.
const FailureNotice = "Server error, change reverted"

// Kind names a mutation.
type Kind string

const (
	KindAdd    Kind = "add"
	KindDelete Kind = "delete"
	KindToggle Kind = "toggle"
	KindEdit   Kind = "edit"
)

// Remote is the server surface the controller talks to.
type Remote interface {
	workout.SetsAPI
	// ReloadSets fetches the authoritative sets of an exercise.
	ReloadSets(ctx context.Context, exerciseID int64) ([]workout.Set, error)
}

// Cache holds the set sequence the UI renders. *state.Store implements it.
type Cache interface {
	Sets() []workout.Set
	ReplaceSets(sets []workout.Set)
}

var _ Cache = (*state.Store)(nil)

// RestTimer starts the rest countdown. *timer.Service implements it.
type RestTimer interface {
	Start(seconds int)
}

// Options configures a Controller. All fields are optional.
type Options struct {
	Timer RestTimer
	// OnAllCompleted runs when completing a set leaves no incomplete set.
	OnAllCompleted func()
	// Notify shows a transient message to the user.
	Notify func(message string)
	Logger *slog.Logger
}

type operation struct {
	id         string
	kind       Kind
	setID      int64
	generation uint64
	snapshot   MutationSnapshot
	// call performs the remote request. Adds return the reloaded sets.
	call func(ctx context.Context) ([]workout.Set, error)
}

// lane serializes the remote calls of one set id. ops[0] is in flight.
type lane struct {
	key int64
	ops []*operation
}

// Controller applies set mutations to the cache immediately and confirms
// them with the server in the background, restoring the affected entity
// when the server rejects a change.
type Controller struct {
	mu     sync.Mutex
	cache  Cache
	remote Remote
	opts   Options
	logger *slog.Logger
	wg     sync.WaitGroup

	exerciseID  int64
	restSeconds int
	generation  uint64
	nextTemp    int64
	lanes       map[int64]*lane
}

// New builds a controller over cache and remote.
func New(cache Cache, remote Remote, opts Options) (*Controller, error) {
	if cache == nil || remote == nil {
		return nil, errors.New("optimistic: cache and remote are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		cache:  cache,
		remote: remote,
		opts:   opts,
		logger: logger,
		lanes:  make(map[int64]*lane),
	}, nil
}

// Load switches to exercise and replaces the cache with its sets. Calls
// still in flight for the previous load no longer touch the cache, but
// their lanes are kept so a set id never has two calls running at once.
func (c *Controller) Load(exercise workout.Exercise) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.exerciseID = exercise.ID
	c.restSeconds = exercise.RestInSeconds

	sets := make([]workout.Set, len(exercise.Sets))
	copy(sets, exercise.Sets)
	c.cache.ReplaceSets(reindex(sets))
}

// Add appends a new set whose planned values are taken from the last set.
// It returns the temporary id, or 0 when no exercise is loaded.
func (c *Controller) Add() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.exerciseID <= 0 {
		return 0
	}
	sets := c.cache.Sets()
	snap := capture(sets)

	c.nextTemp--
	tempID := c.nextTemp
	added := workout.Set{ID: tempID}
	if n := len(sets); n > 0 {
		last := sets[n-1].EffectiveFacts()
		added.Reps = last.Reps
		added.Weight = last.Weight
		added.Minutes = last.Minutes
		added.Meters = last.Meters
	}
	c.cache.ReplaceSets(reindex(append(sets, added)))

	exerciseID := c.exerciseID
	c.enqueueLocked(&operation{
		kind:     KindAdd,
		setID:    tempID,
		snapshot: snap,
		call: func(ctx context.Context) ([]workout.Set, error) {
			if err := c.remote.AddSet(ctx, exerciseID); err != nil {
				return nil, err
			}
			fresh, err := c.remote.ReloadSets(ctx, exerciseID)
			if err != nil {
				return nil, fmt.Errorf("reload sets: %w", err)
			}
			return fresh, nil
		},
	})
	return tempID
}

// Delete removes the set with id.
func (c *Controller) Delete(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sets := c.cache.Sets()
	i := indexOf(sets, id)
	if id <= 0 || i < 0 {
		return
	}
	snap := capture(sets)
	sets = append(sets[:i], sets[i+1:]...)
	c.cache.ReplaceSets(reindex(sets))

	c.enqueueLocked(&operation{
		kind:     KindDelete,
		setID:    id,
		snapshot: snap,
		call: func(ctx context.Context) ([]workout.Set, error) {
			return nil, c.remote.DeleteSet(ctx, id)
		},
	})
}

// Edit records performed values for the set with id.
func (c *Controller) Edit(id int64, facts workout.Facts) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editLocked(id, facts)
}

// ToggleComplete flips the completed flag of the set with id. Completing a
// set also records its performed values (falling back to the planned ones),
// reports a fully completed exercise and starts the rest countdown.
func (c *Controller) ToggleComplete(id int64) {
	c.mu.Lock()

	sets := c.cache.Sets()
	i := indexOf(sets, id)
	if id <= 0 || i < 0 {
		c.mu.Unlock()
		return
	}
	snap := capture(sets)
	completing := !sets[i].Completed
	sets[i].Completed = completing
	c.cache.ReplaceSets(reindex(sets))

	c.enqueueLocked(&operation{
		kind:     KindToggle,
		setID:    id,
		snapshot: snap,
		call: func(ctx context.Context) ([]workout.Set, error) {
			return nil, c.remote.ToggleSetComplete(ctx, id)
		},
	})

	if !completing {
		c.mu.Unlock()
		return
	}

	c.editLocked(id, sets[i].EffectiveFacts())
	done := allCompleted(c.cache.Sets())
	rest := c.restSeconds
	c.mu.Unlock()

	if done && c.opts.OnAllCompleted != nil {
		c.opts.OnAllCompleted()
	}
	if c.opts.Timer != nil {
		c.opts.Timer.Start(rest)
	}
}

// Pending reports whether remote calls for id are queued or in flight.
func (c *Controller) Pending(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.lanes[id]
	return ok
}

// Wait blocks until every queued remote call has finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) editLocked(id int64, facts workout.Facts) {
	sets := c.cache.Sets()
	i := indexOf(sets, id)
	if id <= 0 || i < 0 {
		return
	}
	snap := capture(sets)
	sets[i] = sets[i].WithFacts(facts)
	c.cache.ReplaceSets(reindex(sets))

	c.enqueueLocked(&operation{
		kind:     KindEdit,
		setID:    id,
		snapshot: snap,
		call: func(ctx context.Context) ([]workout.Set, error) {
			return nil, c.remote.ChangeSet(ctx, id, facts)
		},
	})
}

func (c *Controller) enqueueLocked(op *operation) {
	op.id = uuid.NewString()
	op.generation = c.generation

	if l, ok := c.lanes[op.setID]; ok {
		l.ops = append(l.ops, op)
		return
	}
	l := &lane{key: op.setID, ops: []*operation{op}}
	c.lanes[op.setID] = l
	c.wg.Add(1)
	go c.drain(l)
}

func (c *Controller) drain(l *lane) {
	defer c.wg.Done()

	for {
		c.mu.Lock()
		op := l.ops[0]
		c.mu.Unlock()

		fresh, err := op.call(context.Background())

		c.mu.Lock()
		notify := false
		if err != nil {
			notify = c.failLocked(l, op, err)
		} else {
			c.succeedLocked(op, fresh)
			l.ops = l.ops[1:]
		}
		empty := len(l.ops) == 0
		if empty && c.lanes[l.key] == l {
			delete(c.lanes, l.key)
		}
		c.mu.Unlock()

		if notify && c.opts.Notify != nil {
			c.opts.Notify(FailureNotice)
		}
		if empty {
			return
		}
	}
}

func (c *Controller) succeedLocked(op *operation, fresh []workout.Set) {
	c.logger.Debug("mutation confirmed", "op_id", op.id, "kind", op.kind, "set_id", op.setID)
	if op.kind != KindAdd || op.generation != c.generation {
		return
	}
	c.cache.ReplaceSets(c.reconcileLocked(fresh, op.setID))
}

// failLocked restores the entity from op's snapshot and drops the calls
// of the same load queued behind it. Calls queued after a later Load were
// built on fresh server data and stay. It reports whether the user should
// be told.
func (c *Controller) failLocked(l *lane, op *operation, err error) bool {
	kept := l.ops[:0]
	for _, queued := range l.ops[1:] {
		if queued.generation != op.generation {
			kept = append(kept, queued)
		}
	}
	dropped := len(l.ops) - 1 - len(kept)
	l.ops = kept

	c.logger.Warn("mutation rejected, reverting",
		"op_id", op.id,
		"kind", op.kind,
		"set_id", op.setID,
		"dropped", dropped,
		"error", err,
	)
	if op.generation != c.generation {
		return false
	}
	sets := op.snapshot.restore(c.cache.Sets(), op.setID)
	c.cache.ReplaceSets(reindex(sets))
	return true
}

// reconcileLocked merges the server list into the cache after an add.
// Entities with calls still pending keep their local value, or stay absent
// when deleted locally, and other pending temporary entries stay appended.
func (c *Controller) reconcileLocked(fresh []workout.Set, superseded int64) []workout.Set {
	local := c.cache.Sets()
	busy := func(id int64) bool {
		_, ok := c.lanes[id]
		return ok && id != superseded
	}

	out := make([]workout.Set, 0, len(fresh)+1)
	for _, s := range fresh {
		if busy(s.ID) {
			if i := indexOf(local, s.ID); i >= 0 {
				out = append(out, local[i])
			}
			continue
		}
		out = append(out, s)
	}
	for _, s := range local {
		if s.ID < 0 && busy(s.ID) {
			out = append(out, s)
		}
	}
	return reindex(out)
}
