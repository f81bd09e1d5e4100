package optimistic

import "github.com/five82/spotter/internal/workout"

// MutationSnapshot is a value copy of the set sequence taken immediately
// before a mutation was applied. It travels with the remote call and is
// only read when that call fails.
type MutationSnapshot struct {
	sets []workout.Set
}

func capture(sets []workout.Set) MutationSnapshot {
	dup := make([]workout.Set, len(sets))
	copy(dup, sets)
	return MutationSnapshot{sets: dup}
}

// Sets returns a copy of the captured sequence.
func (m MutationSnapshot) Sets() []workout.Set {
	dup := make([]workout.Set, len(m.sets))
	copy(dup, m.sets)
	return dup
}

// Find returns the captured entity with id and its position.
func (m MutationSnapshot) Find(id int64) (workout.Set, int, bool) {
	i := indexOf(m.sets, id)
	if i < 0 {
		return workout.Set{}, -1, false
	}
	return m.sets[i], i, true
}

// restore puts the entity id in sets back to its captured value. An entity
// absent from the snapshot is removed; one missing from sets is reinserted
// at its captured position.
func (m MutationSnapshot) restore(sets []workout.Set, id int64) []workout.Set {
	prev, prevIdx, inSnap := m.Find(id)
	cur := indexOf(sets, id)

	switch {
	case !inSnap && cur >= 0:
		sets = append(sets[:cur], sets[cur+1:]...)
	case inSnap && cur >= 0:
		sets[cur] = prev
	case inSnap:
		at := min(prevIdx, len(sets))
		sets = append(sets, workout.Set{})
		copy(sets[at+1:], sets[at:])
		sets[at] = prev
	}
	return sets
}

func indexOf(sets []workout.Set, id int64) int {
	for i, s := range sets {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func reindex(sets []workout.Set) []workout.Set {
	for i := range sets {
		sets[i].Index = i
	}
	return sets
}

func allCompleted(sets []workout.Set) bool {
	for _, s := range sets {
		if !s.Completed {
			return false
		}
	}
	return true
}
