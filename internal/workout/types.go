package workout

// Session mirrors GET /api/sessions/{workout_id}: the workout day and the
// exercise the session currently points at.
type Session struct {
	ExerciseIndex int        `json:"exercise_index"`
	WorkoutDay    WorkoutDay `json:"workout_day"`
	Exercise      Exercise   `json:"exercise"`
}

// WorkoutDay is one training day of a program.
type WorkoutDay struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Completed bool       `json:"completed"`
	Exercises []Exercise `json:"exercises"`
}

// Exercise is one exercise of a workout day with its tracked sets.
type Exercise struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	URL           string `json:"url"`
	RestInSeconds int    `json:"rest_in_seconds"`
	Sets          []Set  `json:"sets"`
}

// CompletedSets counts completed sets.
func (e Exercise) CompletedSets() int {
	n := 0
	for _, s := range e.Sets {
		if s.Completed {
			n++
		}
	}
	return n
}

// Set is a tracked set. Reps/Weight/Minutes/Meters are the planned targets,
// the Fact fields what was actually performed. Index is the display
// position and is not an identity; ID is.
type Set struct {
	ID          int64   `json:"id"`
	Reps        int     `json:"reps"`
	Weight      float64 `json:"weight"`
	Minutes     int     `json:"minutes"`
	Meters      int     `json:"meters"`
	FactReps    int     `json:"fact_reps"`
	FactWeight  float64 `json:"fact_weight"`
	FactMinutes int     `json:"fact_minutes"`
	FactMeters  int     `json:"fact_meters"`
	Completed   bool    `json:"completed"`
	Index       int     `json:"index"`
}

// Facts are performed values sent to PUT /api/sets/{id}.
type Facts struct {
	Reps    int     `json:"fact_reps"`
	Weight  float64 `json:"fact_weight"`
	Minutes int     `json:"fact_minutes"`
	Meters  int     `json:"fact_meters"`
}

// Facts returns the recorded performed values.
func (s Set) Facts() Facts {
	return Facts{Reps: s.FactReps, Weight: s.FactWeight, Minutes: s.FactMinutes, Meters: s.FactMeters}
}

// EffectiveFacts returns each performed value, falling back to the planned
// value where nothing was recorded.
func (s Set) EffectiveFacts() Facts {
	return Facts{
		Reps:    pick(s.FactReps, s.Reps),
		Weight:  pick(s.FactWeight, s.Weight),
		Minutes: pick(s.FactMinutes, s.Minutes),
		Meters:  pick(s.FactMeters, s.Meters),
	}
}

// WithFacts returns a copy of s carrying f as its performed values.
func (s Set) WithFacts(f Facts) Set {
	s.FactReps = f.Reps
	s.FactWeight = f.Weight
	s.FactMinutes = f.Minutes
	s.FactMeters = f.Meters
	return s
}

func pick[T int | float64](fact, planned T) T {
	if fact > 0 {
		return fact
	}
	return planned
}

type moveRequest struct {
	Next bool `json:"next"`
}
