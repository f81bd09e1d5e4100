package timer

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Machine state ids. They stay untyped so they convert to statekit.StateID.
const (
	stateIdle     = "idle"
	stateRunning  = "running"
	statePaused   = "paused"
	stateFinished = "finished"
)

const (
	eventStart  = "start"
	eventPause  = "pause"
	eventReset  = "reset"
	eventExpire = "expire"
)

type lifecycleContext struct{}

// lifecycle wraps the countdown state machine. It is not safe for
// concurrent use; Service serializes access.
type lifecycle struct {
	interpreter *statekit.Interpreter[lifecycleContext]
}

func newLifecycle() (*lifecycle, error) {
	builder := statekit.NewMachine[lifecycleContext]("rest-timer").
		WithInitial(statekit.StateID(stateIdle)).
		WithContext(lifecycleContext{})

	builder.State(stateIdle).
		On(eventStart).Target(stateRunning).
		Done()

	builder.State(stateRunning).
		On(eventPause).Target(statePaused).
		On(eventExpire).Target(stateFinished).
		On(eventReset).Target(stateIdle).
		Done()

	builder.State(statePaused).
		On(eventStart).Target(stateRunning).
		On(eventReset).Target(stateIdle).
		Done()

	builder.State(stateFinished).
		On(eventStart).Target(stateRunning).
		On(eventReset).Target(stateIdle).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("build rest timer machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()
	return &lifecycle{interpreter: interpreter}, nil
}

func (l *lifecycle) phase() Phase {
	return Phase(l.interpreter.State().Value)
}

func (l *lifecycle) send(event string) {
	l.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
}

// start moves to running from any phase. A running countdown is reset
// first so the new one replaces it.
func (l *lifecycle) start() {
	if l.phase() == PhaseRunning {
		l.send(eventReset)
	}
	l.send(eventStart)
}

// reset moves to idle from any phase.
func (l *lifecycle) reset() {
	if l.phase() != PhaseIdle {
		l.send(eventReset)
	}
}
