// file: internal/fsm/lifecycle.go
package fsm

import "github.com/dkoosis/headlines/internal/logging"

// Server lifecycle states.
const (
	StateIdle     State = "idle"
	StateStarting State = "starting"
	StateServing  State = "serving"
	StateDraining State = "draining"
	StateStopped  State = "stopped"
)

// Server lifecycle events.
const (
	EventStart Event = "start"
	EventReady Event = "ready"
	EventDrain Event = "drain"
	EventStop  Event = "stop"
	EventFail  Event = "fail"
)

// LifecycleTransitions are the rules of the server lifecycle:
// idle -> starting -> serving -> draining -> stopped, with fail reaching
// stopped from any live state.
func LifecycleTransitions() []Transition {
	return []Transition{
		{From: []State{StateIdle}, Event: EventStart, To: StateStarting},
		{From: []State{StateStarting}, Event: EventReady, To: StateServing},
		{From: []State{StateStarting, StateServing}, Event: EventDrain, To: StateDraining},
		{From: []State{StateIdle, StateDraining}, Event: EventStop, To: StateStopped},
		{From: []State{StateIdle, StateStarting, StateServing, StateDraining}, Event: EventFail, To: StateStopped},
	}
}

// NewLifecycle builds a lifecycle machine in StateIdle. extra transitions,
// typically carrying actions, are added after the standard rules and must
// agree with their destinations.
func NewLifecycle(logger logging.Logger, extra ...Transition) (FSM, error) {
	m := NewFSM(StateIdle, logger)
	for _, t := range LifecycleTransitions() {
		m.AddTransition(t)
	}
	for _, t := range extra {
		m.AddTransition(t)
	}
	if err := m.Build(); err != nil {
		return nil, err
	}
	return m, nil
}
