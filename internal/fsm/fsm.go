// Package fsm wraps looplab/fsm with typed states and events, and defines the
// server lifecycle machine.
// file: internal/fsm/fsm.go
package fsm

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/headlines/internal/logging"
	lfsm "github.com/looplab/fsm"
)

// State represents a state in the FSM.
type State string

// Event represents an event that can trigger a state transition.
type Event string

// TransitionAction runs after the machine has entered the destination state.
// Its error is logged; the transition is not rolled back.
type TransitionAction func(ctx context.Context, event Event, data interface{}) error

// Transition defines a transition rule between states.
type Transition struct {
	From   []State
	To     State
	Event  Event
	Action TransitionAction
}

// FSM is a finite state machine built from Transition rules.
type FSM interface {
	// AddTransition stores a transition definition. Call Build() after adding all transitions.
	AddTransition(transition Transition) FSM
	// Build creates the underlying machine.
	Build() error
	// CurrentState returns the current state. Empty before Build().
	CurrentState() State
	// CanTransition reports whether event is allowed from the current state.
	CanTransition(event Event) bool
	// Transition fires event.
	Transition(ctx context.Context, event Event, data interface{}) error
}

type actionKey struct {
	event Event
	from  State
}

// loopFSM implements FSM using looplab/fsm.
type loopFSM struct {
	initialState State
	logger       logging.Logger
	transitions  []Transition
	actions      map[actionKey]TransitionAction
	fsm          *lfsm.FSM
	buildErr     error
	mu           sync.RWMutex
}

// NewFSM creates an FSM builder starting in initialState.
func NewFSM(initialState State, logger logging.Logger) FSM {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	return &loopFSM{
		initialState: initialState,
		logger:       logger.WithField("component", "fsm"),
		actions:      make(map[actionKey]TransitionAction),
	}
}

// AddTransition stores a transition definition to be used during Build().
func (l *loopFSM) AddTransition(t Transition) FSM {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fsm != nil {
		if l.buildErr == nil {
			l.buildErr = errors.New("cannot AddTransition after Build")
		}
		return l
	}
	if len(t.From) == 0 {
		if l.buildErr == nil {
			l.buildErr = errors.Newf("transition for event %q has no source states", t.Event)
		}
		return l
	}
	l.transitions = append(l.transitions, t)
	return l
}

// Build finalizes the configuration. Calling it again is a no-op.
func (l *loopFSM) Build() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fsm != nil || l.buildErr != nil {
		return l.buildErr
	}

	var events []lfsm.EventDesc
	index := make(map[Event]int)
	entered := make(map[State]struct{})

	for _, t := range l.transitions {
		i, seen := index[t.Event]
		if !seen {
			events = append(events, lfsm.EventDesc{Name: string(t.Event), Dst: string(t.To)})
			i = len(events) - 1
			index[t.Event] = i
		} else if events[i].Dst != string(t.To) {
			l.buildErr = errors.Newf("conflicting destinations %q and %q for event %q", events[i].Dst, t.To, t.Event)
			return l.buildErr
		}
		for _, from := range t.From {
			events[i].Src = append(events[i].Src, string(from))
			if t.Action != nil {
				l.actions[actionKey{event: t.Event, from: from}] = t.Action
			}
		}
		if t.Action != nil {
			entered[t.To] = struct{}{}
		}
	}

	callbacks := make(lfsm.Callbacks, len(entered))
	for state := range entered {
		callbacks["enter_"+string(state)] = l.runAction
	}

	l.fsm = lfsm.NewFSM(string(l.initialState), events, callbacks)
	l.logger.Debug("FSM built.", "initialState", l.initialState, "events", len(events))
	return nil
}

// runAction dispatches an enter callback to the action registered for the
// event and source state that caused it.
func (l *loopFSM) runAction(ctx context.Context, e *lfsm.Event) {
	action, ok := l.actions[actionKey{event: Event(e.Event), from: State(e.Src)}]
	if !ok {
		return
	}
	var data interface{}
	if len(e.Args) > 0 {
		data = e.Args[0]
	}
	if err := action(ctx, Event(e.Event), data); err != nil {
		l.logger.Error("Transition action failed.", "event", e.Event, "from", e.Src, "to", e.Dst, "error", err)
	}
}

// CurrentState returns the current state of the FSM.
func (l *loopFSM) CurrentState() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.fsm == nil {
		return ""
	}
	return State(l.fsm.Current())
}

// CanTransition checks if event can fire from the current state.
func (l *loopFSM) CanTransition(event Event) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.fsm == nil {
		return false
	}
	return l.fsm.Can(string(event))
}

// Transition fires event, passing data to the transition's action.
func (l *loopFSM) Transition(ctx context.Context, event Event, data interface{}) error {
	l.mu.RLock()
	machine, buildErr := l.fsm, l.buildErr
	l.mu.RUnlock()
	if machine == nil {
		if buildErr != nil {
			return buildErr
		}
		return errors.New("fsm used before Build")
	}

	from := State(machine.Current())
	var args []interface{}
	if data != nil {
		args = append(args, data)
	}
	if err := machine.Event(ctx, string(event), args...); err != nil {
		l.logger.Debug("Transition rejected.", "event", event, "state", from, "error", err)
		return errors.Wrapf(err, "event %s from state %s", event, from)
	}
	l.logger.Debug("Transition succeeded.", "event", event, "from", from, "to", machine.Current())
	return nil
}
