// Package fsm implements a small guarded state machine. Transitions are
// driven externally by sending events; an event that has no transition out
// of the current state is rejected without side effects, which gives
// callers compare-and-swap semantics on the machine's state.
package fsm

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrEventRejected is the error returned when the state machine
	// cannot process an event in the state that it is in.
	ErrEventRejected = errors.New("event rejected")
)

// StateType represents an extensible state type in the state machine.
type StateType string

// EventType represents an extensible event type in the state machine.
type EventType string

// Transitions represents a mapping of events and states.
type Transitions map[EventType]StateType

// State binds a state with the set of events it can handle.
type State struct {
	// EntryFunc is a function that is called when the state is entered.
	EntryFunc func()

	// Transitions is a mapping of events and states.
	Transitions Transitions
}

// States represents a mapping of states and their implementations.
type States map[StateType]State

// Notification represents a notification sent to the state machine's
// observers.
type Notification struct {
	// PreviousState is the state the state machine was in before the
	// event was processed.
	PreviousState StateType

	// NextState is the state the state machine is in after the event was
	// processed.
	NextState StateType

	// Event is the event that was processed.
	Event EventType
}

// Observer is an interface that can be implemented by types that want to
// observe the state machine.
type Observer interface {
	Notify(Notification)
}

// Machine represents the state machine.
type Machine struct {
	// mutex ensures that only 1 event is processed by the state machine
	// at any given time.
	mutex sync.Mutex

	states  States
	current StateType

	// observers is a slice of observers that are notified when the state
	// machine transitions between states.
	observers []Observer
}

// NewMachine creates a new state machine in the given initial state.
func NewMachine(initial StateType, states States) (*Machine, error) {
	if _, ok := states[initial]; !ok {
		return nil, NewErrConfigError("initial state not found")
	}

	return &Machine{
		states:  states,
		current: initial,
	}, nil
}

// Current returns the state the machine is currently in.
func (m *Machine) Current() StateType {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.current
}

// SendEvent sends an event to the state machine. It returns
// ErrEventRejected if the event cannot be processed in the current state,
// leaving the machine untouched. Otherwise the machine transitions to the
// event's target state, observers are notified and the target state's
// entry function runs.
func (m *Machine) SendEvent(event EventType) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	state, ok := m.states[m.current]
	if !ok {
		return NewErrConfigError("current state not found")
	}

	next, ok := state.Transitions[event]
	if !ok {
		return fmt.Errorf("%w: event %v in state %v",
			ErrEventRejected, event, m.current)
	}

	nextState, ok := m.states[next]
	if !ok {
		return NewErrConfigError("next state not found")
	}

	notification := Notification{
		PreviousState: m.current,
		NextState:     next,
		Event:         event,
	}
	m.current = next

	log.Tracef("State transition %v -> %v on %v",
		notification.PreviousState, next, event)

	for _, observer := range m.observers {
		observer.Notify(notification)
	}

	if nextState.EntryFunc != nil {
		nextState.EntryFunc()
	}

	return nil
}

// RegisterObserver registers an observer with the state machine.
func (m *Machine) RegisterObserver(observer Observer) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if observer != nil {
		m.observers = append(m.observers, observer)
	}
}

// ErrConfigError is an error returned when the state machine is
// misconfigured.
type ErrConfigError error

// NewErrConfigError creates a new ErrConfigError.
func NewErrConfigError(msg string) ErrConfigError {
	return (ErrConfigError)(fmt.Errorf("config error: %s", msg))
}
