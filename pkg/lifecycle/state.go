// Package lifecycle defines the per-instance lifecycle state machine and the
// events emitted while an instance is constructed and destroyed.
package lifecycle

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when a state change would move
	// backwards or skip a state.
	ErrInvalidTransition = errors.New("invalid lifecycle transition")

	// ErrDoubleDestroy is returned when destruction is requested on an
	// instance that is already being or has been destroyed.
	ErrDoubleDestroy = errors.New("instance already destroyed")
)

// State is the lifecycle state of an instance.
type State int

const (
	Created State = iota
	Initializing
	Active
	Destroying
	Destroyed
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Initializing:
		return "initializing"
	case Active:
		return "active"
	case Destroying:
		return "destroying"
	case Destroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// transitions lists the allowed forward edges. Initializing may go straight
// to Destroying so a partially constructed instance can be torn down, and
// Created may go straight to Destroyed when construction never started.
var transitions = map[State][]State{
	Created:      {Initializing, Destroyed},
	Initializing: {Active, Destroying},
	Active:       {Destroying},
	Destroying:   {Destroyed},
}

// Machine tracks the lifecycle state of a single instance.
// The zero value is in the Created state.
type Machine struct {
	state State
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// CanTransition reports whether moving to next is allowed.
func (m *Machine) CanTransition(next State) bool {
	for _, allowed := range transitions[m.state] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transition moves to next, returning the previous state.
func (m *Machine) Transition(next State) (State, error) {
	prev := m.state
	if !m.CanTransition(next) {
		return prev, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, prev, next)
	}
	m.state = next
	return prev, nil
}

// BeginDestroy moves to Destroying, reporting ErrDoubleDestroy when
// destruction has already started.
func (m *Machine) BeginDestroy() (State, error) {
	if m.state == Destroying || m.state == Destroyed {
		return m.state, fmt.Errorf("%w (state %s)", ErrDoubleDestroy, m.state)
	}
	return m.Transition(Destroying)
}

// Alive reports whether the instance has not started tearing down.
func (m *Machine) Alive() bool {
	return m.state < Destroying
}
