package auth

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidTransition is returned when the state machine is driven out of order.
var ErrInvalidTransition = errors.New("invalid authentication state transition")

// State is the state of one authentication attempt.
type State int

// Authentication states. Every state except StatePending is terminal.
const (
	StatePending State = iota
	StateCodeSentNewUser
	StateCodeSentRegisteredUser
	StateAwaitingActivation
	StateFailed
	StateSucceeded
)

var stateNames = map[State]string{
	StatePending:                "pending",
	StateCodeSentNewUser:        "code-sent-new-user",
	StateCodeSentRegisteredUser: "code-sent-registered-user",
	StateAwaitingActivation:     "awaiting-activation",
	StateFailed:                 "failed",
	StateSucceeded:              "succeeded",
}

var transitions = map[State][]State{
	StatePending: {
		StateCodeSentNewUser,
		StateCodeSentRegisteredUser,
		StateAwaitingActivation,
		StateFailed,
		StateSucceeded,
	},
}

// String returns the state name.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransition reports whether s may move to next.
func (s State) CanTransition(next State) bool {
	return slices.Contains(transitions[s], next)
}

// machine holds the state of a single attempt.
type machine struct {
	state State
}

func (m *machine) transition(next State) error {
	if !m.state.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, next)
	}
	m.state = next
	return nil
}
