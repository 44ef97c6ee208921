package shared

import "fmt"

// StateMachine is a transition table shared by every code path that changes
// an aggregate's status.
type StateMachine[S ~string] struct {
	name        string
	transitions map[S][]S
}

// NewStateMachine builds a machine from an adjacency list. States with no
// outgoing edges are terminal.
func NewStateMachine[S ~string](name string, transitions map[S][]S) *StateMachine[S] {
	return &StateMachine[S]{name: name, transitions: transitions}
}

// Knows reports whether s is a state of this machine
func (m *StateMachine[S]) Knows(s S) bool {
	_, ok := m.transitions[s]
	return ok
}

// CanTransition reports whether from→to is allowed
func (m *StateMachine[S]) CanTransition(from, to S) bool {
	for _, next := range m.transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s
func (m *StateMachine[S]) IsTerminal(s S) bool {
	return len(m.transitions[s]) == 0
}

// Allowed returns the states reachable from s in one step
func (m *StateMachine[S]) Allowed(from S) []S {
	out := make([]S, len(m.transitions[from]))
	copy(out, m.transitions[from])
	return out
}

// Transition validates from→to and returns the target state
func (m *StateMachine[S]) Transition(from, to S) (S, error) {
	if !m.Knows(to) {
		return from, NewValidationError("INVALID_STATUS", fmt.Sprintf("Unknown %s status: %s", m.name, to)).
			WithField("status", "unknown status")
	}
	if m.IsTerminal(from) {
		return from, NewValidationError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot change %s status: %s is a final status", m.name, from)).
			WithField("status", "final status")
	}
	if !m.CanTransition(from, to) {
		return from, NewValidationError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot change %s status from %s to %s", m.name, from, to)).
			WithField("status", fmt.Sprintf("allowed: %v", m.Allowed(from)))
	}
	return to, nil
}
