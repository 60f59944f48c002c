package workflow

import (
	"fmt"
	"strings"
)

// State represents a transaction status in the approval lifecycle
type State string

const (
	StatePendingOnSociety        State = "pending_on_society"
	StatePendingOnAgent          State = "pending_on_agent"
	StatePendingForClarification State = "pending_for_clarification"
	StateCompleted               State = "completed"
)

// InitialState is the status every new transaction starts in
const InitialState = StatePendingOnSociety

var validStates = map[State]bool{
	StatePendingOnSociety:        true,
	StatePendingOnAgent:          true,
	StatePendingForClarification: true,
	StateCompleted:               true,
}

var terminalStates = map[State]bool{
	StateCompleted: true,
}

// AllStates returns the four statuses in workflow order
func AllStates() []State {
	return []State{
		StatePendingOnSociety,
		StatePendingOnAgent,
		StatePendingForClarification,
		StateCompleted,
	}
}

// IsTerminal returns true if no handler moves the transaction on from this state.
// Admins and assigned agents can still write an earlier state explicitly.
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is one of the four workflow statuses
func (s State) IsValid() bool {
	return validStates[s]
}

// Label renders the status for humans, e.g. "PENDING ON AGENT"
func (s State) Label() string {
	return strings.ToUpper(strings.ReplaceAll(string(s), "_", " "))
}

// ParseState converts raw input into a State. Unknown values are rejected, never coerced.
func ParseState(raw string) (State, error) {
	s := State(strings.TrimSpace(raw))
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidState, raw)
	}
	return s, nil
}
