// Package lifecycle models the claim status state machine. Status changes go
// through a machine built by ForClaim so an invalid transition is impossible
// to persist by construction.
package lifecycle

// State represents a claim status in the approval lifecycle
type State string

const (
	StateDraft     State = "DRAFT"
	StateSubmitted State = "SUBMITTED"
	StateInReview  State = "IN_REVIEW"
	StateApproved  State = "APPROVED"
	StateRejected  State = "REJECTED"
	StatePaid      State = "PAID"
)

var validStates = map[State]bool{
	StateDraft:     true,
	StateSubmitted: true,
	StateInReview:  true,
	StateApproved:  true,
	StateRejected:  true,
	StatePaid:      true,
}

// Rejection is recoverable (a claim can be resubmitted); payment is not.
var terminalStates = map[State]bool{
	StatePaid: true,
}

// IsTerminal returns true if no further transitions are allowed from the state
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid claim status
func (s State) IsValid() bool {
	return validStates[s]
}
