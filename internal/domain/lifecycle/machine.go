package lifecycle

import "context"

// StateMachine tracks the current status and validates transitions
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger is permitted in the current state
	CanFire(trigger Trigger) bool

	// Fire attempts to execute the trigger, transitioning to the new state if allowed
	Fire(ctx context.Context, trigger Trigger) error

	// PermittedTriggers returns all triggers that can be fired in the current state
	PermittedTriggers() []Trigger
}

// ForClaim builds the claim status machine starting from the given status.
// Auto-approval skips the review stage; everything else routes through
// IN_REVIEW before a human settles it.
func ForClaim(current State) StateMachine {
	b := NewBuilder()

	b.Configure(StateDraft).
		Permit(TriggerSubmit, StateSubmitted)

	b.Configure(StateSubmitted).
		Permit(TriggerStartReview, StateInReview).
		Permit(TriggerAutoApprove, StateApproved)

	b.Configure(StateInReview).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerReject, StateRejected)

	b.Configure(StateApproved).
		Permit(TriggerPay, StatePaid)

	b.Configure(StateRejected).
		Permit(TriggerResubmit, StateSubmitted)

	return b.Build(current)
}
