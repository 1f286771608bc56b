package lifecycle

// Trigger represents an event that can cause a status transition
type Trigger string

const (
	TriggerSubmit      Trigger = "SUBMIT"
	TriggerStartReview Trigger = "START_REVIEW"
	TriggerAutoApprove Trigger = "AUTO_APPROVE"
	TriggerApprove     Trigger = "APPROVE"
	TriggerReject      Trigger = "REJECT"
	TriggerResubmit    Trigger = "RESUBMIT"
	TriggerPay         Trigger = "PAY"
)
