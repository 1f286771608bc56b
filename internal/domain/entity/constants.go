package entity

// Claim type constants
const (
	ClaimTypeReimbursement = "REIMBURSEMENT"
	ClaimTypeAllowance     = "ALLOWANCE"
)

// Claim status constants
const (
	ClaimStatusDraft     = "DRAFT"
	ClaimStatusSubmitted = "SUBMITTED"
	ClaimStatusInReview  = "IN_REVIEW"
	ClaimStatusApproved  = "APPROVED"
	ClaimStatusRejected  = "REJECTED"
	ClaimStatusPaid      = "PAID"
)

// Rule outcome constants
const (
	RulePass = "pass"
	RuleFail = "fail"
)

// Recommendation constants for Decision
const (
	RecommendAutoApprove = "AUTO_APPROVE"
	RecommendApprove     = "APPROVE"
	RecommendReview      = "REVIEW"
	RecommendReject      = "REJECT"
)

// Duplicate match type constants
const (
	MatchExact   = "exact"
	MatchPartial = "partial"
)
