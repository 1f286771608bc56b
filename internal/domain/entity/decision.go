package entity

import "time"

// RuleResult is the outcome of a single deterministic policy rule. Every
// configured rule is evaluated and reported; there is no short-circuiting,
// because the full table feeds both the audit trail and the reasoning prompt.
type RuleResult struct {
	RuleID   string `json:"rule_id"`
	Result   string `json:"result"` // RulePass or RuleFail
	Evidence string `json:"evidence"`
}

// Passed reports whether the rule evaluated to a pass.
func (r RuleResult) Passed() bool {
	return r.Result == RulePass
}

// Decision is the final output of the decision pipeline for one validation
// run. It is computed once, attached to the claim's audit payload, and never
// mutated; re-validation replaces it with a new Decision.
type Decision struct {
	ClaimID        string       `json:"claim_id"`
	Recommendation string       `json:"recommendation"`
	Confidence     float64      `json:"confidence"`
	Reasoning      string       `json:"reasoning"`
	RuleResults    []RuleResult `json:"rule_results"`
	FallbackUsed   bool         `json:"fallback_used"`
	EvaluatedAt    time.Time    `json:"evaluated_at"`
}

// AllRulesPassed reports whether every evaluated rule passed.
func AllRulesPassed(results []RuleResult) bool {
	for _, r := range results {
		if !r.Passed() {
			return false
		}
	}
	return true
}

// DuplicateMatch describes an existing claim that collides with an incoming
// one on (employee, amount, claim date).
type DuplicateMatch struct {
	ClaimID        string  `json:"claim_id"`
	ClaimNumber    string  `json:"claim_number"`
	Amount         float64 `json:"amount"`
	ClaimDate      string  `json:"claim_date"`
	TransactionRef string  `json:"transaction_ref"`
	Status         string  `json:"status"`
	SubmittedOn    string  `json:"submitted_on"`
}

// ScoreFactor is one weighted component of the advisory confidence score.
type ScoreFactor struct {
	Score   float64 `json:"score"`
	Weight  float64 `json:"weight"`
	Message string  `json:"message"`
}
