// Package rules implements the deterministic policy checks that run before
// any reasoning fallback. Rules are evaluated independently and in a fixed
// order; the complete result table is reported even when an early rule fails,
// because the audit trail and the fallback prompt both need the full picture.
package rules

import (
	"fmt"
	"time"

	"github.com/clearclaim/claims-engine/internal/domain/entity"
	"github.com/clearclaim/claims-engine/internal/fiscal"
)

// DefaultMaxClaimAgeDays is the submission window applied when no explicit
// value is configured. Claims older than this fail the date validity rule.
const DefaultMaxClaimAgeDays = 90

// Engine evaluates the fixed rule set for a claim. It holds no mutable state
// and is safe for concurrent use.
type Engine struct {
	maxClaimAgeDays int
}

// NewEngine creates a rule engine. maxClaimAgeDays <= 0 selects the default.
func NewEngine(maxClaimAgeDays int) *Engine {
	if maxClaimAgeDays <= 0 {
		maxClaimAgeDays = DefaultMaxClaimAgeDays
	}
	return &Engine{maxClaimAgeDays: maxClaimAgeDays}
}

// Evaluate runs every applicable rule and returns the ordered result table.
// Rules whose threshold is not configured (no amount ceiling, no minimum
// tenure) are omitted entirely rather than reported as passing.
func (e *Engine) Evaluate(
	claim *entity.Claim,
	limits entity.PolicyLimits,
	tenureMonths int,
	documentCount int,
	window fiscal.Window,
	today time.Time,
) []entity.RuleResult {
	results := make([]entity.RuleResult, 0, 5)

	// Amount ceiling, category scoped.
	if limits.AmountCeiling != nil {
		ceiling := *limits.AmountCeiling
		results = append(results, entity.RuleResult{
			RuleID:   claim.Category + "_AMOUNT",
			Result:   outcome(claim.Amount <= ceiling),
			Evidence: fmt.Sprintf("%.2f <= %.2f", claim.Amount, ceiling),
		})
	}

	// Minimum tenure, category scoped.
	if limits.MinTenureMonths != nil {
		min := *limits.MinTenureMonths
		results = append(results, entity.RuleResult{
			RuleID:   claim.Category + "_TENURE",
			Result:   outcome(tenureMonths >= min),
			Evidence: fmt.Sprintf("%d months >= %d months", tenureMonths, min),
		})
	}

	// Document completeness, always evaluated. The required count may be zero.
	results = append(results, entity.RuleResult{
		RuleID:   claim.Category + "_DOCS",
		Result:   outcome(documentCount >= limits.MinDocuments),
		Evidence: fmt.Sprintf("%d documents uploaded, %d required", documentCount, limits.MinDocuments),
	})

	// Claim age, global.
	results = append(results, e.dateValidity(claim, today))

	// Fiscal year membership, global.
	results = append(results, financialYear(claim, window))

	return results
}

func (e *Engine) dateValidity(claim *entity.Claim, today time.Time) entity.RuleResult {
	if claim.ClaimDate == nil {
		return entity.RuleResult{
			RuleID:   "DATE_VALIDITY",
			Result:   entity.RuleFail,
			Evidence: "Claim date is missing",
		}
	}

	daysOld := int(today.Sub(*claim.ClaimDate).Hours() / 24)
	return entity.RuleResult{
		RuleID:   "DATE_VALIDITY",
		Result:   outcome(daysOld <= e.maxClaimAgeDays),
		Evidence: fmt.Sprintf("Claim is %d days old, max allowed: %d", daysOld, e.maxClaimAgeDays),
	}
}

func financialYear(claim *entity.Claim, window fiscal.Window) entity.RuleResult {
	if claim.ClaimDate == nil {
		return entity.RuleResult{
			RuleID:   "FINANCIAL_YEAR",
			Result:   entity.RuleFail,
			Evidence: "Claim date is missing",
		}
	}

	claimDay := claim.ClaimDate.Format("2006-01-02")
	if window.Contains(*claim.ClaimDate) {
		return entity.RuleResult{
			RuleID:   "FINANCIAL_YEAR",
			Result:   entity.RulePass,
			Evidence: fmt.Sprintf("Claim date %s is within current %s", claimDay, window),
		}
	}
	return entity.RuleResult{
		RuleID:   "FINANCIAL_YEAR",
		Result:   entity.RuleFail,
		Evidence: fmt.Sprintf("Claim date %s is outside current %s", claimDay, window),
	}
}

func outcome(pass bool) string {
	if pass {
		return entity.RulePass
	}
	return entity.RuleFail
}

// TenureMonths returns whole months between joining date and today, counting
// year and month boundaries only. Joined Jan 15, evaluated Mar 1 is 2 months.
// A missing joining date counts as zero tenure.
func TenureMonths(dateOfJoining *time.Time, today time.Time) int {
	if dateOfJoining == nil {
		return 0
	}
	months := (today.Year()-dateOfJoining.Year())*12 + int(today.Month()) - int(dateOfJoining.Month())
	if months < 0 {
		return 0
	}
	return months
}
