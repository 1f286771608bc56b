// Package duplicate flags claims that collide with existing submissions on
// (employee, amount, claim date). Duplicates are advisory: they lower the
// confidence score and surface in the UI but never block submission, so the
// detector fails open when the claim store is unavailable.
package duplicate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/clearclaim/claims-engine/internal/application/port"
	"github.com/clearclaim/claims-engine/internal/domain/entity"
	"github.com/clearclaim/claims-engine/pkg/utils"
)

// Params identifies the incoming claim being checked.
type Params struct {
	EmployeeID     string
	TenantID       string
	Amount         float64
	ClaimDate      time.Time
	TransactionRef string
	// ExcludeClaimID removes the claim's own row during update-time re-checks.
	ExcludeClaimID string
}

// Result is the outcome of a single duplicate check.
type Result struct {
	IsDuplicate bool                    `json:"is_duplicate"`
	MatchType   string                  `json:"match_type,omitempty"` // exact or partial
	Matches     []entity.DuplicateMatch `json:"duplicate_claims"`
}

// BatchEntry is one claim in a submitted batch.
type BatchEntry struct {
	Amount         float64   `json:"amount"`
	ClaimDate      time.Time `json:"claim_date"`
	TransactionRef string    `json:"transaction_ref"`
}

// BatchDetail explains why one batch entry was flagged.
type BatchDetail struct {
	MatchType        string                  `json:"match_type"` // exact, partial or batch_duplicate
	DuplicateOfIndex int                     `json:"duplicate_of_index,omitempty"`
	Matches          []entity.DuplicateMatch `json:"duplicate_claims,omitempty"`
	Message          string                  `json:"message"`
}

// BatchResult aggregates duplicate findings for a whole batch.
type BatchResult struct {
	HasDuplicates  bool                `json:"has_duplicates"`
	ExactIndexes   []int               `json:"exact_duplicates"`
	PartialIndexes []int               `json:"partial_duplicates"`
	Details        map[int]BatchDetail `json:"duplicate_details"`
}

// Detector performs duplicate checks against the claim store.
type Detector struct {
	claims port.ClaimFinder
	logger *zap.Logger
}

// NewDetector creates a duplicate detector.
func NewDetector(claims port.ClaimFinder, logger *zap.Logger) *Detector {
	return &Detector{claims: claims, logger: logger}
}

// Check looks for existing non-rejected claims of the same employee with an
// equal amount and claim date. Matches with an equal non-empty transaction
// reference are exact; any other collision is partial. A storage failure is
// logged and reported as "not a duplicate" so claim submission is never
// blocked by the check itself.
func (d *Detector) Check(ctx context.Context, p Params) Result {
	result := Result{Matches: []entity.DuplicateMatch{}}

	matching, err := d.claims.FindMatching(ctx, port.ClaimMatchFilter{
		EmployeeID:     p.EmployeeID,
		Amount:         p.Amount,
		ClaimDate:      p.ClaimDate,
		ExcludeClaimID: p.ExcludeClaimID,
		TenantID:       p.TenantID,
	})
	if err != nil {
		d.logger.Error("Duplicate check query failed, treating as no duplicate",
			zap.Error(err),
			zap.String("employee_id", p.EmployeeID))
		return result
	}
	if len(matching) == 0 {
		return result
	}

	incomingRef := utils.NormalizeReference(p.TransactionRef)

	var exact, partial []entity.DuplicateMatch
	for _, claim := range matching {
		info := matchInfo(claim)
		existingRef := utils.NormalizeReference(claim.TransactionRef)

		if incomingRef != "" && existingRef != "" {
			if incomingRef == existingRef {
				exact = append(exact, info)
			} else {
				partial = append(partial, info)
			}
		} else {
			partial = append(partial, info)
		}
	}

	switch {
	case len(exact) > 0:
		result.IsDuplicate = true
		result.MatchType = entity.MatchExact
		result.Matches = exact
		d.logger.Warn("Exact duplicate claim found",
			zap.String("employee_id", p.EmployeeID),
			zap.Float64("amount", p.Amount),
			zap.String("claim_date", p.ClaimDate.Format("2006-01-02")),
			zap.String("transaction_ref", p.TransactionRef))
	case len(partial) > 0:
		result.IsDuplicate = true
		result.MatchType = entity.MatchPartial
		result.Matches = partial
		d.logger.Info("Partial duplicate claim found",
			zap.String("employee_id", p.EmployeeID),
			zap.Float64("amount", p.Amount),
			zap.String("claim_date", p.ClaimDate.Format("2006-01-02")))
	}

	return result
}

// CheckBatch detects duplicates within a submitted batch before touching
// storage, then checks each entry against existing claims. Two batch entries
// only count as duplicates of each other when both carry an equal non-empty
// transaction reference; bulk allowance runs routinely share an amount and
// date without being duplicates. This is deliberately stricter than the
// against-storage classification.
func (d *Detector) CheckBatch(ctx context.Context, employeeID, tenantID string, entries []BatchEntry) BatchResult {
	result := BatchResult{
		ExactIndexes:   []int{},
		PartialIndexes: []int{},
		Details:        make(map[int]BatchDetail),
	}

	type batchKey struct {
		amount float64
		date   string
		ref    string
	}
	seen := make(map[batchKey]int)

	for idx, entry := range entries {
		key := batchKey{
			amount: entry.Amount,
			date:   entry.ClaimDate.Format("2006-01-02"),
			ref:    utils.NormalizeReference(entry.TransactionRef),
		}

		if firstIdx, ok := seen[key]; ok && key.ref != "" {
			result.HasDuplicates = true
			result.ExactIndexes = append(result.ExactIndexes, idx)
			result.Details[idx] = BatchDetail{
				MatchType:        "batch_duplicate",
				DuplicateOfIndex: firstIdx,
				Message:          fmt.Sprintf("Duplicate of claim #%d in this batch", firstIdx+1),
			}
		} else if !ok {
			seen[key] = idx
		}

		check := d.Check(ctx, Params{
			EmployeeID:     employeeID,
			TenantID:       tenantID,
			Amount:         entry.Amount,
			ClaimDate:      entry.ClaimDate,
			TransactionRef: entry.TransactionRef,
		})
		if !check.IsDuplicate {
			continue
		}

		result.HasDuplicates = true
		if check.MatchType == entity.MatchExact {
			if !containsInt(result.ExactIndexes, idx) {
				result.ExactIndexes = append(result.ExactIndexes, idx)
			}
		} else {
			if !containsInt(result.PartialIndexes, idx) {
				result.PartialIndexes = append(result.PartialIndexes, idx)
			}
		}
		result.Details[idx] = BatchDetail{
			MatchType: check.MatchType,
			Matches:   check.Matches,
			Message:   duplicateMessage(check),
		}
	}

	return result
}

func matchInfo(claim *entity.Claim) entity.DuplicateMatch {
	info := entity.DuplicateMatch{
		ClaimID:        claim.ID,
		ClaimNumber:    claim.ClaimNumber,
		Amount:         claim.Amount,
		TransactionRef: claim.TransactionRef,
		Status:         claim.Status,
	}
	if claim.ClaimDate != nil {
		info.ClaimDate = claim.ClaimDate.Format("2006-01-02")
	}
	if claim.SubmittedAt != nil {
		info.SubmittedOn = claim.SubmittedAt.Format(time.RFC3339)
	}
	return info
}

func duplicateMessage(r Result) string {
	if len(r.Matches) == 0 {
		return ""
	}
	first := r.Matches[0]
	if r.MatchType == entity.MatchExact {
		return fmt.Sprintf("Exact duplicate of existing claim %s", first.ClaimNumber)
	}
	return fmt.Sprintf("Potential duplicate of existing claim %s (same amount and date)", first.ClaimNumber)
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
