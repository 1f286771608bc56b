package port

import (
	"context"
	"time"

	"github.com/clearclaim/claims-engine/internal/domain/entity"
)

// ClaimMatchFilter narrows the duplicate-detection read. Rejected claims are
// always excluded by the implementation.
type ClaimMatchFilter struct {
	EmployeeID     string
	Amount         float64
	ClaimDate      time.Time
	ExcludeClaimID string
	TenantID       string
}

// ClaimRepository defines persistence operations for Claim and its Decision
// audit payload.
type ClaimRepository interface {
	Create(ctx context.Context, claim *entity.Claim) error
	GetByID(ctx context.Context, id string) (*entity.Claim, error)
	List(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Claim, error)

	// FindMatching returns non-rejected claims of the same employee with an
	// equal amount and claim date, for duplicate detection.
	FindMatching(ctx context.Context, filter ClaimMatchFilter) ([]*entity.Claim, error)

	// UpdateStatus moves the claim to a new lifecycle status. Transition
	// validity is the caller's responsibility.
	UpdateStatus(ctx context.Context, claimID, status string) error

	// SaveDecision attaches a Decision to the claim, replacing any prior one.
	// Re-validation overwrites; it never appends.
	SaveDecision(ctx context.Context, decision *entity.Decision) error
	GetDecision(ctx context.Context, claimID string) (*entity.Decision, error)
}

// ClaimFinder is the narrow read surface the duplicate detector needs.
type ClaimFinder interface {
	FindMatching(ctx context.Context, filter ClaimMatchFilter) ([]*entity.Claim, error)
}

// DocumentRepository defines persistence operations for claim documents.
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	GetByClaimID(ctx context.Context, claimID string) ([]*entity.Document, error)
	CountByClaimID(ctx context.Context, claimID string) (int, error)
}

// EmployeeRepository defines read operations for claim actors.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Employee, error)
}

// PolicyRepository resolves per-tenant, per-category policy configuration.
// An absent threshold means the corresponding rule does not apply.
type PolicyRepository interface {
	GetLimits(ctx context.Context, tenantID, category string) (entity.PolicyLimits, error)
	GetPolicyText(ctx context.Context, tenantID, claimType, category string) (string, error)
}

// TransactionManager executes a function within a database transaction.
// Nested calls reuse the ambient transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// SettingsRepository resolves tenant-level settings.
type SettingsRepository interface {
	// GetFiscalStartMonth returns the fiscal year start month (1-12) for the
	// tenant, defaulting to April when unset.
	GetFiscalStartMonth(ctx context.Context, tenantID string) (int, error)
}
