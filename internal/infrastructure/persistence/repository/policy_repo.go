package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/clearclaim/claims-engine/internal/application/port"
	"github.com/clearclaim/claims-engine/internal/domain/entity"
	"github.com/clearclaim/claims-engine/internal/infrastructure/persistence/sqlite"
)

// PolicyRepository implements port.PolicyRepository
type PolicyRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPolicyRepository creates a new policy repository
func NewPolicyRepository(db *sql.DB, logger *zap.Logger) port.PolicyRepository {
	return &PolicyRepository{
		db:     db,
		logger: logger,
	}
}

// GetLimits resolves the numeric thresholds for a tenant category. NULL
// columns come back as nil pointers so the rule engine can skip the
// corresponding checks; an unconfigured category yields empty limits, not an
// error.
func (r *PolicyRepository) GetLimits(ctx context.Context, tenantID, category string) (entity.PolicyLimits, error) {
	query := `
		SELECT amount_ceiling, min_tenure_months, min_documents
		FROM policy_categories
		WHERE tenant_id = ? AND category_code = ? AND is_active = 1
		LIMIT 1
	`

	limits := entity.PolicyLimits{Category: category}
	var amountCeiling sql.NullFloat64
	var minTenure sql.NullInt64

	err := r.getExecutor(ctx).QueryRowContext(ctx, query, tenantID, category).Scan(
		&amountCeiling,
		&minTenure,
		&limits.MinDocuments,
	)

	if err == sql.ErrNoRows {
		return limits, nil
	}
	if err != nil {
		r.logger.Error("Failed to get policy limits",
			zap.String("tenant_id", tenantID),
			zap.String("category", category),
			zap.Error(err))
		return limits, fmt.Errorf("failed to get policy limits: %w", err)
	}

	if amountCeiling.Valid {
		limits.AmountCeiling = &amountCeiling.Float64
	}
	if minTenure.Valid {
		months := int(minTenure.Int64)
		limits.MinTenureMonths = &months
	}

	return limits, nil
}

// GetPolicyText returns the human-readable policy for a tenant category, or
// empty when none is configured
func (r *PolicyRepository) GetPolicyText(ctx context.Context, tenantID, claimType, category string) (string, error) {
	query := `
		SELECT policy_text
		FROM policy_categories
		WHERE tenant_id = ? AND claim_type = ? AND category_code = ? AND is_active = 1
		LIMIT 1
	`

	var text string
	err := r.getExecutor(ctx).QueryRowContext(ctx, query, tenantID, claimType, category).Scan(&text)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		r.logger.Error("Failed to get policy text",
			zap.String("tenant_id", tenantID),
			zap.String("category", category),
			zap.Error(err))
		return "", fmt.Errorf("failed to get policy text: %w", err)
	}

	return text, nil
}

// getExecutor returns appropriate executor based on context
func (r *PolicyRepository) getExecutor(ctx context.Context) executor {
	if tx := sqlite.ExtractTx(ctx); tx != nil {
		return tx
	}
	return r.db
}

// Verify interface compliance
var _ port.PolicyRepository = (*PolicyRepository)(nil)
