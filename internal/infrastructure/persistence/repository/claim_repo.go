package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/clearclaim/claims-engine/internal/application/port"
	"github.com/clearclaim/claims-engine/internal/domain/entity"
	"github.com/clearclaim/claims-engine/internal/infrastructure/persistence/sqlite"
)

const claimColumns = `id, claim_number, tenant_id, employee_id, claim_type, category,
	amount, currency, claim_date, title, description, vendor, transaction_ref,
	status, submitted_at, created_at`

// ClaimRepository implements port.ClaimRepository
type ClaimRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewClaimRepository creates a new claim repository
func NewClaimRepository(db *sql.DB, logger *zap.Logger) port.ClaimRepository {
	return &ClaimRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new claim record
func (r *ClaimRepository) Create(ctx context.Context, claim *entity.Claim) error {
	query := `
		INSERT INTO claims (
			id, claim_number, tenant_id, employee_id, claim_type, category,
			amount, currency, claim_date, title, description, vendor,
			transaction_ref, status, submitted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.getExecutor(ctx).ExecContext(ctx, query,
		claim.ID,
		claim.ClaimNumber,
		claim.TenantID,
		claim.EmployeeID,
		claim.ClaimType,
		claim.Category,
		claim.Amount,
		claim.Currency,
		claim.ClaimDate,
		claim.Title,
		claim.Description,
		claim.Vendor,
		claim.TransactionRef,
		claim.Status,
		claim.SubmittedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create claim", zap.String("claim_number", claim.ClaimNumber), zap.Error(err))
		return fmt.Errorf("failed to create claim: %w", err)
	}

	return nil
}

// GetByID retrieves a claim by ID
func (r *ClaimRepository) GetByID(ctx context.Context, id string) (*entity.Claim, error) {
	query := fmt.Sprintf(`SELECT %s FROM claims WHERE id = ?`, claimColumns)

	claim, err := scanClaim(r.getExecutor(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get claim by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}

	return claim, nil
}

// List retrieves claims for a tenant, newest first
func (r *ClaimRepository) List(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Claim, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM claims
		WHERE tenant_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, claimColumns)

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, tenantID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list claims", zap.String("tenant_id", tenantID), zap.Error(err))
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	defer rows.Close()

	return collectClaims(rows)
}

// FindMatching returns non-rejected claims of the same employee with an equal
// amount and claim date. The incoming claim itself is excluded so that
// re-validation does not flag a claim as its own duplicate.
func (r *ClaimRepository) FindMatching(ctx context.Context, filter port.ClaimMatchFilter) ([]*entity.Claim, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM claims
		WHERE employee_id = ?
			AND amount = ?
			AND date(claim_date) = date(?)
			AND status != ?
			AND id != ?
	`, claimColumns)

	args := []interface{}{
		filter.EmployeeID,
		filter.Amount,
		filter.ClaimDate.Format("2006-01-02"),
		entity.ClaimStatusRejected,
		filter.ExcludeClaimID,
	}

	if filter.TenantID != "" {
		query += " AND tenant_id = ?"
		args = append(args, filter.TenantID)
	}

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to find matching claims",
			zap.String("employee_id", filter.EmployeeID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to find matching claims: %w", err)
	}
	defer rows.Close()

	return collectClaims(rows)
}

// UpdateStatus moves the claim to a new lifecycle status
func (r *ClaimRepository) UpdateStatus(ctx context.Context, claimID, status string) error {
	result, err := r.getExecutor(ctx).ExecContext(ctx,
		"UPDATE claims SET status = ? WHERE id = ?", status, claimID)
	if err != nil {
		r.logger.Error("Failed to update claim status",
			zap.String("claim_id", claimID),
			zap.String("status", status),
			zap.Error(err))
		return fmt.Errorf("failed to update claim status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("claim %s not found", claimID)
	}

	return nil
}

// SaveDecision attaches a decision to the claim, replacing any prior one
func (r *ClaimRepository) SaveDecision(ctx context.Context, decision *entity.Decision) error {
	ruleResults, err := json.Marshal(decision.RuleResults)
	if err != nil {
		return fmt.Errorf("failed to marshal rule results: %w", err)
	}

	query := `
		INSERT INTO claim_decisions (
			claim_id, recommendation, confidence, reasoning, rule_results,
			fallback_used, evaluated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(claim_id) DO UPDATE SET
			recommendation = excluded.recommendation,
			confidence = excluded.confidence,
			reasoning = excluded.reasoning,
			rule_results = excluded.rule_results,
			fallback_used = excluded.fallback_used,
			evaluated_at = excluded.evaluated_at
	`

	_, err = r.getExecutor(ctx).ExecContext(ctx, query,
		decision.ClaimID,
		decision.Recommendation,
		decision.Confidence,
		decision.Reasoning,
		string(ruleResults),
		decision.FallbackUsed,
		decision.EvaluatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to save decision", zap.String("claim_id", decision.ClaimID), zap.Error(err))
		return fmt.Errorf("failed to save decision: %w", err)
	}

	return nil
}

// GetDecision retrieves the decision attached to a claim
func (r *ClaimRepository) GetDecision(ctx context.Context, claimID string) (*entity.Decision, error) {
	query := `
		SELECT claim_id, recommendation, confidence, reasoning, rule_results,
			fallback_used, evaluated_at
		FROM claim_decisions
		WHERE claim_id = ?
	`

	var decision entity.Decision
	var ruleResults string

	err := r.getExecutor(ctx).QueryRowContext(ctx, query, claimID).Scan(
		&decision.ClaimID,
		&decision.Recommendation,
		&decision.Confidence,
		&decision.Reasoning,
		&ruleResults,
		&decision.FallbackUsed,
		&decision.EvaluatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get decision", zap.String("claim_id", claimID), zap.Error(err))
		return nil, fmt.Errorf("failed to get decision: %w", err)
	}

	if err := json.Unmarshal([]byte(ruleResults), &decision.RuleResults); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rule results: %w", err)
	}

	return &decision, nil
}

// getExecutor returns appropriate executor based on context
func (r *ClaimRepository) getExecutor(ctx context.Context) executor {
	if tx := sqlite.ExtractTx(ctx); tx != nil {
		return tx
	}
	return r.db
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanClaim(row rowScanner) (*entity.Claim, error) {
	var claim entity.Claim
	var claimDate, submittedAt sql.NullTime

	err := row.Scan(
		&claim.ID,
		&claim.ClaimNumber,
		&claim.TenantID,
		&claim.EmployeeID,
		&claim.ClaimType,
		&claim.Category,
		&claim.Amount,
		&claim.Currency,
		&claimDate,
		&claim.Title,
		&claim.Description,
		&claim.Vendor,
		&claim.TransactionRef,
		&claim.Status,
		&submittedAt,
		&claim.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if claimDate.Valid {
		claim.ClaimDate = &claimDate.Time
	}
	if submittedAt.Valid {
		claim.SubmittedAt = &submittedAt.Time
	}

	return &claim, nil
}

func collectClaims(rows *sql.Rows) ([]*entity.Claim, error) {
	var claims []*entity.Claim
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		claims = append(claims, claim)
	}
	return claims, rows.Err()
}

// executor interface covers both *sql.DB and *sql.Tx
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Verify interface compliance
var _ port.ClaimRepository = (*ClaimRepository)(nil)
