package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/clearclaim/claims-engine/internal/application/port"
	"github.com/clearclaim/claims-engine/internal/fiscal"
	"github.com/clearclaim/claims-engine/internal/infrastructure/persistence/sqlite"
)

const fiscalStartMonthKey = "fiscal_start_month"

// SettingsRepository implements port.SettingsRepository
type SettingsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *sql.DB, logger *zap.Logger) port.SettingsRepository {
	return &SettingsRepository{
		db:     db,
		logger: logger,
	}
}

// GetFiscalStartMonth returns the fiscal year start month for a tenant. The
// stored value may be numeric ("4") or a month name ("April"); anything
// missing or unparseable falls back to the default.
func (r *SettingsRepository) GetFiscalStartMonth(ctx context.Context, tenantID string) (int, error) {
	query := `SELECT value FROM system_settings WHERE tenant_id = ? AND key = ?`

	var value string
	err := r.getExecutor(ctx).QueryRowContext(ctx, query, tenantID, fiscalStartMonthKey).Scan(&value)

	if err == sql.ErrNoRows {
		return fiscal.DefaultStartMonth, nil
	}
	if err != nil {
		r.logger.Error("Failed to get fiscal start month", zap.String("tenant_id", tenantID), zap.Error(err))
		return 0, fmt.Errorf("failed to get fiscal start month: %w", err)
	}

	if month, err := strconv.Atoi(value); err == nil {
		if month >= 1 && month <= 12 {
			return month, nil
		}
		return fiscal.DefaultStartMonth, nil
	}

	return fiscal.ParseMonth(value), nil
}

// getExecutor returns appropriate executor based on context
func (r *SettingsRepository) getExecutor(ctx context.Context) executor {
	if tx := sqlite.ExtractTx(ctx); tx != nil {
		return tx
	}
	return r.db
}

// Verify interface compliance
var _ port.SettingsRepository = (*SettingsRepository)(nil)
