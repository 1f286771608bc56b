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

// EmployeeRepository implements port.EmployeeRepository
type EmployeeRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *sql.DB, logger *zap.Logger) port.EmployeeRepository {
	return &EmployeeRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves an employee by ID
func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (*entity.Employee, error) {
	query := `
		SELECT id, tenant_id, name, email, date_of_joining
		FROM employees
		WHERE id = ?
	`

	var employee entity.Employee
	var email sql.NullString
	var dateOfJoining sql.NullTime

	err := r.getExecutor(ctx).QueryRowContext(ctx, query, id).Scan(
		&employee.ID,
		&employee.TenantID,
		&employee.Name,
		&email,
		&dateOfJoining,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get employee by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}

	employee.Email = email.String
	if dateOfJoining.Valid {
		employee.DateOfJoining = &dateOfJoining.Time
	}

	return &employee, nil
}

// getExecutor returns appropriate executor based on context
func (r *EmployeeRepository) getExecutor(ctx context.Context) executor {
	if tx := sqlite.ExtractTx(ctx); tx != nil {
		return tx
	}
	return r.db
}

// Verify interface compliance
var _ port.EmployeeRepository = (*EmployeeRepository)(nil)
