// Package export builds spreadsheet reports of claims and their decisions
// for finance teams reviewing pipeline output.
package export

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/clearclaim/claims-engine/internal/application/port"
	"github.com/clearclaim/claims-engine/internal/domain/entity"
)

const (
	sheetName = "Claim Decisions"

	// reportLimit bounds a single export. Finance exports are periodic, not
	// paginated; a tenant exceeding this needs a dedicated reporting store.
	reportLimit = 5000
)

var headers = []string{
	"Claim Number", "Employee ID", "Type", "Category", "Amount", "Currency",
	"Claim Date", "Status", "Recommendation", "Confidence", "Fallback Used",
	"Evaluated At",
}

// Service builds decision reports
type Service struct {
	claims port.ClaimRepository
	logger *zap.Logger
}

// NewService creates a new export service
func NewService(claims port.ClaimRepository, logger *zap.Logger) *Service {
	return &Service{claims: claims, logger: logger}
}

// Report builds an xlsx workbook of a tenant's claims with their decisions.
// Claims that have not been validated yet appear with empty decision columns.
// The caller owns the returned file and must Close it.
func (s *Service) Report(ctx context.Context, tenantID string) (*excelize.File, error) {
	claims, err := s.claims.List(ctx, tenantID, reportLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}

	f := excelize.NewFile()
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for i, claim := range claims {
		dec, err := s.claims.GetDecision(ctx, claim.ID)
		if err != nil {
			s.logger.Warn("Decision lookup failed during export",
				zap.String("claim_id", claim.ID), zap.Error(err))
		}
		if err := s.writeRow(f, i+2, claim, dec); err != nil {
			f.Close()
			return nil, err
		}
	}

	s.logger.Info("Decision report built",
		zap.String("tenant_id", tenantID),
		zap.Int("claims", len(claims)))

	return f, nil
}

func (s *Service) writeRow(f *excelize.File, row int, claim *entity.Claim, dec *entity.Decision) error {
	claimDate := ""
	if claim.ClaimDate != nil {
		claimDate = claim.ClaimDate.Format("2006-01-02")
	}

	values := []interface{}{
		claim.ClaimNumber,
		claim.EmployeeID,
		claim.ClaimType,
		claim.Category,
		claim.Amount,
		claim.Currency,
		claimDate,
		claim.Status,
	}

	if dec != nil {
		values = append(values,
			dec.Recommendation,
			dec.Confidence,
			dec.FallbackUsed,
			dec.EvaluatedAt.Format("2006-01-02 15:04:05"),
		)
	} else {
		values = append(values, "", "", "", "")
	}

	for col, value := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		if err := f.SetCellValue(sheetName, cell, value); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
	}

	return nil
}
