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

// DocumentRepository implements port.DocumentRepository
type DocumentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *sql.DB, logger *zap.Logger) port.DocumentRepository {
	return &DocumentRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new document record
func (r *DocumentRepository) Create(ctx context.Context, doc *entity.Document) error {
	query := `
		INSERT INTO documents (
			id, claim_id, file_name, file_path, mime_type,
			ocr_confidence, ocr_processed, uploaded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.getExecutor(ctx).ExecContext(ctx, query,
		doc.ID,
		doc.ClaimID,
		doc.FileName,
		doc.FilePath,
		doc.MimeType,
		doc.OCRConfidence,
		doc.OCRProcessed,
		doc.UploadedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create document", zap.String("claim_id", doc.ClaimID), zap.Error(err))
		return fmt.Errorf("failed to create document: %w", err)
	}

	return nil
}

// GetByClaimID retrieves all documents for a claim
func (r *DocumentRepository) GetByClaimID(ctx context.Context, claimID string) ([]*entity.Document, error) {
	query := `
		SELECT id, claim_id, file_name, file_path, mime_type,
			ocr_confidence, ocr_processed, uploaded_at
		FROM documents
		WHERE claim_id = ?
		ORDER BY uploaded_at
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, claimID)
	if err != nil {
		r.logger.Error("Failed to get documents", zap.String("claim_id", claimID), zap.Error(err))
		return nil, fmt.Errorf("failed to get documents: %w", err)
	}
	defer rows.Close()

	var docs []*entity.Document
	for rows.Next() {
		var doc entity.Document
		var ocrConfidence sql.NullFloat64
		var uploadedAt sql.NullTime

		err := rows.Scan(
			&doc.ID,
			&doc.ClaimID,
			&doc.FileName,
			&doc.FilePath,
			&doc.MimeType,
			&ocrConfidence,
			&doc.OCRProcessed,
			&uploadedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}

		if ocrConfidence.Valid {
			doc.OCRConfidence = &ocrConfidence.Float64
		}
		if uploadedAt.Valid {
			doc.UploadedAt = &uploadedAt.Time
		}

		docs = append(docs, &doc)
	}

	return docs, rows.Err()
}

// CountByClaimID returns the number of documents attached to a claim
func (r *DocumentRepository) CountByClaimID(ctx context.Context, claimID string) (int, error) {
	var count int
	err := r.getExecutor(ctx).QueryRowContext(ctx,
		"SELECT COUNT(*) FROM documents WHERE claim_id = ?", claimID,
	).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count documents", zap.String("claim_id", claimID), zap.Error(err))
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// getExecutor returns appropriate executor based on context
func (r *DocumentRepository) getExecutor(ctx context.Context) executor {
	if tx := sqlite.ExtractTx(ctx); tx != nil {
		return tx
	}
	return r.db
}

// Verify interface compliance
var _ port.DocumentRepository = (*DocumentRepository)(nil)
