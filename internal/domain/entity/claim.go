package entity

import "time"

// Claim represents a single expense or allowance submission awaiting approval.
// A claim is immutable while the decision pipeline evaluates it; re-validation
// always starts from a fresh read.
type Claim struct {
	ID             string     `json:"id"`
	ClaimNumber    string     `json:"claim_number"`
	TenantID       string     `json:"tenant_id"`
	EmployeeID     string     `json:"employee_id"`
	ClaimType      string     `json:"claim_type"` // REIMBURSEMENT or ALLOWANCE
	Category       string     `json:"category"`
	Amount         float64    `json:"amount"`
	Currency       string     `json:"currency"`
	ClaimDate      *time.Time `json:"claim_date"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Vendor         string     `json:"vendor"`
	TransactionRef string     `json:"transaction_ref"`
	Status         string     `json:"status"`
	SubmittedAt    *time.Time `json:"submitted_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Document represents a supporting file attached to a claim. Extraction is
// performed by an external OCR service; the engine only consumes the metadata.
type Document struct {
	ID            string     `json:"id"`
	ClaimID       string     `json:"claim_id"`
	FileName      string     `json:"file_name"`
	FilePath      string     `json:"file_path"`
	MimeType      string     `json:"mime_type"`
	OCRConfidence *float64   `json:"ocr_confidence,omitempty"`
	OCRProcessed  bool       `json:"ocr_processed"`
	UploadedAt    *time.Time `json:"uploaded_at"`
}

// Employee is the claim actor. Tenure is derived from DateOfJoining.
type Employee struct {
	ID            string     `json:"id"`
	TenantID      string     `json:"tenant_id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	DateOfJoining *time.Time `json:"date_of_joining"`
}
