package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clearclaim/claims-engine/internal/application/port"
	"github.com/clearclaim/claims-engine/internal/decision"
	"github.com/clearclaim/claims-engine/internal/domain/entity"
	"github.com/clearclaim/claims-engine/internal/domain/lifecycle"
	"github.com/clearclaim/claims-engine/internal/duplicate"
	"github.com/clearclaim/claims-engine/internal/fiscal"
	"github.com/clearclaim/claims-engine/internal/rules"
	"github.com/clearclaim/claims-engine/internal/scoring"
	"github.com/clearclaim/claims-engine/pkg/utils"
)

// ErrClaimNotFound is returned when a claim ID does not resolve. It is the
// only hard failure of the validation pipeline: every other lookup degrades
// to a conservative default so a claim always reaches a decision.
var ErrClaimNotFound = errors.New("claim not found")

// CreateClaimInput is the submission payload for a new claim.
type CreateClaimInput struct {
	TenantID       string     `json:"tenant_id"`
	EmployeeID     string     `json:"employee_id"`
	ClaimType      string     `json:"claim_type"`
	Category       string     `json:"category"`
	Amount         float64    `json:"amount"`
	Currency       string     `json:"currency"`
	ClaimDate      *time.Time `json:"claim_date"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Vendor         string     `json:"vendor"`
	TransactionRef string     `json:"transaction_ref"`
}

// ScoreRequest carries everything the advisory scorer and duplicate check
// need about a claim, persisted or not.
type ScoreRequest struct {
	EmployeeID     string     `json:"employee_id"`
	TenantID       string     `json:"tenant_id"`
	ClaimID        string     `json:"claim_id,omitempty"`
	Amount         float64    `json:"amount"`
	Category       string     `json:"category"`
	ClaimType      string     `json:"claim_type"`
	ClaimDate      *time.Time `json:"claim_date"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Vendor         string     `json:"vendor"`
	TransactionRef string     `json:"transaction_ref"`
	HasDocument    bool       `json:"has_document"`
	OCRConfidence  *float64   `json:"ocr_confidence,omitempty"`
	OCRExtracted   bool       `json:"ocr_extracted"`
}

// ScoreResult pairs the scored analysis with the duplicate findings that fed
// its duplicate-risk factor.
type ScoreResult struct {
	Analysis  scoring.Result   `json:"analysis"`
	Duplicate duplicate.Result `json:"duplicate"`
}

// ValidationService runs the decision pipeline for claims
type ValidationService interface {
	CreateClaim(ctx context.Context, input CreateClaimInput) (*entity.Claim, error)
	GetClaim(ctx context.Context, claimID string) (*entity.Claim, error)
	ValidateClaim(ctx context.Context, claimID string) (*entity.Decision, error)
	GetDecision(ctx context.Context, claimID string) (*entity.Decision, error)
	ScoreClaim(ctx context.Context, req ScoreRequest) (*ScoreResult, error)
	CheckDuplicate(ctx context.Context, p duplicate.Params) duplicate.Result
	CheckDuplicateBatch(ctx context.Context, employeeID, tenantID string, entries []duplicate.BatchEntry) duplicate.BatchResult
}

type validationServiceImpl struct {
	claimRepo    port.ClaimRepository
	documentRepo port.DocumentRepository
	employeeRepo port.EmployeeRepository
	policyRepo   port.PolicyRepository
	settingsRepo port.SettingsRepository
	txManager    port.TransactionManager
	engine       *rules.Engine
	orchestrator *decision.Orchestrator
	detector     *duplicate.Detector
	scorer       *scoring.Scorer
	logger       *zap.Logger
	now          func() time.Time
}

// NewValidationService creates a new ValidationService
func NewValidationService(
	claimRepo port.ClaimRepository,
	documentRepo port.DocumentRepository,
	employeeRepo port.EmployeeRepository,
	policyRepo port.PolicyRepository,
	settingsRepo port.SettingsRepository,
	txManager port.TransactionManager,
	engine *rules.Engine,
	orchestrator *decision.Orchestrator,
	detector *duplicate.Detector,
	scorer *scoring.Scorer,
	logger *zap.Logger,
) ValidationService {
	return &validationServiceImpl{
		claimRepo:    claimRepo,
		documentRepo: documentRepo,
		employeeRepo: employeeRepo,
		policyRepo:   policyRepo,
		settingsRepo: settingsRepo,
		txManager:    txManager,
		engine:       engine,
		orchestrator: orchestrator,
		detector:     detector,
		scorer:       scorer,
		logger:       logger,
		now:          time.Now,
	}
}

// CreateClaim persists a new submitted claim with a generated ID and claim
// number
func (s *validationServiceImpl) CreateClaim(ctx context.Context, input CreateClaimInput) (*entity.Claim, error) {
	if err := utils.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	currency := input.Currency
	if currency == "" {
		currency = "INR"
	}
	if err := utils.ValidateCurrency(currency); err != nil {
		return nil, err
	}

	claim := &entity.Claim{
		ID:             uuid.NewString(),
		ClaimNumber:    newClaimNumber(now),
		TenantID:       input.TenantID,
		EmployeeID:     input.EmployeeID,
		ClaimType:      input.ClaimType,
		Category:       input.Category,
		Amount:         input.Amount,
		Currency:       currency,
		ClaimDate:      input.ClaimDate,
		Title:          utils.SanitizeString(input.Title),
		Description:    utils.SanitizeString(input.Description),
		Vendor:         utils.SanitizeString(input.Vendor),
		TransactionRef: utils.SanitizeString(input.TransactionRef),
		Status:         entity.ClaimStatusSubmitted,
		SubmittedAt:    &now,
	}

	if err := s.claimRepo.Create(ctx, claim); err != nil {
		return nil, fmt.Errorf("create claim: %w", err)
	}

	s.logger.Info("Claim created",
		zap.String("claim_id", claim.ID),
		zap.String("claim_number", claim.ClaimNumber),
		zap.String("category", claim.Category))

	return claim, nil
}

// GetClaim retrieves a claim by ID
func (s *validationServiceImpl) GetClaim(ctx context.Context, claimID string) (*entity.Claim, error) {
	claim, err := s.claimRepo.GetByID(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("get claim: %w", err)
	}
	if claim == nil {
		return nil, ErrClaimNotFound
	}
	return claim, nil
}

// ValidateClaim runs the full decision pipeline for a persisted claim and
// stores the resulting decision, replacing any prior one. A missing claim is
// the only hard error; every other lookup failure degrades so the pipeline
// still produces a decision.
func (s *validationServiceImpl) ValidateClaim(ctx context.Context, claimID string) (*entity.Decision, error) {
	claim, err := s.GetClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}

	today := s.now().UTC()

	limits, err := s.policyRepo.GetLimits(ctx, claim.TenantID, claim.Category)
	if err != nil {
		s.logger.Warn("Policy limits lookup failed, proceeding without thresholds",
			zap.String("claim_id", claimID), zap.Error(err))
		limits = entity.PolicyLimits{Category: claim.Category}
	}

	policyText, err := s.policyRepo.GetPolicyText(ctx, claim.TenantID, claim.ClaimType, claim.Category)
	if err != nil {
		s.logger.Warn("Policy text lookup failed",
			zap.String("claim_id", claimID), zap.Error(err))
		policyText = ""
	}

	tenureMonths := 0
	employee, err := s.employeeRepo.GetByID(ctx, claim.EmployeeID)
	if err != nil {
		s.logger.Warn("Employee lookup failed, tenure treated as zero",
			zap.String("claim_id", claimID), zap.Error(err))
	} else if employee != nil {
		tenureMonths = rules.TenureMonths(employee.DateOfJoining, today)
	}

	documentCount, err := s.documentRepo.CountByClaimID(ctx, claimID)
	if err != nil {
		s.logger.Warn("Document count failed, treated as zero",
			zap.String("claim_id", claimID), zap.Error(err))
		documentCount = 0
	}

	startMonth, err := s.settingsRepo.GetFiscalStartMonth(ctx, claim.TenantID)
	if err != nil {
		s.logger.Warn("Fiscal setting lookup failed, using default start month",
			zap.String("tenant_id", claim.TenantID), zap.Error(err))
		startMonth = fiscal.DefaultStartMonth
	}
	window := fiscal.CurrentWindow(startMonth, today)

	ruleResults := s.engine.Evaluate(claim, limits, tenureMonths, documentCount, window, today)

	dec := s.orchestrator.Decide(ctx, claim, policyText, ruleResults)

	// Persist the decision and any status move atomically.
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.claimRepo.SaveDecision(txCtx, &dec); err != nil {
			return fmt.Errorf("save decision: %w", err)
		}
		return s.applyStatus(txCtx, claim, &dec)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Claim validated",
		zap.String("claim_id", claimID),
		zap.String("recommendation", dec.Recommendation),
		zap.Float64("confidence", dec.Confidence),
		zap.Bool("fallback_used", dec.FallbackUsed))

	return &dec, nil
}

// applyStatus moves the claim along its lifecycle according to the decision.
// Auto-approval settles the claim; anything else parks it in review. A claim
// whose current status does not permit the move keeps its status, since
// re-validation of an already reviewed claim must not reopen it.
func (s *validationServiceImpl) applyStatus(ctx context.Context, claim *entity.Claim, dec *entity.Decision) error {
	trigger := lifecycle.TriggerStartReview
	if dec.Recommendation == entity.RecommendAutoApprove {
		trigger = lifecycle.TriggerAutoApprove
	}

	current := lifecycle.State(claim.Status)
	if !current.IsValid() {
		s.logger.Warn("Claim has unknown status, skipping lifecycle move",
			zap.String("claim_id", claim.ID),
			zap.String("status", claim.Status))
		return nil
	}

	machine := lifecycle.ForClaim(current)
	if err := machine.Fire(ctx, trigger); err != nil {
		s.logger.Debug("Claim status unchanged by validation",
			zap.String("claim_id", claim.ID),
			zap.String("status", claim.Status),
			zap.String("trigger", string(trigger)))
		return nil
	}

	newStatus := machine.State().String()
	if err := s.claimRepo.UpdateStatus(ctx, claim.ID, newStatus); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	claim.Status = newStatus
	return nil
}

// GetDecision retrieves the stored decision for a claim
func (s *validationServiceImpl) GetDecision(ctx context.Context, claimID string) (*entity.Decision, error) {
	dec, err := s.claimRepo.GetDecision(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("get decision: %w", err)
	}
	if dec == nil {
		return nil, ErrClaimNotFound
	}
	return dec, nil
}

// ScoreClaim runs the duplicate check and the advisory scorer. The score
// never blocks a claim; callers use it for review prioritisation.
func (s *validationServiceImpl) ScoreClaim(ctx context.Context, req ScoreRequest) (*ScoreResult, error) {
	dup := duplicate.Result{Matches: []entity.DuplicateMatch{}}
	if req.ClaimDate != nil {
		dup = s.detector.Check(ctx, duplicate.Params{
			EmployeeID:     req.EmployeeID,
			TenantID:       req.TenantID,
			Amount:         req.Amount,
			ClaimDate:      *req.ClaimDate,
			TransactionRef: req.TransactionRef,
			ExcludeClaimID: req.ClaimID,
		})
	}

	analysis := s.scorer.Score(scoring.Input{
		Amount:         req.Amount,
		Category:       req.Category,
		ClaimType:      req.ClaimType,
		ClaimDate:      req.ClaimDate,
		Title:          req.Title,
		Description:    req.Description,
		Vendor:         req.Vendor,
		TransactionRef: req.TransactionRef,
		HasDocument:    req.HasDocument,
		OCRConfidence:  req.OCRConfidence,
		OCRExtracted:   req.OCRExtracted,
		IsDuplicate:    dup.IsDuplicate,
	})

	return &ScoreResult{Analysis: analysis, Duplicate: dup}, nil
}

// CheckDuplicate runs a single duplicate check
func (s *validationServiceImpl) CheckDuplicate(ctx context.Context, p duplicate.Params) duplicate.Result {
	return s.detector.Check(ctx, p)
}

// CheckDuplicateBatch runs duplicate checks for a submitted batch
func (s *validationServiceImpl) CheckDuplicateBatch(ctx context.Context, employeeID, tenantID string, entries []duplicate.BatchEntry) duplicate.BatchResult {
	return s.detector.CheckBatch(ctx, employeeID, tenantID, entries)
}

// newClaimNumber builds a human-readable claim number. Uniqueness comes from
// the uuid suffix; the date prefix is for operators scanning lists.
func newClaimNumber(now time.Time) string {
	suffix := uuid.NewString()[:8]
	return fmt.Sprintf("CLM-%s-%s", now.Format("20060102"), suffix)
}
