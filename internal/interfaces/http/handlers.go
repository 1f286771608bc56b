package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/clearclaim/claims-engine/internal/application/service"
	"github.com/clearclaim/claims-engine/internal/duplicate"
	"github.com/clearclaim/claims-engine/internal/export"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	validationService service.ValidationService
	exportService     *export.Service
	logger            *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	validationService service.ValidationService,
	exportService *export.Service,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		validationService: validationService,
		exportService:     exportService,
		logger:            logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// DuplicateCheckRequest is the payload for a single duplicate check
type DuplicateCheckRequest struct {
	EmployeeID     string  `json:"employee_id" binding:"required"`
	TenantID       string  `json:"tenant_id"`
	Amount         float64 `json:"amount" binding:"required"`
	ClaimDate      string  `json:"claim_date" binding:"required"`
	TransactionRef string  `json:"transaction_ref"`
	ExcludeClaimID string  `json:"exclude_claim_id"`
}

// BatchEntryRequest is one claim in a batch duplicate check
type BatchEntryRequest struct {
	Amount         float64 `json:"amount" binding:"required"`
	ClaimDate      string  `json:"claim_date" binding:"required"`
	TransactionRef string  `json:"transaction_ref"`
}

// DuplicateCheckBatchRequest is the payload for a batch duplicate check
type DuplicateCheckBatchRequest struct {
	EmployeeID string              `json:"employee_id" binding:"required"`
	TenantID   string              `json:"tenant_id"`
	Claims     []BatchEntryRequest `json:"claims" binding:"required"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// CreateClaim handles POST /api/v1/claims
func (h *Handlers) CreateClaim(c *gin.Context) {
	var input service.CreateClaimInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body: " + err.Error()})
		return
	}

	claim, err := h.validationService.CreateClaim(c.Request.Context(), input)
	if err != nil {
		h.logger.Error("Create claim failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to create claim"})
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: claim})
}

// GetClaim handles GET /api/v1/claims/:id
func (h *Handlers) GetClaim(c *gin.Context) {
	claim, err := h.validationService.GetClaim(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondServiceError(c, err, "failed to get claim")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: claim})
}

// ValidateClaim handles POST /api/v1/claims/:id/validate
func (h *Handlers) ValidateClaim(c *gin.Context) {
	dec, err := h.validationService.ValidateClaim(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondServiceError(c, err, "validation failed")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: dec})
}

// GetDecision handles GET /api/v1/claims/:id/decision
func (h *Handlers) GetDecision(c *gin.Context) {
	dec, err := h.validationService.GetDecision(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondServiceError(c, err, "failed to get decision")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: dec})
}

// ScoreClaim handles POST /api/v1/claims/score
func (h *Handlers) ScoreClaim(c *gin.Context) {
	var req service.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body: " + err.Error()})
		return
	}

	result, err := h.validationService.ScoreClaim(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("Score claim failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "scoring failed"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// CheckDuplicate handles POST /api/v1/claims/duplicate-check
func (h *Handlers) CheckDuplicate(c *gin.Context) {
	var req DuplicateCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body: " + err.Error()})
		return
	}

	claimDate, err := parseClaimDate(req.ClaimDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid claim_date: " + err.Error()})
		return
	}

	result := h.validationService.CheckDuplicate(c.Request.Context(), duplicate.Params{
		EmployeeID:     req.EmployeeID,
		TenantID:       req.TenantID,
		Amount:         req.Amount,
		ClaimDate:      claimDate,
		TransactionRef: req.TransactionRef,
		ExcludeClaimID: req.ExcludeClaimID,
	})

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// CheckDuplicateBatch handles POST /api/v1/claims/duplicate-check/batch
func (h *Handlers) CheckDuplicateBatch(c *gin.Context) {
	var req DuplicateCheckBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body: " + err.Error()})
		return
	}

	entries := make([]duplicate.BatchEntry, 0, len(req.Claims))
	for i, claim := range req.Claims {
		claimDate, err := parseClaimDate(claim.ClaimDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, Response{
				Success: false,
				Error:   "invalid claim_date at index " + strconv.Itoa(i) + ": " + err.Error(),
			})
			return
		}
		entries = append(entries, duplicate.BatchEntry{
			Amount:         claim.Amount,
			ClaimDate:      claimDate,
			TransactionRef: claim.TransactionRef,
		})
	}

	result := h.validationService.CheckDuplicateBatch(c.Request.Context(), req.EmployeeID, req.TenantID, entries)

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// ExportDecisions handles GET /api/v1/claims/export
func (h *Handlers) ExportDecisions(c *gin.Context) {
	tenantID := c.Query("tenant_id")
	if tenantID == "" {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "tenant_id query parameter is required"})
		return
	}

	report, err := h.exportService.Report(c.Request.Context(), tenantID)
	if err != nil {
		h.logger.Error("Export failed", zap.String("tenant_id", tenantID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "export failed"})
		return
	}
	defer report.Close()

	c.Header("Content-Disposition", `attachment; filename="claim_decisions.xlsx"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if _, err := report.WriteTo(c.Writer); err != nil {
		h.logger.Error("Failed to stream export", zap.Error(err))
	}
}

func (h *Handlers) respondServiceError(c *gin.Context, err error, fallbackMsg string) {
	if errors.Is(err, service.ErrClaimNotFound) {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "claim not found"})
		return
	}
	h.logger.Error(fallbackMsg, zap.String("claim_id", c.Param("id")), zap.Error(err))
	c.JSON(http.StatusInternalServerError, Response{Success: false, Error: fallbackMsg})
}

// parseClaimDate accepts both date-only and RFC3339 timestamps.
func parseClaimDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
