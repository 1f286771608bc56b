package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clearclaim/claims-engine/internal/application/port"
	"github.com/clearclaim/claims-engine/internal/application/service"
	"github.com/clearclaim/claims-engine/internal/domain/entity"
	"github.com/clearclaim/claims-engine/internal/duplicate"
	"github.com/clearclaim/claims-engine/internal/export"
)

type mockValidationService struct {
	claim     *entity.Claim
	decision  *entity.Decision
	scoreErr  error
	dupResult duplicate.Result
}

func (m *mockValidationService) CreateClaim(ctx context.Context, input service.CreateClaimInput) (*entity.Claim, error) {
	return &entity.Claim{
		ID:          "new-claim",
		ClaimNumber: "CLM-20250610-abc",
		TenantID:    input.TenantID,
		Category:    input.Category,
		Amount:      input.Amount,
		Status:      entity.ClaimStatusSubmitted,
	}, nil
}

func (m *mockValidationService) GetClaim(ctx context.Context, claimID string) (*entity.Claim, error) {
	if m.claim == nil {
		return nil, service.ErrClaimNotFound
	}
	return m.claim, nil
}

func (m *mockValidationService) ValidateClaim(ctx context.Context, claimID string) (*entity.Decision, error) {
	if m.decision == nil {
		return nil, service.ErrClaimNotFound
	}
	return m.decision, nil
}

func (m *mockValidationService) GetDecision(ctx context.Context, claimID string) (*entity.Decision, error) {
	if m.decision == nil {
		return nil, service.ErrClaimNotFound
	}
	return m.decision, nil
}

func (m *mockValidationService) ScoreClaim(ctx context.Context, req service.ScoreRequest) (*service.ScoreResult, error) {
	if m.scoreErr != nil {
		return nil, m.scoreErr
	}
	return &service.ScoreResult{}, nil
}

func (m *mockValidationService) CheckDuplicate(ctx context.Context, p duplicate.Params) duplicate.Result {
	return m.dupResult
}

func (m *mockValidationService) CheckDuplicateBatch(ctx context.Context, employeeID, tenantID string, entries []duplicate.BatchEntry) duplicate.BatchResult {
	return duplicate.BatchResult{Details: map[int]duplicate.BatchDetail{}}
}

type stubClaimRepo struct{}

func (s *stubClaimRepo) Create(ctx context.Context, claim *entity.Claim) error { return nil }
func (s *stubClaimRepo) GetByID(ctx context.Context, id string) (*entity.Claim, error) {
	return nil, nil
}
func (s *stubClaimRepo) List(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Claim, error) {
	return nil, nil
}
func (s *stubClaimRepo) FindMatching(ctx context.Context, filter port.ClaimMatchFilter) ([]*entity.Claim, error) {
	return nil, nil
}
func (s *stubClaimRepo) UpdateStatus(ctx context.Context, claimID, status string) error { return nil }
func (s *stubClaimRepo) SaveDecision(ctx context.Context, dec *entity.Decision) error   { return nil }
func (s *stubClaimRepo) GetDecision(ctx context.Context, claimID string) (*entity.Decision, error) {
	return nil, nil
}

func newTestServer(svc service.ValidationService) *Server {
	logger := zap.NewNop()
	return NewServer(DefaultServerConfig(), svc, export.NewService(&stubClaimRepo{}, logger), logger)
}

func doRequest(s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(&mockValidationService{})

	w := doRequest(s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestValidateClaim_Found(t *testing.T) {
	s := newTestServer(&mockValidationService{
		decision: &entity.Decision{
			ClaimID:        "claim-1",
			Recommendation: entity.RecommendAutoApprove,
			Confidence:     0.98,
			EvaluatedAt:    time.Now().UTC(),
		},
	})

	w := doRequest(s, http.MethodPost, "/api/v1/claims/claim-1/validate", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool            `json:"success"`
		Data    entity.Decision `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, entity.RecommendAutoApprove, resp.Data.Recommendation)
}

func TestValidateClaim_NotFound(t *testing.T) {
	s := newTestServer(&mockValidationService{})

	w := doRequest(s, http.MethodPost, "/api/v1/claims/missing/validate", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetDecision_NotFound(t *testing.T) {
	s := newTestServer(&mockValidationService{})

	w := doRequest(s, http.MethodGet, "/api/v1/claims/missing/decision", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateClaim(t *testing.T) {
	s := newTestServer(&mockValidationService{})

	w := doRequest(s, http.MethodPost, "/api/v1/claims", map[string]interface{}{
		"tenant_id":   "tenant-1",
		"employee_id": "emp-1",
		"claim_type":  "REIMBURSEMENT",
		"category":    "MEALS",
		"amount":      450,
	})
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateClaim_BadBody(t *testing.T) {
	s := newTestServer(&mockValidationService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/claims", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckDuplicate(t *testing.T) {
	s := newTestServer(&mockValidationService{
		dupResult: duplicate.Result{
			IsDuplicate: true,
			MatchType:   entity.MatchExact,
			Matches:     []entity.DuplicateMatch{{ClaimID: "existing"}},
		},
	})

	w := doRequest(s, http.MethodPost, "/api/v1/claims/duplicate-check", map[string]interface{}{
		"employee_id":     "emp-1",
		"amount":          500,
		"claim_date":      "2025-06-10",
		"transaction_ref": "TXN-1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data duplicate.Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.IsDuplicate)
	assert.Equal(t, entity.MatchExact, resp.Data.MatchType)
}

func TestCheckDuplicate_InvalidDate(t *testing.T) {
	s := newTestServer(&mockValidationService{})

	w := doRequest(s, http.MethodPost, "/api/v1/claims/duplicate-check", map[string]interface{}{
		"employee_id": "emp-1",
		"amount":      500,
		"claim_date":  "10/06/2025",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckDuplicateBatch(t *testing.T) {
	s := newTestServer(&mockValidationService{})

	w := doRequest(s, http.MethodPost, "/api/v1/claims/duplicate-check/batch", map[string]interface{}{
		"employee_id": "emp-1",
		"claims": []map[string]interface{}{
			{"amount": 500, "claim_date": "2025-06-10", "transaction_ref": "TXN-1"},
			{"amount": 750, "claim_date": "2025-06-11"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestExportDecisions_RequiresTenant(t *testing.T) {
	s := newTestServer(&mockValidationService{})

	w := doRequest(s, http.MethodGet, "/api/v1/claims/export", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportDecisions(t *testing.T) {
	s := newTestServer(&mockValidationService{})

	w := doRequest(s, http.MethodGet, "/api/v1/claims/export?tenant_id=tenant-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "claim_decisions.xlsx")
}
