package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clearclaim/claims-engine/internal/application/port"
	"github.com/clearclaim/claims-engine/internal/domain/entity"
	"github.com/clearclaim/claims-engine/pkg/database"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.NewMemory(zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	migrator := database.NewMigrator(db, zap.NewNop())
	require.NoError(t, migrator.RunMigrations("../../../../migrations"))

	return db
}

func insertEmployee(t *testing.T, db *database.DB, id, tenantID string, joined *time.Time) {
	t.Helper()
	_, err := db.Exec(
		"INSERT INTO employees (id, tenant_id, name, date_of_joining) VALUES (?, ?, ?, ?)",
		id, tenantID, "Test Employee", joined,
	)
	require.NoError(t, err)
}

func testClaim(id, employeeID string, amount float64, claimDate time.Time) *entity.Claim {
	return &entity.Claim{
		ID:          id,
		ClaimNumber: "CLM-" + id,
		TenantID:    "tenant-1",
		EmployeeID:  employeeID,
		ClaimType:   entity.ClaimTypeReimbursement,
		Category:    "TRAVEL",
		Amount:      amount,
		Currency:    "INR",
		ClaimDate:   &claimDate,
		Title:       "Client visit",
		Status:      entity.ClaimStatusSubmitted,
	}
}

func TestClaimRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewClaimRepository(db.DB, zap.NewNop())
	ctx := context.Background()

	insertEmployee(t, db, "emp-1", "tenant-1", nil)

	claimDate := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	claim := testClaim("claim-1", "emp-1", 1200, claimDate)
	require.NoError(t, repo.Create(ctx, claim))

	got, err := repo.GetByID(ctx, "claim-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "CLM-claim-1", got.ClaimNumber)
	assert.Equal(t, 1200.0, got.Amount)
	require.NotNil(t, got.ClaimDate)
	assert.Equal(t, "2025-06-10", got.ClaimDate.Format("2006-01-02"))
}

func TestClaimRepository_GetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewClaimRepository(db.DB, zap.NewNop())

	got, err := repo.GetByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestClaimRepository_FindMatching(t *testing.T) {
	db := setupTestDB(t)
	repo := NewClaimRepository(db.DB, zap.NewNop())
	ctx := context.Background()

	insertEmployee(t, db, "emp-1", "tenant-1", nil)
	insertEmployee(t, db, "emp-2", "tenant-1", nil)

	day := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, testClaim("incoming", "emp-1", 500, day)))
	require.NoError(t, repo.Create(ctx, testClaim("same-day", "emp-1", 500, day)))
	require.NoError(t, repo.Create(ctx, testClaim("other-amount", "emp-1", 750, day)))
	require.NoError(t, repo.Create(ctx, testClaim("other-employee", "emp-2", 500, day)))

	rejected := testClaim("rejected", "emp-1", 500, day)
	rejected.Status = entity.ClaimStatusRejected
	require.NoError(t, repo.Create(ctx, rejected))

	matches, err := repo.FindMatching(ctx, port.ClaimMatchFilter{
		EmployeeID:     "emp-1",
		Amount:         500,
		ClaimDate:      day,
		ExcludeClaimID: "incoming",
	})
	require.NoError(t, err)

	// Rejected claims, other employees, other amounts and the incoming claim
	// itself are all excluded.
	require.Len(t, matches, 1)
	assert.Equal(t, "same-day", matches[0].ID)
}

func TestClaimRepository_SaveDecision_Overwrites(t *testing.T) {
	db := setupTestDB(t)
	repo := NewClaimRepository(db.DB, zap.NewNop())
	ctx := context.Background()

	insertEmployee(t, db, "emp-1", "tenant-1", nil)
	day := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, testClaim("claim-1", "emp-1", 500, day)))

	first := &entity.Decision{
		ClaimID:        "claim-1",
		Recommendation: entity.RecommendReview,
		Confidence:     0.5,
		Reasoning:      "Manual review required",
		RuleResults: []entity.RuleResult{
			{RuleID: "DATE_VALIDITY", Result: entity.RuleFail, Evidence: "Claim date is missing"},
		},
		FallbackUsed: true,
		EvaluatedAt:  time.Now().UTC(),
	}
	require.NoError(t, repo.SaveDecision(ctx, first))

	second := &entity.Decision{
		ClaimID:        "claim-1",
		Recommendation: entity.RecommendAutoApprove,
		Confidence:     0.98,
		Reasoning:      "All policy rules satisfied through deterministic checks.",
		RuleResults: []entity.RuleResult{
			{RuleID: "DATE_VALIDITY", Result: entity.RulePass, Evidence: "within limit"},
		},
		EvaluatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.SaveDecision(ctx, second))

	got, err := repo.GetDecision(ctx, "claim-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entity.RecommendAutoApprove, got.Recommendation)
	assert.Equal(t, 0.98, got.Confidence)
	assert.False(t, got.FallbackUsed)
	require.Len(t, got.RuleResults, 1)
	assert.Equal(t, entity.RulePass, got.RuleResults[0].Result)
}

func TestClaimRepository_UpdateStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewClaimRepository(db.DB, zap.NewNop())
	ctx := context.Background()

	insertEmployee(t, db, "emp-1", "tenant-1", nil)
	day := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, testClaim("claim-1", "emp-1", 500, day)))

	require.NoError(t, repo.UpdateStatus(ctx, "claim-1", entity.ClaimStatusApproved))

	got, err := repo.GetByID(ctx, "claim-1")
	require.NoError(t, err)
	assert.Equal(t, entity.ClaimStatusApproved, got.Status)

	assert.Error(t, repo.UpdateStatus(ctx, "missing", entity.ClaimStatusApproved))
}

func TestClaimRepository_GetDecision_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewClaimRepository(db.DB, zap.NewNop())

	got, err := repo.GetDecision(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestClaimRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewClaimRepository(db.DB, zap.NewNop())
	ctx := context.Background()

	insertEmployee(t, db, "emp-1", "tenant-1", nil)
	day := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, testClaim("claim-1", "emp-1", 100, day)))
	require.NoError(t, repo.Create(ctx, testClaim("claim-2", "emp-1", 200, day)))

	claims, err := repo.List(ctx, "tenant-1", 10, 0)
	require.NoError(t, err)
	assert.Len(t, claims, 2)

	claims, err = repo.List(ctx, "other-tenant", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, claims)
}
