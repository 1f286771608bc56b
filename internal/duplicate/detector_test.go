package duplicate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clearclaim/claims-engine/internal/application/port"
	"github.com/clearclaim/claims-engine/internal/domain/entity"
)

type mockClaimFinder struct {
	findFunc func(ctx context.Context, filter port.ClaimMatchFilter) ([]*entity.Claim, error)
	calls    []port.ClaimMatchFilter
}

func (m *mockClaimFinder) FindMatching(ctx context.Context, filter port.ClaimMatchFilter) ([]*entity.Claim, error) {
	m.calls = append(m.calls, filter)
	if m.findFunc != nil {
		return m.findFunc(ctx, filter)
	}
	return nil, nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func existingClaim(id, number, ref string) *entity.Claim {
	claimDate := date(2025, time.January, 10)
	return &entity.Claim{
		ID:             id,
		ClaimNumber:    number,
		EmployeeID:     "emp-1",
		Amount:         500,
		ClaimDate:      &claimDate,
		TransactionRef: ref,
		Status:         entity.ClaimStatusSubmitted,
	}
}

func TestCheckNoMatches(t *testing.T) {
	d := NewDetector(&mockClaimFinder{}, zap.NewNop())

	result := d.Check(context.Background(), Params{
		EmployeeID: "emp-1",
		Amount:     500,
		ClaimDate:  date(2025, time.January, 10),
	})

	assert.False(t, result.IsDuplicate)
	assert.Empty(t, result.MatchType)
	assert.Empty(t, result.Matches)
}

func TestCheckExactMatchRefNormalization(t *testing.T) {
	finder := &mockClaimFinder{
		findFunc: func(ctx context.Context, filter port.ClaimMatchFilter) ([]*entity.Claim, error) {
			return []*entity.Claim{existingClaim("c-1", "CLM-001", "TXN1")}, nil
		},
	}
	d := NewDetector(finder, zap.NewNop())

	// Case and surrounding whitespace must not defeat an exact match.
	result := d.Check(context.Background(), Params{
		EmployeeID:     "emp-1",
		Amount:         500,
		ClaimDate:      date(2025, time.January, 10),
		TransactionRef: "  txn1 ",
	})

	assert.True(t, result.IsDuplicate)
	assert.Equal(t, entity.MatchExact, result.MatchType)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "CLM-001", result.Matches[0].ClaimNumber)
}

func TestCheckExactReturnsOnlyExactMatches(t *testing.T) {
	finder := &mockClaimFinder{
		findFunc: func(ctx context.Context, filter port.ClaimMatchFilter) ([]*entity.Claim, error) {
			return []*entity.Claim{
				existingClaim("c-1", "CLM-001", "TXN1"),
				existingClaim("c-2", "CLM-002", ""),
				existingClaim("c-3", "CLM-003", "OTHER"),
			}, nil
		},
	}
	d := NewDetector(finder, zap.NewNop())

	result := d.Check(context.Background(), Params{
		EmployeeID:     "emp-1",
		Amount:         500,
		ClaimDate:      date(2025, time.January, 10),
		TransactionRef: "TXN1",
	})

	assert.Equal(t, entity.MatchExact, result.MatchType)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "c-1", result.Matches[0].ClaimID)
}

func TestCheckPartialMatchMissingRef(t *testing.T) {
	tests := []struct {
		name        string
		incomingRef string
		existingRef string
	}{
		{"existing claim missing ref", "TXN1", ""},
		{"incoming claim missing ref", "", "TXN1"},
		{"both missing refs", "", ""},
		{"both present but different", "TXN1", "TXN9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finder := &mockClaimFinder{
				findFunc: func(ctx context.Context, filter port.ClaimMatchFilter) ([]*entity.Claim, error) {
					return []*entity.Claim{existingClaim("c-1", "CLM-001", tt.existingRef)}, nil
				},
			}
			d := NewDetector(finder, zap.NewNop())

			result := d.Check(context.Background(), Params{
				EmployeeID:     "emp-1",
				Amount:         500,
				ClaimDate:      date(2025, time.January, 10),
				TransactionRef: tt.incomingRef,
			})

			assert.True(t, result.IsDuplicate)
			assert.Equal(t, entity.MatchPartial, result.MatchType)
		})
	}
}

func TestCheckFailsOpenOnStorageError(t *testing.T) {
	finder := &mockClaimFinder{
		findFunc: func(ctx context.Context, filter port.ClaimMatchFilter) ([]*entity.Claim, error) {
			return nil, errors.New("database is locked")
		},
	}
	d := NewDetector(finder, zap.NewNop())

	result := d.Check(context.Background(), Params{
		EmployeeID: "emp-1",
		Amount:     500,
		ClaimDate:  date(2025, time.January, 10),
	})

	assert.False(t, result.IsDuplicate, "storage errors must not block submission")
	assert.Empty(t, result.MatchType)
}

func TestCheckPassesFilterThrough(t *testing.T) {
	finder := &mockClaimFinder{}
	d := NewDetector(finder, zap.NewNop())

	d.Check(context.Background(), Params{
		EmployeeID:     "emp-1",
		TenantID:       "ten-1",
		Amount:         500,
		ClaimDate:      date(2025, time.January, 10),
		ExcludeClaimID: "c-9",
	})

	require.Len(t, finder.calls, 1)
	assert.Equal(t, "emp-1", finder.calls[0].EmployeeID)
	assert.Equal(t, "ten-1", finder.calls[0].TenantID)
	assert.Equal(t, "c-9", finder.calls[0].ExcludeClaimID)
}

func TestCheckBatchWithinBatchDuplicates(t *testing.T) {
	d := NewDetector(&mockClaimFinder{}, zap.NewNop())
	day := date(2025, time.February, 1)

	entries := []BatchEntry{
		{Amount: 200, ClaimDate: day, TransactionRef: "REF-1"},
		{Amount: 200, ClaimDate: day, TransactionRef: "ref-1 "}, // same ref, normalized
		{Amount: 200, ClaimDate: day, TransactionRef: "REF-2"},
	}

	result := d.CheckBatch(context.Background(), "emp-1", "ten-1", entries)

	assert.True(t, result.HasDuplicates)
	assert.Equal(t, []int{1}, result.ExactIndexes)
	require.Contains(t, result.Details, 1)
	assert.Equal(t, "batch_duplicate", result.Details[1].MatchType)
	assert.Equal(t, 0, result.Details[1].DuplicateOfIndex)
	assert.Equal(t, "Duplicate of claim #1 in this batch", result.Details[1].Message)
}

func TestCheckBatchSameAmountDateWithoutRefsNotFlagged(t *testing.T) {
	// Bulk allowance runs share amount and date with no references; within
	// the batch that is not a duplicate.
	d := NewDetector(&mockClaimFinder{}, zap.NewNop())
	day := date(2025, time.February, 1)

	entries := []BatchEntry{
		{Amount: 1500, ClaimDate: day},
		{Amount: 1500, ClaimDate: day},
		{Amount: 1500, ClaimDate: day},
	}

	result := d.CheckBatch(context.Background(), "emp-1", "ten-1", entries)

	assert.False(t, result.HasDuplicates)
	assert.Empty(t, result.ExactIndexes)
	assert.Empty(t, result.PartialIndexes)
}

func TestCheckBatchAgainstStorage(t *testing.T) {
	finder := &mockClaimFinder{
		findFunc: func(ctx context.Context, filter port.ClaimMatchFilter) ([]*entity.Claim, error) {
			if filter.Amount == 500 {
				return []*entity.Claim{existingClaim("c-1", "CLM-001", "TXN1")}, nil
			}
			return nil, nil
		},
	}
	d := NewDetector(finder, zap.NewNop())
	day := date(2025, time.January, 10)

	entries := []BatchEntry{
		{Amount: 500, ClaimDate: day, TransactionRef: "TXN1"},
		{Amount: 900, ClaimDate: day, TransactionRef: "TXN2"},
		{Amount: 500, ClaimDate: day}, // partial against storage: ref missing
	}

	result := d.CheckBatch(context.Background(), "emp-1", "ten-1", entries)

	assert.True(t, result.HasDuplicates)
	assert.Equal(t, []int{0}, result.ExactIndexes)
	assert.Equal(t, []int{2}, result.PartialIndexes)
	assert.Equal(t, "Exact duplicate of existing claim CLM-001", result.Details[0].Message)
	assert.Equal(t, "Potential duplicate of existing claim CLM-001 (same amount and date)", result.Details[2].Message)
	assert.NotContains(t, result.Details, 1)
}
