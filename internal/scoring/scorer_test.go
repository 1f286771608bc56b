package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func floatPtr(f float64) *float64 { return &f }

func TestScoreWeightedArithmetic(t *testing.T) {
	// No document, no OCR data, amount exactly at the category limit, valid
	// category, no duplicate. Required fields all present, no optional fields,
	// so completeness is 3/3*0.7 + 0/4*0.3 = 0.7.
	claimDate := date(2025, time.May, 10)
	in := Input{
		Amount:    50000, // TRAVEL limit
		Category:  "TRAVEL",
		ClaimType: "REIMBURSEMENT",
		ClaimDate: &claimDate,
	}

	result := NewScorer(DefaultConfig()).Score(in)

	// 100 * (0.4*0.20 + 0.7*0.25 + 0.85*0.20 + 0.7*0.15 + 1.0*0.10 + 1.0*0.10)
	assert.InDelta(t, 73.0, result.Overall, 1e-9)
	assert.Equal(t, RecommendReview, result.Recommendation)
	assert.Equal(t, "Quick review recommended", result.RecommendationText)

	require.Len(t, result.Factors, 6)
	assert.InDelta(t, 0.4, result.Factors[FactorDocument].Score, 1e-9)
	assert.InDelta(t, 0.7, result.Factors[FactorCompleteness].Score, 1e-9)
	assert.InDelta(t, 0.85, result.Factors[FactorExtraction].Score, 1e-9)
	assert.InDelta(t, 0.7, result.Factors[FactorAmount].Score, 1e-9)
	assert.InDelta(t, 1.0, result.Factors[FactorDuplicate].Score, 1e-9)
	assert.InDelta(t, 1.0, result.Factors[FactorCategory].Score, 1e-9)
}

func TestScoreHighConfidenceClaim(t *testing.T) {
	claimDate := date(2025, time.May, 10)
	in := Input{
		Amount:         1200,
		Category:       "TRAVEL",
		ClaimType:      "REIMBURSEMENT",
		ClaimDate:      &claimDate,
		Title:          "Client visit",
		Description:    "Cab to airport",
		Vendor:         "City Cabs",
		TransactionRef: "TXN-991",
		HasDocument:    true,
		OCRConfidence:  floatPtr(0.95),
	}

	result := NewScorer(DefaultConfig()).Score(in)

	assert.GreaterOrEqual(t, result.Overall, 90.0)
	assert.Equal(t, RecommendApprove, result.Recommendation)
	assert.Equal(t, "Auto-approve recommended", result.RecommendationText)
}

func TestScoreNeverRecommendsReject(t *testing.T) {
	// Worst possible claim: nothing present, invalid amount, duplicate,
	// category invalid for the claim type.
	in := Input{
		Amount:      -10,
		Category:    "ONCALL",
		ClaimType:   "REIMBURSEMENT",
		IsDuplicate: true,
	}

	result := NewScorer(DefaultConfig()).Score(in)

	assert.Less(t, result.Overall, 70.0)
	assert.Equal(t, RecommendReview, result.Recommendation)
	assert.Equal(t, "Manual review required", result.RecommendationText)
}

func TestScoreDocumentFactor(t *testing.T) {
	s := NewScorer(DefaultConfig())

	with := s.Score(Input{HasDocument: true})
	assert.InDelta(t, 1.0, with.Factors[FactorDocument].Score, 1e-9)
	assert.Equal(t, "Document attached", with.Factors[FactorDocument].Message)

	without := s.Score(Input{})
	assert.InDelta(t, 0.4, without.Factors[FactorDocument].Score, 1e-9)
	assert.Equal(t, "No supporting document", without.Factors[FactorDocument].Message)
}

func TestScoreExtractionFactor(t *testing.T) {
	s := NewScorer(DefaultConfig())

	tests := []struct {
		name        string
		in          Input
		wantScore   float64
		wantMessage string
	}{
		{
			name:        "explicit ocr confidence wins",
			in:          Input{HasDocument: true, OCRConfidence: floatPtr(0.92), OCRExtracted: true},
			wantScore:   0.92,
			wantMessage: "OCR confidence: 92%",
		},
		{
			name:        "auto extracted without explicit confidence",
			in:          Input{HasDocument: true, OCRExtracted: true},
			wantScore:   0.75,
			wantMessage: "Auto-extracted data",
		},
		{
			name:        "document present but unprocessed",
			in:          Input{HasDocument: true},
			wantScore:   0.6,
			wantMessage: "Document not processed",
		},
		{
			name:        "manual entry",
			in:          Input{},
			wantScore:   0.85,
			wantMessage: "Manual data entry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := s.Score(tt.in)
			f := result.Factors[FactorExtraction]
			assert.InDelta(t, tt.wantScore, f.Score, 1e-9)
			assert.Equal(t, tt.wantMessage, f.Message)
		})
	}
}

func TestScoreAmountReasonability(t *testing.T) {
	s := NewScorer(DefaultConfig())

	tests := []struct {
		name      string
		amount    float64
		category  string
		wantScore float64
	}{
		{"invalid non-positive amount", 0, "TRAVEL", 0.3},
		{"negative amount", -500, "TRAVEL", 0.3},
		{"half of limit", 25000, "TRAVEL", 1.0},
		{"eighty percent of limit", 40000, "TRAVEL", 0.9},
		{"at limit", 50000, "TRAVEL", 0.7},
		{"over limit", 50001, "TRAVEL", 0.3},
		{"unknown category falls back to OTHER limit", 5000, "MYSTERY", 1.0},
		{"unknown category over OTHER limit", 10001, "MYSTERY", 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := s.Score(Input{Amount: tt.amount, Category: tt.category, ClaimType: "REIMBURSEMENT"})
			assert.InDelta(t, tt.wantScore, result.Factors[FactorAmount].Score, 1e-9)
		})
	}
}

func TestScoreCategoryValidity(t *testing.T) {
	s := NewScorer(DefaultConfig())

	valid := s.Score(Input{Category: "oncall", ClaimType: "allowance", Amount: 100})
	assert.InDelta(t, 1.0, valid.Factors[FactorCategory].Score, 1e-9)

	invalid := s.Score(Input{Category: "ONCALL", ClaimType: "REIMBURSEMENT", Amount: 100})
	assert.InDelta(t, 0.6, invalid.Factors[FactorCategory].Score, 1e-9)
	assert.Equal(t, "Category may not apply", invalid.Factors[FactorCategory].Message)
}

func TestScoreDuplicateFactor(t *testing.T) {
	s := NewScorer(DefaultConfig())

	dup := s.Score(Input{IsDuplicate: true})
	assert.InDelta(t, 0.3, dup.Factors[FactorDuplicate].Score, 1e-9)
	assert.Equal(t, "Potential duplicate detected", dup.Factors[FactorDuplicate].Message)
}

func TestScoreCustomThresholds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Thresholds = Thresholds{AutoApprove: 70, QuickReview: 50}

	claimDate := date(2025, time.May, 10)
	in := Input{
		Amount:    50000,
		Category:  "TRAVEL",
		ClaimType: "REIMBURSEMENT",
		ClaimDate: &claimDate,
	}

	result := NewScorer(cfg).Score(in) // 73.0 with defaults
	assert.Equal(t, RecommendApprove, result.Recommendation)
	assert.Equal(t, Thresholds{AutoApprove: 70, QuickReview: 50}, result.Thresholds)
}

func TestNewScorerFillsDefaults(t *testing.T) {
	s := NewScorer(Config{})

	result := s.Score(Input{Amount: 100, Category: "TRAVEL", ClaimType: "REIMBURSEMENT"})
	assert.Equal(t, AnalysisVersion, result.AnalysisVersion)
	assert.Equal(t, DefaultThresholds(), result.Thresholds)
}

func TestScoreIsDeterministic(t *testing.T) {
	claimDate := date(2025, time.May, 10)
	in := Input{
		Amount:      780,
		Category:    "FOOD",
		ClaimType:   "REIMBURSEMENT",
		ClaimDate:   &claimDate,
		Description: "team dinner",
		HasDocument: true,
	}

	s := NewScorer(DefaultConfig())
	first := s.Score(in)
	second := s.Score(in)
	assert.Equal(t, first, second)
}
