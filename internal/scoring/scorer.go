// Package scoring computes the advisory confidence score attached to each
// claim. The score is a weighted blend of six independent factors, normalized
// to 0-100 for display. It never drives a state transition on its own; the
// deterministic rule engine has the final say on workflow routing.
package scoring

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Factor keys, stable across the API and stored analysis payloads.
const (
	FactorDocument     = "document_attached"
	FactorCompleteness = "data_completeness"
	FactorExtraction   = "ocr_confidence"
	FactorAmount       = "amount_reasonability"
	FactorDuplicate    = "duplicate_risk"
	FactorCategory     = "category_match"
)

// Recommendation values emitted by the scorer. The scorer never recommends
// rejection; anything below auto-approve is some flavour of review.
const (
	RecommendApprove = "approve"
	RecommendReview  = "review"
)

// AnalysisVersion tags stored score payloads so consumers can detect model
// changes.
const AnalysisVersion = "1.1"

// Weights holds the relative weight of each factor. They are expected to sum
// to 1.0; callers treat the overall score as a 0-100 percentage.
type Weights struct {
	Document     float64 `mapstructure:"document_attached"`
	Completeness float64 `mapstructure:"data_completeness"`
	Extraction   float64 `mapstructure:"ocr_confidence"`
	Amount       float64 `mapstructure:"amount_reasonability"`
	Duplicate    float64 `mapstructure:"duplicate_risk"`
	Category     float64 `mapstructure:"category_match"`
}

// DefaultWeights returns the standard factor weighting.
func DefaultWeights() Weights {
	return Weights{
		Document:     0.20,
		Completeness: 0.25,
		Extraction:   0.20,
		Amount:       0.15,
		Duplicate:    0.10,
		Category:     0.10,
	}
}

// Thresholds are the score boundaries for recommendation text, on the 0-100
// scale.
type Thresholds struct {
	AutoApprove float64 `mapstructure:"auto_approve"`
	QuickReview float64 `mapstructure:"quick_review"`
}

// DefaultThresholds returns the standard 90/70 boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{AutoApprove: 90, QuickReview: 70}
}

// DefaultCategoryLimits returns the fallback per-category amount limits used
// for the reasonability factor when no tenant policy overrides them.
func DefaultCategoryLimits() map[string]float64 {
	return map[string]float64{
		"TRAVEL":          50000,
		"FOOD":            5000,
		"TEAM_LUNCH":      10000,
		"CERTIFICATION":   100000,
		"ACCOMMODATION":   20000,
		"EQUIPMENT":       50000,
		"SOFTWARE":        30000,
		"OFFICE_SUPPLIES": 5000,
		"MEDICAL":         25000,
		"MOBILE":          2000,
		"PASSPORT_VISA":   15000,
		"CONVEYANCE":      3000,
		"CLIENT_MEETING":  20000,
		"OTHER":           10000,
	}
}

// DefaultValidCategories returns the allowed category set per claim type.
func DefaultValidCategories() map[string][]string {
	return map[string][]string{
		"REIMBURSEMENT": {
			"TRAVEL", "FOOD", "TEAM_LUNCH", "CERTIFICATION", "ACCOMMODATION",
			"EQUIPMENT", "SOFTWARE", "OFFICE_SUPPLIES", "MEDICAL", "MOBILE",
			"PASSPORT_VISA", "CONVEYANCE", "CLIENT_MEETING", "OTHER",
		},
		"ALLOWANCE": {
			"ONCALL", "OVERTIME", "SHIFT", "FOOD", "INTERNET", "MOBILE", "OTHER",
		},
	}
}

// Config bundles the externally configurable pieces of the scoring model.
type Config struct {
	Weights         Weights
	Thresholds      Thresholds
	CategoryLimits  map[string]float64
	ValidCategories map[string][]string
}

// DefaultConfig returns the scoring model with all defaults applied.
func DefaultConfig() Config {
	return Config{
		Weights:         DefaultWeights(),
		Thresholds:      DefaultThresholds(),
		CategoryLimits:  DefaultCategoryLimits(),
		ValidCategories: DefaultValidCategories(),
	}
}

// Input is a snapshot of the claim fields the scorer looks at. An Amount of
// zero counts as missing for completeness and as invalid for reasonability.
type Input struct {
	Amount         float64
	Category       string
	ClaimType      string
	ClaimDate      *time.Time
	Title          string
	Description    string
	Vendor         string
	TransactionRef string

	HasDocument bool
	// OCRConfidence is the explicit extraction confidence when the attached
	// document was processed; nil when unknown.
	OCRConfidence *float64
	// OCRExtracted reports whether any claim field was sourced from automated
	// extraction rather than manual entry.
	OCRExtracted bool
	IsDuplicate  bool
}

// Factor is one scored component with its message.
type Factor struct {
	Score   float64 `json:"score"`
	Weight  float64 `json:"weight"`
	Message string  `json:"message"`
}

// Result is the scored analysis for one claim.
type Result struct {
	Overall            float64           `json:"ai_confidence"` // 0-100, one decimal
	Recommendation     string            `json:"ai_recommendation"`
	RecommendationText string            `json:"recommendation_text"`
	Factors            map[string]Factor `json:"factors"`
	AnalysisVersion    string            `json:"analysis_version"`
	Thresholds         Thresholds        `json:"thresholds"`
}

// Scorer computes advisory confidence scores. It is stateless and safe for
// concurrent use.
type Scorer struct {
	cfg Config
}

// NewScorer creates a scorer, filling any zero-valued config section with the
// defaults.
func NewScorer(cfg Config) *Scorer {
	if cfg.Weights == (Weights{}) {
		cfg.Weights = DefaultWeights()
	}
	if cfg.Thresholds == (Thresholds{}) {
		cfg.Thresholds = DefaultThresholds()
	}
	if len(cfg.CategoryLimits) == 0 {
		cfg.CategoryLimits = DefaultCategoryLimits()
	}
	if len(cfg.ValidCategories) == 0 {
		cfg.ValidCategories = DefaultValidCategories()
	}
	return &Scorer{cfg: cfg}
}

// Score evaluates all six factors and blends them into the overall result.
func (s *Scorer) Score(in Input) Result {
	w := s.cfg.Weights
	factors := make(map[string]Factor, 6)

	add := func(key string, weight, score float64, message string) {
		factors[key] = Factor{Score: score, Weight: weight, Message: message}
	}

	score, msg := scoreDocument(in.HasDocument)
	add(FactorDocument, w.Document, score, msg)

	score, msg = scoreCompleteness(in)
	add(FactorCompleteness, w.Completeness, score, msg)

	score, msg = scoreExtraction(in)
	add(FactorExtraction, w.Extraction, score, msg)

	score, msg = s.scoreAmount(in)
	add(FactorAmount, w.Amount, score, msg)

	score, msg = scoreDuplicate(in.IsDuplicate)
	add(FactorDuplicate, w.Duplicate, score, msg)

	score, msg = s.scoreCategory(in)
	add(FactorCategory, w.Category, score, msg)

	var total float64
	for _, f := range factors {
		total += f.Score * f.Weight
	}
	overall := math.Round(total*1000) / 10

	recommendation, text := s.recommend(overall)

	return Result{
		Overall:            overall,
		Recommendation:     recommendation,
		RecommendationText: text,
		Factors:            factors,
		AnalysisVersion:    AnalysisVersion,
		Thresholds:         s.cfg.Thresholds,
	}
}

func (s *Scorer) recommend(overall float64) (string, string) {
	switch {
	case overall >= s.cfg.Thresholds.AutoApprove:
		return RecommendApprove, "Auto-approve recommended"
	case overall >= s.cfg.Thresholds.QuickReview:
		return RecommendReview, "Quick review recommended"
	default:
		return RecommendReview, "Manual review required"
	}
}

func scoreDocument(hasDocument bool) (float64, string) {
	if hasDocument {
		return 1.0, "Document attached"
	}
	return 0.4, "No supporting document"
}

func scoreCompleteness(in Input) (float64, string) {
	required := 0
	if in.Amount != 0 {
		required++
	}
	if strings.TrimSpace(in.Category) != "" {
		required++
	}
	if in.ClaimDate != nil {
		required++
	}
	requiredScore := float64(required) / 3

	optional := 0
	for _, v := range []string{in.Description, in.Vendor, in.TransactionRef, in.Title} {
		if strings.TrimSpace(v) != "" {
			optional++
		}
	}
	optionalScore := float64(optional) / 4

	// Required fields dominate: 70/30 split.
	total := requiredScore*0.7 + optionalScore*0.3

	switch {
	case total >= 0.9:
		return total, "All fields complete"
	case total >= 0.7:
		return total, "Most fields complete"
	case total >= 0.5:
		return total, "Some fields missing"
	default:
		return total, "Incomplete data"
	}
}

func scoreExtraction(in Input) (float64, string) {
	switch {
	case in.OCRConfidence != nil:
		return *in.OCRConfidence, fmt.Sprintf("OCR confidence: %d%%", int(*in.OCRConfidence*100))
	case in.OCRExtracted:
		return 0.75, "Auto-extracted data"
	case in.HasDocument:
		return 0.6, "Document not processed"
	default:
		// Manual entry is assumed reliable.
		return 0.85, "Manual data entry"
	}
}

func (s *Scorer) scoreAmount(in Input) (float64, string) {
	limit, ok := s.cfg.CategoryLimits[strings.ToUpper(in.Category)]
	if !ok {
		if limit, ok = s.cfg.CategoryLimits["OTHER"]; !ok {
			limit = 10000
		}
	}

	switch {
	case in.Amount <= 0:
		return 0.3, "Invalid amount"
	case in.Amount <= limit*0.5:
		return 1.0, "Well within limit"
	case in.Amount <= limit*0.8:
		return 0.9, "Within limit"
	case in.Amount <= limit:
		return 0.7, "Near limit"
	default:
		return 0.3, fmt.Sprintf("Exceeds limit (%.0f)", limit)
	}
}

func scoreDuplicate(isDuplicate bool) (float64, string) {
	if isDuplicate {
		return 0.3, "Potential duplicate detected"
	}
	return 1.0, "No duplicates found"
}

func (s *Scorer) scoreCategory(in Input) (float64, string) {
	claimType := strings.ToUpper(strings.TrimSpace(in.ClaimType))
	valid, ok := s.cfg.ValidCategories[claimType]
	if !ok {
		valid = s.cfg.ValidCategories["REIMBURSEMENT"]
	}

	category := strings.ToUpper(strings.TrimSpace(in.Category))
	for _, c := range valid {
		if c == category {
			return 1.0, "Valid category"
		}
	}
	return 0.6, "Category may not apply"
}
