// Package decision combines the deterministic rule table with an optional
// reasoning fallback into the final recommendation for a claim. The fallback
// path is fully contained: no provider failure, timeout or malformed response
// ever escapes the orchestrator as an error.
package decision

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/clearclaim/claims-engine/internal/application/port"
	"github.com/clearclaim/claims-engine/internal/domain/entity"
)

const (
	// AutoApproveConfidence is the fixed confidence reported when every rule
	// passes deterministically. No reasoning call is made on that path.
	AutoApproveConfidence = 0.98

	// FallbackConfidenceCap bounds whatever the reasoning provider reports
	// for a claim with at least one failed rule. The fallback is never more
	// confident than the deterministic ceiling for a non-clean claim.
	FallbackConfidenceCap = 0.85

	// ManualReviewConfidence is the fixed confidence substituted when the
	// reasoning call itself fails.
	ManualReviewConfidence = 0.5

	autoApproveReasoning = "All policy rules satisfied through deterministic checks."

	systemInstruction = "You are a policy compliance expert. Analyze claims carefully and provide balanced recommendations."

	reasoningTemperature = 0.3
)

// fallbackVerdict is the shape the reasoning provider is asked to return.
// Any field may be missing or out of range in the raw response.
type fallbackVerdict struct {
	Confidence     float64 `json:"confidence"`
	Recommendation string  `json:"recommendation"`
	Reasoning      string  `json:"reasoning"`
	Justification  string  `json:"justification"`
}

// Orchestrator routes a claim through the two-stage decision state machine:
// DETERMINISTIC when all rules pass, FALLBACK_INVOKED otherwise.
type Orchestrator struct {
	reasoner port.ReasoningProvider
	logger   *zap.Logger
	now      func() time.Time
}

// NewOrchestrator creates an orchestrator around the configured reasoning
// provider.
func NewOrchestrator(reasoner port.ReasoningProvider, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		reasoner: reasoner,
		logger:   logger,
		now:      time.Now,
	}
}

// Decide produces the final Decision for a claim given its rule table. The
// claim and rule results are never mutated; calling Decide again with the
// same inputs yields the same deterministic output (modulo a fresh fallback
// call when any rule failed).
func (o *Orchestrator) Decide(ctx context.Context, claim *entity.Claim, policyText string, ruleResults []entity.RuleResult) entity.Decision {
	decision := entity.Decision{
		ClaimID:     claim.ID,
		RuleResults: ruleResults,
		EvaluatedAt: o.now(),
	}

	if entity.AllRulesPassed(ruleResults) {
		decision.Recommendation = entity.RecommendAutoApprove
		decision.Confidence = AutoApproveConfidence
		decision.Reasoning = autoApproveReasoning

		o.logger.Info("Claim auto-approved by deterministic rules",
			zap.String("claim_id", claim.ID),
			zap.Int("rules_evaluated", len(ruleResults)))
		return decision
	}

	decision.FallbackUsed = true
	verdict := o.invokeFallback(ctx, claim, policyText, ruleResults)

	decision.Recommendation = verdict.Recommendation
	decision.Confidence = verdict.Confidence
	decision.Reasoning = verdict.Reasoning

	o.logger.Info("Claim decided via reasoning fallback",
		zap.String("claim_id", claim.ID),
		zap.String("recommendation", decision.Recommendation),
		zap.Float64("confidence", decision.Confidence))
	return decision
}

// invokeFallback calls the reasoning provider and interprets its output.
// Every failure mode collapses to the fixed manual-review verdict; this
// path must never return an error or panic.
func (o *Orchestrator) invokeFallback(ctx context.Context, claim *entity.Claim, policyText string, ruleResults []entity.RuleResult) fallbackVerdict {
	prompt := buildPrompt(claim, policyText, ruleResults)

	raw, err := o.reasoner.Generate(ctx, port.GenerateRequest{
		Prompt:            prompt,
		SystemInstruction: systemInstruction,
		Temperature:       reasoningTemperature,
		JSONResponse:      true,
	})
	if err != nil {
		o.logger.Error("Reasoning fallback call failed, routing to manual review",
			zap.Error(err),
			zap.String("claim_id", claim.ID))
		return manualReviewVerdict(fmt.Sprintf("Automated reasoning failed: %v. Recommend manual review.", err))
	}

	verdict, err := parseVerdict(raw)
	if err != nil {
		o.logger.Error("Reasoning fallback returned unparseable output, routing to manual review",
			zap.Error(err),
			zap.String("claim_id", claim.ID),
			zap.String("model", o.reasoner.ModelName()))
		return manualReviewVerdict("Automated reasoning returned an unreadable response. Recommend manual review.")
	}

	// Never let the fallback outscore the deterministic ceiling for a claim
	// that failed at least one rule.
	if verdict.Confidence > FallbackConfidenceCap {
		verdict.Confidence = FallbackConfidenceCap
	}
	if verdict.Confidence < 0 {
		verdict.Confidence = 0
	}

	return verdict
}

func manualReviewVerdict(reason string) fallbackVerdict {
	return fallbackVerdict{
		Confidence:     ManualReviewConfidence,
		Recommendation: entity.RecommendReview,
		Reasoning:      reason,
		Justification:  "Unable to perform automated reasoning",
	}
}

// parseVerdict extracts the structured verdict from raw provider output.
// Providers sometimes wrap JSON in prose or markdown fences, so a brace-scan
// fallback is tried before giving up.
func parseVerdict(raw string) (fallbackVerdict, error) {
	var v fallbackVerdict
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return validateVerdict(v)
	}

	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return v, fmt.Errorf("no JSON object in response")
	}
	end := matchingBrace(raw, start)
	if end < 0 {
		return v, fmt.Errorf("unterminated JSON object in response")
	}
	if err := json.Unmarshal([]byte(raw[start:end]), &v); err != nil {
		return v, fmt.Errorf("parse extracted JSON: %w", err)
	}
	return validateVerdict(v)
}

func validateVerdict(v fallbackVerdict) (fallbackVerdict, error) {
	switch v.Recommendation {
	case entity.RecommendApprove, entity.RecommendReview, entity.RecommendReject:
	default:
		return v, fmt.Errorf("unexpected recommendation %q", v.Recommendation)
	}
	if v.Confidence < 0 || v.Confidence > 1 {
		return v, fmt.Errorf("confidence %v out of range", v.Confidence)
	}
	if strings.TrimSpace(v.Reasoning) == "" {
		v.Reasoning = "No reasoning provided by the model."
	}
	return v, nil
}

// matchingBrace returns the index one past the brace matching raw[start],
// skipping string literals, or -1 when unbalanced.
func matchingBrace(raw string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(raw); i++ {
		c := raw[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = true
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return i + 1
				}
			}
		}
	}
	return -1
}

// buildPrompt assembles the structured fallback prompt: claim details, the
// governing policy text (or a placeholder), and the full rule table with
// failed rules called out separately.
func buildPrompt(claim *entity.Claim, policyText string, ruleResults []entity.RuleResult) string {
	if strings.TrimSpace(policyText) == "" {
		policyText = "No specific policy found"
	}

	claimDate := "N/A"
	if claim.ClaimDate != nil {
		claimDate = claim.ClaimDate.Format("2006-01-02")
	}
	description := claim.Description
	if strings.TrimSpace(description) == "" {
		description = "N/A"
	}

	var failed []entity.RuleResult
	for _, r := range ruleResults {
		if !r.Passed() {
			failed = append(failed, r)
		}
	}

	failedTable := "None"
	if len(failed) > 0 {
		failedTable = formatRules(failed)
	}

	return fmt.Sprintf(`Analyze this reimbursement claim for policy compliance:

CLAIM DETAILS:
- Category: %s
- Amount: %.2f %s
- Date: %s
- Description: %s

POLICY RULES:
%s

RULE-BASED VALIDATION RESULTS:
%s

FAILED RULES:
%s

TASK:
1. Assess if this claim should be approved despite failed rules
2. Consider if there are valid business justifications
3. Provide confidence score (0.0 to 1.0)
4. Make a recommendation: APPROVE, REVIEW, or REJECT

Return in JSON format:
{
    "confidence": <float>,
    "recommendation": "<APPROVE|REVIEW|REJECT>",
    "reasoning": "<detailed explanation>",
    "justification": "<why this decision makes sense>"
}`,
		claim.Category,
		claim.Amount,
		claim.Currency,
		claimDate,
		description,
		policyText,
		formatRules(ruleResults),
		failedTable,
	)
}

func formatRules(rules []entity.RuleResult) string {
	lines := make([]string, 0, len(rules))
	for _, r := range rules {
		lines = append(lines, fmt.Sprintf("- %s: %s (%s)", r.RuleID, strings.ToUpper(r.Result), r.Evidence))
	}
	return strings.Join(lines, "\n")
}
