// Package docvalidity extracts behavioral claims from documentation,
// verifies them against the code graph, and rolls the results up into a
// per-document validity score.
package docvalidity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/c360studio/codegraph/llm"
	"github.com/c360studio/codegraph/storage"
)

const claimExtractionPrompt = `Your task: Extract behavioral claims FROM THE DOCUMENT BELOW ONLY.

A behavioral claim is a statement with a specific, testable value (number, percentage, limit, threshold).

WHAT TO EXTRACT (claims with specific values):
- Limits: "Max 10 items", "Up to 5 attempts"
- Percentages: "25%% boost", "50%% discount"
- Thresholds: "Requires 500 points", "Minimum 8 characters"
- Durations: "Expires after 24 hours", "Cooldown of 5 minutes"
- Costs/Prices: "$1000 fee", "Costs 50 gold"

WHAT TO SKIP:
- Vague statements without numbers
- Instructions or recommendations
- References to other docs
- Code examples or sample data

=== DOCUMENT TO ANALYZE (extract claims ONLY from this content) ===
%s
=== END DOCUMENT ===

Return a JSON array. Each claim must have:
- claim_text: exact quote from the document above
- topic: short description (2-4 words)
- subject: the entity the claim is about, if identifiable
- condition: any qualifying condition, if present
- expected_value: the specific number/value claimed
- value_type: percentage|number|duration|size|boolean
- confidence: 0.7-1.0

CRITICAL: Only extract claims that appear in the document above. Do NOT include any examples from these instructions.

Return [] if no claims found. Return ONLY valid JSON, no other text.
JSON:`

// maxDocumentChars truncates very long documents before they're sent to
// the extraction prompt.
const maxDocumentChars = 20000

// ExtractorConfig configures claim extraction limits (§4.9).
type ExtractorConfig struct {
	MaxClaims     int
	MinConfidence float64
}

// DefaultExtractorConfig returns the extractor's documented defaults.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{MaxClaims: 50, MinConfidence: 0.7}
}

// ClaimExtractor produces BehavioralClaims from a document's text via
// the deep LLM slot.
type ClaimExtractor struct {
	client *llm.Client
	cfg    ExtractorConfig
}

// NewClaimExtractor builds a ClaimExtractor bound to client.
func NewClaimExtractor(client *llm.Client, cfg ExtractorConfig) *ClaimExtractor {
	if cfg.MaxClaims <= 0 {
		cfg.MaxClaims = DefaultExtractorConfig().MaxClaims
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = DefaultExtractorConfig().MinConfidence
	}
	return &ClaimExtractor{client: client, cfg: cfg}
}

// rawClaim mirrors the LLM's per-claim JSON shape before validation.
type rawClaim struct {
	ClaimText     string      `json:"claim_text"`
	Topic         string      `json:"topic"`
	Subject       string      `json:"subject"`
	Condition     string      `json:"condition"`
	ExpectedValue interface{} `json:"expected_value"`
	ValueType     string      `json:"value_type"`
	Confidence    float64     `json:"confidence"`
}

// Extract runs claim extraction over a document's content. It never
// returns partial results on a parse failure: any failure to recover
// valid JSON from the LLM response yields an empty slice and an error
// (§4.9).
func (e *ClaimExtractor) Extract(ctx context.Context, documentID, content string) ([]storage.BehavioralClaim, error) {
	if len(content) > maxDocumentChars {
		content = content[:maxDocumentChars] + "\n... (truncated)"
	}

	prompt := fmt.Sprintf(claimExtractionPrompt, content)
	resp, err := e.client.Complete(ctx, llm.Request{
		Slot:     llm.SlotDeep,
		Messages: []llm.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, fmt.Errorf("claim extraction LLM call: %w", err)
	}

	raws, err := parseClaimsResponse(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("parsing claim extraction response: %w", err)
	}

	claims := make([]storage.BehavioralClaim, 0, len(raws))
	for i, r := range raws {
		if i >= e.cfg.MaxClaims {
			break
		}
		if r.Confidence < e.cfg.MinConfidence {
			continue
		}
		if strings.TrimSpace(r.ClaimText) == "" {
			continue
		}
		expected := ""
		if r.ExpectedValue != nil {
			expected = fmt.Sprintf("%v", r.ExpectedValue)
		}
		claims = append(claims, storage.BehavioralClaim{
			ID:                   uuid.New().String(),
			DocumentID:           documentID,
			ClaimText:            r.ClaimText,
			Topic:                orUnknown(r.Topic),
			Subject:              r.Subject,
			Condition:            r.Condition,
			ExpectedValue:        expected,
			ValueType:            r.ValueType,
			ExtractionConfidence: r.Confidence,
			Status:               "new",
		})
	}
	return claims, nil
}

// ExtractAndStore deletes any prior claims for documentID (idempotency
// on re-extraction, §4.9) and persists the freshly extracted claims.
func (e *ClaimExtractor) ExtractAndStore(ctx context.Context, store *storage.Store, documentID, content string) ([]storage.BehavioralClaim, error) {
	if err := store.DeleteClaimsForDocument(ctx, documentID); err != nil {
		return nil, fmt.Errorf("clearing existing claims: %w", err)
	}

	claims, err := e.Extract(ctx, documentID, content)
	if err != nil {
		return nil, err
	}
	for _, c := range claims {
		if err := store.InsertClaim(ctx, c); err != nil {
			return nil, fmt.Errorf("storing claim: %w", err)
		}
	}
	return claims, nil
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}

// parseClaimsResponse applies the three-fallback parse chain: direct
// JSON parse, fenced code block extraction, then a regex scan for an
// array or object (§4.9).
func parseClaimsResponse(text string) ([]rawClaim, error) {
	text = strings.TrimSpace(text)

	if raws, ok := tryUnmarshalClaims(text); ok {
		return raws, nil
	}

	if block := llm.ExtractJSONArray(text); block != "" {
		if raws, ok := tryUnmarshalClaims(block); ok {
			return raws, nil
		}
	}
	if block := llm.ExtractJSON(text); block != "" {
		if raws, ok := tryUnmarshalClaims(block); ok {
			return raws, nil
		}
	}

	return nil, fmt.Errorf("could not recover valid JSON from LLM response: %.200s", text)
}

// tryUnmarshalClaims accepts a bare array, a {"claims": [...]} wrapper,
// or a single claim object, mirroring the fallbacks the original
// extractor uses for shape-tolerant parsing.
func tryUnmarshalClaims(text string) ([]rawClaim, bool) {
	var arr []rawClaim
	if err := json.Unmarshal([]byte(text), &arr); err == nil {
		return arr, true
	}

	var wrapper struct {
		Claims []rawClaim `json:"claims"`
	}
	if err := json.Unmarshal([]byte(text), &wrapper); err == nil && wrapper.Claims != nil {
		return wrapper.Claims, true
	}

	var single rawClaim
	if err := json.Unmarshal([]byte(text), &single); err == nil && single.ClaimText != "" {
		return []rawClaim{single}, true
	}

	return nil, false
}
