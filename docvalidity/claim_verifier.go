package docvalidity

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/c360studio/codegraph/llm"
	"github.com/c360studio/codegraph/retrieval"
	"github.com/c360studio/codegraph/storage"
)

const claimVerificationPrompt = `Verify if this documentation claim matches the actual code behavior.

CLAIM FROM DOCUMENTATION:
- Topic: %s
- Subject: %s
- Condition: %s
- Expected Value/Behavior: %s
- Original Text: "%s"

RELEVANT CODE:
---
%s
---

TASK: Determine if the PRODUCTION code actually implements what the documentation claims.

CRITICAL VERIFICATION RULES:
1. PRIORITIZE production code (src/, lib/) over test code (tests/, test_, .test., .spec.)
2. BE SKEPTICAL of test fixtures and mock data - they often use placeholder values that don't reflect actual limits
3. DISTINGUISH between:
   - A "library" or "pool" of available items (e.g., 50 moves in a database)
   - An "allocation" or "limit" per entity (e.g., max 10 moves per wrestler)
4. Look for EXPLICIT enforcement patterns:
   - Conditionals: >= MAX, <= LIMIT, > threshold
   - Capping functions: min(limit, value), max(min, value)
   - Configuration constants: MAX_X, LIMIT_Y, maxSomething
   - Validation checks that reject values outside bounds
5. Test file code marked with [TEST FILE] should be treated as LESS reliable evidence

Look for:
1. The specific value, threshold, or behavior mentioned in the claim
2. Any conditions or context that apply
3. Any discrepancies between doc and code
4. Whether values in tests are mock/fixture data vs actual enforcement

Return a JSON object with these fields:
- verdict: One of "match", "mismatch", "unclear", "no_code_found"
- confidence: Your confidence 0.0-1.0 in this verdict
- actual_value: What the code actually does (if found), e.g. "15%%" or "100 requests/min"
- actual_behavior: Brief description of actual code behavior
- reasoning: Step-by-step explanation of how you reached this conclusion
- suggested_fix: If mismatch, what should be changed
- fix_type: If mismatch, one of "update_doc", "update_code", "needs_review"
- suggested_diff: If fix_type is "update_doc", show the diff like "- old text\n+ new text"
- severity: If mismatch, one of "low", "medium", "high", "critical"

IMPORTANT: Return ONLY valid JSON. No explanation outside the JSON.

JSON:`

// VerifierConfig configures ClaimVerifier's retrieval and reranking steps.
type VerifierConfig struct {
	TopK            int     // chunks passed to the LLM after reranking
	MinRelevance    float64 // relevance floor below which a chunk is dropped
	FetchMultiplier int     // fetch TopK*FetchMultiplier per query before reranking
}

// DefaultVerifierConfig returns the documented defaults (§4.10).
func DefaultVerifierConfig() VerifierConfig {
	return VerifierConfig{TopK: 10, MinRelevance: 0.3, FetchMultiplier: 3}
}

// CodeEvidence is one supporting code reference backing a verification.
type CodeEvidence struct {
	ChunkID        string
	FilePath       string
	StartLine      int
	EndLine        int
	Content        string
	RelevanceScore float64
}

// VerificationResult is the outcome of verifying one BehavioralClaim.
type VerificationResult struct {
	ClaimID        string
	Verdict        string // match, mismatch, unclear, no_code_found
	Confidence     float64
	ActualValue    string
	ActualBehavior string
	Evidence       []CodeEvidence
	Reasoning      string
	SuggestedFix   string
	FixType        string
	SuggestedDiff  string
	Severity       string // set only when Verdict is mismatch
}

// ClaimVerifier checks a BehavioralClaim against the code graph by
// multi-query hybrid search, enforcement-aware reranking, and a deep LLM
// verdict call (§4.10).
type ClaimVerifier struct {
	client   *llm.Client
	embedder retrieval.Embedder
	cfg      VerifierConfig
}

// NewClaimVerifier builds a ClaimVerifier. embedder may be nil to run an
// FTS-only search (no vector arm).
func NewClaimVerifier(client *llm.Client, embedder retrieval.Embedder, cfg VerifierConfig) *ClaimVerifier {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultVerifierConfig().TopK
	}
	if cfg.MinRelevance <= 0 {
		cfg.MinRelevance = DefaultVerifierConfig().MinRelevance
	}
	if cfg.FetchMultiplier <= 0 {
		cfg.FetchMultiplier = DefaultVerifierConfig().FetchMultiplier
	}
	return &ClaimVerifier{client: client, embedder: embedder, cfg: cfg}
}

// Verify runs the full verification algorithm (§4.10 steps 1-7) for one
// claim. It does not persist anything; call VerifyAndStore for that.
func (v *ClaimVerifier) Verify(ctx context.Context, store *storage.Store, claim storage.BehavioralClaim) VerificationResult {
	queries := buildSearchQueries(claim)
	fetchK := v.cfg.TopK * v.cfg.FetchMultiplier

	merged := make(map[string]retrieval.Result)
	opts := retrieval.Options{
		FinalTopK: fetchK,
		Weights:   retrieval.ClaimVerificationWeights(),
	}
	for _, q := range queries {
		results, err := retrieval.Search(ctx, store, v.embedder, q, opts)
		if err != nil {
			continue
		}
		for _, r := range results {
			if existing, ok := merged[r.ChunkID]; !ok || r.Score > existing.Score {
				merged[r.ChunkID] = r
			}
		}
	}

	if len(merged) == 0 {
		return VerificationResult{
			ClaimID:   claim.ID,
			Verdict:   "no_code_found",
			Reasoning: "all search queries failed",
		}
	}

	candidates := make([]retrieval.Result, 0, len(merged))
	for _, r := range merged {
		candidates = append(candidates, r)
	}
	reranked := rerankForEnforcement(candidates, claim)

	evidence := make([]CodeEvidence, 0, len(reranked))
	for _, re := range reranked {
		if re.score < v.cfg.MinRelevance {
			continue
		}
		evidence = append(evidence, CodeEvidence{
			ChunkID: re.result.ChunkID, FilePath: re.result.Path,
			StartLine: re.result.StartLine, EndLine: re.result.EndLine,
			Content: re.result.Content, RelevanceScore: re.score,
		})
	}

	if len(evidence) == 0 {
		return VerificationResult{
			ClaimID:    claim.ID,
			Verdict:    "no_code_found",
			Confidence: 0.8,
			Reasoning:  "no code found with sufficient relevance to the claim topic",
		}
	}

	if len(evidence) > v.cfg.TopK {
		evidence = evidence[:v.cfg.TopK]
	}

	codeContext := buildCodeContext(evidence, 12000)
	prompt := fmt.Sprintf(claimVerificationPrompt,
		orUnknown(claim.Topic), orUnknown(claim.Subject), orNone(claim.Condition),
		orNotSpecified(claim.ExpectedValue), claim.ClaimText, codeContext)

	resp, err := v.client.Complete(ctx, llm.Request{
		Slot:     llm.SlotDeep,
		Messages: []llm.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return VerificationResult{
			ClaimID:   claim.ID,
			Verdict:   "unclear",
			Evidence:  evidence,
			Reasoning: fmt.Sprintf("verification LLM call failed: %v", err),
		}
	}

	parsed := parseVerificationResponse(resp.Content)
	result := VerificationResult{
		ClaimID:        claim.ID,
		Verdict:        parsed.Verdict,
		Confidence:     parsed.Confidence,
		ActualValue:    parsed.ActualValue,
		ActualBehavior: parsed.ActualBehavior,
		Evidence:       evidence,
		Reasoning:      parsed.Reasoning,
	}
	if result.Verdict == "" {
		result.Verdict = "unclear"
	}

	// Post-processing: reconcile percentage/decimal forms (§4.10 step 7).
	if result.Verdict == "mismatch" && claim.ExpectedValue != "" && result.ActualValue != "" {
		if valuesMatch(claim.ExpectedValue, result.ActualValue) {
			result.Verdict = "match"
			result.Reasoning = fmt.Sprintf("values match: expected=%s, actual=%s (auto-corrected)", claim.ExpectedValue, result.ActualValue)
		}
	}

	if result.Verdict == "mismatch" {
		result.SuggestedFix = parsed.SuggestedFix
		result.FixType = parsed.FixType
		result.SuggestedDiff = parsed.SuggestedDiff
		result.Severity = determineSeverity(result.Confidence)
	}

	return result
}

// VerifyAndStore runs Verify, persists the verification, updates the
// claim's status, and (on a mismatch verdict) inserts a DocDriftIssue
// (§4.10 step 8).
func (v *ClaimVerifier) VerifyAndStore(ctx context.Context, store *storage.Store, claim storage.BehavioralClaim) (VerificationResult, error) {
	result := v.Verify(ctx, store, claim)

	evidence := make([]storage.ClaimEvidence, 0, len(result.Evidence))
	for _, e := range result.Evidence {
		evidence = append(evidence, storage.ClaimEvidence{
			ChunkID: e.ChunkID, File: e.FilePath, StartLine: e.StartLine, EndLine: e.EndLine, Relevance: e.RelevanceScore,
		})
	}

	verificationID := uuid.New().String()
	if err := store.InsertVerification(ctx, storage.ClaimVerification{
		ID: verificationID, ClaimID: claim.ID, Verdict: result.Verdict, Confidence: result.Confidence,
		ActualValue: result.ActualValue, Evidence: evidence, Reasoning: result.Reasoning,
		SuggestedFix: result.SuggestedFix, FixType: result.FixType, SuggestedDiff: result.SuggestedDiff,
		Severity: result.Severity,
	}); err != nil {
		return result, fmt.Errorf("storing verification: %w", err)
	}

	status := "unclear"
	switch result.Verdict {
	case "match":
		status = "verified"
	case "mismatch":
		status = "drift"
	}
	if err := store.UpdateClaimStatus(ctx, claim.ID, status); err != nil {
		return result, fmt.Errorf("updating claim status: %w", err)
	}

	if result.Verdict == "mismatch" {
		if err := store.InsertDriftIssue(ctx, storage.DocDriftIssue{
			ID: uuid.New().String(), ClaimID: claim.ID, VerificationID: verificationID,
			Severity: result.Severity, Summary: result.Reasoning,
		}); err != nil {
			return result, fmt.Errorf("storing drift issue: %w", err)
		}
	}

	return result, nil
}

// --- query generation (§4.10 step 1) ---

var stopSubjectWords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "for": true,
	"per": true, "to": true, "in": true,
}

func buildSearchQueries(claim storage.BehavioralClaim) []string {
	var numbers []string
	if claim.ExpectedValue != "" {
		numbers = numberPattern.FindAllString(claim.ExpectedValue, -1)
	}

	subjectWords := significantWords(claim.Subject)
	topicWords := significantWords(claim.Topic)

	var queries []string

	// Query 1: topic-focused with code synonyms.
	var parts []string
	if claim.Topic != "" {
		parts = append(parts, claim.Topic)
		topicLower := strings.ToLower(claim.Topic)
		if strings.Contains(topicLower, "limit") || strings.Contains(topicLower, "max") {
			parts = append(parts, "maximum", "count", "check")
		}
		if strings.Contains(topicLower, "allocation") || strings.Contains(topicLower, "assign") {
			parts = append(parts, "assign", "allocate", "service")
		}
	}
	if claim.Subject != "" {
		parts = append(parts, claim.Subject)
	}
	if len(numbers) > 0 {
		parts = append(parts, firstN(numbers, 2)...)
		parts = append(parts, ">=")
	}
	if len(parts) > 0 {
		queries = append(queries, strings.Join(parts, " "))
	}

	// Query 2: the claim text itself.
	if claim.ClaimText != "" {
		queries = append(queries, claim.ClaimText)
	}

	// Query 3: enforcement-focused.
	enforcementParts := append([]string{}, topicWords...)
	enforcementParts = append(enforcementParts, "check", "validate", "error", "maximum")
	enforcementParts = append(enforcementParts, firstN(numbers, 2)...)
	if len(enforcementParts) > 0 {
		queries = append(queries, strings.Join(enforcementParts, " "))
	}

	// Query 4: error-message patterns.
	if len(topicWords) > 0 {
		keyNoun := topicWords[0]
		queries = append(queries,
			fmt.Sprintf("maximum %s", keyNoun),
			fmt.Sprintf("already has %s", keyNoun),
			fmt.Sprintf("%s limit", keyNoun),
		)
		if len(numbers) > 0 {
			queries = append(queries,
				fmt.Sprintf(">= %s", numbers[0]),
				fmt.Sprintf("maximum %s %s", keyNoun, numbers[0]),
			)
		}
	}

	// Query 5: service-layer targeting.
	if len(subjectWords) > 0 && len(topicWords) > 0 {
		subjectKey, topicKey := subjectWords[0], topicWords[0]
		queries = append(queries,
			fmt.Sprintf("%sService assign %s", subjectKey, topicKey),
			fmt.Sprintf("%s assign %s error", subjectKey, topicKey),
			fmt.Sprintf("can assign %s", topicKey),
		)
	}

	return dedupePreserveOrder(queries, claim.ClaimText)
}

var numberPattern = regexp.MustCompile(`\d+`)
var decimalPattern = regexp.MustCompile(`\d+\.?\d*`)

func significantWords(s string) []string {
	if s == "" {
		return nil
	}
	var words []string
	for _, w := range strings.Fields(strings.ToLower(s)) {
		if !stopSubjectWords[w] {
			words = append(words, w)
		}
	}
	return words
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func dedupePreserveOrder(queries []string, fallback string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
	}
	if len(out) == 0 {
		return []string{fallback}
	}
	return out
}

// --- reranking (§4.10 step 3) ---

type rerankedResult struct {
	result retrieval.Result
	score  float64
}

var enforcementPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)>=\s*\d+`),
	regexp.MustCompile(`(?i)<=\s*\d+`),
	regexp.MustCompile(`(?i)Math\.min\s*\(`),
	regexp.MustCompile(`(?i)Math\.max\s*\(`),
	regexp.MustCompile(`(?i)\bmin\s*\(`),
	regexp.MustCompile(`(?i)\bmax\s*\(`),
	regexp.MustCompile(`(?i)return\s*\{.*error`),
	regexp.MustCompile(`(?i)throw\s+new\s+Error`),
}

var limitErrorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)maximum\s+\w+`),
	regexp.MustCompile(`(?i)already\s+has`),
	regexp.MustCompile(`(?i)limit\s+reached`),
	regexp.MustCompile(`(?i)exceeded`),
	regexp.MustCompile(`(?i)too\s+many`),
}

// rerankForEnforcement applies the multiplicative reranker from §4.10
// step 3: test/script/service file adjustments, enforcement-pattern
// counting, expected-value-in-comparison detection, and a small additive
// subject-word-match boost.
func rerankForEnforcement(results []retrieval.Result, claim storage.BehavioralClaim) []rerankedResult {
	expectedNumbers := make(map[string]bool)
	if claim.ExpectedValue != "" {
		for _, n := range numberPattern.FindAllString(claim.ExpectedValue, -1) {
			expectedNumbers[n] = true
		}
	}

	subjectWords := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(claim.Subject)) {
		subjectWords[w] = true
	}
	for _, w := range strings.Fields(strings.ToLower(claim.Topic)) {
		subjectWords[w] = true
	}

	reranked := make([]rerankedResult, 0, len(results))
	for _, r := range results {
		contentLower := strings.ToLower(r.Content)
		fileLower := strings.ToLower(r.Path)

		multiplier := 1.0
		switch {
		case isTestFile(r.Path):
			multiplier *= 0.5
		case strings.Contains(fileLower, "/scripts/"):
			multiplier *= 0.7
		case strings.Contains(fileLower, "/services/") || strings.Contains(fileLower, "service"):
			multiplier *= 1.1
		}

		enforcementCount := 0
		for _, p := range enforcementPatterns {
			if p.MatchString(r.Content) {
				enforcementCount++
			}
		}

		for num := range expectedNumbers {
			patterns := []string{
				`>=\s*` + num + `\b`, `<=\s*` + num + `\b`, `>\s*` + num + `\b`, `<\s*` + num + `\b`,
				`==\s*` + num + `\b`, `\b` + num + `\s*\)`, `maximum.*` + num, `limit.*` + num,
			}
			matched := false
			for _, pat := range patterns {
				if ok, _ := regexp.MatchString(`(?i)`+pat, r.Content); ok {
					matched = true
					break
				}
			}
			if matched {
				enforcementCount += 2
				break
			}
		}

		for _, p := range limitErrorPatterns {
			if p.MatchString(r.Content) {
				enforcementCount++
				break
			}
		}

		if enforcementCount > 0 {
			multiplier *= 1.0 + float64(enforcementCount)*0.15
		}

		subjectMatches := 0
		for w := range subjectWords {
			if w != "" && strings.Contains(contentLower, w) {
				subjectMatches++
			}
		}
		additiveBoost := float64(subjectMatches) * 0.02

		finalScore := r.Score*multiplier + additiveBoost
		reranked = append(reranked, rerankedResult{result: r, score: finalScore})
	}

	sort.SliceStable(reranked, func(i, j int) bool { return reranked[i].score > reranked[j].score })
	return reranked
}

var testFileIndicators = []string{
	"/tests/", "/test/", "/__tests__/",
	".test.", ".spec.", "_test.", "_spec.",
	"test_", "spec_",
}

func isTestFile(path string) bool {
	// Prefix a slash so directory indicators also match a top-level
	// directory in a repo-relative path ("tests/x.go").
	lower := "/" + strings.ToLower(path)
	for _, ind := range testFileIndicators {
		if strings.Contains(lower, ind) {
			return true
		}
	}
	return false
}

// --- evidence packing (§4.10 step 5) ---

func evidencePriority(e CodeEvidence) (int, float64) {
	lower := strings.ToLower(e.FilePath)
	if isTestFile(e.FilePath) {
		return 10, -e.RelevanceScore
	}
	switch {
	case strings.Contains(lower, "/services/"):
		return 0, -e.RelevanceScore
	case strings.Contains(lower, "/config/"):
		return 1, -e.RelevanceScore
	case strings.Contains(lower, "/entities/"), strings.Contains(lower, "/models/"):
		return 2, -e.RelevanceScore
	default:
		return 3, -e.RelevanceScore
	}
}

func buildCodeContext(evidence []CodeEvidence, maxChars int) string {
	sorted := append([]CodeEvidence{}, evidence...)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, si := evidencePriority(sorted[i])
		pj, sj := evidencePriority(sorted[j])
		if pi != pj {
			return pi < pj
		}
		return si < sj
	})

	var parts []string
	totalChars := 0
	prodCount, testCount := 0, 0

	for _, e := range sorted {
		var header string
		if isTestFile(e.FilePath) {
			testCount++
			header = fmt.Sprintf("--- [TEST FILE] %s:%d-%d (relevance: %.2f) ---\n", e.FilePath, e.StartLine, e.EndLine, e.RelevanceScore)
		} else {
			prodCount++
			header = fmt.Sprintf("--- %s:%d-%d (relevance: %.2f) ---\n", e.FilePath, e.StartLine, e.EndLine, e.RelevanceScore)
		}

		content := e.Content
		if len(content) > 2000 {
			content = content[:2000] + "\n... (truncated)"
		}

		chunkText := header + content + "\n"
		if totalChars+len(chunkText) > maxChars {
			break
		}
		parts = append(parts, chunkText)
		totalChars += len(chunkText)
	}

	summary := fmt.Sprintf("[Evidence summary: %d production files, %d test files]\n\n", prodCount, testCount)
	return summary + strings.Join(parts, "")
}

// --- response parsing ---

type rawVerification struct {
	Verdict        string      `json:"verdict"`
	Confidence     float64     `json:"confidence"`
	ActualValue    interface{} `json:"actual_value"`
	ActualBehavior interface{} `json:"actual_behavior"`
	Reasoning      interface{} `json:"reasoning"`
	SuggestedFix   interface{} `json:"suggested_fix"`
	FixType        interface{} `json:"fix_type"`
	SuggestedDiff  interface{} `json:"suggested_diff"`
}

func parseVerificationResponse(text string) parsedVerification {
	text = strings.TrimSpace(text)

	if raw, ok := tryUnmarshalVerification(text); ok {
		return raw.normalize()
	}
	if block := llm.ExtractJSON(text); block != "" {
		if raw, ok := tryUnmarshalVerification(block); ok {
			return raw.normalize()
		}
	}

	snippet := text
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	return parsedVerification{Verdict: "unclear", Reasoning: fmt.Sprintf("failed to parse LLM response: %s", snippet)}
}

func tryUnmarshalVerification(text string) (rawVerification, bool) {
	var raw rawVerification
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return rawVerification{}, false
	}
	return raw, true
}

// field accessors resolve the LLM's occasionally-list-valued string fields.
func toStr(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []interface{}:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = fmt.Sprintf("%v", item)
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprintf("%v", val)
	}
}

type parsedVerification struct {
	Verdict        string
	Confidence     float64
	ActualValue    string
	ActualBehavior string
	Reasoning      string
	SuggestedFix   string
	FixType        string
	SuggestedDiff  string
}

func (r rawVerification) normalize() parsedVerification {
	return parsedVerification{
		Verdict:        r.Verdict,
		Confidence:     r.Confidence,
		ActualValue:    toStr(r.ActualValue),
		ActualBehavior: toStr(r.ActualBehavior),
		Reasoning:      toStr(r.Reasoning),
		SuggestedFix:   toStr(r.SuggestedFix),
		FixType:        toStr(r.FixType),
		SuggestedDiff:  toStr(r.SuggestedDiff),
	}
}

// --- percentage/decimal reconciliation (§4.10 step 7) ---

func valuesMatch(expected, actual string) bool {
	expFloat, expOK := normalizeNumericValue(expected)
	actFloat, actOK := normalizeNumericValue(actual)
	if !expOK || !actOK {
		return false
	}
	diff := expFloat - actFloat
	if diff < 0 {
		diff = -diff
	}
	return diff < 0.001
}

// normalizeNumericValue extracts the first number in val and converts
// percentage forms ("25%") to their decimal equivalent (0.25) so they
// compare equal to a raw decimal actual value.
func normalizeNumericValue(val string) (float64, bool) {
	lower := strings.ToLower(strings.TrimSpace(val))
	matches := numberPattern.FindAllString(lower, -1)
	if len(matches) == 0 {
		return 0, false
	}
	decimalMatch := decimalPattern.FindString(lower)
	num, err := strconv.ParseFloat(decimalMatch, 64)
	if err != nil {
		return 0, false
	}

	isPercent := strings.Contains(lower, "%") || strings.Contains(lower, "percent")
	if isPercent && num > 1 {
		return num / 100, true
	}
	return num, true
}

func determineSeverity(confidence float64) string {
	switch {
	case confidence >= 0.9:
		return "high"
	case confidence >= 0.7:
		return "medium"
	default:
		return "low"
	}
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "none"
	}
	return s
}

func orNotSpecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return "not specified"
	}
	return s
}
