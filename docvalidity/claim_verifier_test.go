package docvalidity

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/c360studio/codegraph/retrieval"
	"github.com/c360studio/codegraph/storage"
)

func TestBuildSearchQueries_IncludesTopicSubjectAndClaimText(t *testing.T) {
	claim := storage.BehavioralClaim{
		ClaimText:     "A wrestler can have at most 10 active moves.",
		Topic:         "move limit",
		Subject:       "wrestler",
		ExpectedValue: "10",
	}
	queries := buildSearchQueries(claim)
	require.NotEmpty(t, queries)
	require.Contains(t, queries, claim.ClaimText)

	var sawNumber bool
	for _, q := range queries {
		if q == "maximum move 10" {
			sawNumber = true
		}
	}
	require.True(t, sawNumber, "expected a number-bearing query, got %v", queries)
}

func TestBuildSearchQueries_FallsBackToClaimTextWhenFieldsEmpty(t *testing.T) {
	claim := storage.BehavioralClaim{ClaimText: "something happens"}
	queries := buildSearchQueries(claim)
	require.Contains(t, queries, "something happens")
}

func TestBuildSearchQueries_NeverEmpty(t *testing.T) {
	queries := buildSearchQueries(storage.BehavioralClaim{})
	require.NotEmpty(t, queries)
}

func TestRerankForEnforcement_PenalizesTestFiles(t *testing.T) {
	claim := storage.BehavioralClaim{Topic: "session limit", Subject: "user", ExpectedValue: "10"}
	prod := retrieval.Result{ChunkID: "prod", Path: "services/session_service.go", Content: "if count >= 10 { return errors.New(\"maximum sessions reached\") }", Score: 0.5}
	test := retrieval.Result{ChunkID: "test", Path: "services/session_service_test.go", Content: "if count >= 10 { return errors.New(\"maximum sessions reached\") }", Score: 0.5}

	reranked := rerankForEnforcement([]retrieval.Result{test, prod}, claim)
	require.Len(t, reranked, 2)
	require.Equal(t, "prod", reranked[0].result.ChunkID)
	require.Greater(t, reranked[0].score, reranked[1].score)
}

func TestRerankForEnforcement_BoostsEnforcementPatterns(t *testing.T) {
	claim := storage.BehavioralClaim{Topic: "session limit", ExpectedValue: "10"}
	withCheck := retrieval.Result{ChunkID: "a", Path: "session.go", Content: "if count >= 10 { return err }", Score: 0.4}
	withoutCheck := retrieval.Result{ChunkID: "b", Path: "session.go", Content: "a session is a logical grouping of requests", Score: 0.4}

	reranked := rerankForEnforcement([]retrieval.Result{withoutCheck, withCheck}, claim)
	require.Equal(t, "a", reranked[0].result.ChunkID)
}

func TestIsTestFile(t *testing.T) {
	require.True(t, isTestFile("services/session_service_test.go"))
	require.True(t, isTestFile("src/session.spec.ts"))
	require.True(t, isTestFile("tests/fixtures/session.go"))
	require.False(t, isTestFile("services/session_service.go"))
}

func TestBuildCodeContext_OrdersProductionBeforeTestAndMarksTestFiles(t *testing.T) {
	evidence := []CodeEvidence{
		{ChunkID: "t", FilePath: "session_test.go", Content: "test body", RelevanceScore: 0.9, StartLine: 1, EndLine: 2},
		{ChunkID: "p", FilePath: "services/session_service.go", Content: "prod body", RelevanceScore: 0.5, StartLine: 1, EndLine: 2},
	}
	ctx := buildCodeContext(evidence, 12000)
	require.Contains(t, ctx, "[TEST FILE]")
	require.Less(t, indexOf(ctx, "session_service.go"), indexOf(ctx, "session_test.go"))
}

func TestBuildCodeContext_TruncatesPerChunkAndRespectsBudget(t *testing.T) {
	big := CodeEvidence{ChunkID: "big", FilePath: "big.go", Content: repeatString("x", 3000), RelevanceScore: 0.9}
	ctx := buildCodeContext([]CodeEvidence{big}, 12000)
	require.Contains(t, ctx, "(truncated)")
}

func TestNormalizeNumericValue_ConvertsPercentToDecimal(t *testing.T) {
	v, ok := normalizeNumericValue("25%")
	require.True(t, ok)
	require.InDelta(t, 0.25, v, 1e-9)
}

func TestNormalizeNumericValue_LeavesDecimalAlone(t *testing.T) {
	v, ok := normalizeNumericValue("0.25")
	require.True(t, ok)
	require.InDelta(t, 0.25, v, 1e-9)
}

func TestValuesMatch_ReconcilesPercentAndDecimalForms(t *testing.T) {
	require.True(t, valuesMatch("25%", "0.25"))
	require.True(t, valuesMatch("10", "10 sessions"))
	require.False(t, valuesMatch("10", "20"))
}

func TestDetermineSeverity(t *testing.T) {
	require.Equal(t, "high", determineSeverity(0.95))
	require.Equal(t, "medium", determineSeverity(0.75))
	require.Equal(t, "low", determineSeverity(0.5))
}

func TestParseVerificationResponse_DirectJSON(t *testing.T) {
	text := `{"verdict": "match", "confidence": 0.92, "actual_value": "10", "reasoning": "matches"}`
	parsed := parseVerificationResponse(text)
	require.Equal(t, "match", parsed.Verdict)
	require.InDelta(t, 0.92, parsed.Confidence, 1e-9)
	require.Equal(t, "10", parsed.ActualValue)
}

func TestParseVerificationResponse_ExtractsFromFencedBlock(t *testing.T) {
	text := "Here is my analysis:\n```json\n{\"verdict\": \"mismatch\", \"confidence\": 0.8}\n```\nDone."
	parsed := parseVerificationResponse(text)
	require.Equal(t, "mismatch", parsed.Verdict)
}

func TestParseVerificationResponse_FallsBackToUnclearOnGarbage(t *testing.T) {
	parsed := parseVerificationResponse("not json at all")
	require.Equal(t, "unclear", parsed.Verdict)
	require.Contains(t, parsed.Reasoning, "failed to parse")
}

func repeatString(s string, n int) string {
	out := make([]byte, 0, len(s)*n)
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}
