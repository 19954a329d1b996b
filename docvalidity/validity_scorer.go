package docvalidity

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/codegraph/processor/ast"
	"github.com/c360studio/codegraph/storage"
)

// Score weights and thresholds (§4.11 step 7-8).
const (
	weightReference = 0.55
	weightEmbedding = 0.30
	weightFreshness = 0.15

	weightReferenceSemantic = 0.35
	weightEmbeddingSemantic = 0.25
	weightFreshnessSemantic = 0.15
	weightSemantic          = 0.25

	weightLLM = 0.20

	validThreshold   = 70
	warningThreshold = 50

	fuzzyMatchThreshold = 0.7

	relatedCodeFileLimit = 20
	embeddingNeighborK   = 20
)

// importPathExtensions are the source extensions ValidityScorer tries
// when resolving a dotted import/module reference to an indexed file.
var importPathExtensions = []string{".go", ".py", ".ts", ".tsx", ".js", ".jsx", ".java", ".svelte", ".vue"}

// ScoreConfig configures ValidityScorer.
type ScoreConfig struct {
	MaxReferences int
}

// DefaultScoreConfig returns the documented defaults (§4.11).
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{MaxReferences: 100}
}

// SemanticInput carries the outcome of an already-run ClaimVerifier
// pass, if one ran, so Score can fold it into the combined score (§4.11
// step 6-7). Ran is false when semantic validation wasn't attempted for
// this document at all, as opposed to attempted-but-zero-claims.
type SemanticInput struct {
	Ran      bool
	Checked  int
	Verified int
}

// ValidityScorer computes and persists a document's validity score: how
// well its code references still resolve, how close its embedding sits
// to the code it documents, and how fresh it is relative to that code
// (§4.11).
type ValidityScorer struct {
	store *storage.Store
	cfg   ScoreConfig
}

// NewValidityScorer builds a ValidityScorer bound to store.
func NewValidityScorer(store *storage.Store, cfg ScoreConfig) *ValidityScorer {
	if cfg.MaxReferences <= 0 {
		cfg.MaxReferences = DefaultScoreConfig().MaxReferences
	}
	return &ValidityScorer{store: store, cfg: cfg}
}

// Score extracts and validates doc's code references, scores embedding
// similarity and freshness against the code it's near, combines the
// components into a 0-100 score, and persists both the score and the
// issue set the reference validation pass produced.
func (v *ValidityScorer) Score(ctx context.Context, doc storage.Document, semantic SemanticInput) (storage.DocValidityScore, error) {
	refs := ExtractReferences(doc.Content, DocTypeForPath(doc.Path), v.cfg.MaxReferences)

	files, err := v.store.AllFilePaths(ctx)
	if err != nil {
		return storage.DocValidityScore{}, fmt.Errorf("loading files for validation: %w", err)
	}
	symbols, err := v.store.AllSymbolNames(ctx)
	if err != nil {
		return storage.DocValidityScore{}, fmt.Errorf("loading symbols for validation: %w", err)
	}

	issues := make([]storage.ValidityIssue, 0, len(refs))
	validCount := 0
	for _, ref := range refs {
		valid, issue := v.validateReference(ctx, ref, files, symbols)
		if valid {
			validCount++
		}
		if issue != nil {
			issue.ID = uuid.New().String()
			issue.DocumentID = doc.ID
			issues = append(issues, *issue)
		}
	}

	refScore := referenceScore(len(refs), validCount)
	embScore, _ := v.embeddingScore(ctx, doc.ID)

	related := relatedCodeFiles(doc.Path, files)
	var codeUpdated time.Time
	for _, f := range related {
		if f.UpdatedAt.After(codeUpdated) {
			codeUpdated = f.UpdatedAt
		}
	}
	freshScore := freshnessScore(doc.UpdatedAt, codeUpdated)

	var semanticScore *float64
	if semantic.Ran {
		s := calculateSemanticScore(semantic.Checked, semantic.Verified)
		semanticScore = &s
	}

	finalScore := combineScore(refScore, embScore, freshScore, semanticScore, nil)

	result := storage.DocValidityScore{
		DocumentID:     doc.ID,
		Score:          float64(finalScore),
		ReferenceScore: refScore,
		EmbeddingScore: embScore,
		FreshnessScore: freshScore,
		SemanticScore:  semanticScore,
		ContentHash:    ast.ComputeHash([]byte(doc.Content)),
		ValidatedAt:    time.Now().UTC(),
	}

	if err := v.store.ReplaceValidityIssues(ctx, doc.ID, issues); err != nil {
		return result, fmt.Errorf("replacing validity issues: %w", err)
	}
	if err := v.store.UpsertDocValidityScore(ctx, result); err != nil {
		return result, fmt.Errorf("storing validity score: %w", err)
	}
	return result, nil
}

// Status classifies a persisted score into valid/warning/stale (§4.11
// step 8).
func Status(score float64) string {
	switch {
	case score >= validThreshold:
		return "valid"
	case score >= warningThreshold:
		return "warning"
	default:
		return "stale"
	}
}

// DocTypeForPath maps a document's file extension to the markup
// dialect ExtractReferences expects.
func DocTypeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".rst":
		return "rst"
	case ".adoc", ".asciidoc", ".asc":
		return "asciidoc"
	default:
		return "markdown"
	}
}

func referenceScore(checked, valid int) float64 {
	if checked == 0 {
		return 1.0
	}
	return float64(valid) / float64(checked)
}

func calculateSemanticScore(checked, verified int) float64 {
	if checked == 0 {
		return 1.0
	}
	return float64(verified) / float64(checked)
}

// freshnessScore scores a document's staleness against the code it
// documents: fresh (doc newer than code) scores 1.0, otherwise the
// score decays with how many days behind the doc has fallen.
func freshnessScore(docUpdated, codeUpdated time.Time) float64 {
	if docUpdated.IsZero() || codeUpdated.IsZero() {
		return 0.5
	}
	if !docUpdated.Before(codeUpdated) {
		return 1.0
	}

	daysStale := codeUpdated.Sub(docUpdated).Hours() / 24
	switch {
	case daysStale <= 7:
		return 0.9
	case daysStale <= 30:
		return 0.7
	case daysStale <= 90:
		return 0.4
	case daysStale <= 180:
		return 0.2
	default:
		return 0.1
	}
}

// embeddingScore compares a document's embedding to the 20 nearest
// code chunk embeddings and averages the similarity, boosting scores
// above 0.5 since code/doc embeddings rarely sit much higher than that
// even for a well-matched pair. Returns the neutral 0.5 when the
// document has no embedding yet.
func (v *ValidityScorer) embeddingScore(ctx context.Context, documentID string) (float64, int) {
	docEmbedding, err := v.store.GetEmbedding(ctx, storage.EmbeddingDocument, documentID)
	if err != nil {
		return 0.5, 0
	}

	results, err := v.store.VectorSearchChunks(ctx, docEmbedding, embeddingNeighborK)
	if err != nil || len(results) == 0 {
		return 0.5, 0
	}

	var sum float64
	for _, r := range results {
		sum += r.Score
	}
	avg := sum / float64(len(results))
	if avg > 0.5 {
		avg = 0.5 + (avg-0.5)*1.5
		if avg > 1.0 {
			avg = 1.0
		}
	}
	return avg, len(results)
}

// combineScore folds the component scores into a single 0-100 value
// using the documented weight sets, switching to the semantic weight
// set when a semantic score is present and carving out room for an
// llm score when one is supplied (§4.11 step 7-8).
func combineScore(reference, embedding, freshness float64, semantic, llmScore *float64) int {
	refW, embW, freshW, semW := weightReference, weightEmbedding, weightFreshness, 0.0
	if semantic != nil {
		refW, embW, freshW, semW = weightReferenceSemantic, weightEmbeddingSemantic, weightFreshnessSemantic, weightSemantic
	}

	var llmW float64
	if llmScore != nil {
		scale := (1.0 - weightLLM) / (refW + embW + freshW + semW)
		refW *= scale
		embW *= scale
		freshW *= scale
		semW *= scale
		llmW = weightLLM
	}

	score := refW*reference + embW*embedding + freshW*freshness
	if semantic != nil {
		score += semW * *semantic
	}
	if llmScore != nil {
		score += llmW * *llmScore
	}

	final := int(math.Round(score * 100))
	if final < 0 {
		final = 0
	}
	if final > 100 {
		final = 100
	}
	return final
}

// relatedCodeFiles finds code files related to a document by directory
// proximity: the document's path components (minus its filename and
// any "docs"/"doc"/"documentation" segment) must all appear, in order,
// somewhere in the file's path.
func relatedCodeFiles(docPath string, files []storage.File) []storage.File {
	parts := strings.Split(strings.ReplaceAll(docPath, "\\", "/"), "/")
	if len(parts) > 0 {
		parts = parts[:len(parts)-1]
	}

	var kept []string
	for _, p := range parts {
		lp := strings.ToLower(p)
		if lp == "docs" || lp == "doc" || lp == "documentation" || lp == "" {
			continue
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		return nil
	}

	var related []storage.File
	for _, f := range files {
		if matchesSequentialSubstrings(f.Path, kept) {
			related = append(related, f)
		}
	}
	sort.Slice(related, func(i, j int) bool { return related[i].UpdatedAt.After(related[j].UpdatedAt) })
	if len(related) > relatedCodeFileLimit {
		related = related[:relatedCodeFileLimit]
	}
	return related
}

// matchesSequentialSubstrings reports whether each of parts occurs in
// path, in order, case-insensitively — the Go equivalent of a SQL
// ILIKE '%a%b%c%' pattern.
func matchesSequentialSubstrings(path string, parts []string) bool {
	search := strings.ToLower(path)
	pos := 0
	for _, part := range parts {
		idx := strings.Index(search[pos:], strings.ToLower(part))
		if idx < 0 {
			return false
		}
		pos += idx + len(part)
	}
	return true
}

// validateReference dispatches to the per-type validator for a single
// extracted reference (§4.11 step 2).
func (v *ValidityScorer) validateReference(ctx context.Context, ref CodeReference, files []storage.File, symbols []storage.Symbol) (bool, *storage.ValidityIssue) {
	switch ref.RefType {
	case "file":
		return validateFileReference(ref, files)
	case "symbol":
		return validateSymbolReference(ref, symbols)
	case "import":
		return v.validateImportReference(ctx, ref, files, symbols)
	case "module":
		return validateModuleReference(ref, files)
	default:
		return true, nil
	}
}

func validateFileReference(ref CodeReference, files []storage.File) (bool, *storage.ValidityIssue) {
	for _, f := range files {
		if f.Path == ref.Text || strings.HasSuffix(f.Path, ref.Text) {
			return true, nil
		}
	}

	filename := ref.Text
	if idx := strings.LastIndexAny(filename, "/\\"); idx >= 0 {
		filename = filename[idx+1:]
	}
	closestPath, similarity := bestFileMatch(files, ref.Text, filename)

	suggestion := "File not found in codebase. Was it renamed or deleted?"
	if closestPath != "" {
		suggestion = fmt.Sprintf("File not found. Did you mean '%s'?", closestPath)
	}

	return false, &storage.ValidityIssue{
		IssueType:       "missing_file",
		Severity:        "warning",
		ReferenceText:   ref.Text,
		ReferenceLine:   ref.LineNumber,
		ExpectedType:    "file",
		FoundMatch:      closestPath,
		FoundSimilarity: similarity,
		Suggestion:      suggestion,
	}
}

func bestFileMatch(files []storage.File, fullPath, filename string) (string, float64) {
	lowerFull := strings.ToLower(fullPath)
	lowerName := strings.ToLower(filename)

	bestPath := ""
	bestSim := 0.0
	for _, f := range files {
		lp := strings.ToLower(f.Path)
		if !strings.Contains(lp, lowerName) && !strings.Contains(lp, lowerFull) {
			continue
		}
		if sim := trigramSimilarity(f.Path, fullPath); sim > bestSim {
			bestSim = sim
			bestPath = f.Path
		}
	}
	return bestPath, bestSim
}

func validateSymbolReference(ref CodeReference, symbols []storage.Symbol) (bool, *storage.ValidityIssue) {
	symbolName := ref.Text
	if idx := strings.Index(symbolName, "("); idx >= 0 {
		symbolName = symbolName[:idx]
	}
	if idx := strings.LastIndex(symbolName, "."); idx >= 0 {
		symbolName = symbolName[idx+1:]
	}

	var candidates []storage.Symbol
	for _, s := range symbols {
		if ref.ExpectedKind != "" && s.Kind != ref.ExpectedKind {
			continue
		}
		if s.Name == symbolName || strings.HasPrefix(s.Name, symbolName) || strings.Contains(s.FQN, symbolName) {
			candidates = append(candidates, s)
		}
	}

	for _, s := range candidates {
		if s.Name == symbolName {
			return true, nil
		}
	}

	if len(candidates) > 0 {
		best := candidates[0]
		sim := trigramSimilarity(best.Name, symbolName)
		if sim == 0 {
			sim = 0.8
		}
		if sim > fuzzyMatchThreshold {
			return true, &storage.ValidityIssue{
				IssueType:       "fuzzy_match",
				Severity:        "info",
				ReferenceText:   ref.Text,
				ReferenceLine:   ref.LineNumber,
				ExpectedType:    ref.ExpectedKind,
				FoundMatch:      best.Name,
				FoundSimilarity: sim,
				Suggestion:      fmt.Sprintf("Found similar symbol '%s' (%s). Consider updating reference.", best.Name, best.Kind),
			}
		}
	}

	matchName, matchKind, similarity := bestSymbolMatch(symbols, symbolName)
	suggestion := fmt.Sprintf("Symbol '%s' not found in codebase.", symbolName)
	if matchName != "" {
		suggestion = fmt.Sprintf("Symbol not found. Did you mean '%s' (%s)?", matchName, matchKind)
	}

	severity := "warning"
	if ref.Confidence > 0.8 {
		severity = "error"
	}

	return false, &storage.ValidityIssue{
		IssueType:       "missing_symbol",
		Severity:        severity,
		ReferenceText:   ref.Text,
		ReferenceLine:   ref.LineNumber,
		ExpectedType:    ref.ExpectedKind,
		FoundMatch:      matchName,
		FoundSimilarity: similarity,
		Suggestion:      suggestion,
	}
}

func bestSymbolMatch(symbols []storage.Symbol, name string) (matchName, kind string, sim float64) {
	lowerName := strings.ToLower(name)
	for _, s := range symbols {
		if !strings.Contains(strings.ToLower(s.Name), lowerName) && !strings.Contains(strings.ToLower(s.FQN), lowerName) {
			continue
		}
		if candidateSim := trigramSimilarity(s.Name, name); candidateSim > sim {
			sim = candidateSim
			matchName = s.Name
			kind = s.Kind
		}
	}
	return matchName, kind, sim
}

// validateImportReference resolves a dotted import/package name to an
// indexed file or symbol. It's deliberately language-agnostic (the
// original only handled Python's module-to-path convention): it tries
// each of importPathExtensions against the dotted-to-slashed form, then
// falls back to a full-text search to tell an external package that's
// still referenced somewhere from one that's vanished entirely.
func (v *ValidityScorer) validateImportReference(ctx context.Context, ref CodeReference, files []storage.File, symbols []storage.Symbol) (bool, *storage.ValidityIssue) {
	importName := ref.Text
	pathForm := strings.ReplaceAll(importName, ".", "/")

	for _, f := range files {
		if f.Path == pathForm || strings.HasSuffix(f.Path, pathForm) {
			return true, nil
		}
		for _, ext := range importPathExtensions {
			candidate := pathForm + ext
			if f.Path == candidate || strings.HasSuffix(f.Path, candidate) {
				return true, nil
			}
		}
	}

	for _, s := range symbols {
		if s.Name == importName {
			return true, nil
		}
	}

	root := importName
	if idx := strings.Index(root, "."); idx >= 0 {
		root = root[:idx]
	}
	if v.importAppearsInCode(ctx, root) {
		return true, &storage.ValidityIssue{
			IssueType:     "fuzzy_match",
			Severity:      "info",
			ReferenceText: ref.Text,
			ReferenceLine: ref.LineNumber,
			ExpectedType:  "module",
			Suggestion:    fmt.Sprintf("'%s' appears to be an external package. Verify it's still used.", importName),
		}
	}

	return false, &storage.ValidityIssue{
		IssueType:     "missing_file",
		Severity:      "warning",
		ReferenceText: ref.Text,
		ReferenceLine: ref.LineNumber,
		ExpectedType:  "module",
		Suggestion:    fmt.Sprintf("Module/package '%s' not found. Was it removed or renamed?", importName),
	}
}

func (v *ValidityScorer) importAppearsInCode(ctx context.Context, root string) bool {
	if root == "" {
		return false
	}
	results, err := v.store.FTSSearchChunks(ctx, root, 1)
	if err != nil {
		return false
	}
	return len(results) > 0
}

func validateModuleReference(ref CodeReference, files []storage.File) (bool, *storage.ValidityIssue) {
	dirPath := strings.ReplaceAll(ref.Text, ".", "/")
	for _, f := range files {
		if strings.HasPrefix(f.Path, dirPath+"/") || strings.HasPrefix(f.Path, dirPath+".") {
			return true, nil
		}
	}

	root := ref.Text
	if idx := strings.Index(root, "."); idx >= 0 {
		root = root[:idx]
	}

	similarRoots := map[string]struct{}{}
	for _, f := range files {
		if !strings.Contains(strings.ToLower(f.Path), strings.ToLower(root)) {
			continue
		}
		top := f.Path
		if idx := strings.Index(top, "/"); idx >= 0 {
			top = top[:idx]
		}
		similarRoots[top] = struct{}{}
		if len(similarRoots) >= 3 {
			break
		}
	}

	suggestion := fmt.Sprintf("Module '%s' not found in codebase.", ref.Text)
	if len(similarRoots) > 0 {
		roots := make([]string, 0, len(similarRoots))
		for r := range similarRoots {
			roots = append(roots, r)
		}
		sort.Strings(roots)
		suggestion = fmt.Sprintf("Module not found. Similar: %s", strings.Join(roots, ", "))
	}

	return false, &storage.ValidityIssue{
		IssueType:     "missing_file",
		Severity:      "warning",
		ReferenceText: ref.Text,
		ReferenceLine: ref.LineNumber,
		ExpectedType:  "module",
		Suggestion:    suggestion,
	}
}

// trigrams splits s into its lowercase 3-character shingles. Strings
// shorter than 3 characters become a single-element set containing the
// whole (lowercased) string, so short identifiers can still match.
func trigrams(s string) map[string]struct{} {
	s = strings.ToLower(s)
	if len(s) < 3 {
		return map[string]struct{}{s: {}}
	}
	grams := make(map[string]struct{}, len(s)-2)
	for i := 0; i+3 <= len(s); i++ {
		grams[s[i:i+3]] = struct{}{}
	}
	return grams
}

// trigramSimilarity is a Jaccard-over-trigrams approximation of
// PostgreSQL's pg_trgm similarity() function, used for the fuzzy
// file/symbol matching in this package. SQLite has no pg_trgm
// equivalent and nothing in the example pack ships a trigram library,
// so this is hand-rolled rather than imported; see DESIGN.md.
func trigramSimilarity(a, b string) float64 {
	ta, tb := trigrams(a), trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	inter := 0
	for g := range ta {
		if _, ok := tb[g]; ok {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
