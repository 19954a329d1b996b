package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/c360studio/codegraph/storage"
)

// Result is one fused, ranked entity (a code chunk or a document chunk)
// returned from Search or SearchDocuments.
type Result struct {
	ChunkID    string
	DocumentID string
	FileID     string
	Path       string
	Content    string
	StartLine  int
	EndLine    int

	Score    float64
	VecRank  int
	VecScore float64
	FTSRank  int
	FTSScore float64

	MatchedTags []string
	TagBoost    float64

	tags []string // every tag on the entity, used only for tags_any/tags_all filtering
}

// key returns the identity a vector hit and an FTS hit are fused under:
// the chunk id for code search, the document id for doc search.
func key(r storage.SearchResult, entityType string) string {
	if entityType == "document" {
		return r.DocumentID
	}
	return r.ChunkID
}

// fuse combines vector and FTS result sets into fused Results using the
// weighted-sum formula from §4.7: normalize each arm's scores to [0,1] by
// dividing by that arm's max, then score = w_v*vec + w_f*fts + w_t*tag.
// entityType selects which entity_tags rows feed the tag_boost lookup
// ("chunk" or "document"). Ties are broken by entity id for determinism.
func fuse(ctx context.Context, store *storage.Store, entityType string, vec, fts []storage.SearchResult, opts Options) ([]Result, error) {
	maxVec := maxScore(vec)
	maxFTS := maxScore(fts)

	entries := make(map[string]*Result)
	order := func(r storage.SearchResult) *Result {
		k := key(r, entityType)
		e, ok := entries[k]
		if !ok {
			e = &Result{
				ChunkID: r.ChunkID, DocumentID: r.DocumentID, FileID: r.FileID,
				Path: r.Path, Content: r.Content, StartLine: r.StartLine, EndLine: r.EndLine,
			}
			entries[k] = e
		}
		return e
	}

	for rank, r := range vec {
		e := order(r)
		e.VecRank = rank + 1
		if maxVec > 0 {
			e.VecScore = r.Score / maxVec
		}
	}
	for rank, r := range fts {
		e := order(r)
		e.FTSRank = rank + 1
		if maxFTS > 0 {
			e.FTSScore = r.Score / maxFTS
		}
	}

	needTags := len(opts.RelevantTags) > 0 || len(opts.TagsAny) > 0 || len(opts.TagsAll) > 0

	results := make([]Result, 0, len(entries))
	for k, e := range entries {
		if needTags {
			tags, err := store.TagsForEntity(ctx, entityType, k)
			if err != nil {
				return nil, fmt.Errorf("loading tags for %s %s: %w", entityType, k, err)
			}
			e.tags = tags
			e.MatchedTags = intersect(tags, opts.RelevantTags)
			e.TagBoost = tagBoost(tags, opts.RelevantTags)
		}
		e.Score = opts.Weights.Vector*e.VecScore + opts.Weights.FTS*e.FTSScore + opts.Weights.Tag*e.TagBoost
		results = append(results, *e)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return resultKey(results[i], entityType) < resultKey(results[j], entityType)
	})

	return results, nil
}

func resultKey(r Result, entityType string) string {
	if entityType == "document" {
		return r.DocumentID
	}
	return r.ChunkID
}

func maxScore(results []storage.SearchResult) float64 {
	max := 0.0
	for _, r := range results {
		if r.Score > max {
			max = r.Score
		}
	}
	return max
}

// tagBoost is the fraction of relevant tags present in tags. Returns 0
// when relevant is empty rather than dividing by zero.
func tagBoost(tags, relevant []string) float64 {
	if len(relevant) == 0 {
		return 0
	}
	present := make(map[string]bool, len(tags))
	for _, t := range tags {
		present[t] = true
	}
	matched := 0
	for _, r := range relevant {
		if present[r] {
			matched++
		}
	}
	return float64(matched) / float64(len(relevant))
}

// intersect returns the elements of relevant that also appear in tags,
// preserving relevant's order.
func intersect(tags, relevant []string) []string {
	if len(relevant) == 0 {
		return nil
	}
	present := make(map[string]bool, len(tags))
	for _, t := range tags {
		present[t] = true
	}
	var out []string
	for _, r := range relevant {
		if present[r] {
			out = append(out, r)
		}
	}
	return out
}

// applyTagFilters applies tags_all (AND) and tags_any (OR) after fusion,
// per §4.7 step 4: filtering after scoring so neither retrieval arm is
// starved by a filter that only the other arm's candidates satisfy.
func applyTagFilters(results []Result, tagsAny, tagsAll []string) []Result {
	if len(tagsAny) == 0 && len(tagsAll) == 0 {
		return results
	}
	filtered := make([]Result, 0, len(results))
	for _, r := range results {
		present := make(map[string]bool, len(r.tags))
		for _, t := range r.tags {
			present[t] = true
		}
		if !allPresent(present, tagsAll) {
			continue
		}
		if len(tagsAny) > 0 && !anyPresent(present, tagsAny) {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}

func allPresent(present map[string]bool, tags []string) bool {
	for _, t := range tags {
		if !present[t] {
			return false
		}
	}
	return true
}

func anyPresent(present map[string]bool, tags []string) bool {
	for _, t := range tags {
		if present[t] {
			return true
		}
	}
	return false
}
