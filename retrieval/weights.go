// Package retrieval implements HybridSearch and DocHybridSearch: fusion of
// vector similarity, full-text rank, and tag-boost into a single ranked
// result set, over the code chunk set and the documentation chunk set
// respectively.
package retrieval

// Weights configures the three-way weighted-sum fusion in Search and
// SearchDocuments.
type Weights struct {
	Vector float64
	FTS    float64
	Tag    float64
}

// DefaultWeights are the code-chunk search defaults (§4.7).
func DefaultWeights() Weights {
	return Weights{Vector: 0.55, FTS: 0.35, Tag: 0.10}
}

// ClaimVerificationWeights favor FTS precision over semantic recall; used
// by ClaimVerifier's evidence retrieval, where exact enforcement-keyword
// matches matter more than paraphrase similarity.
func ClaimVerificationWeights() Weights {
	return Weights{Vector: 0.40, FTS: 0.50, Tag: 0.10}
}

// Options configures one Search or SearchDocuments call.
type Options struct {
	// VectorTopK and FTSTopK bound each retrieval arm before fusion.
	VectorTopK int
	FTSTopK    int
	// FinalTopK bounds the fused, filtered result. 0 selects the default
	// (12); a negative value means unbounded.
	FinalTopK int

	Weights Weights

	// TagsAny/TagsAll filter the fused result after scoring (OR / AND).
	TagsAny []string
	TagsAll []string

	// RelevantTags is the set of query-relevant tags used to compute each
	// result's tag_boost: the fraction of RelevantTags present on the
	// entity. Independent of TagsAny/TagsAll, which only filter.
	RelevantTags []string
}

// DefaultOptions returns HybridSearch's documented defaults (§4.7).
func DefaultOptions() Options {
	return Options{VectorTopK: 60, FTSTopK: 60, FinalTopK: 12, Weights: DefaultWeights()}
}

func fillDefaults(opts Options) Options {
	d := DefaultOptions()
	if opts.VectorTopK <= 0 {
		opts.VectorTopK = d.VectorTopK
	}
	if opts.FTSTopK <= 0 {
		opts.FTSTopK = d.FTSTopK
	}
	if opts.FinalTopK == 0 {
		opts.FinalTopK = d.FinalTopK
	}
	if opts.Weights == (Weights{}) {
		opts.Weights = d.Weights
	}
	return opts
}
