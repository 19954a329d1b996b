package retrieval

import (
	"context"
	"fmt"

	"github.com/c360studio/codegraph/storage"
)

// Embedder produces a single query embedding. Implemented by
// *embedding.Client; declared here as an interface so retrieval doesn't
// import the embedding package's HTTP machinery into every caller's
// dependency graph.
type Embedder interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

// Search performs HybridSearch (§4.7) over the code chunk set: vector
// search and FTS run in parallel, results are normalized and fused by
// weighted sum, tag filters apply after fusion, and the result is
// truncated to FinalTopK. Ordering is deterministic given identical
// inputs and upstream rankings; ties break on chunk id.
func Search(ctx context.Context, store *storage.Store, embedder Embedder, query string, opts Options) ([]Result, error) {
	opts = fillDefaults(opts)

	type vecOutcome struct {
		results []storage.SearchResult
		err     error
	}
	vecCh := make(chan vecOutcome, 1)
	go func() {
		vec, err := queryVector(ctx, embedder, store.VectorSearchChunks, query, opts.VectorTopK)
		vecCh <- vecOutcome{vec, err}
	}()

	ftsResults, ftsErr := store.FTSSearchChunks(ctx, query, opts.FTSTopK)
	vec := <-vecCh

	if vec.err != nil && ftsErr != nil {
		return nil, fmt.Errorf("hybrid search: vector search: %v; fts search: %v", vec.err, ftsErr)
	}
	// A single arm failing doesn't abort the search (§7): fusion proceeds
	// with whichever arm succeeded.

	fused, err := fuse(ctx, store, "chunk", vec.results, ftsResults, opts)
	if err != nil {
		return nil, err
	}

	fused = applyTagFilters(fused, opts.TagsAny, opts.TagsAll)

	if opts.FinalTopK > 0 && len(fused) > opts.FinalTopK {
		fused = fused[:opts.FinalTopK]
	}
	return fused, nil
}

// queryVector embeds the query and runs vecSearch against it, returning
// an empty result set (not an error) when the embedder itself is nil,
// so callers that have no embedding backend configured still get an
// FTS-only hybrid search.
func queryVector(
	ctx context.Context,
	embedder Embedder,
	vecSearch func(context.Context, []float32, int) ([]storage.SearchResult, error),
	query string,
	k int,
) ([]storage.SearchResult, error) {
	if embedder == nil {
		return nil, nil
	}
	vector, err := embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	return vecSearch(ctx, vector, k)
}
