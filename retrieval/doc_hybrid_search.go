package retrieval

import (
	"context"
	"fmt"

	"github.com/c360studio/codegraph/storage"
)

// SearchDocuments runs the DocHybridSearch variant of §4.7: the same
// fusion algorithm as Search, over the documentation chunk set
// (VectorSearchDocuments / FTSSearchDocuments) instead of the code chunk
// set.
func SearchDocuments(ctx context.Context, store *storage.Store, embedder Embedder, query string, opts Options) ([]Result, error) {
	opts = fillDefaults(opts)

	type vecOutcome struct {
		results []storage.SearchResult
		err     error
	}
	vecCh := make(chan vecOutcome, 1)
	go func() {
		vec, err := queryVector(ctx, embedder, store.VectorSearchDocuments, query, opts.VectorTopK)
		vecCh <- vecOutcome{vec, err}
	}()

	ftsResults, ftsErr := store.FTSSearchDocuments(ctx, query, opts.FTSTopK)
	vec := <-vecCh

	if vec.err != nil && ftsErr != nil {
		return nil, fmt.Errorf("doc hybrid search: vector search: %v; fts search: %v", vec.err, ftsErr)
	}

	fused, err := fuse(ctx, store, "document", vec.results, ftsResults, opts)
	if err != nil {
		return nil, err
	}

	fused = applyTagFilters(fused, opts.TagsAny, opts.TagsAll)

	if opts.FinalTopK > 0 && len(fused) > opts.FinalTopK {
		fused = fused[:opts.FinalTopK]
	}
	return fused, nil
}
