package graph

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/codegraph/storage"
)

func openTestStore(t *testing.T) *storage.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	store, err := storage.Open(path, 8)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// seedChain writes a linear call chain a -> b -> c -> d, each symbol in
// its own file, and returns the symbol IDs in order.
func seedChain(t *testing.T, store *storage.Store, names ...string) []string {
	t.Helper()
	ctx := context.Background()

	ids := make([]string, len(names))
	fileIDs := make([]string, len(names))
	for i, name := range names {
		fileIDs[i] = uuid.New().String()
		ids[i] = uuid.New().String()
		err := store.UpsertFileWithDerived(ctx, storage.FileWrite{
			File: storage.File{ID: fileIDs[i], Path: name + ".go", Language: "go", ContentHash: "h" + name},
			Symbols: []storage.Symbol{{
				ID: ids[i], FileID: fileIDs[i], FQN: "pkg." + name, Name: name, Kind: "function",
				StartLine: 1, EndLine: 3,
			}},
			Chunks: []storage.Chunk{{
				ID: uuid.New().String(), FileID: fileIDs[i], SymbolID: ids[i],
				StartLine: 1, EndLine: 3, Content: "func " + name + "() {}", ContentHash: "c" + name,
			}},
		})
		require.NoError(t, err)
	}

	for i := 0; i < len(ids)-1; i++ {
		err := store.UpsertFileWithDerived(ctx, storage.FileWrite{
			File: storage.File{ID: fileIDs[i], Path: names[i] + ".go", Language: "go", ContentHash: "h" + names[i]},
			Symbols: []storage.Symbol{{
				ID: ids[i], FileID: fileIDs[i], FQN: "pkg." + names[i], Name: names[i], Kind: "function",
				StartLine: 1, EndLine: 3,
			}},
			Edges: []storage.Edge{{
				ID: uuid.New().String(), Type: "CALLS", SrcSymbolID: ids[i], DstSymbolID: ids[i+1],
				EvidenceFileID: fileIDs[i], EvidenceStartLine: 2, EvidenceEndLine: 2, Confidence: 0.95,
			}},
			Chunks: []storage.Chunk{{
				ID: uuid.New().String(), FileID: fileIDs[i], SymbolID: ids[i],
				StartLine: 1, EndLine: 3, Content: "func " + names[i] + "() {}", ContentHash: "c" + names[i],
			}},
		})
		require.NoError(t, err)
	}

	return ids
}

func TestTraverse_CalleesFollowsChain(t *testing.T) {
	store := openTestStore(t)
	ids := seedChain(t, store, "a", "b", "c", "d")

	hits, err := Traverse(context.Background(), store, ids[0], Callees, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Equal(t, "pkg.b", hits[0].Symbol.FQN)
	require.Equal(t, 1, hits[0].Depth)
	require.Equal(t, "pkg.c", hits[1].Symbol.FQN)
	require.Equal(t, 2, hits[1].Depth)
}

func TestTraverse_ZeroDepthReturnsNothing(t *testing.T) {
	store := openTestStore(t)
	ids := seedChain(t, store, "a", "b")

	hits, err := Traverse(context.Background(), store, ids[0], Callees, 0)
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestTraverse_CallersDirectionReversesEdges(t *testing.T) {
	store := openTestStore(t)
	ids := seedChain(t, store, "a", "b", "c")

	hits, err := Traverse(context.Background(), store, ids[2], Callers, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Equal(t, "pkg.b", hits[0].Symbol.FQN)
	require.Equal(t, "pkg.a", hits[1].Symbol.FQN)
}

func TestTraverse_BreaksCyclesAtMinimumDepth(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	ids := seedChain(t, store, "a", "b")

	// Add a back edge b -> a, forming a cycle.
	err := store.UpsertFileWithDerived(ctx, storage.FileWrite{
		File: storage.File{ID: "file-b-cycle", Path: "b.go", Language: "go", ContentHash: "hb2"},
		Symbols: []storage.Symbol{{
			ID: ids[1], FileID: "file-b-cycle", FQN: "pkg.b", Name: "b", Kind: "function", StartLine: 1, EndLine: 3,
		}},
		Edges: []storage.Edge{{
			ID: uuid.New().String(), Type: "CALLS", SrcSymbolID: ids[1], DstSymbolID: ids[0],
			EvidenceFileID: "file-b-cycle", EvidenceStartLine: 2, EvidenceEndLine: 2, Confidence: 0.9,
		}},
	})
	require.NoError(t, err)

	hits, err := Traverse(ctx, store, ids[0], Callees, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "pkg.b", hits[0].Symbol.FQN)
	require.Equal(t, 1, hits[0].Depth)
}

func TestPackContext_IncludesDefinitionAndCallees(t *testing.T) {
	store := openTestStore(t)
	ids := seedChain(t, store, "a", "b", "c")

	spans, err := PackContext(context.Background(), store, ids[0], DefaultTokenBudget)
	require.NoError(t, err)
	require.NotEmpty(t, spans)
	require.Equal(t, "definition", spans[0].Role)

	var sawCallee bool
	for _, s := range spans {
		if s.Role == "callee" {
			sawCallee = true
		}
	}
	require.True(t, sawCallee)
}

func TestPackContext_RespectsTightBudget(t *testing.T) {
	store := openTestStore(t)
	ids := seedChain(t, store, "a", "b", "c")

	spans, err := PackContext(context.Background(), store, ids[0], 1)
	require.NoError(t, err)
	require.LessOrEqual(t, len(spans), 1)
}
