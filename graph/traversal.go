// Package graph implements bounded breadth-first traversal of the CALLS
// edge graph, plus a symbol-context packer that combines traversal with
// evidence chunk retrieval for LLM consumption.
package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/c360studio/codegraph/storage"
)

// Direction selects which side of a CALLS edge to follow.
type Direction string

const (
	// Callers follows edges toward the starting symbol (who calls it).
	Callers Direction = "callers"
	// Callees follows edges away from the starting symbol (what it calls).
	Callees Direction = "callees"
)

// Hit is one symbol reached by Traverse, at its minimum depth from the
// seed.
type Hit struct {
	Symbol     storage.Symbol
	Depth      int
	EdgeType   string
	Confidence float64
}

// Traverse performs a bounded BFS over CALLS edges starting from
// seedSymbolID, following dir up to maxDepth hops. Each symbol is
// visited once; ties on first-discovery are broken by recording the
// minimum depth (§4.8). Results are sorted by depth then FQN.
func Traverse(ctx context.Context, store *storage.Store, seedSymbolID string, dir Direction, maxDepth int) ([]Hit, error) {
	if maxDepth < 0 {
		return nil, nil
	}

	seed, err := store.GetSymbolByID(ctx, seedSymbolID)
	if err != nil {
		return nil, fmt.Errorf("graph.Traverse: resolving seed symbol: %w", err)
	}

	visited := map[string]int{seed.ID: 0}
	hits := make(map[string]Hit)

	frontier := []string{seed.ID}
	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, symID := range frontier {
			edges, err := edgesForDirection(ctx, store, symID, dir)
			if err != nil {
				return nil, fmt.Errorf("graph.Traverse: loading edges at depth %d: %w", depth, err)
			}
			for _, e := range edges {
				neighborID := e.DstSymbolID
				if dir == Callers {
					neighborID = e.SrcSymbolID
				}
				if neighborID == "" {
					continue
				}
				if _, seen := visited[neighborID]; seen {
					continue
				}
				visited[neighborID] = depth + 1
				next = append(next, neighborID)

				sym, err := store.GetSymbolByID(ctx, neighborID)
				if err != nil {
					if err == storage.ErrNotFound {
						continue
					}
					return nil, fmt.Errorf("graph.Traverse: resolving symbol %s: %w", neighborID, err)
				}
				hits[neighborID] = Hit{Symbol: *sym, Depth: depth + 1, EdgeType: e.Type, Confidence: e.Confidence}
			}
		}
		frontier = next
	}

	result := make([]Hit, 0, len(hits))
	for _, h := range hits {
		result = append(result, h)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Depth != result[j].Depth {
			return result[i].Depth < result[j].Depth
		}
		return result[i].Symbol.FQN < result[j].Symbol.FQN
	})
	return result, nil
}

func edgesForDirection(ctx context.Context, store *storage.Store, symbolID string, dir Direction) ([]storage.Edge, error) {
	if dir == Callers {
		return store.CallersOf(ctx, symbolID)
	}
	return store.CalleesOf(ctx, symbolID)
}

// DefaultTokenBudget is the approximate token budget used by PackContext
// when the caller doesn't specify one (§4.8).
const DefaultTokenBudget = 12000

// approxCharsPerToken converts a token budget to a character budget using
// a rough heuristic (no tokenizer dependency in this package).
const approxCharsPerToken = 4

// ContextSpan is one piece of packed evidence: a chunk of source plus the
// role it played in the traversal (definition, caller, callee).
type ContextSpan struct {
	Role       string // "definition", "caller", "callee"
	FilePath   string
	Chunk      storage.Chunk
	Confidence float64
}

// PackContext combines symbol lookup, bidirectional one-hop traversal,
// and evidence chunk retrieval into a token-budgeted context for a
// target symbol: the definition first, then immediate callers ordered by
// confidence descending, then immediate callees, widening the frontier
// only if budget remains (§4.8). tokenBudget <= 0 uses DefaultTokenBudget.
func PackContext(ctx context.Context, store *storage.Store, targetSymbolID string, tokenBudget int) ([]ContextSpan, error) {
	if tokenBudget <= 0 {
		tokenBudget = DefaultTokenBudget
	}
	charBudget := tokenBudget * approxCharsPerToken

	target, err := store.GetSymbolByID(ctx, targetSymbolID)
	if err != nil {
		return nil, fmt.Errorf("graph.PackContext: resolving target: %w", err)
	}

	var spans []ContextSpan
	used := 0

	addSpan := func(role string, sym storage.Symbol, confidence float64) error {
		file, err := store.GetFileByID(ctx, sym.FileID)
		if err != nil {
			return fmt.Errorf("resolving file for symbol %s: %w", sym.ID, err)
		}
		chunks, err := store.ChunksOverlappingRange(ctx, sym.FileID, sym.StartLine, sym.EndLine)
		if err != nil {
			return fmt.Errorf("loading chunks for symbol %s: %w", sym.ID, err)
		}
		for _, c := range chunks {
			if used+len(c.Content) > charBudget {
				return nil
			}
			spans = append(spans, ContextSpan{Role: role, FilePath: file.Path, Chunk: c, Confidence: confidence})
			used += len(c.Content)
		}
		return nil
	}

	if err := addSpan("definition", *target, 1.0); err != nil {
		return nil, err
	}

	callerEdges, err := store.CallersOf(ctx, targetSymbolID)
	if err != nil {
		return nil, fmt.Errorf("graph.PackContext: loading callers: %w", err)
	}
	sort.Slice(callerEdges, func(i, j int) bool { return callerEdges[i].Confidence > callerEdges[j].Confidence })
	for _, e := range callerEdges {
		if used >= charBudget {
			break
		}
		if e.SrcSymbolID == "" {
			continue
		}
		sym, err := store.GetSymbolByID(ctx, e.SrcSymbolID)
		if err != nil {
			if err == storage.ErrNotFound {
				continue
			}
			return nil, fmt.Errorf("graph.PackContext: resolving caller: %w", err)
		}
		if err := addSpan("caller", *sym, e.Confidence); err != nil {
			return nil, err
		}
	}

	calleeEdges, err := store.CalleesOf(ctx, targetSymbolID)
	if err != nil {
		return nil, fmt.Errorf("graph.PackContext: loading callees: %w", err)
	}
	sort.Slice(calleeEdges, func(i, j int) bool { return calleeEdges[i].Confidence > calleeEdges[j].Confidence })
	for _, e := range calleeEdges {
		if used >= charBudget {
			break
		}
		sym, err := store.GetSymbolByID(ctx, e.DstSymbolID)
		if err != nil {
			if err == storage.ErrNotFound {
				continue
			}
			return nil, fmt.Errorf("graph.PackContext: resolving callee: %w", err)
		}
		if err := addSpan("callee", *sym, e.Confidence); err != nil {
			return nil, err
		}
	}

	if used < charBudget {
		frontier, err := Traverse(ctx, store, targetSymbolID, Callees, 2)
		if err != nil {
			return nil, fmt.Errorf("graph.PackContext: widening frontier: %w", err)
		}
		for _, hit := range frontier {
			if hit.Depth < 2 || used >= charBudget {
				continue
			}
			if err := addSpan("callee", hit.Symbol, hit.Confidence); err != nil {
				return nil, err
			}
		}
	}

	return spans, nil
}
