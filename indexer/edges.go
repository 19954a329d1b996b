package indexer

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/c360studio/codegraph/processor/ast"
	"github.com/c360studio/codegraph/storage"
)

// buildSymbolsAndEdges converts one file's extracted entities into
// storage rows: symbols (deduped by FQN, first occurrence wins) and
// edges for the three relationship kinds the core persists (CALLS,
// IMPLEMENTS, INHERITS), resolved through the §4.1 four-step order.
// IMPORTS is not persisted as an edge: CodeEntity.Imports carries bare
// import paths with no line evidence and no reliable file-level
// destination symbol to resolve against.
func (ix *Indexer) buildSymbolsAndEdges(ctx context.Context, entities []*ast.CodeEntity) ([]storage.Symbol, []storage.Edge) {
	symbols := make([]storage.Symbol, 0, len(entities))
	byFQN := make(map[string]string, len(entities))
	byName := make(map[string][]string, len(entities))
	seenFQN := make(map[string]bool, len(entities))

	for _, e := range entities {
		if seenFQN[e.FQN] {
			continue
		}
		seenFQN[e.FQN] = true

		symbols = append(symbols, storage.Symbol{
			ID:          e.ID,
			FQN:         e.FQN,
			Name:        e.Name,
			Kind:        string(e.Type),
			StartLine:   e.StartLine,
			EndLine:     e.EndLine,
			Docstring:   e.DocComment,
			ContentHash: e.Hash,
		})
		byFQN[e.FQN] = e.ID
		byName[e.Name] = append(byName[e.Name], e.ID)
	}

	var edges []storage.Edge
	for _, e := range entities {
		srcID, ok := byFQN[e.FQN]
		if !ok {
			continue // lost to FQN dedup
		}

		for _, call := range e.Calls {
			if dstID, ok := ix.resolveRef(ctx, call, byFQN, byName); ok {
				edges = append(edges, newEdge("CALLS", srcID, dstID, e, 0.5))
			}
		}
		for _, impl := range e.Implements {
			if dstID, ok := ix.resolveRef(ctx, impl, byFQN, byName); ok {
				edges = append(edges, newEdge("IMPLEMENTS", srcID, dstID, e, 0.9))
			}
		}
		for _, ext := range e.Extends {
			if dstID, ok := ix.resolveRef(ctx, ext, byFQN, byName); ok {
				confidence := 0.7
				if strings.Contains(ext, ".codegraph.code.") {
					confidence = 0.9 // module-qualified: resolved against a real FQN, not a bare name
				}
				edges = append(edges, newEdge("INHERITS", srcID, dstID, e, confidence))
			}
		}
	}

	return symbols, edges
}

func newEdge(kind, srcID, dstID string, evidence *ast.CodeEntity, confidence float64) storage.Edge {
	return storage.Edge{
		ID:                uuid.New().String(),
		Type:              kind,
		SrcSymbolID:       srcID,
		DstSymbolID:       dstID,
		EvidenceStartLine: evidence.StartLine,
		EvidenceEndLine:   evidence.EndLine,
		Confidence:        confidence,
	}
}

// resolveRef applies the four-step edge resolution order (§4.1): local
// FQN, local simple name, repository-wide FQN, repository-wide simple
// name (first match). References to external packages or language
// built-ins never resolve.
func (ix *Indexer) resolveRef(ctx context.Context, ref string, byFQN map[string]string, byName map[string][]string) (string, bool) {
	if ref == "" || strings.HasPrefix(ref, "external:") || strings.HasPrefix(ref, "builtin:") {
		return "", false
	}

	if id, ok := byFQN[ref]; ok {
		return id, true
	}

	name := refSimpleName(ref)
	if name == "" {
		return "", false
	}
	if ids, ok := byName[name]; ok && len(ids) > 0 {
		return ids[0], true
	}

	if syms, err := ix.store.SymbolsByFQN(ctx, ref); err == nil && len(syms) > 0 {
		return syms[0].ID, true
	}
	if syms, err := ix.store.SymbolsByName(ctx, name); err == nil && len(syms) > 0 {
		return syms[0].ID, true
	}

	return "", false
}

// refSimpleName recovers a best-effort simple identifier from a
// reference string produced by a language parser's callNameToEntityID/
// typeNameToEntityID helpers, for use in the name-based resolution
// steps. FQN-shaped references end in an "instance" segment of the form
// "<sanitized-path>-<name>" (see ast.BuildInstanceID); bare dotted
// references (an unresolved "pkg.Type" or "recv.Method") take their
// final segment.
func refSimpleName(ref string) string {
	if strings.Contains(ref, ".codegraph.code.") {
		parts := strings.Split(ref, ".")
		instance := parts[len(parts)-1]
		if idx := strings.LastIndex(instance, "-"); idx >= 0 {
			return instance[idx+1:]
		}
		return instance
	}
	if idx := strings.LastIndex(ref, "."); idx >= 0 {
		return ref[idx+1:]
	}
	return ref
}
