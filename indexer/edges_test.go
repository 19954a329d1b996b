package indexer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/c360studio/codegraph/processor/ast"
	"github.com/c360studio/codegraph/storage"
)

func TestRefSimpleName(t *testing.T) {
	cases := map[string]string{
		"acme.codegraph.code.function.widgets.pkg-foo-Bar": "Bar",
		"acme.codegraph.code.function.widgets.pkg-foo-Baz": "Baz",
		"pkg.Type":       "Type",
		"recv.Method":    "Method",
		"bareidentifier": "bareidentifier",
	}
	for ref, want := range cases {
		got := refSimpleName(ref)
		if got != want {
			t.Errorf("refSimpleName(%q) = %q, want %q", ref, got, want)
		}
	}
}

func openTestStore(t *testing.T) *storage.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := storage.Open(dbPath, 8)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func entity(id, fqn, name string, typ ast.CodeEntityType, startLine, endLine int) *ast.CodeEntity {
	return &ast.CodeEntity{ID: id, FQN: fqn, Name: name, Type: typ, StartLine: startLine, EndLine: endLine}
}

func TestBuildSymbolsAndEdges_ResolvesLocalCall(t *testing.T) {
	ix := &Indexer{cfg: DefaultConfig(), store: openTestStore(t)}

	caller := entity("caller-id", "acme.codegraph.code.function.w.caller", "Caller", ast.TypeFunction, 1, 5)
	caller.Calls = []string{"acme.codegraph.code.function.w.callee"}
	callee := entity("callee-id", "acme.codegraph.code.function.w.callee", "Callee", ast.TypeFunction, 10, 12)

	symbols, edges := ix.buildSymbolsAndEdges(context.Background(), []*ast.CodeEntity{caller, callee})

	require.Len(t, symbols, 2)
	require.Len(t, edges, 1)
	got := edges[0]
	if got.Type != "CALLS" || got.SrcSymbolID != "caller-id" || got.DstSymbolID != "callee-id" {
		t.Errorf("unexpected edge: %+v", got)
	}
}

func TestBuildSymbolsAndEdges_SimpleNameFallback(t *testing.T) {
	ix := &Indexer{cfg: DefaultConfig(), store: openTestStore(t)}

	// The call reference guesses the wrong entity type segment (function,
	// not method) the way callNameToEntityID does for method calls, so it
	// must resolve through the simple-name fallback instead of an exact
	// FQN match.
	caller := entity("caller-id", "acme.codegraph.code.function.w.caller", "Caller", ast.TypeFunction, 1, 5)
	caller.Calls = []string{"acme.codegraph.code.function.w.recv-Handle"}
	callee := entity("callee-id", "acme.codegraph.code.method.w.recv-Handle", "Handle", ast.TypeMethod, 10, 12)

	_, edges := ix.buildSymbolsAndEdges(context.Background(), []*ast.CodeEntity{caller, callee})

	require.Len(t, edges, 1)
	if edges[0].DstSymbolID != "callee-id" {
		t.Errorf("expected fallback resolution to callee-id, got %q", edges[0].DstSymbolID)
	}
}

func TestBuildSymbolsAndEdges_ExternalAndBuiltinNeverResolve(t *testing.T) {
	ix := &Indexer{cfg: DefaultConfig(), store: openTestStore(t)}

	caller := entity("caller-id", "acme.codegraph.code.function.w.caller", "Caller", ast.TypeFunction, 1, 5)
	caller.Calls = []string{"external:fmt.Println", "builtin:len"}

	_, edges := ix.buildSymbolsAndEdges(context.Background(), []*ast.CodeEntity{caller})
	require.Empty(t, edges)
}

func TestBuildSymbolsAndEdges_DedupesByFQN(t *testing.T) {
	ix := &Indexer{cfg: DefaultConfig(), store: openTestStore(t)}

	first := entity("id-1", "acme.codegraph.code.function.w.dup", "Dup", ast.TypeFunction, 1, 2)
	second := entity("id-2", "acme.codegraph.code.function.w.dup", "Dup", ast.TypeFunction, 20, 22)

	symbols, _ := ix.buildSymbolsAndEdges(context.Background(), []*ast.CodeEntity{first, second})
	require.Len(t, symbols, 1)
	if symbols[0].ID != "id-1" {
		t.Errorf("expected first occurrence to win dedup, got %q", symbols[0].ID)
	}
}

func TestBuildSymbolsAndEdges_ImplementsAndInherits(t *testing.T) {
	ix := &Indexer{cfg: DefaultConfig(), store: openTestStore(t)}

	impl := entity("impl-id", "acme.codegraph.code.struct.w.impl", "Impl", ast.TypeStruct, 1, 10)
	impl.Implements = []string{"acme.codegraph.code.interface.w.iface"}
	impl.Extends = []string{"acme.codegraph.code.struct.w.base"}
	iface := entity("iface-id", "acme.codegraph.code.interface.w.iface", "Iface", ast.TypeInterface, 20, 25)
	base := entity("base-id", "acme.codegraph.code.struct.w.base", "Base", ast.TypeStruct, 30, 40)

	_, edges := ix.buildSymbolsAndEdges(context.Background(), []*ast.CodeEntity{impl, iface, base})
	require.Len(t, edges, 2)

	var sawImplements, sawInherits bool
	for _, e := range edges {
		switch e.Type {
		case "IMPLEMENTS":
			sawImplements = true
			if e.Confidence != 0.9 {
				t.Errorf("expected IMPLEMENTS confidence 0.9, got %v", e.Confidence)
			}
		case "INHERITS":
			sawInherits = true
			if e.Confidence != 0.9 {
				t.Errorf("expected module-qualified INHERITS confidence 0.9, got %v", e.Confidence)
			}
		}
	}
	if !sawImplements || !sawInherits {
		t.Errorf("expected both IMPLEMENTS and INHERITS edges, got %+v", edges)
	}
}

func TestBuildSymbolsAndEdges_UnresolvedRefDropped(t *testing.T) {
	ix := &Indexer{cfg: DefaultConfig(), store: openTestStore(t)}

	caller := entity("caller-id", "acme.codegraph.code.function.w.caller", "Caller", ast.TypeFunction, 1, 5)
	caller.Calls = []string{"acme.codegraph.code.function.w.nonexistent-Ghost"}

	_, edges := ix.buildSymbolsAndEdges(context.Background(), []*ast.CodeEntity{caller})
	require.Empty(t, edges)
}
