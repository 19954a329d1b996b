package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestIndexer(t *testing.T, repoPath string) *Indexer {
	t.Helper()
	cfg := DefaultConfig()
	cfg.RepoPath = repoPath
	cfg.Org = "acme"
	cfg.Project = "widgets"
	cfg.DataDir = t.TempDir()
	require.NoError(t, cfg.Validate())
	return New(cfg, openTestStore(t), nil)
}

func TestIndexFile_GoSource(t *testing.T) {
	repoPath := t.TempDir()
	src := "package widgets\n\nfunc Add(a, b int) int {\n\treturn a + b\n}\n"
	path := filepath.Join(repoPath, "add.go")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	ix := newTestIndexer(t, repoPath)
	result := ix.IndexFile(context.Background(), path)

	require.NoError(t, result.Err)
	require.Equal(t, Indexed, result.Outcome)
	require.Equal(t, "add.go", result.Path)

	f, err := ix.store.GetFileByPath(context.Background(), "add.go")
	require.NoError(t, err)
	require.Equal(t, "go", f.Language)
}

func TestIndexFile_UnchangedContentIsSkipped(t *testing.T) {
	repoPath := t.TempDir()
	src := "package widgets\n\nfunc Noop() {}\n"
	path := filepath.Join(repoPath, "noop.go")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	ix := newTestIndexer(t, repoPath)
	ctx := context.Background()

	first := ix.IndexFile(ctx, path)
	require.Equal(t, Indexed, first.Outcome)

	second := ix.IndexFile(ctx, path)
	require.Equal(t, Skipped, second.Outcome)
}

func TestIndexFile_TooLarge(t *testing.T) {
	repoPath := t.TempDir()
	path := filepath.Join(repoPath, "big.go")
	require.NoError(t, os.WriteFile(path, make([]byte, 128), 0o644))

	ix := newTestIndexer(t, repoPath)
	ix.cfg.MaxFileSizeBytes = 64

	result := ix.IndexFile(context.Background(), path)
	require.Equal(t, TooLarge, result.Outcome)
	require.NoError(t, result.Err)
}

func TestIndexFile_NoParserFallsBackToPlainText(t *testing.T) {
	repoPath := t.TempDir()
	path := filepath.Join(repoPath, "README.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello\nworld\n"), 0o644))

	ix := newTestIndexer(t, repoPath)
	result := ix.IndexFile(context.Background(), path)
	require.NoError(t, result.Err)
	require.Equal(t, Indexed, result.Outcome)
}

func TestIndexRepository_WalksAndIgnores(t *testing.T) {
	repoPath := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(repoPath, "vendor"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(repoPath, "vendor", "ignored.go"), []byte("package vendor\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(repoPath, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0o644))

	ix := newTestIndexer(t, repoPath)
	results, err := ix.IndexRepository(context.Background())
	require.NoError(t, err)

	paths := make(map[string]Outcome)
	for _, r := range results {
		paths[r.Path] = r.Outcome
	}
	require.Contains(t, paths, "main.go")
	require.NotContains(t, paths, "vendor/ignored.go")
}

func TestDetectLanguage(t *testing.T) {
	cases := map[string]string{
		"main.go":             "go",
		"schema.sql":           "sql",
		"db/migrations/01.up": "sql",
		"README.md":            "markdown",
		"notes.rst":            "rst",
		"App.vue":              "template",
		"unnamed":              "unknown",
	}
	for path, want := range cases {
		if got := detectLanguage(path); got != want {
			t.Errorf("detectLanguage(%q) = %q, want %q", path, got, want)
		}
	}
}
