package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/c360studio/codegraph/storage"
)

func newTestReindexer(t *testing.T, repoPath string) (*Reindexer, *Indexer) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.RepoPath = repoPath
	cfg.Org = "acme"
	cfg.Project = "widgets"
	cfg.DataDir = t.TempDir()
	cfg.WatchEnabled = false
	cfg.ReindexSchedule = ""

	store := openTestStore(t)
	ix := New(cfg, store, nil)
	return NewReindexer(ix, store, cfg, nil), ix
}

func TestReindexer_ApplyUpsertThenDelete(t *testing.T) {
	repoPath := t.TempDir()
	path := filepath.Join(repoPath, "thing.go")
	require.NoError(t, os.WriteFile(path, []byte("package widgets\n\nfunc Thing() {}\n"), 0o644))

	rx, ix := newTestReindexer(t, repoPath)
	ctx := context.Background()

	result, err := rx.Apply(ctx, path, OpUpsert)
	require.NoError(t, err)
	require.Equal(t, Indexed, result.Outcome)

	_, err = ix.store.GetFileByPath(ctx, "thing.go")
	require.NoError(t, err)

	result, err = rx.Apply(ctx, path, OpDelete)
	require.NoError(t, err)
	require.Equal(t, Indexed, result.Outcome)

	_, err = ix.store.GetFileByPath(ctx, "thing.go")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestReindexer_ApplyDeleteOfUnknownFileIsSkipped(t *testing.T) {
	repoPath := t.TempDir()
	rx, _ := newTestReindexer(t, repoPath)

	result, err := rx.Apply(context.Background(), filepath.Join(repoPath, "ghost.go"), OpDelete)
	require.NoError(t, err)
	require.Equal(t, Skipped, result.Outcome)
}

func TestReindexer_ApplyUnknownOperation(t *testing.T) {
	repoPath := t.TempDir()
	rx, _ := newTestReindexer(t, repoPath)

	_, err := rx.Apply(context.Background(), filepath.Join(repoPath, "x.go"), Operation("bogus"))
	require.Error(t, err)
}

func TestReindexer_StartStopWithWatchEnabled(t *testing.T) {
	repoPath := t.TempDir()
	cfg := DefaultConfig()
	cfg.RepoPath = repoPath
	cfg.Org = "acme"
	cfg.Project = "widgets"
	cfg.DataDir = t.TempDir()
	cfg.WatchEnabled = true
	cfg.ReindexSchedule = ""

	store := openTestStore(t)
	ix := New(cfg, store, nil)
	rx := NewReindexer(ix, store, cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, rx.Start(ctx))
	require.NoError(t, rx.Stop())
}

func TestMultiParser_UnregisteredExtension(t *testing.T) {
	mp := &multiParser{org: "acme", project: "widgets", repoRoot: t.TempDir()}
	_, err := mp.ParseFile(context.Background(), "file.unknownext")
	require.Error(t, err)
}

func TestMultiParser_DispatchesGoFiles(t *testing.T) {
	repoRoot := t.TempDir()
	path := filepath.Join(repoRoot, "thing.go")
	require.NoError(t, os.WriteFile(path, []byte("package widgets\n\nfunc Thing() {}\n"), 0o644))

	mp := &multiParser{org: "acme", project: "widgets", repoRoot: repoRoot}
	result, err := mp.ParseFile(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, result)
}
