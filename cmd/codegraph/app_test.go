package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/c360studio/codegraph/config"
)

func testAppConfig(t *testing.T, repoPath string) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Repo.Path = repoPath
	cfg.Repo.Project = "testrepo"
	cfg.Repo.DataDir = filepath.Join(t.TempDir(), "data")
	return cfg
}

func TestNewApp_OpensStoreAndIndexer(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := testAppConfig(t, tmpDir)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	app, err := NewApp(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	defer app.Close()

	if app.store == nil {
		t.Error("expected store to be initialized")
	}
	if app.indexer == nil {
		t.Error("expected indexer to be initialized")
	}
	if app.reindexer == nil {
		t.Error("expected reindexer to be initialized")
	}
}

func TestRunIndex_IndexesFiles(t *testing.T) {
	tmpDir := t.TempDir()
	src := "package main\n\nfunc main() {}\n"
	if err := os.WriteFile(filepath.Join(tmpDir, "main.go"), []byte(src), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	cfg := testAppConfig(t, tmpDir)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	app, err := NewApp(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	defer app.Close()

	if err := app.RunIndex(ctx); err != nil {
		t.Fatalf("RunIndex() error = %v", err)
	}

	f, err := app.store.GetFileByPath(ctx, "main.go")
	if err != nil {
		t.Fatalf("GetFileByPath() error = %v", err)
	}
	if f.Language != "go" {
		t.Errorf("expected language go, got %s", f.Language)
	}
}

func TestRunValidateDocs_ScoresIndexedDocuments(t *testing.T) {
	tmpDir := t.TempDir()
	src := "package main\n\nfunc main() {}\n"
	if err := os.WriteFile(filepath.Join(tmpDir, "main.go"), []byte(src), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	doc := "# Overview\n\nSee `main` in `main.go` and the missing `doesNotExist` function.\n"
	if err := os.WriteFile(filepath.Join(tmpDir, "README.md"), []byte(doc), 0644); err != nil {
		t.Fatalf("failed to write test doc: %v", err)
	}

	cfg := testAppConfig(t, tmpDir)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	app, err := NewApp(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	defer app.Close()

	if err := app.RunIndex(ctx); err != nil {
		t.Fatalf("RunIndex() error = %v", err)
	}
	if err := app.RunValidateDocs(ctx); err != nil {
		t.Fatalf("RunValidateDocs() error = %v", err)
	}
}

func TestRunWatch_StopsOnContextCancel(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := testAppConfig(t, tmpDir)
	cfg.Index.ReindexSchedule = ""
	cfg.Index.WatchEnabled = true

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	app, err := NewApp(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	defer app.Close()

	watchCtx, watchCancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer watchCancel()

	if err := app.RunWatch(watchCtx); err != nil {
		t.Fatalf("RunWatch() error = %v", err)
	}
}
