package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_FromExplicitPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "codegraph.yaml")

	content := `
repo:
  path: "/repos/widgets"
  org: "acme"
index:
  chunk_max_chars: 3000
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config fixture: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg, err := loadConfig(configPath, logger)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	if cfg.Repo.Path != "/repos/widgets" {
		t.Errorf("expected repo path /repos/widgets, got %s", cfg.Repo.Path)
	}
	if cfg.Index.ChunkMaxChars != 3000 {
		t.Errorf("expected chunk_max_chars 3000, got %d", cfg.Index.ChunkMaxChars)
	}
}

func TestLoadConfig_MissingExplicitPath(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), logger)
	if err == nil {
		t.Error("expected error for missing explicit config path")
	}
}
