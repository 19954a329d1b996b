// Package indexer implements the per-file transactional orchestrator
// (Indexer) and its incremental counterpart (Reindexer): walking a
// repository, dispatching each file to the matching language parser,
// chunking its content, resolving edges, and writing the result into a
// storage.Store in one transaction per file.
package indexer

import "fmt"

// Config configures indexing of a single repository.
type Config struct {
	// RepoPath is the repository root on disk.
	RepoPath string

	// Org and Project feed entity FQN construction (see processor/ast).
	Org     string
	Project string

	// DataDir holds the per-repository SQLite database files and the
	// control database.
	DataDir string

	// WatchEnabled turns on the fsnotify-backed real-time watch mode.
	WatchEnabled bool

	// ReindexSchedule is a robfig/cron expression (e.g. "@every 5m") for
	// the periodic full reindex. Empty disables the scheduler.
	ReindexSchedule string

	// IgnoreGlobs are doublestar patterns excluded from the repo walk, in
	// addition to DefaultIgnoreGlobs and any .codegraphignore file.
	IgnoreGlobs []string

	// MaxFileSizeBytes is the Indexer's per-file size limit (§4.1 step 1).
	MaxFileSizeBytes int64

	// ChunkMaxChars and ChunkOverlapChars are the Chunker's MAX and
	// OVERLAP parameters (§4.4).
	ChunkMaxChars     int
	ChunkOverlapChars int

	// PlainTextLinesPerChunk is the fixed chunk size used when no parser
	// is registered for a file's extension (§4.4 fallback).
	PlainTextLinesPerChunk int
}

// DefaultConfig returns sensible indexing defaults.
func DefaultConfig() Config {
	return Config{
		RepoPath:               ".",
		WatchEnabled:           true,
		ReindexSchedule:        "@every 5m",
		IgnoreGlobs:            DefaultIgnoreGlobs(),
		MaxFileSizeBytes:       2 << 20, // 2 MiB
		ChunkMaxChars:          4000,
		ChunkOverlapChars:      500,
		PlainTextLinesPerChunk: 100,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.RepoPath == "" {
		return fmt.Errorf("repo_path is required")
	}
	if c.Org == "" {
		return fmt.Errorf("org is required")
	}
	if c.Project == "" {
		return fmt.Errorf("project is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.MaxFileSizeBytes <= 0 {
		return fmt.Errorf("max_file_size_bytes must be positive")
	}
	if c.ChunkMaxChars <= 0 {
		return fmt.Errorf("chunk_max_chars must be positive")
	}
	if c.ChunkOverlapChars < 0 {
		return fmt.Errorf("chunk_overlap_chars must not be negative")
	}
	return nil
}
