// Package config provides configuration loading and management for codegraph.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/codegraph/indexer"
	"github.com/c360studio/codegraph/llm"
)

// Config represents the complete codegraph configuration.
type Config struct {
	Repo  RepoConfig  `yaml:"repo"`
	Index IndexConfig `yaml:"index"`
	LLM   LLMConfig   `yaml:"llm"`
}

// RepoConfig identifies the repository being indexed and where its
// database and control files live.
type RepoConfig struct {
	// Path is the repository root path (auto-detected from git if empty).
	Path string `yaml:"path"`
	// Org namespaces entity FQNs (see processor/ast.NewCodeEntity).
	Org string `yaml:"org"`
	// Project namespaces entity FQNs within Org.
	Project string `yaml:"project"`
	// DataDir holds the per-repository SQLite database and the control
	// database (default: .codegraph under Path).
	DataDir string `yaml:"data_dir"`
}

// IndexConfig configures the repository walk, chunking, and the
// Reindexer's background modes.
type IndexConfig struct {
	WatchEnabled           bool     `yaml:"watch_enabled"`
	ReindexSchedule        string   `yaml:"reindex_schedule"`
	IgnoreGlobs            []string `yaml:"ignore_globs"`
	MaxFileSizeBytes       int64    `yaml:"max_file_size_bytes"`
	ChunkMaxChars          int      `yaml:"chunk_max_chars"`
	ChunkOverlapChars      int      `yaml:"chunk_overlap_chars"`
	PlainTextLinesPerChunk int      `yaml:"plain_text_lines_per_chunk"`
	// EmbeddingDim sizes the sqlite-vec virtual tables; it must match
	// whatever embedding model later populates them.
	EmbeddingDim int `yaml:"embedding_dim"`
	// MetricsAddr, when set, serves Prometheus metrics at this address
	// (e.g. ":9090") for the lifetime of watch mode. Empty disables it.
	MetricsAddr string `yaml:"metrics_addr"`
}

// LLMConfig configures the two model slots claim extraction and
// verification use (see llm.Config).
type LLMConfig struct {
	Deep  EndpointConfig `yaml:"deep"`
	Small EndpointConfig `yaml:"small"`
}

// EndpointConfig mirrors llm.EndpointSpec for YAML configuration.
type EndpointConfig struct {
	Provider    string        `yaml:"provider"`
	URL         string        `yaml:"url"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	idx := indexer.DefaultConfig()
	return &Config{
		Repo: RepoConfig{
			Path:    "", // auto-detect
			Org:     "local",
			Project: "",
			DataDir: "",
		},
		Index: IndexConfig{
			WatchEnabled:           idx.WatchEnabled,
			ReindexSchedule:        idx.ReindexSchedule,
			IgnoreGlobs:            idx.IgnoreGlobs,
			MaxFileSizeBytes:       idx.MaxFileSizeBytes,
			ChunkMaxChars:          idx.ChunkMaxChars,
			ChunkOverlapChars:      idx.ChunkOverlapChars,
			PlainTextLinesPerChunk: idx.PlainTextLinesPerChunk,
			EmbeddingDim:           768,
			MetricsAddr:            "",
		},
		LLM: LLMConfig{
			Deep: EndpointConfig{
				Provider:    "ollama",
				URL:         "http://localhost:11434/v1",
				Model:       "qwen2.5-coder:32b",
				Temperature: 0.3,
				MaxTokens:   4000,
				Timeout:     2 * time.Minute,
			},
			Small: EndpointConfig{
				Provider:    "ollama",
				URL:         "http://localhost:11434/v1",
				Model:       "qwen2.5-coder:7b",
				Temperature: 0.2,
				MaxTokens:   1000,
				Timeout:     30 * time.Second,
			},
		},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Repo.Path == "" {
		return fmt.Errorf("repo.path is required")
	}
	if c.Repo.Org == "" {
		return fmt.Errorf("repo.org is required")
	}
	if c.Index.MaxFileSizeBytes <= 0 {
		return fmt.Errorf("index.max_file_size_bytes must be positive")
	}
	if c.Index.ChunkMaxChars <= 0 {
		return fmt.Errorf("index.chunk_max_chars must be positive")
	}
	if c.Index.EmbeddingDim <= 0 {
		return fmt.Errorf("index.embedding_dim must be positive")
	}
	return nil
}

// ToIndexerConfig builds an indexer.Config from this configuration,
// resolving Project from the repo directory name and DataDir relative
// to Path when left blank.
func (c *Config) ToIndexerConfig() indexer.Config {
	project := c.Repo.Project
	if project == "" {
		project = filepath.Base(c.Repo.Path)
	}
	dataDir := c.Repo.DataDir
	if dataDir == "" {
		dataDir = filepath.Join(c.Repo.Path, ".codegraph")
	}
	return indexer.Config{
		RepoPath:               c.Repo.Path,
		Org:                    c.Repo.Org,
		Project:                project,
		DataDir:                dataDir,
		WatchEnabled:           c.Index.WatchEnabled,
		ReindexSchedule:        c.Index.ReindexSchedule,
		IgnoreGlobs:            c.Index.IgnoreGlobs,
		MaxFileSizeBytes:       c.Index.MaxFileSizeBytes,
		ChunkMaxChars:          c.Index.ChunkMaxChars,
		ChunkOverlapChars:      c.Index.ChunkOverlapChars,
		PlainTextLinesPerChunk: c.Index.PlainTextLinesPerChunk,
	}
}

// ToLLMConfig builds an llm.Config from this configuration's two slots.
func (c *Config) ToLLMConfig() llm.Config {
	return llm.Config{
		Deep:  c.LLM.Deep.toEndpointSpec(),
		Small: c.LLM.Small.toEndpointSpec(),
	}
}

func (e EndpointConfig) toEndpointSpec() llm.EndpointSpec {
	return llm.EndpointSpec{
		Provider:    e.Provider,
		URL:         e.URL,
		Model:       e.Model,
		APIKey:      e.APIKey,
		Temperature: e.Temperature,
		MaxTokens:   e.MaxTokens,
		Timeout:     e.Timeout,
	}
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence
// for non-zero values).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Repo.Path != "" {
		c.Repo.Path = other.Repo.Path
	}
	if other.Repo.Org != "" {
		c.Repo.Org = other.Repo.Org
	}
	if other.Repo.Project != "" {
		c.Repo.Project = other.Repo.Project
	}
	if other.Repo.DataDir != "" {
		c.Repo.DataDir = other.Repo.DataDir
	}

	if other.Index.ReindexSchedule != "" {
		c.Index.ReindexSchedule = other.Index.ReindexSchedule
	}
	if len(other.Index.IgnoreGlobs) > 0 {
		c.Index.IgnoreGlobs = other.Index.IgnoreGlobs
	}
	if other.Index.MaxFileSizeBytes != 0 {
		c.Index.MaxFileSizeBytes = other.Index.MaxFileSizeBytes
	}
	if other.Index.ChunkMaxChars != 0 {
		c.Index.ChunkMaxChars = other.Index.ChunkMaxChars
	}
	if other.Index.ChunkOverlapChars != 0 {
		c.Index.ChunkOverlapChars = other.Index.ChunkOverlapChars
	}
	if other.Index.PlainTextLinesPerChunk != 0 {
		c.Index.PlainTextLinesPerChunk = other.Index.PlainTextLinesPerChunk
	}
	if other.Index.EmbeddingDim != 0 {
		c.Index.EmbeddingDim = other.Index.EmbeddingDim
	}
	if other.Index.MetricsAddr != "" {
		c.Index.MetricsAddr = other.Index.MetricsAddr
	}

	if other.LLM.Deep.Model != "" {
		c.LLM.Deep = other.LLM.Deep
	}
	if other.LLM.Small.Model != "" {
		c.LLM.Small = other.LLM.Small
	}
}
