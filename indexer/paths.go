package indexer

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultIgnoreGlobs returns the ignore patterns applied to every
// repository walk, regardless of a .codegraphignore file.
func DefaultIgnoreGlobs() []string {
	return []string{
		".git", ".git/**",
		"node_modules", "node_modules/**",
		"vendor", "vendor/**",
		"dist", "dist/**",
		"build", "build/**",
		".codegraph", ".codegraph/**",
	}
}

// shouldIgnore reports whether relPath (relative to the repo root)
// matches any glob, tested both against the full path and the base name
// so a bare directory name like "vendor" excludes it anywhere in the
// tree.
func shouldIgnore(relPath string, globs []string) bool {
	if relPath == "." || relPath == "" {
		return false
	}
	slash := filepath.ToSlash(relPath)
	base := filepath.Base(relPath)
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, slash); ok {
			return true
		}
		if ok, _ := doublestar.Match(g, base); ok {
			return true
		}
	}
	return false
}

// loadIgnoreFile reads newline-separated glob patterns from
// <repoRoot>/.codegraphignore, skipping blank lines and '#' comments. A
// missing file is not an error.
func loadIgnoreFile(repoRoot string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(repoRoot, ".codegraphignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var globs []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		globs = append(globs, line)
	}
	return globs, nil
}
