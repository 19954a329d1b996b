package ast

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// CodeEntity represents a code artifact extracted from AST parsing.
type CodeEntity struct {
	// ID is the opaque storage identifier (UUIDv4), assigned once at
	// extraction time and never recomputed.
	ID string

	// FQN is the deterministic fully-qualified name used to resolve
	// references across entities: two entities with the same path, name,
	// and type collapse to the same FQN without a live symbol table.
	// Format: {org}.codegraph.code.{type}.{project}.{instance}
	FQN string

	// Type classifies the code entity
	Type CodeEntityType

	// Name is the identifier (function name, type name, etc.)
	Name string

	// Path is the file path relative to repo root
	Path string

	// Package is the Go package name
	Package string

	// Visibility indicates if exported
	Visibility Visibility

	// Location in source
	StartLine int
	EndLine   int

	// Content hash for change detection
	Hash string

	// Documentation comment
	DocComment string

	// Relationships to other entities, expressed as FQNs. The indexer
	// resolves these against the repo's FQN table to find the referenced
	// entity's real ID.
	// ContainedBy/Contains carry real storage IDs: parent and child are
	// both known at parse time within the same file, no resolution needed.
	ContainedBy string   // parent entity ID
	Contains    []string // child entity IDs
	Imports     []string // import paths
	Implements  []string // interface entity FQNs
	Extends     []string // superclass entity FQNs (class-based languages)
	Embeds      []string // embedded type entity FQNs
	Calls       []string // called function entity FQNs
	References  []string // type reference entity FQNs
	Returns     []string // return type entity FQNs
	Receiver    string   // receiver type entity FQN (for methods)
	Parameters  []string // parameter type entity FQNs

	// Timestamps
	IndexedAt time.Time
}

// NewCodeEntity creates a new code entity with the given parameters.
// The project parameter is used to construct the deterministic FQN; ID is
// a freshly minted UUID independent of it.
func NewCodeEntity(org, project string, entityType CodeEntityType, name, path string) *CodeEntity {
	// Build instance identifier from path and name
	instance := BuildInstanceID(path, name, entityType)

	return &CodeEntity{
		ID:         uuid.New().String(),
		FQN:        fmt.Sprintf("%s.codegraph.code.%s.%s.%s", org, entityType, project, instance),
		Type:       entityType,
		Name:       name,
		Path:       path,
		Visibility: determineVisibility(name),
		IndexedAt:  time.Now(),
	}
}

// BuildInstanceID creates a unique instance identifier from path and name.
// Exported so the per-language parser packages can compute the same FQN
// suffix at reference sites as entities.go computes at definition sites.
func BuildInstanceID(path, name string, entityType CodeEntityType) string {
	// Sanitize for use in entity FQN (replace invalid characters)
	sanitized := strings.ReplaceAll(path, "/", "-")
	sanitized = strings.ReplaceAll(sanitized, ".", "-")
	sanitized = strings.TrimPrefix(sanitized, "-")

	if name != "" && entityType != TypeFile && entityType != TypePackage {
		// For functions, types, etc: include name
		return fmt.Sprintf("%s-%s", sanitized, name)
	}
	return sanitized
}

// determineVisibility checks if a Go identifier is exported
func determineVisibility(name string) Visibility {
	if name == "" {
		return VisibilityPrivate
	}
	r := []rune(name)
	if len(r) > 0 && unicode.IsUpper(r[0]) {
		return VisibilityPublic
	}
	return VisibilityPrivate
}

// ComputeHash computes a SHA256 hash of the given content
func ComputeHash(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:8]) // First 8 bytes for brevity
}

// ParseResult holds the results of parsing a source file.
type ParseResult struct {
	// FileEntity is the entity representing the file itself
	FileEntity *CodeEntity

	// Entities are all entities extracted from the file
	Entities []*CodeEntity

	// Imports are the import paths found in the file
	Imports []string

	// Package is the package name
	Package string

	// Path is the file path
	Path string

	// Hash is the content hash
	Hash string
}
