package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/c360studio/codegraph/processor/ast"
	_ "github.com/c360studio/codegraph/processor/ast/golang"
	_ "github.com/c360studio/codegraph/processor/ast/java"
	_ "github.com/c360studio/codegraph/processor/ast/python"
	_ "github.com/c360studio/codegraph/processor/ast/svelte"
	_ "github.com/c360studio/codegraph/processor/ast/template"
	_ "github.com/c360studio/codegraph/processor/ast/ts"
	"github.com/c360studio/codegraph/source"
	"github.com/c360studio/codegraph/source/chunker"
	"github.com/c360studio/codegraph/source/parser"
	"github.com/c360studio/codegraph/sqlschema"
	"github.com/c360studio/codegraph/storage"
)

// docChunker drives document-family chunking (§4.4's prose path):
// section/paragraph/sentence splitting with trailing-context overlap,
// as opposed to ChunkFile's symbol-anchored code chunking.
var docChunker = chunker.MustNew(chunker.DefaultConfig())

// Outcome is one of the three results the Indexer's per-file contract
// produces (§4.1).
type Outcome string

const (
	Indexed  Outcome = "indexed"
	Skipped  Outcome = "skipped"
	TooLarge Outcome = "too_large"
)

// FileResult reports the outcome of indexing a single file.
type FileResult struct {
	Path    string
	Outcome Outcome
	Err     error
}

// Indexer is the per-file transactional orchestrator described in §4.1:
// it resolves a file's language, parses it, extracts symbols/edges/
// chunks, and writes all of it in one transaction via storage.Store.
type Indexer struct {
	cfg    Config
	store  *storage.Store
	logger *slog.Logger
}

// New creates an Indexer for one repository. store must already be open
// against that repository's database.
func New(cfg Config, store *storage.Store, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{cfg: cfg, store: store, logger: logger}
}

// IndexRepository walks the repository root, indexing every file not
// excluded by ignore globs. A parse failure on one file is logged and
// counted as skipped; the walk continues (§4.1 failure semantics).
func (ix *Indexer) IndexRepository(ctx context.Context) ([]FileResult, error) {
	fileGlobs, err := loadIgnoreFile(ix.cfg.RepoPath)
	if err != nil {
		return nil, fmt.Errorf("loading .codegraphignore: %w", err)
	}
	globs := append(append([]string{}, DefaultIgnoreGlobs()...), ix.cfg.IgnoreGlobs...)
	globs = append(globs, fileGlobs...)

	var results []FileResult
	err = filepath.WalkDir(ix.cfg.RepoPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == ix.cfg.RepoPath {
			return nil
		}
		rel, relErr := filepath.Rel(ix.cfg.RepoPath, path)
		if relErr != nil {
			return relErr
		}
		if d.IsDir() {
			if shouldIgnore(rel, globs) {
				return filepath.SkipDir
			}
			return nil
		}
		if shouldIgnore(rel, globs) {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		results = append(results, ix.IndexFile(ctx, path))
		return nil
	})
	return results, err
}

// IndexFile runs the §4.1 algorithm for a single file: size check,
// content-hash skip check, parse, extract, and one transactional write.
// A parse failure never aborts the caller's walk; it is reported on the
// returned FileResult.
func (ix *Indexer) IndexFile(ctx context.Context, absPath string) FileResult {
	rel, err := filepath.Rel(ix.cfg.RepoPath, absPath)
	if err != nil {
		return FileResult{Path: absPath, Err: err}
	}
	rel = filepath.ToSlash(rel)

	info, err := os.Stat(absPath)
	if err != nil {
		return FileResult{Path: rel, Err: err}
	}
	if info.Size() > ix.cfg.MaxFileSizeBytes {
		return FileResult{Path: rel, Outcome: TooLarge}
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return FileResult{Path: rel, Err: err}
	}
	hash := ast.ComputeHash(content)

	existing, err := ix.store.GetFileByPath(ctx, rel)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return FileResult{Path: rel, Err: err}
	}
	if err == nil && existing.ContentHash == hash {
		return FileResult{Path: rel, Outcome: Skipped}
	}

	language := detectLanguage(rel)

	var entities []*ast.CodeEntity
	hasParser := false
	if parserName, ok := ast.DefaultRegistry.GetParserName(filepath.Ext(rel)); ok {
		hasParser = true
		p, perr := ast.DefaultRegistry.CreateParser(parserName, ix.cfg.Org, ix.cfg.Project, ix.cfg.RepoPath)
		if perr != nil {
			ix.logger.Error("create parser", "path", rel, "error", perr)
			return FileResult{Path: rel, Outcome: Skipped, Err: perr}
		}
		result, perr := p.ParseFile(ctx, absPath)
		if perr != nil {
			ix.logger.Warn("parse failed, skipping file", "path", rel, "error", perr)
			return FileResult{Path: rel, Outcome: Skipped, Err: perr}
		}
		entities = result.Entities
	}

	symbols, edges := ix.buildSymbolsAndEdges(ctx, entities)
	symbols = PopulateByteOffsets(content, symbols)

	var parsedDoc *source.Document
	if isDocLanguage(language) {
		if p := parser.DefaultRegistry.GetByExtension(rel); p != nil {
			if d, perr := p.Parse(rel, content); perr == nil {
				parsedDoc = d
			} else {
				ix.logger.Warn("document parse failed, falling back to plain text", "path", rel, "error", perr)
			}
		}
	}

	var chunks []storage.Chunk
	switch {
	case hasParser:
		chunks = ChunkFile(content, symbols, ix.cfg.ChunkMaxChars, ix.cfg.ChunkOverlapChars)
	case parsedDoc != nil:
		chunks = ChunkDocument(docChunker, parsedDoc.ID, content, parsedDoc.Body)
	default:
		chunks = ChunkPlainText(content, ix.cfg.PlainTextLinesPerChunk)
	}

	fileID := uuid.New().String()
	if existing != nil {
		fileID = existing.ID
	}

	write := storage.FileWrite{
		File: storage.File{
			ID:          fileID,
			Path:        rel,
			Language:    language,
			ContentHash: hash,
			Mtime:       info.ModTime(),
		},
		Symbols: symbols,
		Edges:   edges,
		Chunks:  chunks,
	}

	if err := ix.store.UpsertFileWithDerived(ctx, write); err != nil {
		return FileResult{Path: rel, Err: err}
	}

	if parsedDoc != nil {
		if err := ix.store.UpsertDocument(ctx, storage.Document{
			ID:      parsedDoc.ID,
			Path:    rel,
			Type:    "DOC_FILE",
			Title:   docTitle(parsedDoc, rel),
			Content: parsedDoc.Body,
			Source:  "HUMAN",
		}); err != nil {
			ix.logger.Warn("upsert document failed", "path", rel, "error", err)
		}
	}

	if language == "sql" {
		if err := ix.indexSQLSchema(ctx, fileID, rel, content); err != nil {
			ix.logger.Warn("sql schema parse failed", "path", rel, "error", err)
		}
	}

	return FileResult{Path: rel, Outcome: Indexed}
}

// isDocLanguage reports whether language is one of the document-family
// languages the prose chunker and source/parser registry handle, rather
// than the AST-parser or plain-text-fallback code path.
func isDocLanguage(language string) bool {
	switch language {
	case "markdown", "rst", "asciidoc", "pdf", "html":
		return true
	default:
		return false
	}
}

// docTitle picks a document's title from frontmatter if present,
// otherwise its filename without extension.
func docTitle(doc *source.Document, rel string) string {
	if doc.Frontmatter != nil {
		if t, ok := doc.Frontmatter["title"].(string); ok && t != "" {
			return t
		}
	}
	base := filepath.Base(rel)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// indexSQLSchema parses a .sql file's CREATE TABLE/FUNCTION/PROCEDURE/
// TRIGGER statements, replaces fileID's rows in sql_tables/sql_routines,
// and stores a generated plain-text summary as a SQL_SCHEMA document so
// it participates in full-text and semantic search like any other doc.
func (ix *Indexer) indexSQLSchema(ctx context.Context, fileID, rel string, content []byte) error {
	tables, routines := sqlschema.ParseFile(string(content))
	if len(tables) == 0 && len(routines) == 0 {
		return nil
	}

	if err := ix.store.ReplaceSQLSchema(ctx, fileID, storageSQLTables(tables), storageSQLRoutines(routines)); err != nil {
		return fmt.Errorf("replace sql schema: %w", err)
	}

	summary := sqlschema.Summarize(rel, tables, routines)
	doc := storage.Document{
		ID:      parser.GenerateDocID("sql-schema", rel, content),
		Path:    rel + "#schema",
		Type:    "SQL_SCHEMA",
		Title:   "Schema: " + rel,
		Content: summary,
		Source:  "GENERATED",
	}
	if err := ix.store.UpsertDocument(ctx, doc); err != nil {
		return fmt.Errorf("upsert schema document: %w", err)
	}
	return nil
}

func storageSQLTables(tables []sqlschema.Table) []storage.SQLTable {
	out := make([]storage.SQLTable, 0, len(tables))
	for _, t := range tables {
		cols := make([]storage.SQLColumn, 0, len(t.Columns))
		for _, c := range t.Columns {
			cols = append(cols, storage.SQLColumn{
				Name:         c.Name,
				DataType:     c.DataType,
				Nullable:     c.Nullable,
				Default:      c.Default,
				IsPrimaryKey: c.IsPrimaryKey,
				IsForeignKey: c.IsForeignKey,
				FKReferences: c.FKReferences,
			})
		}
		cons := make([]storage.SQLConstraint, 0, len(t.Constraints))
		for _, c := range t.Constraints {
			cons = append(cons, storage.SQLConstraint{
				Name:       c.Name,
				Type:       c.Type,
				Definition: c.Definition,
				Columns:    c.Columns,
			})
		}
		out = append(out, storage.SQLTable{
			ID:            uuid.New().String(),
			SchemaName:    t.SchemaName,
			TableName:     t.TableName,
			QualifiedName: t.QualifiedName,
			Columns:       cols,
			Constraints:   cons,
			StartLine:     t.StartLine,
			EndLine:       t.EndLine,
			ContentHash:   t.ContentHash,
		})
	}
	return out
}

func storageSQLRoutines(routines []sqlschema.Routine) []storage.SQLRoutine {
	out := make([]storage.SQLRoutine, 0, len(routines))
	for _, r := range routines {
		params := make([]storage.SQLParameter, 0, len(r.Parameters))
		for _, p := range r.Parameters {
			params = append(params, storage.SQLParameter{
				Name:    p.Name,
				Type:    p.Type,
				Mode:    p.Mode,
				Default: p.Default,
			})
		}
		out = append(out, storage.SQLRoutine{
			ID:            uuid.New().String(),
			SchemaName:    r.SchemaName,
			RoutineName:   r.RoutineName,
			QualifiedName: r.QualifiedName,
			RoutineType:   r.RoutineType,
			Parameters:    params,
			ReturnType:    r.ReturnType,
			Language:      r.Language,
			TriggerTable:  r.TriggerTable,
			TriggerEvents: r.TriggerEvents,
			TriggerTiming: r.TriggerTiming,
			StartLine:     r.StartLine,
			EndLine:       r.EndLine,
			ContentHash:   r.ContentHash,
		})
	}
	return out
}

// detectLanguage maps a file extension to a language identifier, first
// consulting the AST parser registry, then falling back to document and
// template-family heuristics (the language-detection extension list
// supplemented from the pre-distillation source).
func detectLanguage(relPath string) string {
	ext := strings.ToLower(filepath.Ext(relPath))
	if name, ok := ast.DefaultRegistry.GetParserName(ext); ok {
		return name
	}
	base := strings.ToLower(filepath.Base(relPath))
	switch {
	case ext == ".sql":
		return "sql"
	case base == "schema.sql" || strings.Contains(relPath, "migrations/"):
		return "sql"
	case ext == ".md" || ext == ".markdown":
		return "markdown"
	case ext == ".rst":
		return "rst"
	case ext == ".adoc" || ext == ".asciidoc":
		return "asciidoc"
	case ext == ".pdf":
		return "pdf"
	case ext == ".vue" || ext == ".astro" || ext == ".ejs" || ext == ".hbs" || ext == ".jsp":
		return "template"
	case ext == "":
		return "unknown"
	default:
		return strings.TrimPrefix(ext, ".")
	}
}
