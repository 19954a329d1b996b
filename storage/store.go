// Package storage implements the relational persistence layer: one
// SQLite database per repository (files, symbols, edges, chunks,
// embeddings, documents, tags, and the documentation-validity tables),
// plus a small control database that maps repository names to their
// database file. Vector search uses sqlite-vec; full text uses FTS5.
package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	sqlitevec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlitevec.Auto()
}

// File mirrors a row in the files table.
type File struct {
	ID          string
	Path        string
	Language    string
	ContentHash string
	Mtime       time.Time
	UpdatedAt   time.Time
}

// Symbol mirrors a row in the symbols table.
type Symbol struct {
	ID           string
	FileID       string
	FQN          string
	Name         string
	Kind         string
	Signature    string
	StartLine    int
	EndLine      int
	StartByte    int
	EndByte      int
	Docstring    string
	ContentHash  string
}

// Edge mirrors a row in the edges table.
type Edge struct {
	ID                string
	Type              string
	SrcSymbolID       string // empty for file-level IMPORTS
	DstSymbolID       string
	EvidenceFileID    string
	EvidenceStartLine int
	EvidenceEndLine   int
	Confidence        float64
}

// Chunk mirrors a row in the chunks table.
type Chunk struct {
	ID          string
	FileID      string
	SymbolID    string // empty for header chunks
	StartLine   int
	EndLine     int
	Content     string
	ContentHash string
}

// Document mirrors a row in the documents table.
type Document struct {
	ID        string
	Path      string
	Type      string // DOC_FILE, SQL_SCHEMA, GENERATED_SUMMARY, DB_REPORT
	Title     string
	Content   string
	Source    string // HUMAN, GENERATED
	UpdatedAt time.Time
}

// EntityTag mirrors a row in the entity_tags table.
type EntityTag struct {
	ID         string
	TagID      string
	EntityType string // file, symbol, chunk, document
	EntityID   string
	Source     string // MANUAL, RULE, AUTO, SEMANTIC_MATCH
	Confidence float64
}

// BehavioralClaim mirrors a row in the behavioral_claims table.
type BehavioralClaim struct {
	ID                   string
	DocumentID           string
	ClaimText            string
	Topic                string
	Subject              string
	Condition            string
	ExpectedValue        string
	ValueType            string // percentage, number, duration, size, boolean
	ExtractionConfidence float64
	Status               string // new, verified, drift, unclear
}

// ClaimEvidence is one supporting reference inside a ClaimVerification.
type ClaimEvidence struct {
	ChunkID   string  `json:"chunk_id"`
	File      string  `json:"file"`
	StartLine int     `json:"start_line"`
	EndLine   int     `json:"end_line"`
	Relevance float64 `json:"relevance"`
}

// ClaimVerification mirrors a row in the claim_verifications table.
type ClaimVerification struct {
	ID            string
	ClaimID       string
	Verdict       string // match, mismatch, unclear, no_code_found
	Confidence    float64
	ActualValue   string
	Evidence      []ClaimEvidence
	Reasoning     string
	SuggestedFix  string
	FixType       string
	SuggestedDiff string
	Severity      string // high, medium, low; set when Verdict is mismatch
}

// DocDriftIssue mirrors a row in the doc_drift_issues table: a record
// that a documented claim no longer matches the code that implements it.
type DocDriftIssue struct {
	ID             string
	ClaimID        string
	VerificationID string
	Severity       string
	Summary        string
}

// DocValidityScore mirrors a row in the doc_validity_scores table.
type DocValidityScore struct {
	DocumentID     string
	Score          float64
	ReferenceScore float64
	EmbeddingScore float64
	FreshnessScore float64
	SemanticScore  *float64
	ContentHash    string
	ValidatedAt    time.Time
}

// SearchResult is a scored chunk or document returned from vector or
// full-text search, joined with enough context to render and cite it.
type SearchResult struct {
	ChunkID    string
	DocumentID string
	FileID     string
	Path       string
	Content    string
	StartLine  int
	EndLine    int
	Score      float64
}

// Store wraps a single repository's SQLite database.
type Store struct {
	db           *sql.DB
	embeddingDim int
}

// Open opens (or creates) a repository database at dbPath and ensures
// its schema, including the sqlite-vec and FTS5 virtual tables, exists.
func Open(dbPath string, embeddingDim int) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(repoSchemaSQL(embeddingDim)); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	// SQLite itself admits one writer at a time and _busy_timeout makes
	// other writers wait; readers still fan out under WAL.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &Store{db: db, embeddingDim: embeddingDim}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for callers that need raw access
// (migrations tooling, ad hoc reporting queries).
func (s *Store) DB() *sql.DB {
	return s.db
}

// EmbeddingDim returns the configured embedding dimension.
func (s *Store) EmbeddingDim() int {
	return s.embeddingDim
}

// --- File operations ---

// GetFileByPath returns the file record at path, or ErrNotFound.
func (s *Store) GetFileByPath(ctx context.Context, path string) (*File, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, path, language, content_hash, mtime, updated_at FROM files WHERE path = ?`, path)
	var f File
	var mtime, updatedAt sql.NullTime
	if err := row.Scan(&f.ID, &f.Path, &f.Language, &f.ContentHash, &mtime, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	f.Mtime = mtime.Time
	f.UpdatedAt = updatedAt.Time
	return &f, nil
}

// GetFileByID returns the file record with id, or ErrNotFound.
func (s *Store) GetFileByID(ctx context.Context, id string) (*File, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, path, language, content_hash, mtime, updated_at FROM files WHERE id = ?`, id)
	var f File
	var mtime, updatedAt sql.NullTime
	if err := row.Scan(&f.ID, &f.Path, &f.Language, &f.ContentHash, &mtime, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	f.Mtime = mtime.Time
	f.UpdatedAt = updatedAt.Time
	return &f, nil
}

// DeleteFile removes a file and, via ON DELETE CASCADE, its symbols,
// chunks, and edges evidenced by it. Rows in the vec0 embedding tables
// have no foreign key and are not removed. Callers are expected to
// purge automatic EntityTags for the file and its symbols/chunks first,
// since entity_tags has no foreign key into files (entity_id is
// polymorphic), via PurgeAutoTagsForFile.
func (s *Store) DeleteFile(ctx context.Context, fileID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, fileID)
	return err
}

// PurgeAutoTagsForFile removes AUTO and RULE entity_tags rows for a file
// and its symbols and chunks, preserving MANUAL tags. Used by the
// Reindexer's DELETE path before removing the file row.
func (s *Store) PurgeAutoTagsForFile(ctx context.Context, fileID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM entity_tags
		WHERE source IN ('AUTO', 'RULE')
		  AND ((entity_type = 'file' AND entity_id = ?)
		   OR (entity_type IN ('symbol', 'chunk') AND entity_id IN (
		        SELECT id FROM symbols WHERE file_id = ?
		        UNION SELECT id FROM chunks WHERE file_id = ?
		   )))
	`, fileID, fileID, fileID)
	return err
}

// FileWrite bundles everything the Indexer computes for one file so it
// can be persisted atomically.
type FileWrite struct {
	File    File
	Symbols []Symbol
	Edges   []Edge
	Chunks  []Chunk
}

// UpsertFileWithDerived performs the Indexer's per-file transactional
// write: upsert the file row, delete its previous derived rows (symbols,
// chunks, edges evidenced by it, automatic/rule tags), then insert the
// freshly extracted symbols, chunks, and edges. Symbols are deduped by
// FQN and chunks by (start_line, end_line, content_hash) before this is
// called; edges whose endpoints did not resolve must already be dropped
// by the caller.
func (s *Store) UpsertFileWithDerived(ctx context.Context, w FileWrite) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO files (id, path, language, content_hash, mtime, updated_at)
			VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(path) DO UPDATE SET
				content_hash = excluded.content_hash,
				language = excluded.language,
				mtime = excluded.mtime,
				updated_at = CURRENT_TIMESTAMP
		`, w.File.ID, w.File.Path, w.File.Language, w.File.ContentHash, w.File.Mtime); err != nil {
			return fmt.Errorf("upsert file: %w", err)
		}

		// Resolve the (possibly pre-existing) row id for this path: a
		// re-index reuses the original file id rather than the caller's.
		var fileID string
		if err := tx.QueryRowContext(ctx, `SELECT id FROM files WHERE path = ?`, w.File.Path).Scan(&fileID); err != nil {
			return fmt.Errorf("resolve file id: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM symbols WHERE file_id = ?`, fileID); err != nil {
			return fmt.Errorf("delete old symbols: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE file_id = ?`, fileID); err != nil {
			return fmt.Errorf("delete old chunks: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM edges WHERE evidence_file_id = ?`, fileID); err != nil {
			return fmt.Errorf("delete old edges: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM entity_tags
			WHERE source IN ('AUTO', 'RULE')
			  AND ((entity_type = 'file' AND entity_id = ?)
			   OR (entity_type IN ('symbol', 'chunk') AND entity_id IN (
			        SELECT id FROM symbols WHERE file_id = ?
			        UNION SELECT id FROM chunks WHERE file_id = ?
			   )))
		`, fileID, fileID, fileID); err != nil {
			return fmt.Errorf("purge automatic tags: %w", err)
		}

		for _, sym := range w.Symbols {
			sym.FileID = fileID
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO symbols (id, file_id, fqn, name, kind, signature, start_line, end_line, start_byte, end_byte, docstring, content_hash)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, sym.ID, sym.FileID, sym.FQN, sym.Name, sym.Kind, sym.Signature,
				sym.StartLine, sym.EndLine, sym.StartByte, sym.EndByte, sym.Docstring, sym.ContentHash); err != nil {
				return fmt.Errorf("insert symbol %s: %w", sym.FQN, err)
			}
		}

		for _, c := range w.Chunks {
			c.FileID = fileID
			symbolID := sql.NullString{String: c.SymbolID, Valid: c.SymbolID != ""}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO chunks (id, file_id, symbol_id, start_line, end_line, content, content_hash)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, c.ID, c.FileID, symbolID, c.StartLine, c.EndLine, c.Content, c.ContentHash); err != nil {
				return fmt.Errorf("insert chunk: %w", err)
			}
		}

		for _, e := range w.Edges {
			e.EvidenceFileID = fileID
			srcID := sql.NullString{String: e.SrcSymbolID, Valid: e.SrcSymbolID != ""}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO edges (id, type, src_symbol_id, dst_symbol_id, evidence_file_id, evidence_start_line, evidence_end_line, confidence)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, e.ID, e.Type, srcID, e.DstSymbolID, e.EvidenceFileID, e.EvidenceStartLine, e.EvidenceEndLine, e.Confidence); err != nil {
				return fmt.Errorf("insert edge: %w", err)
			}
		}

		return nil
	})
}

// --- Symbol lookup (edge resolution order, §4.1) ---

// GetSymbolByID returns the symbol with id, or ErrNotFound.
func (s *Store) GetSymbolByID(ctx context.Context, id string) (*Symbol, error) {
	symbols, err := s.querySymbols(ctx, `SELECT id, file_id, fqn, name, kind, signature, start_line, end_line, start_byte, end_byte, docstring, content_hash
		FROM symbols WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(symbols) == 0 {
		return nil, ErrNotFound
	}
	return &symbols[0], nil
}

// SymbolsByFQNInFile returns all symbols sharing an FQN within a file, used
// for step 1 of edge resolution.
func (s *Store) SymbolsByFQNInFile(ctx context.Context, fileID, fqn string) ([]Symbol, error) {
	return s.querySymbols(ctx, `SELECT id, file_id, fqn, name, kind, signature, start_line, end_line, start_byte, end_byte, docstring, content_hash
		FROM symbols WHERE file_id = ? AND fqn = ?`, fileID, fqn)
}

// SymbolsByNameInFile returns symbols matching a simple name within a
// file, used for step 2 of edge resolution.
func (s *Store) SymbolsByNameInFile(ctx context.Context, fileID, name string) ([]Symbol, error) {
	return s.querySymbols(ctx, `SELECT id, file_id, fqn, name, kind, signature, start_line, end_line, start_byte, end_byte, docstring, content_hash
		FROM symbols WHERE file_id = ? AND name = ?`, fileID, name)
}

// SymbolsByFQN returns all symbols sharing an FQN repository-wide, used
// for step 3 of edge resolution.
func (s *Store) SymbolsByFQN(ctx context.Context, fqn string) ([]Symbol, error) {
	return s.querySymbols(ctx, `SELECT id, file_id, fqn, name, kind, signature, start_line, end_line, start_byte, end_byte, docstring, content_hash
		FROM symbols WHERE fqn = ?`, fqn)
}

// SymbolsByName returns symbols matching a simple name repository-wide,
// used for step 4 of edge resolution. Callers take the first match.
func (s *Store) SymbolsByName(ctx context.Context, name string) ([]Symbol, error) {
	return s.querySymbols(ctx, `SELECT id, file_id, fqn, name, kind, signature, start_line, end_line, start_byte, end_byte, docstring, content_hash
		FROM symbols WHERE name = ?`, name)
}

func (s *Store) querySymbols(ctx context.Context, query string, args ...any) ([]Symbol, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var symbols []Symbol
	for rows.Next() {
		var sym Symbol
		if err := rows.Scan(&sym.ID, &sym.FileID, &sym.FQN, &sym.Name, &sym.Kind, &sym.Signature,
			&sym.StartLine, &sym.EndLine, &sym.StartByte, &sym.EndByte, &sym.Docstring, &sym.ContentHash); err != nil {
			return nil, err
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

// CallersOf returns edges of type CALLS whose destination is dstSymbolID.
func (s *Store) CallersOf(ctx context.Context, dstSymbolID string) ([]Edge, error) {
	return s.queryEdges(ctx, `SELECT id, type, src_symbol_id, dst_symbol_id, evidence_file_id, evidence_start_line, evidence_end_line, confidence
		FROM edges WHERE type = 'CALLS' AND dst_symbol_id = ?`, dstSymbolID)
}

// CalleesOf returns edges of type CALLS whose source is srcSymbolID.
func (s *Store) CalleesOf(ctx context.Context, srcSymbolID string) ([]Edge, error) {
	return s.queryEdges(ctx, `SELECT id, type, src_symbol_id, dst_symbol_id, evidence_file_id, evidence_start_line, evidence_end_line, confidence
		FROM edges WHERE type = 'CALLS' AND src_symbol_id = ?`, srcSymbolID)
}

// EdgesFrom returns all outgoing edges from a symbol, of any type.
func (s *Store) EdgesFrom(ctx context.Context, srcSymbolID string) ([]Edge, error) {
	return s.queryEdges(ctx, `SELECT id, type, src_symbol_id, dst_symbol_id, evidence_file_id, evidence_start_line, evidence_end_line, confidence
		FROM edges WHERE src_symbol_id = ?`, srcSymbolID)
}

// ChunksOverlappingRange returns the chunks of fileID whose span overlaps
// [startLine, endLine], ordered by start_line. Used to pack evidence
// context around an edge's evidence span or a symbol's definition.
func (s *Store) ChunksOverlappingRange(ctx context.Context, fileID string, startLine, endLine int) ([]Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, file_id, symbol_id, start_line, end_line, content, content_hash
		FROM chunks WHERE file_id = ? AND start_line <= ? AND end_line >= ? ORDER BY start_line`,
		fileID, endLine, startLine)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		var symbolID sql.NullString
		if err := rows.Scan(&c.ID, &c.FileID, &symbolID, &c.StartLine, &c.EndLine, &c.Content, &c.ContentHash); err != nil {
			return nil, err
		}
		c.SymbolID = symbolID.String
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func (s *Store) queryEdges(ctx context.Context, query string, args ...any) ([]Edge, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		var e Edge
		var src sql.NullString
		if err := rows.Scan(&e.ID, &e.Type, &src, &e.DstSymbolID, &e.EvidenceFileID,
			&e.EvidenceStartLine, &e.EvidenceEndLine, &e.Confidence); err != nil {
			return nil, err
		}
		e.SrcSymbolID = src.String
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// --- Embedding operations ---

// EmbeddingKind selects which one-to-one embedding table a vector
// belongs to.
type EmbeddingKind string

const (
	EmbeddingChunk    EmbeddingKind = "chunk"
	EmbeddingDocument EmbeddingKind = "document"
	EmbeddingSummary  EmbeddingKind = "summary"
)

func vecTableFor(kind EmbeddingKind) (string, error) {
	switch kind {
	case EmbeddingChunk:
		return "vec_chunk_embeddings", nil
	case EmbeddingDocument:
		return "vec_document_embeddings", nil
	case EmbeddingSummary:
		return "vec_summary_embeddings", nil
	default:
		return "", fmt.Errorf("unknown embedding kind %q", kind)
	}
}

// InsertEmbedding stores a vector for entityID under the given kind. No
// orphan embeddings: callers insert only after the owning entity exists.
func (s *Store) InsertEmbedding(ctx context.Context, kind EmbeddingKind, entityID string, vector []float32) error {
	table, err := vecTableFor(kind)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT OR REPLACE INTO %s (entity_id, embedding) VALUES (?, ?)`, table),
		entityID, serializeFloat32(vector))
	return err
}

// VectorSearchChunks performs a KNN search over chunk embeddings,
// returning the top-k nearest chunks joined with file context.
func (s *Store) VectorSearchChunks(ctx context.Context, query []float32, k int) ([]SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.entity_id, v.distance, c.file_id, c.start_line, c.end_line, c.content, f.path
		FROM vec_chunk_embeddings v
		JOIN chunks c ON c.id = v.entity_id
		JOIN files f ON f.id = c.file_id
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance
	`, serializeFloat32(query), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var distance float64
		if err := rows.Scan(&r.ChunkID, &distance, &r.FileID, &r.StartLine, &r.EndLine, &r.Content, &r.Path); err != nil {
			return nil, err
		}
		r.Score = 1.0 - distance
		results = append(results, r)
	}
	return results, rows.Err()
}

// FTSSearchChunks performs a full-text search over chunk content using
// FTS5 BM25 ranking.
func (s *Store) FTSSearchChunks(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, fts.rank, c.file_id, c.start_line, c.end_line, c.content, f.path
		FROM chunks_fts fts
		JOIN chunks c ON c.rowid = fts.rowid
		JOIN files f ON f.id = c.file_id
		WHERE chunks_fts MATCH ?
		ORDER BY fts.rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var rank float64
		if err := rows.Scan(&r.ChunkID, &rank, &r.FileID, &r.StartLine, &r.EndLine, &r.Content, &r.Path); err != nil {
			return nil, err
		}
		r.Score = -rank
		results = append(results, r)
	}
	return results, rows.Err()
}

// VectorSearchDocuments performs a KNN search over document embeddings.
func (s *Store) VectorSearchDocuments(ctx context.Context, query []float32, k int) ([]SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.entity_id, v.distance, d.path, d.content
		FROM vec_document_embeddings v
		JOIN documents d ON d.id = v.entity_id
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance
	`, serializeFloat32(query), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var distance float64
		if err := rows.Scan(&r.DocumentID, &distance, &r.Path, &r.Content); err != nil {
			return nil, err
		}
		r.Score = 1.0 - distance
		results = append(results, r)
	}
	return results, rows.Err()
}

// FTSSearchDocuments performs a full-text search over document title and
// content using FTS5 BM25 ranking.
func (s *Store) FTSSearchDocuments(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, fts.rank, d.path, d.content
		FROM documents_fts fts
		JOIN documents d ON d.rowid = fts.rowid
		WHERE documents_fts MATCH ?
		ORDER BY fts.rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var rank float64
		if err := rows.Scan(&r.DocumentID, &rank, &r.Path, &r.Content); err != nil {
			return nil, err
		}
		r.Score = -rank
		results = append(results, r)
	}
	return results, rows.Err()
}

// --- Document operations ---

// UpsertDocument inserts or replaces a document by path.
func (s *Store) UpsertDocument(ctx context.Context, d Document) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, path, type, title, content, source, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET
			type = excluded.type,
			title = excluded.title,
			content = excluded.content,
			source = excluded.source,
			updated_at = CURRENT_TIMESTAMP
	`, d.ID, d.Path, d.Type, d.Title, d.Content, d.Source)
	return err
}

// GetDocument returns a document by id, or ErrNotFound.
func (s *Store) GetDocument(ctx context.Context, id string) (*Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, path, type, title, content, source, updated_at FROM documents WHERE id = ?`, id)
	var d Document
	var updatedAt sql.NullTime
	if err := row.Scan(&d.ID, &d.Path, &d.Type, &d.Title, &d.Content, &d.Source, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	d.UpdatedAt = updatedAt.Time
	return &d, nil
}

// ListDocumentsByType returns all documents of the given type.
func (s *Store) ListDocumentsByType(ctx context.Context, docType string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, path, type, title, content, source, updated_at FROM documents WHERE type = ?`, docType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		var updatedAt sql.NullTime
		if err := rows.Scan(&d.ID, &d.Path, &d.Type, &d.Title, &d.Content, &d.Source, &updatedAt); err != nil {
			return nil, err
		}
		d.UpdatedAt = updatedAt.Time
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// --- Tag operations ---

// EnsureTag returns the id of the tag with the given name, creating it
// if necessary.
func (s *Store) EnsureTag(ctx context.Context, id, name string) (string, error) {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO tags (id, name) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`, id, name); err != nil {
		return "", err
	}
	var existingID string
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = ?`, name).Scan(&existingID); err != nil {
		return "", err
	}
	return existingID, nil
}

// TagEntity assigns a tag to an entity. Re-tagging the same
// (tag, entity_type, entity_id, source) is idempotent at the call site.
func (s *Store) TagEntity(ctx context.Context, t EntityTag) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entity_tags (id, tag_id, entity_type, entity_id, source, confidence)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.ID, t.TagID, t.EntityType, t.EntityID, t.Source, t.Confidence)
	return err
}

// ListTags returns every tag and how many entities it is assigned to.
func (s *Store) ListTags(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.name, COUNT(et.id)
		FROM tags t
		LEFT JOIN entity_tags et ON et.tag_id = t.id
		GROUP BY t.name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, err
		}
		counts[name] = count
	}
	return counts, rows.Err()
}

// TagsForEntity returns the names of every tag assigned to the given
// entity (regardless of source). Used by HybridSearch to compute the
// tag_boost component of a result's fused score.
func (s *Store) TagsForEntity(ctx context.Context, entityType, entityID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.name FROM tags t
		JOIN entity_tags et ON et.tag_id = t.id
		WHERE et.entity_type = ? AND et.entity_id = ?
	`, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tags = append(tags, name)
	}
	return tags, rows.Err()
}

// --- Documentation validity operations ---

// InsertClaim persists an extracted behavioral claim.
func (s *Store) InsertClaim(ctx context.Context, c BehavioralClaim) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO behavioral_claims (id, document_id, claim_text, topic, subject, condition, expected_value, value_type, extraction_confidence, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.DocumentID, c.ClaimText, c.Topic, c.Subject, c.Condition, c.ExpectedValue, c.ValueType, c.ExtractionConfidence, c.Status)
	return err
}

// DeleteClaimsForDocument removes every claim (and, via cascade, their
// verifications) previously extracted from documentID. Called before
// re-extraction so claim ids stay idempotent across re-runs.
func (s *Store) DeleteClaimsForDocument(ctx context.Context, documentID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM behavioral_claims WHERE document_id = ?`, documentID)
	return err
}

// ClaimsByDocument returns all claims extracted from a document.
func (s *Store) ClaimsByDocument(ctx context.Context, documentID string) ([]BehavioralClaim, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, claim_text, topic, subject, condition, expected_value, value_type, extraction_confidence, status
		FROM behavioral_claims WHERE document_id = ?
	`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []BehavioralClaim
	for rows.Next() {
		var c BehavioralClaim
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.ClaimText, &c.Topic, &c.Subject, &c.Condition,
			&c.ExpectedValue, &c.ValueType, &c.ExtractionConfidence, &c.Status); err != nil {
			return nil, err
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

// UpdateClaimStatus transitions a claim's status following verification.
func (s *Store) UpdateClaimStatus(ctx context.Context, claimID, status string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE behavioral_claims SET status = ? WHERE id = ?`, status, claimID)
	return err
}

// InsertVerification persists a claim verification result.
func (s *Store) InsertVerification(ctx context.Context, v ClaimVerification) error {
	evidence, err := marshalEvidence(v.Evidence)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO claim_verifications (id, claim_id, verdict, confidence, actual_value, evidence, reasoning, suggested_fix, fix_type, suggested_diff, severity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, v.ID, v.ClaimID, v.Verdict, v.Confidence, v.ActualValue, evidence, v.Reasoning, v.SuggestedFix, v.FixType, v.SuggestedDiff, v.Severity)
	return err
}

// InsertDriftIssue persists a documentation-drift issue raised when a
// claim's verification verdict is mismatch.
func (s *Store) InsertDriftIssue(ctx context.Context, d DocDriftIssue) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO doc_drift_issues (id, claim_id, verification_id, severity, summary)
		VALUES (?, ?, ?, ?, ?)
	`, d.ID, d.ClaimID, d.VerificationID, d.Severity, d.Summary)
	return err
}

// UpsertDocValidityScore stores the rolled-up validity score for a
// document, replacing any prior score.
func (s *Store) UpsertDocValidityScore(ctx context.Context, score DocValidityScore) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO doc_validity_scores (document_id, score, reference_score, embedding_score, freshness_score, semantic_score, content_hash, validated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			score = excluded.score,
			reference_score = excluded.reference_score,
			embedding_score = excluded.embedding_score,
			freshness_score = excluded.freshness_score,
			semantic_score = excluded.semantic_score,
			content_hash = excluded.content_hash,
			validated_at = excluded.validated_at
	`, score.DocumentID, score.Score, score.ReferenceScore, score.EmbeddingScore,
		score.FreshnessScore, score.SemanticScore, score.ContentHash, score.ValidatedAt)
	return err
}

// ValidityIssue mirrors a row in the doc_validity_issues table: one
// unresolved reference or mismatch found while validating a document's
// code references against the graph.
type ValidityIssue struct {
	ID              string
	DocumentID      string
	IssueType       string // broken_reference, fuzzy_match, missing_file, missing_symbol
	Severity        string // error, warning, info
	ReferenceText   string
	ReferenceLine   int
	ExpectedType    string
	FoundMatch      string
	FoundSimilarity float64
	Suggestion      string
}

// ReplaceValidityIssues swaps the full issue set for documentID: the
// prior rows are deleted before the new ones are inserted, so a
// re-validation never leaves stale issues behind.
func (s *Store) ReplaceValidityIssues(ctx context.Context, documentID string, issues []ValidityIssue) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM doc_validity_issues WHERE document_id = ?`, documentID); err != nil {
			return err
		}
		for _, issue := range issues {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO doc_validity_issues (id, document_id, issue_type, severity, reference_text, reference_line, expected_type, found_match, found_similarity, suggestion)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, issue.ID, documentID, issue.IssueType, issue.Severity, issue.ReferenceText, issue.ReferenceLine,
				issue.ExpectedType, issue.FoundMatch, issue.FoundSimilarity, issue.Suggestion); err != nil {
				return err
			}
		}
		return nil
	})
}

// ValidityIssuesForDocument returns the current issue set for a document.
func (s *Store) ValidityIssuesForDocument(ctx context.Context, documentID string) ([]ValidityIssue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, issue_type, severity, reference_text, reference_line, expected_type, found_match, found_similarity, suggestion
		FROM doc_validity_issues WHERE document_id = ?
	`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var issues []ValidityIssue
	for rows.Next() {
		var i ValidityIssue
		var refLine sql.NullInt64
		var expectedType, foundMatch, suggestion sql.NullString
		var similarity sql.NullFloat64
		if err := rows.Scan(&i.ID, &i.DocumentID, &i.IssueType, &i.Severity, &i.ReferenceText,
			&refLine, &expectedType, &foundMatch, &similarity, &suggestion); err != nil {
			return nil, err
		}
		i.ReferenceLine = int(refLine.Int64)
		i.ExpectedType = expectedType.String
		i.FoundMatch = foundMatch.String
		i.FoundSimilarity = similarity.Float64
		i.Suggestion = suggestion.String
		issues = append(issues, i)
	}
	return issues, rows.Err()
}

// GetEmbedding fetches the vector previously stored for entityID under
// kind, or ErrNotFound if the entity has never been embedded.
func (s *Store) GetEmbedding(ctx context.Context, kind EmbeddingKind, entityID string) ([]float32, error) {
	table, err := vecTableFor(kind)
	if err != nil {
		return nil, err
	}
	var raw []byte
	err = s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT embedding FROM %s WHERE entity_id = ?`, table), entityID).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return deserializeFloat32(raw), nil
}

// AllFilePaths returns every indexed file's id and path, for the
// fuzzy file-reference matching ValidityScorer falls back to when an
// exact path lookup misses.
func (s *Store) AllFilePaths(ctx context.Context) ([]File, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, path, language, content_hash, mtime, updated_at FROM files`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []File
	for rows.Next() {
		var f File
		var mtime, updatedAt sql.NullTime
		if err := rows.Scan(&f.ID, &f.Path, &f.Language, &f.ContentHash, &mtime, &updatedAt); err != nil {
			return nil, err
		}
		f.Mtime = mtime.Time
		f.UpdatedAt = updatedAt.Time
		files = append(files, f)
	}
	return files, rows.Err()
}

// AllSymbolNames returns every symbol's id, name, fqn, and owning file,
// for the fuzzy symbol-reference matching ValidityScorer falls back to
// when an exact name lookup misses.
func (s *Store) AllSymbolNames(ctx context.Context) ([]Symbol, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, file_id, fqn, name, kind FROM symbols`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var symbols []Symbol
	for rows.Next() {
		var sym Symbol
		if err := rows.Scan(&sym.ID, &sym.FileID, &sym.FQN, &sym.Name, &sym.Kind); err != nil {
			return nil, err
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

// --- SQL schema metadata operations ---

// SQLColumn is one parsed column of a CREATE TABLE statement.
type SQLColumn struct {
	Name           string `json:"name"`
	DataType       string `json:"data_type"`
	Nullable       bool   `json:"nullable"`
	Default        string `json:"default,omitempty"`
	IsPrimaryKey   bool   `json:"is_primary_key"`
	IsForeignKey   bool   `json:"is_foreign_key"`
	FKReferences   string `json:"fk_references,omitempty"`
}

// SQLConstraint is one parsed table-level constraint.
type SQLConstraint struct {
	Name       string   `json:"name,omitempty"`
	Type       string   `json:"type"` // PRIMARY KEY, FOREIGN KEY, UNIQUE, CHECK
	Definition string   `json:"definition"`
	Columns    []string `json:"columns,omitempty"`
}

// SQLTable mirrors a row in the sql_tables table: one parsed CREATE
// TABLE statement.
type SQLTable struct {
	ID            string
	FileID        string
	SchemaName    string
	TableName     string
	QualifiedName string
	Columns       []SQLColumn
	Constraints   []SQLConstraint
	StartLine     int
	EndLine       int
	ContentHash   string
}

// SQLParameter is one parsed routine parameter.
type SQLParameter struct {
	Name    string `json:"name,omitempty"`
	Type    string `json:"data_type"`
	Mode    string `json:"mode"` // IN, OUT, INOUT
	Default string `json:"default,omitempty"`
}

// SQLRoutine mirrors a row in the sql_routines table: one parsed CREATE
// FUNCTION/PROCEDURE/TRIGGER statement.
type SQLRoutine struct {
	ID            string
	FileID        string
	SchemaName    string
	RoutineName   string
	QualifiedName string
	RoutineType   string // FUNCTION, PROCEDURE, TRIGGER
	Parameters    []SQLParameter
	ReturnType    string
	Language      string
	TriggerTable  string
	TriggerEvents []string
	TriggerTiming string
	StartLine     int
	EndLine       int
	ContentHash   string
}

// ReplaceSQLSchema swaps fileID's parsed tables and routines for a fresh
// set, mirroring the re-index-replaces-derived-rows convention
// UpsertFileWithDerived uses for symbols/edges/chunks.
func (s *Store) ReplaceSQLSchema(ctx context.Context, fileID string, tables []SQLTable, routines []SQLRoutine) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sql_tables WHERE file_id = ?`, fileID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM sql_routines WHERE file_id = ?`, fileID); err != nil {
			return err
		}
		for _, t := range tables {
			cols, err := json.Marshal(t.Columns)
			if err != nil {
				return err
			}
			cons, err := json.Marshal(t.Constraints)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO sql_tables (id, file_id, schema_name, table_name, qualified_name, columns, constraints, start_line, end_line, content_hash)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, t.ID, fileID, t.SchemaName, t.TableName, t.QualifiedName, cols, cons, t.StartLine, t.EndLine, t.ContentHash); err != nil {
				return err
			}
		}
		for _, r := range routines {
			params, err := json.Marshal(r.Parameters)
			if err != nil {
				return err
			}
			events, err := json.Marshal(r.TriggerEvents)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO sql_routines (id, file_id, schema_name, routine_name, qualified_name, routine_type, parameters, return_type, language, trigger_table, trigger_events, trigger_timing, start_line, end_line, content_hash)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, r.ID, fileID, r.SchemaName, r.RoutineName, r.QualifiedName, r.RoutineType, params, r.ReturnType,
				r.Language, r.TriggerTable, events, r.TriggerTiming, r.StartLine, r.EndLine, r.ContentHash); err != nil {
				return err
			}
		}
		return nil
	})
}

// SQLTablesForFile returns the parsed tables for a .sql file.
func (s *Store) SQLTablesForFile(ctx context.Context, fileID string) ([]SQLTable, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_id, schema_name, table_name, qualified_name, columns, constraints, start_line, end_line, content_hash
		FROM sql_tables WHERE file_id = ?
	`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []SQLTable
	for rows.Next() {
		var t SQLTable
		var schemaName sql.NullString
		var cols, cons []byte
		if err := rows.Scan(&t.ID, &t.FileID, &schemaName, &t.TableName, &t.QualifiedName, &cols, &cons, &t.StartLine, &t.EndLine, &t.ContentHash); err != nil {
			return nil, err
		}
		t.SchemaName = schemaName.String
		if len(cols) > 0 {
			if err := json.Unmarshal(cols, &t.Columns); err != nil {
				return nil, err
			}
		}
		if len(cons) > 0 {
			if err := json.Unmarshal(cons, &t.Constraints); err != nil {
				return nil, err
			}
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// --- helpers ---

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// serializeFloat32 encodes a float32 vector in the little-endian layout
// sqlite-vec expects for its embedding columns.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// deserializeFloat32 decodes the little-endian layout sqlite-vec stores
// embedding columns in back into a float32 vector.
func deserializeFloat32(buf []byte) []float32 {
	out := make([]float32, len(buf)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out
}

func marshalEvidence(evidence []ClaimEvidence) ([]byte, error) {
	return json.Marshal(evidence)
}
