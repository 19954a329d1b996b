package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Repository is a row in the control database's repositories table.
type Repository struct {
	ID       string
	Name     string
	RootPath string
	DBPath   string
}

// ControlStore tracks which SQLite file backs each repository namespace.
// Concurrent indexing of different repositories never collides because
// each gets its own database file; the control database only maps
// names to paths.
type ControlStore struct {
	db *sql.DB
}

// OpenControl opens (or creates) the control database under dataDir.
func OpenControl(dataDir string) (*ControlStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	path := filepath.Join(dataDir, "_control.db")
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening control database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging control database: %w", err)
	}
	if _, err := db.Exec(controlSchemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating control schema: %w", err)
	}

	return &ControlStore{db: db}, nil
}

// Close closes the control database.
func (c *ControlStore) Close() error {
	return c.db.Close()
}

// RegisterRepository records a repository's database file, creating the
// entry if it doesn't already exist. Returns the repository record.
func (c *ControlStore) RegisterRepository(ctx context.Context, id, name, rootPath, dataDir string) (*Repository, error) {
	dbPath := filepath.Join(dataDir, name+".db")

	if _, err := c.db.ExecContext(ctx, `
		INSERT INTO repositories (id, name, root_path, db_path)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET root_path = excluded.root_path
	`, id, name, rootPath, dbPath); err != nil {
		return nil, fmt.Errorf("registering repository %q: %w", name, err)
	}

	return c.GetRepository(ctx, name)
}

// GetRepository resolves a repository by name, or ErrNotFound.
func (c *ControlStore) GetRepository(ctx context.Context, name string) (*Repository, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT id, name, root_path, db_path FROM repositories WHERE name = ?`, name)
	var r Repository
	if err := row.Scan(&r.ID, &r.Name, &r.RootPath, &r.DBPath); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

// ListRepositories returns every registered repository.
func (c *ControlStore) ListRepositories(ctx context.Context) ([]Repository, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id, name, root_path, db_path FROM repositories`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var repos []Repository
	for rows.Next() {
		var r Repository
		if err := rows.Scan(&r.ID, &r.Name, &r.RootPath, &r.DBPath); err != nil {
			return nil, err
		}
		repos = append(repos, r)
	}
	return repos, rows.Err()
}

// OpenRepositoryStore registers (if needed) and opens the per-repository
// Store for name, rooted under dataDir.
func OpenRepositoryStore(ctx context.Context, control *ControlStore, id, name, rootPath, dataDir string, embeddingDim int) (*Store, error) {
	repo, err := control.RegisterRepository(ctx, id, name, rootPath, dataDir)
	if err != nil {
		return nil, err
	}
	return Open(repo.DBPath, embeddingDim)
}
