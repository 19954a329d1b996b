package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/c360studio/codegraph/processor/ast"
	"github.com/c360studio/codegraph/storage"
)

// Operation selects between the Reindexer's two single-file update
// kinds (§4.2).
type Operation string

const (
	OpDelete Operation = "delete"
	OpUpsert Operation = "upsert"
)

// Reindexer applies single-file DELETE/UPSERT updates and drives both
// the optional real-time file watcher and the periodic full-reindex
// schedule. UPSERT reuses the Indexer's per-file step directly, so
// running it twice on an unchanged file is a no-op by construction
// (content hash match → Skipped).
type Reindexer struct {
	indexer *Indexer
	store   *storage.Store
	cfg     Config
	logger  *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	watcher *ast.Watcher
}

// NewReindexer builds a Reindexer bound to an already-configured Indexer
// and its repository's Store.
func NewReindexer(ix *Indexer, store *storage.Store, cfg Config, logger *slog.Logger) *Reindexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reindexer{indexer: ix, store: store, cfg: cfg, logger: logger}
}

// Apply performs one single-file transactional update.
func (r *Reindexer) Apply(ctx context.Context, absPath string, op Operation) (FileResult, error) {
	rel, err := filepath.Rel(r.cfg.RepoPath, absPath)
	if err != nil {
		return FileResult{}, err
	}
	rel = filepath.ToSlash(rel)

	switch op {
	case OpUpsert:
		res := r.indexer.IndexFile(ctx, absPath)
		return res, res.Err

	case OpDelete:
		f, err := r.store.GetFileByPath(ctx, rel)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return FileResult{Path: rel, Outcome: Skipped}, nil
			}
			return FileResult{}, err
		}
		if err := r.store.PurgeAutoTagsForFile(ctx, f.ID); err != nil {
			return FileResult{}, fmt.Errorf("purge automatic tags: %w", err)
		}
		if err := r.store.DeleteFile(ctx, f.ID); err != nil {
			return FileResult{}, fmt.Errorf("delete file: %w", err)
		}
		return FileResult{Path: rel, Outcome: Indexed}, nil

	default:
		return FileResult{}, fmt.Errorf("unknown reindex operation %q", op)
	}
}

// Start begins the Reindexer's background modes: the periodic full
// reindex (if cfg.ReindexSchedule is set) and the real-time file watcher
// (if cfg.WatchEnabled). It returns once both are running; callers stop
// them via ctx cancellation followed by Stop.
func (r *Reindexer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cfg.ReindexSchedule != "" {
		c := cron.New()
		_, err := c.AddFunc(r.cfg.ReindexSchedule, func() {
			results, err := r.indexer.IndexRepository(ctx)
			if err != nil {
				r.logger.Error("periodic reindex failed", "error", err)
				return
			}
			r.logger.Info("periodic reindex complete", "files", len(results))
		})
		if err != nil {
			return fmt.Errorf("scheduling periodic reindex: %w", err)
		}
		c.Start()
		r.cron = c
	}

	if r.cfg.WatchEnabled {
		watcher, err := ast.NewWatcherWithParser(ast.WatcherConfig{
			RepoRoot:       r.cfg.RepoPath,
			Org:            r.cfg.Org,
			Project:        r.cfg.Project,
			Logger:         r.logger,
			FileExtensions: ast.DefaultRegistry.ListExtensions(),
		}, &multiParser{org: r.cfg.Org, project: r.cfg.Project, repoRoot: r.cfg.RepoPath})
		if err != nil {
			return fmt.Errorf("creating watcher: %w", err)
		}
		if err := watcher.Start(ctx); err != nil {
			return fmt.Errorf("starting watcher: %w", err)
		}
		r.watcher = watcher
		go r.consumeWatchEvents(ctx, watcher)
	}

	return nil
}

// Stop halts the cron scheduler and the file watcher, if running.
func (r *Reindexer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cron != nil {
		r.cron.Stop()
		r.cron = nil
	}
	if r.watcher != nil {
		err := r.watcher.Stop()
		r.watcher = nil
		return err
	}
	return nil
}

// consumeWatchEvents translates fsnotify-driven WatchEvents into
// Reindexer Apply calls: creates and modifies become UPSERT, deletes
// become DELETE. The watcher's own parse result is discarded in favor
// of re-running the full per-file Indexer step, so resolution against
// already-persisted repository state stays consistent.
func (r *Reindexer) consumeWatchEvents(ctx context.Context, watcher *ast.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events():
			if !ok {
				return
			}
			absPath := filepath.Join(r.cfg.RepoPath, event.Path)
			op := OpUpsert
			if event.Operation == ast.OpDelete {
				op = OpDelete
			}
			if _, err := r.Apply(ctx, absPath, op); err != nil {
				r.logger.Error("watch event apply failed", "path", event.Path, "op", op, "error", err)
			}
		}
	}
}

// multiParser adapts ast.DefaultRegistry to the single ast.FileParser the
// Watcher expects, dispatching each call by the file's extension so one
// Watcher instance can cover every registered language.
type multiParser struct {
	org, project, repoRoot string
}

func (m *multiParser) ParseFile(ctx context.Context, filePath string) (*ast.ParseResult, error) {
	ext := filepath.Ext(filePath)
	name, ok := ast.DefaultRegistry.GetParserName(ext)
	if !ok {
		return nil, fmt.Errorf("no parser registered for extension %q", ext)
	}
	p, err := ast.DefaultRegistry.CreateParser(name, m.org, m.project, m.repoRoot)
	if err != nil {
		return nil, err
	}
	return p.ParseFile(ctx, filePath)
}
