package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360studio/codegraph/config"
	"github.com/c360studio/codegraph/docvalidity"
	"github.com/c360studio/codegraph/indexer"
	"github.com/c360studio/codegraph/metrics"
	"github.com/c360studio/codegraph/storage"
)

// docTypesValidated are the Document.Type values the indexer actually
// produces; RunValidateDocs scores every document across these types.
var docTypesValidated = []string{"DOC_FILE", "SQL_SCHEMA"}

// App wires a loaded Config to an open Store and the Indexer/Reindexer
// pair that operate against it.
type App struct {
	cfg *config.Config

	control   *storage.ControlStore
	store     *storage.Store
	indexer   *indexer.Indexer
	reindexer *indexer.Reindexer
	scorer    *docvalidity.ValidityScorer

	registry *prometheus.Registry
	metrics  *metrics.Collector

	logger *slog.Logger
}

// NewApp opens the control database, registers (or resolves) the
// configured repository's per-repository Store, and constructs the
// Indexer and Reindexer bound to it.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	idxCfg := cfg.ToIndexerConfig()

	control, err := storage.OpenControl(idxCfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open control database: %w", err)
	}

	store, err := storage.OpenRepositoryStore(ctx, control, idxCfg.Project, idxCfg.Project, idxCfg.RepoPath, idxCfg.DataDir, cfg.Index.EmbeddingDim)
	if err != nil {
		control.Close()
		return nil, fmt.Errorf("open repository store: %w", err)
	}

	ix := indexer.New(idxCfg, store, logger)
	rx := indexer.NewReindexer(ix, store, idxCfg, logger)
	scorer := docvalidity.NewValidityScorer(store, docvalidity.DefaultScoreConfig())

	reg := prometheus.NewRegistry()

	return &App{
		cfg:       cfg,
		control:   control,
		store:     store,
		indexer:   ix,
		reindexer: rx,
		scorer:    scorer,
		registry:  reg,
		metrics:   metrics.New(reg),
		logger:    logger,
	}, nil
}

// Close releases the App's database handles.
func (a *App) Close() error {
	if err := a.store.Close(); err != nil {
		a.control.Close()
		return err
	}
	return a.control.Close()
}

// RunIndex performs one full repository walk and reports a summary.
func (a *App) RunIndex(ctx context.Context) error {
	start := time.Now()
	results, err := a.indexer.IndexRepository(ctx)
	if err != nil {
		return fmt.Errorf("index repository: %w", err)
	}
	a.metrics.RunDuration.Observe(time.Since(start).Seconds())

	var indexed, skipped, tooLarge, failed int
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
			a.logger.Warn("file failed to index", "path", r.Path, "error", r.Err)
		case r.Outcome == indexer.TooLarge:
			tooLarge++
		case r.Outcome == indexer.Skipped:
			skipped++
		default:
			indexed++
		}
	}

	a.metrics.FilesTotal.WithLabelValues("indexed").Add(float64(indexed))
	a.metrics.FilesTotal.WithLabelValues("skipped").Add(float64(skipped))
	a.metrics.FilesTotal.WithLabelValues("too_large").Add(float64(tooLarge))
	a.metrics.FilesTotal.WithLabelValues("failed").Add(float64(failed))
	a.metrics.FilesInRepo.Set(float64(indexed + skipped))
	a.metrics.ReindexTotal.Inc()

	fmt.Printf("indexed %d files (%d unchanged, %d too large, %d failed)\n", indexed, skipped, tooLarge, failed)
	return nil
}

// RunWatch runs an initial full index, then starts the Reindexer's
// background modes and blocks until ctx is cancelled. When the config
// sets a metrics address, a /metrics endpoint is also served for the
// duration of the watch.
func (a *App) RunWatch(ctx context.Context) error {
	if err := a.RunIndex(ctx); err != nil {
		return err
	}

	var metricsSrv *http.Server
	if addr := a.cfg.Index.MetricsAddr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(a.registry))
		metricsSrv = &http.Server{Addr: addr, Handler: mux}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics server stopped", "error", err)
			}
		}()
		fmt.Printf("serving metrics on %s/metrics\n", addr)
	}

	if err := a.reindexer.Start(ctx); err != nil {
		return fmt.Errorf("start reindexer: %w", err)
	}
	fmt.Println("watching for changes, press Ctrl+C to stop")

	<-ctx.Done()
	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	return a.reindexer.Stop()
}

// RunValidateDocs scores every indexed document's validity, persisting
// a storage.DocValidityScore and its issue set for each and printing a
// valid/warning/stale breakdown.
func (a *App) RunValidateDocs(ctx context.Context) error {
	var docs []storage.Document
	for _, docType := range docTypesValidated {
		found, err := a.store.ListDocumentsByType(ctx, docType)
		if err != nil {
			return fmt.Errorf("list %s documents: %w", docType, err)
		}
		docs = append(docs, found...)
	}

	counts := map[string]int{"valid": 0, "warning": 0, "stale": 0}
	for _, doc := range docs {
		score, err := a.scorer.Score(ctx, doc, docvalidity.SemanticInput{})
		if err != nil {
			a.logger.Warn("failed to validate document", "path", doc.Path, "error", err)
			continue
		}
		status := docvalidity.Status(score.Score)
		counts[status]++
		a.metrics.DocsValidated.WithLabelValues(status).Inc()
		a.metrics.ValidityScore.Observe(score.Score)
	}

	fmt.Printf("validated %d documents (%d valid, %d warning, %d stale)\n",
		len(docs), counts["valid"], counts["warning"], counts["stale"])
	return nil
}
