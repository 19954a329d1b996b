// Package metrics exposes the indexer's Prometheus surface: counters
// for what a run did to each file and a histogram for how long a full
// repository walk took, scraped from the /metrics endpoint RunWatch
// starts when index.metrics_addr is configured.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the registered series for one App instance.
type Collector struct {
	FilesTotal   *prometheus.CounterVec
	RunDuration  prometheus.Histogram
	FilesInRepo  prometheus.Gauge
	ReindexTotal prometheus.Counter

	DocsValidated *prometheus.CounterVec
	ValidityScore prometheus.Histogram
}

// New registers a fresh set of collectors against reg. Passing a
// non-default registry keeps test instantiation free of global state.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		FilesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "codegraph",
			Name:      "files_processed_total",
			Help:      "Files processed by the indexer, by outcome.",
		}, []string{"outcome"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "codegraph",
			Name:      "index_run_duration_seconds",
			Help:      "Wall-clock time of one full repository index run.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		FilesInRepo: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "codegraph",
			Name:      "files_indexed",
			Help:      "Number of files currently indexed, from the most recent run.",
		}),
		ReindexTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "codegraph",
			Name:      "reindex_runs_total",
			Help:      "Full repository index runs completed by the index and watch commands.",
		}),
		DocsValidated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "codegraph",
			Name:      "docs_validated_total",
			Help:      "Documents scored by the validity scorer, by resulting status.",
		}, []string{"status"}),
		ValidityScore: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "codegraph",
			Name:      "doc_validity_score",
			Help:      "Distribution of computed document validity scores (0-100).",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
	}
}

// Handler returns the HTTP handler to serve at /metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
