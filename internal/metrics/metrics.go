// Package metrics holds the process-wide Prometheus collectors. They are
// registered on the default registry and served by the HTTP API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ChunksProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "infoase_chunks_processed_total",
		Help: "Chunks sent through the model and parsed",
	})

	ExtractionRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "infoase_extraction_runs_total",
		Help: "Extraction runs by outcome",
	}, []string{"outcome"})

	ExtractionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "infoase_extraction_duration_seconds",
		Help:    "Wall time of one extraction run",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	RepairAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "infoase_repair_attempts_total",
		Help: "Re-prompts after a malformed model response, by outcome",
	}, []string{"outcome"})

	ParserDiagnostics = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "infoase_parser_diagnostics_total",
		Help: "Non-fatal parse problems by diagnostic code",
	}, []string{"code"})

	StoreUpserts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "infoase_store_upserts_total",
		Help: "Graph store upserts by kind and outcome",
	}, []string{"kind", "outcome"})

	ArchiveSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "infoase_archive_saves_total",
		Help: "Archive save requests by outcome",
	}, []string{"outcome"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "infoase_http_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "infoase_http_request_duration_seconds",
		Help:    "HTTP request latency by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

// Outcome labels.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeCreated   = "created"
	OutcomeMerged    = "merged"
	OutcomeSkipped   = "skipped"
	OutcomeDuplicate = "duplicate"
)
