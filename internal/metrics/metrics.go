package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_author_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_author_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_author_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Pipeline metrics
var (
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_author_analyses_total",
			Help: "Total number of media analyses by class and outcome",
		},
		[]string{"class", "outcome"}, // outcome: "ok", "degraded"
	)

	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_author_analysis_duration_seconds",
			Help:    "Media analysis duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"class"},
	)

	ThumbnailsResolvedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_author_thumbnails_resolved_total",
			Help: "Total number of resolved thumbnails by winning source tier",
		},
		[]string{"tier"}, // "custom", "external", "generated", "persisted", "none"
	)

	PagesRenderedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_author_pages_rendered_total",
			Help: "Total number of rasterized document pages by resolution",
		},
		[]string{"resolution"}, // "low", "high"
	)

	DocumentRenderErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_author_document_render_errors_total",
			Help: "Total number of document loads that fell back to a placeholder",
		},
	)

	ResourceHandlesLive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_author_resource_handles_live",
			Help: "Number of transient decode handles currently alive",
		},
	)

	ResourceHandlesReleased = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_author_resource_handles_released_total",
			Help: "Total number of transient decode handles released",
		},
	)
)

// Upload metrics
var (
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_author_uploads_total",
			Help: "Total number of upload attempts by outcome",
		},
		[]string{"outcome"}, // "success", "network_error", "server_error", "cancelled"
	)

	UploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_author_upload_bytes_total",
			Help: "Total number of payload bytes transferred to Catalogue Storage",
		},
	)

	UploadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_author_upload_duration_seconds",
			Help:    "End-to-end upload duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_author_memory_usage_ratio",
			Help: "Go heap usage as a fraction of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_author_memory_paused",
			Help: "1 when rasterization is paused for memory pressure",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_author_memory_gc_pauses_total",
			Help: "Total number of forced GC cycles under memory pressure",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_author_db_queries_total",
			Help: "Total number of catalogue store queries by operation and status",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_author_db_query_duration_seconds",
			Help:    "Catalogue store query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_author_db_connections_open",
			Help: "Number of open catalogue store connections",
		},
	)
)

// Catalogue metrics
var (
	CatalogAssets = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_author_catalog_assets",
			Help: "Assets recorded in the local catalogue store, by class",
		},
		[]string{"class"},
	)
)
