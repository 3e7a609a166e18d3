package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portfolio_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "portfolio_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	HTTPRateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_http_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"path"},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portfolio_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)
)

// Image pipeline metrics
var (
	ImageConversionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_image_conversions_total",
			Help: "Format conversions by outcome",
		},
		[]string{"status"}, // "converted", "cached", "noop", "error"
	)

	ImageConversionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "portfolio_image_conversion_duration_seconds",
			Help:    "Time spent decoding, flattening and encoding one conversion",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	ImageVariantsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_image_variants_total",
			Help: "Responsive variants by output format and outcome",
		},
		[]string{"format", "status"}, // status: "generated", "cached", "error"
	)

	ImageVariantDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portfolio_image_variant_duration_seconds",
			Help:    "Time spent resizing and encoding one variant",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"format"},
	)

	ImageCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_image_cache_total",
			Help: "Freshness checks on derived images",
		},
		[]string{"result"}, // "hit", "miss"
	)

	ImageBatchRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "portfolio_image_batch_runs_total",
			Help: "Number of batch optimize runs",
		},
	)

	ImageBatchFiles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_image_batch_files_total",
			Help: "Files processed by batch optimize runs",
		},
		[]string{"status"}, // "succeeded", "failed"
	)

	ImageBatchLastDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "portfolio_image_batch_last_duration_seconds",
			Help: "Duration of the last batch optimize run in seconds",
		},
	)

	ImageServedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_image_served_total",
			Help: "Image requests by resolution candidate",
		},
		[]string{"candidate"}, // "webp", "variant", "literal", "case_insensitive", "not_found"
	)

	ImagePublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_image_publish_total",
			Help: "Derived images mirrored to object storage",
		},
		[]string{"status"},
	)
)

// Site metrics
var (
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_uploads_total",
			Help: "Upload attempts by outcome",
		},
		[]string{"status"}, // "accepted", "rejected", "failed"
	)

	ContactSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_contact_submissions_total",
			Help: "Contact form submissions by outcome",
		},
		[]string{"status"}, // "accepted", "invalid", "error"
	)

	ContactMessagesUnread = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "portfolio_contact_messages_unread",
			Help: "Number of unread contact messages",
		},
	)

	PortfolioItemsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "portfolio_items_total",
			Help: "Number of portfolio items",
		},
	)

	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_auth_attempts_total",
			Help: "Admin authentication attempts",
		},
		[]string{"status"},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portfolio_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration by volume and operation",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_filesystem_operation_errors_total",
			Help: "Filesystem operation errors by volume and operation",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_filesystem_retry_attempts_total",
			Help: "Retries after NFS stale file handle errors",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_filesystem_retry_success_total",
			Help: "Operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_filesystem_retry_failures_total",
			Help: "Operations that failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_filesystem_stale_errors_total",
			Help: "NFS stale file handle errors observed",
		},
		[]string{"operation", "volume"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "portfolio_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
