package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"portfolio-site/internal/metrics"
)

// MetricsConfig holds configuration for the metrics middleware
type MetricsConfig struct {
	// SkipPaths are path prefixes that should not be recorded
	SkipPaths []string
}

// DefaultMetricsConfig returns the default metrics configuration
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		SkipPaths: []string{"/metrics", "/health", "/healthz", "/livez", "/readyz"},
	}
}

// Metrics returns a middleware that records Prometheus metrics
func Metrics(config MetricsConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, path := range config.SkipPaths {
				if strings.HasPrefix(r.URL.Path, path) {
					next.ServeHTTP(w, r)
					return
				}
			}

			metrics.HTTPRequestsInFlight.Inc()
			defer metrics.HTTPRequestsInFlight.Dec()

			rec := newStatusRecorder(w)
			start := time.Now()

			next.ServeHTTP(rec, r)

			path := normalizePath(r.URL.Path)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.statusCode)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// Prefixes whose remainder is a file path or an ID. The remainder is
// collapsed so each prefix yields one label value.
var dynamicPrefixes = []string{
	"/images/",
	"/uploads/",
	"/css/",
	"/js/",
	"/files/",
}

// normalizePath maps a request path onto a bounded set of label values.
func normalizePath(path string) string {
	for _, prefix := range dynamicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return prefix + "{path}"
		}
	}

	if rest, ok := strings.CutPrefix(path, "/api/messages/"); ok {
		if _, action, _ := strings.Cut(rest, "/"); action == "read" {
			return "/api/messages/{id}/read"
		}
		return "other"
	}

	switch path {
	case "/", "/blog", "/contact", "/download-resume", "/version",
		"/api/upload", "/api/images/optimize", "/api/messages":
		return path
	}
	return "other"
}
