package middleware

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
)

// LoggingConfig holds configuration for the logging middleware
type LoggingConfig struct {
	ServiceName     string
	SkipPaths       []string
	SkipExtensions  []string
	LogStaticFiles  bool
	LogHealthChecks bool
}

// DefaultLoggingConfig returns a sensible default configuration
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		ServiceName:     "Portfolio/1.0",
		SkipPaths:       []string{},
		SkipExtensions:  []string{".css", ".js", ".ico", ".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg", ".woff", ".woff2", ".ttf"},
		LogStaticFiles:  false,
		LogHealthChecks: true,
	}
}

var healthCheckPaths = map[string]bool{
	"/health":  true,
	"/healthz": true,
	"/livez":   true,
	"/readyz":  true,
}

// Logger returns HTTP logging middleware using W3C Extended Log Format.
// The #Software and #Fields directives are written once, before the first
// logged request.
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	return LoggerTo(log.Default(), config)
}

// LoggerTo is Logger writing to l instead of the standard logger.
func LoggerTo(l *log.Logger, config LoggingConfig) func(http.Handler) http.Handler {
	w := &w3cWriter{out: l, software: config.ServiceName}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			if shouldSkip(r.URL.Path, config) {
				next.ServeHTTP(rw, r)
				return
			}

			start := time.Now()
			rec := newStatusRecorder(rw)
			next.ServeHTTP(rec, r)
			w.write(r, rec, time.Since(start))
		})
	}
}

type w3cWriter struct {
	out      *log.Logger
	software string
	header   sync.Once
}

const w3cFields = "date time c-ip cs-method cs-uri-stem cs-uri-query sc-status sc-bytes time-taken cs(Content-Encoding) cs(User-Agent) cs(Referer)"

func (w *w3cWriter) write(r *http.Request, rec *statusRecorder, took time.Duration) {
	w.header.Do(func() {
		if w.software != "" {
			w.out.Printf("#Software: %s", w.software)
		}
		w.out.Printf("#Fields: %s", w3cFields)
	})
	w.out.Println(formatW3C(time.Now().UTC(), r, rec, took))
}

func formatW3C(now time.Time, r *http.Request, rec *statusRecorder, took time.Duration) string {
	encoding := rec.Header().Get("Content-Encoding")

	//nolint:gosec // every request-controlled field passes through sanitizeLogField
	return fmt.Sprintf("%s %s %s %s %s %s %d %d %d %s %s %s",
		now.Format("2006-01-02"),
		now.Format("15:04:05"),
		orDash(sanitizeLogField(ClientIP(r))),
		orDash(sanitizeLogField(r.Method)),
		orDash(sanitizeLogField(r.URL.Path)),
		orDash(sanitizeLogField(r.URL.RawQuery)),
		rec.statusCode,
		rec.bytesWritten,
		took.Milliseconds(),
		orDash(encoding),
		orDash(escapeW3CField(sanitizeLogField(r.Header.Get("User-Agent")))),
		orDash(sanitizeLogField(r.Header.Get("Referer"))),
	)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// sanitizeLogField removes control characters that could forge log lines or
// inject terminal escapes. Newlines become spaces.
func sanitizeLogField(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r':
			b.WriteRune(' ')
		case r == '\t':
			b.WriteRune(r)
		case r < 0x20 || r == 0x7f:
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func shouldSkip(path string, config LoggingConfig) bool {
	for _, skipPath := range config.SkipPaths {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}

	if !config.LogHealthChecks && healthCheckPaths[path] {
		return true
	}

	if !config.LogStaticFiles {
		lower := strings.ToLower(path)
		for _, ext := range config.SkipExtensions {
			if strings.HasSuffix(lower, ext) {
				return true
			}
		}
	}

	return false
}

// escapeW3CField quotes values containing whitespace or quotes, doubling
// embedded quotes.
func escapeW3CField(s string) string {
	if strings.ContainsAny(s, " \t\"") {
		return "\"" + strings.ReplaceAll(s, "\"", "\"\"") + "\""
	}
	return s
}
