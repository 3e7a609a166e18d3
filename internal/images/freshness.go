package images

import (
	"portfolio-site/internal/logging"
	"portfolio-site/internal/metrics"
)

// IsFresh reports whether output exists and is not older than source.
// Only modification times are compared.
func IsFresh(store Store, output, source string) bool {
	fresh := isFresh(store, output, source)
	if fresh {
		metrics.ImageCacheTotal.WithLabelValues("hit").Inc()
	} else {
		metrics.ImageCacheTotal.WithLabelValues("miss").Inc()
	}
	return fresh
}

func isFresh(store Store, output, source string) bool {
	out, err := store.Stat(output)
	if err != nil {
		return false
	}
	src, err := store.Stat(source)
	if err != nil {
		logging.Debug("Cannot stat source %s: %v", source, err)
		return false
	}
	return !out.ModTime().Before(src.ModTime())
}
