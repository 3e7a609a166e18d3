package images

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"portfolio-site/internal/logging"
	"portfolio-site/internal/metrics"
)

// Converter re-encodes raster images as WebP.
type Converter struct {
	store Store
	codec Codec
}

// NewConverter creates a Converter. A nil store or codec selects the local
// disk and the native codec.
func NewConverter(store Store, codec Codec) *Converter {
	if store == nil {
		store = NewOSStore()
	}
	if codec == nil {
		codec = NativeCodec{}
	}
	return &Converter{store: store, codec: codec}
}

// WebPPath returns the path of the WebP conversion of sourcePath.
func WebPPath(sourcePath string) string {
	return strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath)) + ".webp"
}

// Convert writes the WebP conversion of sourcePath beside it and returns its
// path. Sources that are already WebP are returned unchanged, as are
// conversions that are still fresh.
func (c *Converter) Convert(sourcePath string, quality int) (string, error) {
	if strings.EqualFold(filepath.Ext(sourcePath), ".webp") {
		metrics.ImageConversionsTotal.WithLabelValues("noop").Inc()
		return sourcePath, nil
	}

	if quality < 1 || quality > 100 {
		return "", &ConversionError{Path: sourcePath, Err: fmt.Errorf("%w: quality %d out of range 1-100", ErrUnsupportedMode, quality)}
	}

	convertedPath := WebPPath(sourcePath)
	if IsFresh(c.store, convertedPath, sourcePath) {
		logging.Debug("WebP conversion of %s is fresh, skipping", filepath.Base(sourcePath))
		metrics.ImageConversionsTotal.WithLabelValues("cached").Inc()
		return convertedPath, nil
	}

	start := time.Now()

	img, err := decodeFile(c.store, c.codec, sourcePath)
	if err != nil {
		metrics.ImageConversionsTotal.WithLabelValues("error").Inc()
		return "", &ConversionError{Path: sourcePath, Err: err}
	}

	// WebP output is always opaque: transparency becomes white.
	flat := flatten(img)

	err = writeAtomic(c.store, convertedPath, sourcePath, func(w io.Writer) error {
		return c.codec.Encode(w, flat, "webp", quality)
	})
	if err != nil {
		metrics.ImageConversionsTotal.WithLabelValues("error").Inc()
		return "", &ConversionError{Path: sourcePath, Err: err}
	}

	metrics.ImageConversionsTotal.WithLabelValues("converted").Inc()
	metrics.ImageConversionDuration.Observe(time.Since(start).Seconds())
	logging.Info("Converted %s to WebP (%v)", filepath.Base(sourcePath), time.Since(start).Round(time.Millisecond))

	return convertedPath, nil
}
