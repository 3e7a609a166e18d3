package images

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"sync"

	"portfolio-site/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
)

// webpReductionEffort is libvips' highest WebP compression effort.
const webpReductionEffort = 6

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
)

// vipsLogging maps the application log level to a libvips level and a
// handler that forwards libvips messages into our logger.
func vipsLogging(level logging.LogLevel) (vips.LogLevel, func(string, vips.LogLevel, string)) {
	switch level {
	case logging.LevelDebug:
		return vips.LogLevelInfo, func(domain string, l vips.LogLevel, msg string) {
			switch l {
			case vips.LogLevelError, vips.LogLevelCritical:
				logging.Error("[%s] %s", domain, msg)
			case vips.LogLevelWarning:
				logging.Warn("[%s] %s", domain, msg)
			default:
				logging.Debug("[%s] %s", domain, msg)
			}
		}
	case logging.LevelWarn, logging.LevelError:
		return vips.LogLevelError, func(domain string, l vips.LogLevel, msg string) {
			if l >= vips.LogLevelError {
				logging.Error("[%s] %s", domain, msg)
			}
		}
	default:
		return vips.LogLevelWarning, func(domain string, l vips.LogLevel, msg string) {
			switch l {
			case vips.LogLevelError, vips.LogLevelCritical:
				logging.Error("[%s] %s", domain, msg)
			case vips.LogLevelWarning:
				logging.Warn("[%s] %s", domain, msg)
			}
		}
	}
}

// InitVips initializes the libvips library.
// This should be called once at startup.
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	// Configure vips logging BEFORE Startup() so LOG_LEVEL is respected
	level, handler := vipsLogging(logging.GetLevel())
	vips.LoggingSettings(handler, level)

	// One image at a time keeps memory predictable
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

// ShutdownVips cleans up libvips resources
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable returns whether libvips is initialized and available
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// VipsCodec wraps NativeCodec and exports WebP through libvips at maximum
// reduction effort. When libvips is not initialised it behaves exactly like
// NativeCodec.
type VipsCodec struct {
	NativeCodec
}

// Encode implements Codec.
func (c VipsCodec) Encode(w io.Writer, img image.Image, format string, quality int) error {
	if normalizeFormat(format) != "webp" || !IsVipsAvailable() {
		return c.NativeCodec.Encode(w, img, format, quality)
	}

	// Hand the pixels to libvips losslessly.
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.NoCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return fmt.Errorf("vips staging encode failed: %w", err)
	}

	ref, err := vips.NewImageFromBuffer(buf.Bytes())
	if err != nil {
		return fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	data, _, err := ref.ExportWebp(&vips.WebpExportParams{
		Quality:         quality,
		Lossless:        false,
		ReductionEffort: webpReductionEffort,
		StripMetadata:   true,
	})
	if err != nil {
		return fmt.Errorf("vips webp export failed: %w", err)
	}

	_, err = w.Write(data)
	return err
}

// NewCodec returns the codec for the given configuration.
func NewCodec(useVips bool) Codec {
	if useVips && IsVipsAvailable() {
		return VipsCodec{}
	}
	return NativeCodec{}
}
