package images

import (
	"fmt"
	"image"
	"io"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"portfolio-site/internal/logging"
	"portfolio-site/internal/metrics"

	"github.com/disintegration/imaging"
)

// VariantOptions controls one Generate call.
type VariantOptions struct {
	// OutputDir receives the variants; empty means the source's directory.
	OutputDir string
	// Format is the output format; empty keeps the source's extension.
	Format string
	// Quality is the lossy encoder quality.
	Quality int
}

// VariantSet is the outcome of Generate: produced paths and per-width
// failures, keyed by width.
type VariantSet struct {
	Paths    map[int]string
	Failures map[int]error
}

// Widths returns the successfully produced widths in ascending order.
func (s *VariantSet) Widths() []int {
	widths := make([]int, 0, len(s.Paths))
	for w := range s.Paths {
		widths = append(widths, w)
	}
	sort.Ints(widths)
	return widths
}

// Generator writes aspect-preserving resized copies of an image.
type Generator struct {
	store Store
	codec Codec
}

// NewGenerator creates a Generator. A nil store or codec selects the local
// disk and the native codec.
func NewGenerator(store Store, codec Codec) *Generator {
	if store == nil {
		store = NewOSStore()
	}
	if codec == nil {
		codec = NativeCodec{}
	}
	return &Generator{store: store, codec: codec}
}

// ScaledHeight returns the height that keeps the srcW:srcH ratio at width.
func ScaledHeight(srcW, srcH, width int) int {
	h := int(math.Round(float64(srcH) * float64(width) / float64(srcW)))
	if h < 1 {
		h = 1
	}
	return h
}

// normalizeWidths de-duplicates and sorts widths ascending.
func normalizeWidths(widths []int) []int {
	seen := make(map[int]bool, len(widths))
	out := make([]int, 0, len(widths))
	for _, w := range widths {
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	sort.Ints(out)
	return out
}

// Generate produces one variant of imagePath per width. A failure on one
// width never prevents the others.
func (g *Generator) Generate(imagePath string, widths []int, opts VariantOptions) *VariantSet {
	set := &VariantSet{
		Paths:    make(map[int]string),
		Failures: make(map[int]error),
	}

	base, ext := splitExt(filepath.Base(imagePath))
	if opts.Format != "" {
		ext = strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	}
	format := normalizeFormat(ext)
	quality := opts.Quality
	if quality <= 0 {
		quality = DefaultQuality
	}

	outDir := opts.OutputDir
	if outDir == "" {
		outDir = filepath.Dir(imagePath)
	}

	fail := func(w int, err error) {
		set.Failures[w] = &VariantError{Path: imagePath, Width: w, Err: err}
		metrics.ImageVariantsTotal.WithLabelValues(format, "error").Inc()
		logging.Warn("Variant %dw of %s failed: %v", w, filepath.Base(imagePath), err)
	}

	if err := g.store.MkdirAll(outDir); err != nil {
		for _, w := range normalizeWidths(widths) {
			fail(w, fmt.Errorf("%w: %v", ErrWriteFailed, err))
		}
		return set
	}

	// The source is decoded lazily: a fully cached set never touches it.
	var (
		src       image.Image
		decodeErr error
		decoded   bool
	)
	load := func() (image.Image, error) {
		if !decoded {
			src, decodeErr = decodeFile(g.store, g.codec, imagePath)
			decoded = true
		}
		return src, decodeErr
	}

	for _, w := range normalizeWidths(widths) {
		if w <= 0 {
			fail(w, fmt.Errorf("%w: width must be positive", ErrUnsupportedMode))
			continue
		}

		outPath := filepath.Join(outDir, VariantName(base, w, ext))
		if IsFresh(g.store, outPath, imagePath) {
			set.Paths[w] = outPath
			metrics.ImageVariantsTotal.WithLabelValues(format, "cached").Inc()
			continue
		}

		img, err := load()
		if err != nil {
			fail(w, err)
			continue
		}

		start := time.Now()
		b := img.Bounds()
		resized := img
		if w != b.Dx() {
			resized = imaging.Resize(img, w, ScaledHeight(b.Dx(), b.Dy(), w), imaging.Lanczos)
		}

		err = writeAtomic(g.store, outPath, imagePath, func(wr io.Writer) error {
			return g.codec.Encode(wr, resized, format, quality)
		})
		if err != nil {
			fail(w, err)
			continue
		}

		set.Paths[w] = outPath
		metrics.ImageVariantsTotal.WithLabelValues(format, "generated").Inc()
		metrics.ImageVariantDuration.WithLabelValues(format).Observe(time.Since(start).Seconds())
		logging.Debug("Generated %s (%dx%d)", filepath.Base(outPath), w, ScaledHeight(b.Dx(), b.Dy(), w))
	}

	return set
}
