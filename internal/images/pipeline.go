package images

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"portfolio-site/internal/logging"
	"portfolio-site/internal/metrics"
)

// convertibleExts are the source formats batch runs pick up.
var convertibleExts = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
}

// rasterExts are the formats Process accepts.
var rasterExts = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"webp": true,
}

// IsConvertible reports whether name is a format batch runs process.
func IsConvertible(name string) bool {
	_, ext := splitExt(name)
	return convertibleExts[ext]
}

// Result describes the derived files of one processed image.
type Result struct {
	Source       string            `json:"source"`
	Converted    string            `json:"converted,omitempty"`
	Variants     map[int]string    `json:"variants,omitempty"`
	WebPVariants map[int]string    `json:"webp_variants,omitempty"`
	Errors       map[string]string `json:"errors,omitempty"`
}

// Paths returns every derived file in the result, sorted.
func (r *Result) Paths() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if p != "" && p != r.Source && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	add(r.Converted)
	for _, p := range r.Variants {
		add(p)
	}
	for _, p := range r.WebPVariants {
		add(p)
	}
	sort.Strings(out)
	return out
}

// BatchFailure records one file a batch run could not process.
type BatchFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// BatchResult summarises a batch run.
type BatchResult struct {
	Succeeded int            `json:"succeeded"`
	Failed    []BatchFailure `json:"failed"`
	Canceled  bool           `json:"canceled,omitempty"`
	Results   []*Result      `json:"-"`
}

// Pipeline runs conversion and variant generation for uploads and batches.
type Pipeline struct {
	store     Store
	converter *Converter
	generator *Generator
}

// NewPipeline creates a Pipeline over store and codec. Nil arguments select
// the local disk and the native codec.
func NewPipeline(store Store, codec Codec) *Pipeline {
	if store == nil {
		store = NewOSStore()
	}
	if codec == nil {
		codec = NativeCodec{}
	}
	return &Pipeline{
		store:     store,
		converter: NewConverter(store, codec),
		generator: NewGenerator(store, codec),
	}
}

// VariantDirFor returns the directory variants of path are written to.
func VariantDirFor(path, variantDir string) string {
	switch {
	case variantDir == "":
		return filepath.Dir(path)
	case filepath.IsAbs(variantDir):
		return variantDir
	default:
		return filepath.Join(filepath.Dir(path), variantDir)
	}
}

// Process converts path to WebP and generates variants of both the original
// and the converted encoding. An error is returned only when the source
// cannot be converted; variant failures are reported in Result.Errors.
func (p *Pipeline) Process(path string, opts ProcessOptions) (*Result, error) {
	result := &Result{Source: path}

	_, ext := splitExt(path)
	if ext == "svg" {
		logging.Debug("Skipping vector image %s", filepath.Base(path))
		return result, nil
	}
	if !rasterExts[ext] {
		return nil, &ConversionError{Path: path, Err: fmt.Errorf("%w: extension %q", ErrUnsupportedMode, ext)}
	}

	converted, err := p.converter.Convert(path, opts.quality())
	if err != nil {
		return nil, err
	}
	result.Converted = converted

	outDir := VariantDirFor(path, opts.VariantDir)
	widths := opts.widths()

	set := p.generator.Generate(path, widths, VariantOptions{OutputDir: outDir, Quality: opts.quality()})
	result.Variants = set.Paths
	for w, verr := range set.Failures {
		result.addError(fmt.Sprintf("variant_%d", w), verr)
	}

	if converted == path {
		result.WebPVariants = set.Paths
		return result, nil
	}

	webpSet := p.generator.Generate(converted, widths, VariantOptions{OutputDir: outDir, Format: "webp", Quality: opts.quality()})
	result.WebPVariants = webpSet.Paths
	for w, verr := range webpSet.Failures {
		result.addError(fmt.Sprintf("webp_variant_%d", w), verr)
	}

	return result, nil
}

func (r *Result) addError(key string, err error) {
	if r.Errors == nil {
		r.Errors = make(map[string]string)
	}
	r.Errors[key] = err.Error()
}

// Batch processes root, or every convertible image below it, one file at a
// time in lexical order. Failures are recorded and never stop the run;
// cancelling ctx stops it between files.
func (p *Pipeline) Batch(ctx context.Context, root string, opts ProcessOptions) *BatchResult {
	start := time.Now()
	metrics.ImageBatchRunsTotal.Inc()

	result := &BatchResult{Failed: []BatchFailure{}}

	files, err := p.collect(root, opts.VariantDir)
	if err != nil {
		result.Failed = append(result.Failed, BatchFailure{Path: root, Error: err.Error()})
		metrics.ImageBatchFiles.WithLabelValues("failed").Inc()
		return result
	}

	logging.Info("Batch optimizing %d images under %s", len(files), root)

	for _, file := range files {
		if ctx.Err() != nil {
			result.Canceled = true
			logging.Warn("Batch optimize canceled after %d files", result.Succeeded+len(result.Failed))
			break
		}

		res, err := p.Process(file, opts)
		if err != nil {
			logging.Error("Failed to process %s: %v", file, err)
			result.Failed = append(result.Failed, BatchFailure{Path: file, Error: err.Error()})
			metrics.ImageBatchFiles.WithLabelValues("failed").Inc()
			continue
		}

		result.Succeeded++
		result.Results = append(result.Results, res)
		metrics.ImageBatchFiles.WithLabelValues("succeeded").Inc()
		if len(res.Errors) > 0 {
			logging.Warn("Processed %s with %d variant errors", file, len(res.Errors))
		} else {
			logging.Debug("Processed %s", file)
		}
	}

	duration := time.Since(start)
	metrics.ImageBatchLastDuration.Set(duration.Seconds())
	logging.Info("Batch optimize complete: %d succeeded, %d failed in %v",
		result.Succeeded, len(result.Failed), duration.Round(time.Millisecond))

	return result
}

// collect lists the batch candidates under root in lexical order.
func (p *Pipeline) collect(root, variantDir string) ([]string, error) {
	info, err := p.store.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("cannot access %s: %w", root, err)
	}
	if !info.IsDir() {
		if !IsConvertible(root) {
			return nil, fmt.Errorf("%w: %s is not a convertible image", ErrUnsupportedMode, root)
		}
		return []string{root}, nil
	}

	var files []string
	var walk func(dir string) error
	walk = func(dir string) error {
		entries, err := p.store.ReadDir(dir)
		if err != nil {
			return err
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

		for _, e := range entries {
			name := e.Name()
			if strings.HasPrefix(name, ".") {
				continue
			}
			full := filepath.Join(dir, name)
			if e.IsDir() {
				if variantDir != "" && name == variantDir {
					continue
				}
				if err := walk(full); err != nil {
					logging.Warn("Skipping unreadable directory %s: %v", full, err)
				}
				continue
			}
			if IsConvertible(name) && !IsVariant(name) {
				files = append(files, full)
			}
		}
		return nil
	}

	if err := walk(root); err != nil {
		return nil, err
	}
	return files, nil
}
