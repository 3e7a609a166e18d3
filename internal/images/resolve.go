package images

import (
	"path"
	"path/filepath"
	"strings"

	"portfolio-site/internal/metrics"
)

// Resolver maps a request path below an image root to a file on disk.
type Resolver struct {
	store      Store
	root       string
	variantDir string
	widths     map[int]bool
}

// NewResolver creates a Resolver for root using the variant layout in opts.
func NewResolver(store Store, root string, opts Options) *Resolver {
	if store == nil {
		store = NewOSStore()
	}
	widths := opts.Widths
	if len(widths) == 0 {
		widths = DefaultWidths
	}
	known := make(map[int]bool, len(widths))
	for _, w := range widths {
		known[w] = true
	}
	return &Resolver{store: store, root: root, variantDir: opts.VariantDir, widths: known}
}

// Root returns the directory the resolver serves from.
func (r *Resolver) Root() string { return r.root }

type candidate struct {
	kind string
	path string
}

// Resolve returns the file that should be served for requested. Candidates
// are tried in order: the WebP encoding (when the client accepts it), the
// responsive variant in the variant directory, the literal path, and a
// case-insensitive match in the same directory.
func (r *Resolver) Resolve(requested string, acceptsWebP bool) (string, error) {
	rel, err := cleanRequest(requested)
	if err != nil {
		return "", err
	}

	for _, c := range r.candidates(rel, acceptsWebP) {
		if r.isFile(c.path) {
			metrics.ImageServedTotal.WithLabelValues(c.kind).Inc()
			return c.path, nil
		}
	}

	if p, ok := r.caseInsensitive(rel); ok {
		metrics.ImageServedTotal.WithLabelValues("case_insensitive").Inc()
		return p, nil
	}

	metrics.ImageServedTotal.WithLabelValues("not_found").Inc()
	return "", ErrNotFound
}

// cleanRequest validates requested and returns it as a clean relative
// slash-separated path.
func cleanRequest(requested string) (string, error) {
	if strings.ContainsRune(requested, 0) || strings.Contains(requested, "\\") {
		return "", ErrInvalidPath
	}
	for _, seg := range strings.Split(requested, "/") {
		if seg == ".." {
			return "", ErrInvalidPath
		}
	}
	rel := strings.TrimPrefix(path.Clean("/"+requested), "/")
	if rel == "" || rel == "." {
		return "", ErrNotFound
	}
	return rel, nil
}

func (r *Resolver) candidates(rel string, acceptsWebP bool) []candidate {
	dir, name := path.Split(rel)
	stem, ext := splitExt(name)
	_, width, _, isVariant := ParseVariantName(name)
	inVariantDir := r.variantDir != "" && isVariant && r.widths[width]

	var out []candidate

	if acceptsWebP && ext != "webp" && rasterExts[ext] {
		webpName := stem + ".webp"
		if inVariantDir {
			out = append(out, candidate{"webp", r.variantPath(dir, webpName)})
		}
		out = append(out, candidate{"webp", r.join(dir, webpName)})
	}

	if inVariantDir {
		out = append(out, candidate{"variant", r.variantPath(dir, name)})
	}

	out = append(out, candidate{"literal", r.join(dir, name)})
	return out
}

func (r *Resolver) join(dir, name string) string {
	return filepath.Join(r.root, filepath.FromSlash(dir), name)
}

func (r *Resolver) variantPath(dir, name string) string {
	return filepath.Join(VariantDirFor(r.join(dir, name), r.variantDir), name)
}

func (r *Resolver) isFile(p string) bool {
	info, err := r.store.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

func (r *Resolver) caseInsensitive(rel string) (string, bool) {
	dir, name := path.Split(rel)
	full := filepath.Join(r.root, filepath.FromSlash(dir))
	entries, err := r.store.ReadDir(full)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(e.Name(), name) {
			return filepath.Join(full, e.Name()), true
		}
	}
	return "", false
}
