package handlers

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"portfolio-site/internal/content"
	"portfolio-site/internal/images"
	"portfolio-site/internal/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names. Each is parsed together with the shared layout.
const (
	pageIndex    = "index"
	pageBlog     = "blog"
	pageNotFound = "404"
	pageError    = "500"
)

var pageNames = []string{pageIndex, pageBlog, pageNotFound, pageError}

// Pages holds the parsed page templates.
type Pages struct {
	templates map[string]*template.Template
}

// LoadPages parses the built-in templates. A file named
// <siteDir>/templates/<page>.html (or layout.html) replaces the built-in
// one of the same name.
func LoadPages(siteDir string, widths []int) (*Pages, error) {
	funcs := templateFuncs(widths)

	layout, err := readTemplate(siteDir, "layout")
	if err != nil {
		return nil, err
	}

	p := &Pages{templates: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		src, err := readTemplate(siteDir, name)
		if err != nil {
			return nil, err
		}

		t, err := template.New("layout").Funcs(funcs).Parse(layout)
		if err != nil {
			return nil, fmt.Errorf("parse layout: %w", err)
		}
		if _, err := t.New(name).Parse(src); err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		p.templates[name] = t
	}
	return p, nil
}

func readTemplate(siteDir, name string) (string, error) {
	file := name + ".html"

	if siteDir != "" {
		override := filepath.Join(siteDir, "templates", file)
		data, err := os.ReadFile(override)
		if err == nil {
			logging.Debug("Using template override %s", override)
			return string(data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("read template override %s: %w", override, err)
		}
	}

	data, err := templateFS.ReadFile("templates/" + file)
	if err != nil {
		return "", fmt.Errorf("built-in template %s: %w", file, err)
	}
	return string(data), nil
}

func templateFuncs(widths []int) template.FuncMap {
	if len(widths) == 0 {
		widths = images.DefaultWidths
	}
	return template.FuncMap{
		"image_url": func(filename string, width ...int) string {
			return images.ImageURL(filename, firstOr(width, 0), "")
		},
		"webp_url": func(filename string, width ...int) string {
			return images.WebPURL(filename, firstOr(width, 0))
		},
		"srcset": func(filename string, format ...string) string {
			return images.SrcSet(filename, widths, firstOr(format, ""))
		},
		// Optional arguments: class, sizes.
		"responsive_image": func(filename, alt string, opts ...string) template.HTML {
			class := firstOr(opts, "")
			sizes := ""
			if len(opts) > 1 {
				sizes = opts[1]
			}
			//nolint:gosec // ResponsiveImage escapes every interpolated value
			return template.HTML(images.ResponsiveImage(filename, alt, class, sizes, widths))
		},
		"current_year": func() int {
			return time.Now().Year()
		},
	}
}

func firstOr[T any](vals []T, fallback T) T {
	if len(vals) > 0 {
		return vals[0]
	}
	return fallback
}

// Render executes the named page into a buffer and writes it with status.
// Nothing is written when execution fails.
func (p *Pages) Render(w http.ResponseWriter, status int, name string, data any) error {
	t, ok := p.templates[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// render writes a page and falls back to a plain-text 500 when the
// template fails.
func (h *Handlers) render(w http.ResponseWriter, status int, name string, data *content.Portfolio) {
	if data == nil {
		data = &content.Portfolio{}
	}
	if err := h.pages.Render(w, status, name, data); err != nil {
		logging.Error("Template error: %v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// Home renders the landing page from the stored portfolio.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	p, err := h.db.GetPortfolio(r.Context())
	if err != nil {
		h.ServerError(w, r, err)
		return
	}
	h.render(w, http.StatusOK, pageIndex, p)
}

// Blog renders the blog page.
func (h *Handlers) Blog(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, pageBlog, h.headerData(r))
}

// NotFound renders the 404 page, or a JSON error for API clients.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	logging.Warn("404 error: %s", sanitizeForLog(r.URL.Path))
	if wantsJSON(r) || isAPIPath(r.URL.Path) {
		writeJSONError(w, "Not found", http.StatusNotFound)
		return
	}
	h.render(w, http.StatusNotFound, pageNotFound, h.headerData(r))
}

// ServerError logs err and renders the 500 page, or a JSON error for API
// clients.
func (h *Handlers) ServerError(w http.ResponseWriter, r *http.Request, err error) {
	logging.Error("500 error on %s: %v", sanitizeForLog(r.URL.Path), err)
	if wantsJSON(r) || isAPIPath(r.URL.Path) {
		writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.render(w, http.StatusInternalServerError, pageError, nil)
}

// headerData loads the owner details shown in the layout. Failures are
// logged and yield an empty portfolio so error pages still render.
func (h *Handlers) headerData(r *http.Request) *content.Portfolio {
	p, err := h.db.GetPortfolio(r.Context())
	if err != nil {
		logging.Debug("Portfolio unavailable for page header: %v", err)
		return nil
	}
	return p
}
