package handlers

import (
	"errors"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"portfolio-site/internal/filesystem"
	"portfolio-site/internal/images"
	"portfolio-site/internal/logging"
	"portfolio-site/internal/publish"
)

const imageCacheControl = "public, max-age=86400"

// ServeImage serves files below the public image root.
func (h *Handlers) ServeImage(w http.ResponseWriter, r *http.Request) {
	h.serveResolved(w, r, h.imageRes)
}

// ServeUpload serves uploaded files and their derived variants.
func (h *Handlers) ServeUpload(w http.ResponseWriter, r *http.Request) {
	h.serveResolved(w, r, h.uploadRes)
}

// serveResolved serves the {path} variable through res. The response
// varies on Accept because a WebP encoding may be chosen for the same URL.
func (h *Handlers) serveResolved(w http.ResponseWriter, r *http.Request, res *images.Resolver) {
	requested := mux.Vars(r)["path"]
	acceptsWebP := strings.Contains(r.Header.Get("Accept"), "image/webp")

	w.Header().Add("Vary", "Accept")

	resolved, err := res.Resolve(requested, acceptsWebP)
	switch {
	case errors.Is(err, images.ErrInvalidPath):
		logging.Warn("Rejected image path %q", sanitizeForLog(requested))
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	case errors.Is(err, images.ErrNotFound):
		h.NotFound(w, r)
		return
	case err != nil:
		h.ServerError(w, r, err)
		return
	}

	h.serveFile(w, r, resolved, imageCacheControl)
}

// serveFile streams the named file with conditional and range support.
func (h *Handlers) serveFile(w http.ResponseWriter, r *http.Request, name, cacheControl string) {
	f, err := filesystem.OpenWithRetry(name, filesystem.DefaultRetryConfig())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			h.NotFound(w, r)
			return
		}
		h.ServerError(w, r, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		h.ServerError(w, r, err)
		return
	}
	if info.IsDir() {
		h.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", publish.ContentType(name))
	if cacheControl != "" {
		w.Header().Set("Cache-Control", cacheControl)
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// DownloadResume sends the configured resume file as an attachment.
func (h *Handlers) DownloadResume(w http.ResponseWriter, r *http.Request) {
	resume := h.resumeFile
	if !filepath.IsAbs(resume) {
		resume = filepath.Join(h.siteDir, resume)
	}

	info, err := filesystem.StatWithRetry(resume, filesystem.DefaultRetryConfig())
	if err != nil || info.IsDir() {
		logging.Warn("Resume file not found: %s", resume)
		h.NotFound(w, r)
		return
	}

	name := h.resumeName
	if name == "" {
		name = filepath.Base(resume)
	}
	logging.Info("Resume download requested")
	w.Header().Set("Content-Disposition", `attachment; filename="`+strings.ReplaceAll(name, `"`, "")+`"`)
	h.serveFile(w, r, resume, "no-cache")
}

// SiteAssets serves files from <siteDir>/<dir> below prefix. Directory
// listings are not exposed.
func (h *Handlers) SiteAssets(prefix, dir string) http.Handler {
	root := filepath.Join(h.siteDir, dir)
	return http.StripPrefix(prefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rel := strings.TrimPrefix(r.URL.Path, "/")
		if rel == "" || strings.HasSuffix(rel, "/") {
			h.NotFound(w, r)
			return
		}
		clean := path.Clean("/" + rel)
		h.serveFile(w, r, filepath.Join(root, filepath.FromSlash(clean)), "public, max-age=3600")
	}))
}
