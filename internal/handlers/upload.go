package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"portfolio-site/internal/filesystem"
	"portfolio-site/internal/images"
	"portfolio-site/internal/logging"
	"portfolio-site/internal/metrics"
	"portfolio-site/internal/publish"
)

// uploadExts are the extensions accepted by the upload endpoint.
var uploadExts = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
	"webp": true,
	"svg":  true,
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// UploadResponse describes a stored upload and its derived files as URLs.
type UploadResponse struct {
	Success      bool              `json:"success"`
	Filename     string            `json:"filename"`
	URL          string            `json:"url"`
	WebPURL      string            `json:"webp_url,omitempty"`
	Variants     map[int]string    `json:"variants,omitempty"`
	WebPVariants map[int]string    `json:"webp_variants,omitempty"`
	Errors       map[string]string `json:"errors,omitempty"`
	Published    int               `json:"published,omitempty"`
}

// Upload stores an image from the multipart field "file" and runs the
// pipeline on it. Variant failures are reported in the errors object of a
// 201 response; an unreadable image is removed again and answered with 422.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	if !h.uploadsEnabled {
		writeJSONError(w, "Uploads are disabled", http.StatusServiceUnavailable)
		return
	}

	tooLargeMsg := fmt.Sprintf("File exceeds the %d MB upload limit", h.maxUpload>>20)
	if r.ContentLength > h.maxUpload {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		writeJSONError(w, tooLargeMsg, http.StatusRequestEntityTooLarge)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			metrics.UploadsTotal.WithLabelValues("rejected").Inc()
			writeJSONError(w, tooLargeMsg, http.StatusRequestEntityTooLarge)
			return
		}
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		writeJSONError(w, "Invalid upload request", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		writeJSONError(w, "No file provided", http.StatusBadRequest)
		return
	}
	defer file.Close()

	name, ok := uploadName(header.Filename, header.Header.Get("Content-Type"))
	if !ok {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		writeJSONError(w, "Unsupported file type", http.StatusBadRequest)
		return
	}

	dst, err := h.storeUpload(file, name)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("failed").Inc()
		h.ServerError(w, r, err)
		return
	}

	result, err := h.pipeline.Process(dst, h.imageOpts.Process())
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("failed").Inc()
		logging.Warn("Upload %s could not be processed: %v", filepath.Base(dst), err)
		if rmErr := os.Remove(dst); rmErr != nil {
			logging.Warn("Failed to remove rejected upload %s: %v", dst, rmErr)
		}
		writeJSONError(w, "The uploaded file is not a readable image", http.StatusUnprocessableEntity)
		return
	}

	published := h.mirror(r.Context(), dst, result)

	metrics.UploadsTotal.WithLabelValues("accepted").Inc()
	logging.Info("Upload stored: %s (%d derived files)", filepath.Base(dst), len(result.Paths()))

	writeJSONStatus(w, http.StatusCreated, h.uploadResponse(dst, result, published))
}

// uploadName validates the client file name and declared media type and
// returns a safe file name with a lower-case extension.
func uploadName(filename, contentType string) (string, bool) {
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return "", false
	}

	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(base), "."))
	if !uploadExts[ext] {
		return "", false
	}

	stem := strings.TrimSuffix(base, path.Ext(base))
	stem = strings.Trim(unsafeFilenameChars.ReplaceAllString(stem, "_"), "._-")
	if stem == "" {
		stem = "upload"
	}
	// A client name that looks like a variant would be mistaken for one.
	if images.IsVariant(stem + "." + ext) {
		stem += "_"
	}
	return stem + "." + ext, true
}

// storeUpload writes src into the upload directory under name, adding a
// numeric suffix when the name is taken.
func (h *Handlers) storeUpload(src io.Reader, name string) (string, error) {
	f, dst, err := h.reserveUpload(name)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(dst)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("close upload file: %w", err)
	}
	return dst, nil
}

// reserveUpload creates an empty file for name, or for name with a numeric
// suffix. A stem is taken when any upload in the directory already uses it,
// whatever its extension: cat.png and cat.webp would both own cat.webp and
// the cat-<N>w.webp variants.
func (h *Handlers) reserveUpload(name string) (*os.File, string, error) {
	h.uploadMu.Lock()
	defer h.uploadMu.Unlock()

	taken, err := h.uploadStems()
	if err != nil {
		return nil, "", err
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for i := 0; i < 1000; i++ {
		candidate := stem
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d", stem, i)
		}
		if taken[candidate] {
			continue
		}
		dst := filepath.Join(h.uploadDir, candidate+ext)

		f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("create upload file: %w", err)
		}
		return f, dst, nil
	}
	return nil, "", fmt.Errorf("no free file name for %s", name)
}

// uploadStems returns the stems of the image files in the upload directory.
func (h *Handlers) uploadStems() (map[string]bool, error) {
	entries, err := filesystem.ReadDirWithRetry(h.uploadDir, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, fmt.Errorf("list upload dir: %w", err)
	}
	stems := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if uploadExts[strings.ToLower(strings.TrimPrefix(ext, "."))] {
			stems[strings.TrimSuffix(e.Name(), ext)] = true
		}
	}
	return stems, nil
}

// mirror publishes the stored upload and its derived files. It returns
// the number of files published.
func (h *Handlers) mirror(ctx context.Context, dst string, result *images.Result) int {
	if _, off := h.publisher.(publish.Nop); off {
		return 0
	}

	published := 0
	if err := h.publisher.Publish(ctx, dst, filepath.Base(dst)); err != nil {
		logging.Warn("Upload %s: mirror failed: %v", filepath.Base(dst), err)
	} else {
		published++
	}

	n, err := publish.PublishResult(ctx, h.publisher, h.uploadDir, result)
	if err != nil {
		logging.Warn("Upload %s: mirror incomplete: %v", filepath.Base(dst), err)
	}
	return published + n
}

func (h *Handlers) uploadURL(p string) string {
	rel, err := filepath.Rel(h.uploadDir, p)
	if err != nil {
		return ""
	}
	return "/uploads/" + filepath.ToSlash(rel)
}

func (h *Handlers) uploadResponse(dst string, result *images.Result, published int) UploadResponse {
	resp := UploadResponse{
		Success:   true,
		Filename:  filepath.Base(dst),
		URL:       h.uploadURL(dst),
		Errors:    result.Errors,
		Published: published,
	}
	if result.Converted != "" {
		resp.WebPURL = h.uploadURL(result.Converted)
	}
	if len(result.Variants) > 0 {
		resp.Variants = make(map[int]string, len(result.Variants))
		for w, p := range result.Variants {
			resp.Variants[w] = h.uploadURL(p)
		}
	}
	if len(result.WebPVariants) > 0 {
		resp.WebPVariants = make(map[int]string, len(result.WebPVariants))
		for w, p := range result.WebPVariants {
			resp.WebPVariants[w] = h.uploadURL(p)
		}
	}
	return resp
}

// OptimizeResponse is the batch summary returned by Optimize.
type OptimizeResponse struct {
	*images.BatchResult
	Root      string `json:"root"`
	Published int    `json:"published"`
	Duration  string `json:"duration"`
}

// Optimize runs a batch over the image root, or over the sub-path given in
// ?path= when it stays inside the root.
func (h *Handlers) Optimize(w http.ResponseWriter, r *http.Request) {
	root := h.imagesDir
	if sub := r.URL.Query().Get("path"); sub != "" {
		if strings.ContainsRune(sub, 0) || strings.Contains(sub, "..") {
			writeJSONError(w, "Invalid path", http.StatusBadRequest)
			return
		}
		root = filepath.Join(h.imagesDir, filepath.FromSlash(path.Clean("/"+sub)))
	}

	start := time.Now()
	batch := h.pipeline.Batch(r.Context(), root, h.imageOpts.Process())

	published := 0
	if _, off := h.publisher.(publish.Nop); !off {
		for _, res := range batch.Results {
			n, err := publish.PublishResult(r.Context(), h.publisher, h.imagesDir, res)
			if err != nil {
				logging.Warn("Batch mirror incomplete for %s: %v", res.Source, err)
			}
			published += n
		}
	}

	// The request context may be gone by now; record the run regardless.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 5*time.Second)
	defer cancel()
	if err := h.db.SetLastBatchRun(ctx, time.Now()); err != nil {
		logging.Warn("Failed to record batch run: %v", err)
	}

	writeJSONStatus(w, http.StatusOK, OptimizeResponse{
		BatchResult: batch,
		Root:        root,
		Published:   published,
		Duration:    time.Since(start).Round(time.Millisecond).String(),
	})
}
