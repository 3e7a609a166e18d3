package handlers

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"portfolio-site/internal/database"
	"portfolio-site/internal/images"
	"portfolio-site/internal/startup"
)

const testAdminPassword = "correct horse"

// fakePublisher records published keys.
type fakePublisher struct {
	mu   sync.Mutex
	keys []string
}

func (f *fakePublisher) Publish(_ context.Context, _, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	return nil
}

func (f *fakePublisher) published() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string(nil), f.keys...)
	sort.Strings(out)
	return out
}

type testEnv struct {
	h         *Handlers
	db        *database.Database
	config    *startup.Config
	publisher *fakePublisher
}

func testConfig(t *testing.T) *startup.Config {
	t.Helper()
	root := t.TempDir()

	cfg := &startup.Config{
		SiteDir:            filepath.Join(root, "site"),
		ImagesDir:          filepath.Join(root, "images"),
		UploadDir:          filepath.Join(root, "uploads"),
		DatabaseDir:        filepath.Join(root, "data"),
		ImageQuality:       80,
		ImageWidths:        []int{300, 600},
		MaxUploadBytes:     1 << 20,
		UploadsEnabled:     true,
		ResumeFile:         "files/resume.pdf",
		ResumeDownloadName: "Jane_Doe_Resume.pdf",
	}
	for _, dir := range []string{cfg.SiteDir, cfg.ImagesDir, cfg.UploadDir, cfg.DatabaseDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	cfg.DatabasePath = filepath.Join(cfg.DatabaseDir, "portfolio.db")

	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	cfg.AdminPasswordHash = string(hash)
	return cfg
}

func newTestEnvWith(t *testing.T, cfg *startup.Config) *testEnv {
	t.Helper()

	db, err := database.New(context.Background(), cfg.DatabasePath)
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	pub := &fakePublisher{}
	h, err := New(db, images.NewPipeline(nil, nil), pub, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return &testEnv{h: h, db: db, config: cfg, publisher: pub}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, testConfig(t))
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func testImage(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	return img
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(w, h)); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(w, h), nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func webpBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := (images.NativeCodec{}).Encode(&buf, testImage(w, h), "webp", 80); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// multipartUpload builds a POST /api/upload request carrying one file part.
func multipartUpload(t *testing.T, filename, contentType string, data []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}
