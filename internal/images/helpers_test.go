package images

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"
)

// writePNG writes a w x h PNG filled with c.
func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create(%s): %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
}

// dimensions returns the decoded size of the image at path.
func dimensions(t *testing.T, path string) (int, int) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open(%s): %v", path, err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("DecodeConfig(%s): %v", path, err)
	}
	return cfg.Width, cfg.Height
}

func modTime(t *testing.T, path string) time.Time {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat(%s): %v", path, err)
	}
	return info.ModTime()
}

// listDir returns the names in dir, sorted.
func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir(%s): %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

// memStore is an in-memory Store with explicit modification times.
type memStore struct {
	files map[string]*memFile
	dirs  map[string]bool
	now   time.Time
}

type memFile struct {
	data    []byte
	modTime time.Time
}

func newMemStore() *memStore {
	return &memStore{
		files: make(map[string]*memFile),
		dirs:  map[string]bool{"/": true},
		now:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) put(path string, data []byte, mod time.Time) {
	m.files[path] = &memFile{data: data, modTime: mod}
}

type memInfo struct {
	name string
	size int64
	mod  time.Time
	dir  bool
}

func (i memInfo) Name() string       { return i.name }
func (i memInfo) Size() int64        { return i.size }
func (i memInfo) ModTime() time.Time { return i.mod }
func (i memInfo) IsDir() bool        { return i.dir }
func (i memInfo) Sys() any           { return nil }
func (i memInfo) Mode() fs.FileMode {
	if i.dir {
		return fs.ModeDir | 0o755
	}
	return 0o644
}

func (m *memStore) Stat(path string) (fs.FileInfo, error) {
	if f, ok := m.files[path]; ok {
		return memInfo{name: filepath.Base(path), size: int64(len(f.data)), mod: f.modTime}, nil
	}
	if m.dirs[path] {
		return memInfo{name: filepath.Base(path), dir: true}, nil
	}
	return nil, fs.ErrNotExist
}

func (m *memStore) Open(path string) (io.ReadCloser, error) {
	f, ok := m.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

type memWriter struct {
	bytes.Buffer
	store *memStore
	path  string
}

func (w *memWriter) Close() error {
	w.store.put(w.path, w.Bytes(), w.store.now)
	return nil
}

func (m *memStore) Create(path string) (io.WriteCloser, error) {
	if !m.dirs[filepath.Dir(path)] {
		return nil, fs.ErrNotExist
	}
	return &memWriter{store: m, path: path}, nil
}

func (m *memStore) Rename(oldPath, newPath string) error {
	f, ok := m.files[oldPath]
	if !ok {
		return fs.ErrNotExist
	}
	delete(m.files, oldPath)
	m.files[newPath] = f
	return nil
}

func (m *memStore) Remove(path string) error {
	if _, ok := m.files[path]; !ok {
		return fs.ErrNotExist
	}
	delete(m.files, path)
	return nil
}

func (m *memStore) Chtimes(path string, _, mtime time.Time) error {
	f, ok := m.files[path]
	if !ok {
		return fs.ErrNotExist
	}
	f.modTime = mtime
	return nil
}

func (m *memStore) MkdirAll(path string) error {
	for p := path; p != "/" && p != "."; p = filepath.Dir(p) {
		m.dirs[p] = true
	}
	return nil
}

func (m *memStore) ReadDir(path string) ([]fs.DirEntry, error) {
	if !m.dirs[path] {
		return nil, fs.ErrNotExist
	}
	var out []fs.DirEntry
	for p := range m.files {
		if filepath.Dir(p) == path {
			info, _ := m.Stat(p)
			out = append(out, fs.FileInfoToDirEntry(info))
		}
	}
	for p := range m.dirs {
		if p != path && filepath.Dir(p) == path {
			out = append(out, fs.FileInfoToDirEntry(memInfo{name: filepath.Base(p), dir: true}))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

// failingCodec decodes nothing and encodes nothing.
type failingCodec struct{}

var errCodec = errors.New("codec unavailable")

func (failingCodec) Decode(io.Reader) (image.Image, error) { return nil, errCodec }
func (failingCodec) Encode(io.Writer, image.Image, string, int) error {
	return errCodec
}

func hasTempFiles(names []string) bool {
	for _, n := range names {
		if strings.HasSuffix(n, ".tmp") {
			return true
		}
	}
	return false
}
