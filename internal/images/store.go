package images

import (
	"io"
	"io/fs"
	"os"
	"time"

	"portfolio-site/internal/filesystem"
)

// Store is the file-system surface the pipeline needs.
type Store interface {
	Stat(path string) (fs.FileInfo, error)
	Open(path string) (io.ReadCloser, error)
	Create(path string) (io.WriteCloser, error)
	Rename(oldPath, newPath string) error
	Remove(path string) error
	Chtimes(path string, atime, mtime time.Time) error
	MkdirAll(path string) error
	ReadDir(path string) ([]fs.DirEntry, error)
}

// OSStore is a Store backed by the local disk. Reads and renames are
// retried on NFS stale file handles.
type OSStore struct {
	retry filesystem.RetryConfig
}

// NewOSStore creates an OSStore using the default retry policy.
func NewOSStore() *OSStore {
	return &OSStore{retry: filesystem.DefaultRetryConfig()}
}

// Stat implements Store.
func (s *OSStore) Stat(path string) (fs.FileInfo, error) {
	return filesystem.StatWithRetry(path, s.retry)
}

// Open implements Store.
func (s *OSStore) Open(path string) (io.ReadCloser, error) {
	return filesystem.OpenWithRetry(path, s.retry)
}

// Create implements Store.
func (s *OSStore) Create(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

// Rename implements Store.
func (s *OSStore) Rename(oldPath, newPath string) error {
	return filesystem.RenameWithRetry(oldPath, newPath, s.retry)
}

// Remove implements Store.
func (s *OSStore) Remove(path string) error {
	return os.Remove(path)
}

// Chtimes implements Store.
func (s *OSStore) Chtimes(path string, atime, mtime time.Time) error {
	return os.Chtimes(path, atime, mtime)
}

// MkdirAll implements Store.
func (s *OSStore) MkdirAll(path string) error {
	return os.MkdirAll(path, 0o755)
}

// ReadDir implements Store.
func (s *OSStore) ReadDir(path string) ([]fs.DirEntry, error) {
	return filesystem.ReadDirWithRetry(path, s.retry)
}
