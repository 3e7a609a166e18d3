package images

import (
	"fmt"
	"image"
	"io"
	"path/filepath"
	"time"

	"portfolio-site/internal/logging"
)

// writeAtomic encodes into a hidden temporary sibling of dst and renames it
// into place once it is known to be non-empty. The temporary file is removed
// on every failure path. The written file is never older than source.
func writeAtomic(store Store, dst, source string, encode func(io.Writer) error) (err error) {
	tmp := filepath.Join(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp")

	f, err := store.Create(tmp)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	defer func() {
		if err != nil {
			_ = store.Remove(tmp)
		}
	}()

	if encErr := encode(f); encErr != nil {
		_ = f.Close()
		return fmt.Errorf("%w: encode: %v", ErrWriteFailed, encErr)
	}
	if closeErr := f.Close(); closeErr != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, closeErr)
	}

	info, err := store.Stat(tmp)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: encoder produced an empty file", ErrWriteFailed)
	}

	if err := store.Rename(tmp, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	catchUp(store, dst, source, info.ModTime())
	return nil
}

// catchUp moves the mtime of output forward to that of source when the
// source is dated in the future, so the output reads as fresh next time.
func catchUp(store Store, output, source string, written time.Time) {
	src, err := store.Stat(source)
	if err != nil || !written.Before(src.ModTime()) {
		return
	}
	if err := store.Chtimes(output, src.ModTime(), src.ModTime()); err != nil {
		logging.Warn("Could not date %s after its source: %v", filepath.Base(output), err)
	}
}

// decodeFile opens and decodes path through the store.
func decodeFile(store Store, codec Codec, path string) (image.Image, error) {
	f, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	defer f.Close()
	return codec.Decode(f)
}
