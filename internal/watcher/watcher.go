// Package watcher processes images as they appear in a directory tree.
//
// Events are debounced per path so a file that is still being written is
// handled once, after the writes settle. Processing happens one file at a
// time on the goroutine running [Watcher.Run].
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"portfolio-site/internal/images"
	"portfolio-site/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a path must be quiet before it is processed.
const DefaultDebounce = 500 * time.Millisecond

// Processor runs the image pipeline on one file.
type Processor interface {
	Process(path string, opts images.ProcessOptions) (*images.Result, error)
}

// Watcher monitors directories for new or changed source images.
type Watcher struct {
	fsw      *fsnotify.Watcher
	proc     Processor
	opts     images.ProcessOptions
	debounce time.Duration

	// OnProcessed, when set, is called after each successful Process.
	OnProcessed func(ctx context.Context, result *images.Result)
	// OnError, when set, is called after each failed Process.
	OnError func(path string, err error)

	mu      sync.Mutex
	pending map[string]*time.Timer
	ready   chan string
}

// New creates a Watcher. A zero debounce selects DefaultDebounce.
func New(proc Processor, opts images.ProcessOptions, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		fsw:      fsw,
		proc:     proc,
		opts:     opts,
		debounce: debounce,
		pending:  make(map[string]*time.Timer),
		ready:    make(chan string, 64),
	}, nil
}

// Add watches root and every directory below it.
func (w *Watcher) Add(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		logging.Debug("Watching directory: %s", path)
		return nil
	})
}

func (w *Watcher) skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || (w.opts.VariantDir != "" && name == w.opts.VariantDir)
}

// wants reports whether path is a source image the watcher should process.
func wants(path string) bool {
	name := filepath.Base(path)
	return !strings.HasPrefix(name, ".") && images.IsConvertible(name) && !images.IsVariant(name)
}

// Run handles events until ctx is cancelled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stopTimers()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logging.Warn("Watcher error: %v", err)

		case path := <-w.ready:
			w.process(ctx, path)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.skipDir(filepath.Base(event.Name)) {
				if err := w.Add(event.Name); err != nil {
					logging.Warn("Failed to watch new directory %s: %v", event.Name, err)
				}
			}
			return
		}
	}

	if !wants(event.Name) {
		return
	}
	w.schedule(event.Name)
}

// schedule (re)starts the debounce timer for path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.ready <- path
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) process(ctx context.Context, path string) {
	logging.Info("Processing new image %s", path)

	result, err := w.proc.Process(path, w.opts)
	if err != nil {
		logging.Error("Failed to process %s: %v", path, err)
		if w.OnError != nil {
			w.OnError(path, err)
		}
		return
	}

	if len(result.Errors) > 0 {
		logging.Warn("Processed %s with %d variant errors", path, len(result.Errors))
	}
	if w.OnProcessed != nil {
		w.OnProcessed(ctx, result)
	}
}

// Close stops watching. Run returns once the event channels close.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
