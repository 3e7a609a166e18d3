package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"portfolio-site/internal/images"
)

type recordingProcessor struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingProcessor) Process(path string, _ images.ProcessOptions) (*images.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	return &images.Result{Source: path}, nil
}

func (r *recordingProcessor) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func TestWants(t *testing.T) {
	tests := map[string]bool{
		"/up/photo.jpg":           true,
		"/up/photo.PNG":           true,
		"/up/photo.webp":          false,
		"/up/photo-300w.jpg":      false,
		"/up/.photo.webp.tmp":     false,
		"/up/notes.txt":           false,
		"/up/.hidden.png":         false,
		"/up/nested/picture.jpeg": true,
	}
	for path, want := range tests {
		if got := wants(path); got != want {
			t.Errorf("wants(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestWatcherProcessesNewFilesOnce(t *testing.T) {
	dir := t.TempDir()
	proc := &recordingProcessor{}

	w, err := New(proc, images.ProcessOptions{}, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()

	done := make(chan *images.Result, 4)
	w.OnProcessed = func(_ context.Context, r *images.Result) { done <- r }

	if err := w.Add(dir); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	src := filepath.Join(dir, "photo.jpg")
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(src, []byte("chunk"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "photo-300w.jpg"), []byte("variant"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case r := <-done:
		if r.Source != src {
			t.Errorf("processed %q, want %q", r.Source, src)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the watcher to process the upload")
	}

	// Allow any stray timers to fire.
	time.Sleep(200 * time.Millisecond)
	if got := proc.seen(); len(got) != 1 {
		t.Errorf("Process called for %v, want exactly once for %s", got, src)
	}
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	dir := t.TempDir()
	proc := &recordingProcessor{}

	w, err := New(proc, images.ProcessOptions{}, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()

	done := make(chan *images.Result, 1)
	w.OnProcessed = func(_ context.Context, r *images.Result) { done <- r }
	if err := w.Add(dir); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	sub := filepath.Join(dir, "2024")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	// Give the watcher a moment to register the new directory.
	time.Sleep(100 * time.Millisecond)

	src := filepath.Join(sub, "trip.png")
	if err := os.WriteFile(src, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case r := <-done:
		if r.Source != src {
			t.Errorf("processed %q, want %q", r.Source, src)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for file in new directory")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	w, err := New(&recordingProcessor{}, images.ProcessOptions{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if w.debounce != DefaultDebounce {
		t.Errorf("debounce = %v, want %v", w.debounce, DefaultDebounce)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	cancel()

	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
