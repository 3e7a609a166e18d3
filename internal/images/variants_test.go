package images

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestScaledHeight(t *testing.T) {
	tests := []struct {
		srcW, srcH, width, want int
	}{
		{1200, 800, 300, 200},
		{1200, 800, 600, 400},
		{1200, 800, 2400, 1600},
		{1000, 667, 300, 200},
		{1000, 667, 333, 222},
		{4000, 1, 300, 1},
	}

	for _, tt := range tests {
		if got := ScaledHeight(tt.srcW, tt.srcH, tt.width); got != tt.want {
			t.Errorf("ScaledHeight(%d, %d, %d) = %d, want %d", tt.srcW, tt.srcH, tt.width, got, tt.want)
		}
	}
}

func TestGeneratePhotoScenario(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.png")
	writePNG(t, src, 1200, 800, color.NRGBA{R: 20, G: 120, B: 220, A: 255})

	g := NewGenerator(nil, nil)
	set := g.Generate(src, []int{900, 300, 1200, 600, 300}, VariantOptions{Quality: 85})

	if len(set.Failures) != 0 {
		t.Fatalf("Failures = %v, want none", set.Failures)
	}

	want := map[int][2]int{300: {300, 200}, 600: {600, 400}, 900: {900, 600}, 1200: {1200, 800}}
	if len(set.Paths) != len(want) {
		t.Fatalf("got %d variants, want %d", len(set.Paths), len(want))
	}
	for width, size := range want {
		path := set.Paths[width]
		if filepath.Base(path) != VariantName("photo", width, "png") {
			t.Errorf("Paths[%d] = %q, want %s", width, path, VariantName("photo", width, "png"))
		}
		if w, h := dimensions(t, path); w != size[0] || h != size[1] {
			t.Errorf("variant %d is %dx%d, want %dx%d", width, w, h, size[0], size[1])
		}
	}

	if got := set.Widths(); len(got) != 4 || got[0] != 300 || got[3] != 1200 {
		t.Errorf("Widths() = %v, want ascending 300..1200", got)
	}
}

func TestGeneratePreservesAspectRatio(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "odd.png")
	writePNG(t, src, 1000, 667, color.White)

	set := NewGenerator(nil, nil).Generate(src, []int{123, 300, 777}, VariantOptions{})
	for width, path := range set.Paths {
		w, h := dimensions(t, path)
		if w != width {
			t.Errorf("variant width = %d, want %d", w, width)
		}
		exact := 667.0 * float64(width) / 1000.0
		if diff := float64(h) - exact; diff > 1 || diff < -1 {
			t.Errorf("variant %d height = %d, want %.1f +/- 1", width, h, exact)
		}
	}
}

func TestGenerateUpscales(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "small.png")
	writePNG(t, src, 400, 300, color.White)

	set := NewGenerator(nil, nil).Generate(src, []int{1200}, VariantOptions{})
	if err := set.Failures[1200]; err != nil {
		t.Fatalf("upscale failed: %v", err)
	}
	if w, h := dimensions(t, set.Paths[1200]); w != 1200 || h != 900 {
		t.Errorf("upscaled variant = %dx%d, want 1200x900", w, h)
	}
}

func TestGenerateFormatAndOutputDir(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.png")
	writePNG(t, src, 600, 400, color.NRGBA{R: 255, A: 128})
	out := filepath.Join(dir, "responsive")

	tests := []struct {
		format string
		want   string
	}{
		{format: "webp", want: "photo-300w.webp"},
		{format: "jpg", want: "photo-300w.jpg"},
		{format: "JPEG", want: "photo-300w.jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			set := NewGenerator(nil, nil).Generate(src, []int{300}, VariantOptions{OutputDir: out, Format: tt.format, Quality: 80})
			if err := set.Failures[300]; err != nil {
				t.Fatalf("Generate() failure = %v", err)
			}
			if want := filepath.Join(out, tt.want); set.Paths[300] != want {
				t.Errorf("Paths[300] = %q, want %q", set.Paths[300], want)
			}
			if w, h := dimensions(t, set.Paths[300]); w != 300 || h != 200 {
				t.Errorf("variant = %dx%d, want 300x200", w, h)
			}
		})
	}
}

func TestGenerateIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.png")
	writePNG(t, src, 600, 400, color.White)

	g := NewGenerator(nil, nil)
	first := g.Generate(src, []int{300}, VariantOptions{})
	path := first.Paths[300]

	marked := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, marked, marked); err != nil {
		t.Fatal(err)
	}

	second := g.Generate(src, []int{300}, VariantOptions{})
	if second.Paths[300] != path {
		t.Errorf("second run path = %q, want %q", second.Paths[300], path)
	}
	if got := modTime(t, path); !got.Equal(marked) {
		t.Error("fresh variant was regenerated")
	}
}

func TestGenerateRegeneratesAfterSourceTouched(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.png")
	writePNG(t, src, 600, 400, color.White)

	g := NewGenerator(nil, nil)
	path := g.Generate(src, []int{300}, VariantOptions{}).Paths[300]

	past := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(path, past, past); err != nil {
		t.Fatal(err)
	}
	touched := time.Now().Add(-time.Hour)
	if err := os.Chtimes(src, touched, touched); err != nil {
		t.Fatal(err)
	}

	g.Generate(src, []int{300}, VariantOptions{})
	if got := modTime(t, path); !got.After(touched) {
		t.Errorf("variant mtime %v not refreshed after source touch at %v", got, touched)
	}
}

func TestGenerateInvalidWidthDoesNotAbortOthers(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.png")
	writePNG(t, src, 600, 400, color.White)

	set := NewGenerator(nil, nil).Generate(src, []int{0, -5, 300}, VariantOptions{})

	if _, ok := set.Paths[300]; !ok {
		t.Error("valid width 300 was not produced")
	}
	for _, w := range []int{0, -5} {
		err := set.Failures[w]
		if !errors.Is(err, ErrVariantFailed) {
			t.Errorf("Failures[%d] = %v, want ErrVariantFailed", w, err)
		}
		var verr *VariantError
		if !errors.As(err, &verr) || verr.Width != w {
			t.Errorf("Failures[%d] is not a VariantError for width %d", w, w)
		}
	}
}

func TestGenerateUnreadableSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "broken.png")
	if err := os.WriteFile(src, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	set := NewGenerator(nil, nil).Generate(src, []int{300, 600}, VariantOptions{})
	if len(set.Paths) != 0 {
		t.Errorf("Paths = %v, want none", set.Paths)
	}
	for _, w := range []int{300, 600} {
		if !errors.Is(set.Failures[w], ErrDecodeFailed) {
			t.Errorf("Failures[%d] = %v, want ErrDecodeFailed", w, set.Failures[w])
		}
	}
}
