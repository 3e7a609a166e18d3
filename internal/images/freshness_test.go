package images

import (
	"testing"
	"time"
)

func TestIsFresh(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		sourceMod time.Time
		outputMod time.Time
		noOutput  bool
		noSource  bool
		want      bool
	}{
		{name: "output newer than source", sourceMod: base, outputMod: base.Add(time.Minute), want: true},
		{name: "same mtime counts as fresh", sourceMod: base, outputMod: base, want: true},
		{name: "output older than source", sourceMod: base, outputMod: base.Add(-time.Second), want: false},
		{name: "output missing", sourceMod: base, noOutput: true, want: false},
		{name: "source missing", outputMod: base, noSource: true, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			if !tt.noSource {
				store.put("/img/photo.png", []byte("src"), tt.sourceMod)
			}
			if !tt.noOutput {
				store.put("/img/photo.webp", []byte("out"), tt.outputMod)
			}

			if got := IsFresh(store, "/img/photo.webp", "/img/photo.png"); got != tt.want {
				t.Errorf("IsFresh() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConvertCacheHitSkipsDecoding(t *testing.T) {
	store := newMemStore()
	_ = store.MkdirAll("/img")
	store.put("/img/photo.png", []byte("not really a png"), store.now)
	store.put("/img/photo.webp", []byte("cached"), store.now.Add(time.Hour))

	// A fresh output must be returned without touching the codec.
	c := NewConverter(store, failingCodec{})
	got, err := c.Convert("/img/photo.png", 80)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if got != "/img/photo.webp" {
		t.Errorf("Convert() = %q, want /img/photo.webp", got)
	}
	if string(store.files["/img/photo.webp"].data) != "cached" {
		t.Error("cached output was rewritten")
	}
}

func TestGenerateCacheHitSkipsDecoding(t *testing.T) {
	store := newMemStore()
	_ = store.MkdirAll("/img")
	store.put("/img/photo.png", []byte("src"), store.now)
	store.put("/img/photo-300w.png", []byte("v300"), store.now)
	store.put("/img/photo-600w.png", []byte("v600"), store.now.Add(-time.Hour))

	g := NewGenerator(store, failingCodec{})
	set := g.Generate("/img/photo.png", []int{300, 600}, VariantOptions{})

	if set.Paths[300] != "/img/photo-300w.png" {
		t.Errorf("Paths[300] = %q, want cached variant", set.Paths[300])
	}
	if _, ok := set.Failures[600]; !ok {
		t.Error("stale 600w variant should have been regenerated (and failed with the failing codec)")
	}
	if _, ok := store.files["/img/.photo-600w.png.tmp"]; ok {
		t.Error("temporary file left behind")
	}
}
