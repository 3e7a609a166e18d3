package publish

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"portfolio-site/internal/images"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeS3 struct {
	objects map[string]string
	types   map[string]string
	err     error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Bucket+"/"+*in.Key] = string(body)
	f.types[*in.Key] = *in.ContentType
	return &s3.PutObjectOutput{}, nil
}

func newFake() *fakeS3 {
	return &fakeS3{objects: map[string]string{}, types: map[string]string{}}
}

func TestS3PublisherPublish(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "photo-300w.webp")
	if err := os.WriteFile(local, []byte("webp-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		prefix  string
		key     string
		wantKey string
	}{
		{name: "no prefix", key: "gallery/photo-300w.webp", wantKey: "gallery/photo-300w.webp"},
		{name: "prefix", prefix: "/site/images/", key: "photo-300w.webp", wantKey: "site/images/photo-300w.webp"},
		{name: "leading slash key", prefix: "cdn", key: "/photo-300w.webp", wantKey: "cdn/photo-300w.webp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFake()
			p := newS3Publisher(fake, S3Config{Bucket: "assets", Prefix: tt.prefix})

			if err := p.Publish(context.Background(), local, tt.key); err != nil {
				t.Fatalf("Publish() error = %v", err)
			}
			if got := fake.objects["assets/"+tt.wantKey]; got != "webp-bytes" {
				t.Errorf("object %q = %q, want uploaded bytes (have %v)", tt.wantKey, got, fake.objects)
			}
			if ct := fake.types[tt.wantKey]; ct != "image/webp" {
				t.Errorf("ContentType = %q, want image/webp", ct)
			}
		})
	}
}

func TestS3PublisherMissingFile(t *testing.T) {
	p := newS3Publisher(newFake(), S3Config{Bucket: "assets"})
	if err := p.Publish(context.Background(), filepath.Join(t.TempDir(), "missing.webp"), "x"); err == nil {
		t.Error("Publish() of a missing file succeeded")
	}
}

func TestNewS3PublisherRequiresBucket(t *testing.T) {
	if _, err := NewS3Publisher(context.Background(), S3Config{}); err == nil {
		t.Error("NewS3Publisher() without bucket succeeded")
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"a.webp": "image/webp",
		"a.PNG":  "image/png",
		"a.jpg":  "image/jpeg",
		"a.bin9": "application/octet-stream",
	}
	for name, want := range tests {
		if got := ContentType(name); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", name, got, want)
		}
	}
}

type recordingPublisher struct {
	keys []string
	fail map[string]bool
}

func (r *recordingPublisher) Publish(_ context.Context, _, key string) error {
	if r.fail[key] {
		return errors.New("boom")
	}
	r.keys = append(r.keys, key)
	return nil
}

func TestPublishResult(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "srv", "images")
	result := &images.Result{
		Source:       filepath.Join(root, "gallery", "photo.png"),
		Converted:    filepath.Join(root, "gallery", "photo.webp"),
		Variants:     map[int]string{300: filepath.Join(root, "gallery", "photo-300w.png")},
		WebPVariants: map[int]string{300: filepath.Join(root, "gallery", "photo-300w.webp")},
	}

	rec := &recordingPublisher{fail: map[string]bool{"gallery/photo-300w.png": true}}
	n, err := PublishResult(context.Background(), rec, root, result)

	if err == nil {
		t.Error("PublishResult() error = nil, want the failed upload")
	}
	if n != 2 {
		t.Errorf("published = %d, want 2", n)
	}
	sort.Strings(rec.keys)
	want := []string{"gallery/photo-300w.webp", "gallery/photo.webp"}
	if len(rec.keys) != 2 || rec.keys[0] != want[0] || rec.keys[1] != want[1] {
		t.Errorf("keys = %v, want %v", rec.keys, want)
	}
}

func TestPublishResultSkipsOutsideRoot(t *testing.T) {
	rec := &recordingPublisher{}
	result := &images.Result{Source: "/a/x.png", Converted: "/elsewhere/x.webp"}

	n, err := PublishResult(context.Background(), rec, "/a", result)
	if err != nil || n != 0 || len(rec.keys) != 0 {
		t.Errorf("PublishResult() = %d, %v, keys %v; want nothing published", n, err, rec.keys)
	}
	if n, err := PublishResult(context.Background(), Nop{}, "/a", nil); n != 0 || err != nil {
		t.Errorf("PublishResult(nil result) = %d, %v", n, err)
	}
}
