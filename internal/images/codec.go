package images

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP format support
)

const (
	// MaxImagePixels bounds the canvas we are willing to decode.
	// A 50MP image would need ~200MB as NRGBA.
	MaxImagePixels = 50_000_000
)

// Codec decodes sources and encodes derived images.
type Codec interface {
	Decode(r io.Reader) (image.Image, error)
	Encode(w io.Writer, img image.Image, format string, quality int) error
}

// NativeCodec decodes with imaging (EXIF auto-orientation) and encodes JPEG,
// PNG and GIF with imaging and WebP with libwebp through chai2010/webp.
//
// chai2010/webp exposes quality but not the encoder's effort level, so WebP
// files from NativeCodec are larger than the maximum-effort output of
// VipsCodec at the same quality.
type NativeCodec struct{}

// Decode reads an image, refusing canvases that are empty or larger than
// MaxImagePixels.
func (NativeCodec) Decode(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: empty canvas", ErrUnsupportedMode)
	}
	if cfg.Width*cfg.Height > MaxImagePixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrUnsupportedMode, cfg.Width, cfg.Height, MaxImagePixels)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	return img, nil
}

// Encode writes img in format ("jpeg", "png", "gif" or "webp").
func (NativeCodec) Encode(w io.Writer, img image.Image, format string, quality int) error {
	switch normalizeFormat(format) {
	case "jpeg":
		return imaging.Encode(w, flatten(img), imaging.JPEG, imaging.JPEGQuality(quality))
	case "png":
		return imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
	case "gif":
		return imaging.Encode(w, img, imaging.GIF)
	case "webp":
		return webp.Encode(w, img, &webp.Options{Lossless: false, Quality: float32(quality)})
	default:
		return fmt.Errorf("%w: output format %q", ErrUnsupportedMode, format)
	}
}

// normalizeFormat maps extensions and format names to codec format names.
func normalizeFormat(format string) string {
	switch f := strings.ToLower(strings.TrimPrefix(format, ".")); f {
	case "jpg", "jpeg":
		return "jpeg"
	default:
		return f
	}
}

// flatten composites img over an opaque white canvas of the same size. The
// result is opaque NRGBA regardless of the source colour model.
func flatten(img image.Image) *image.NRGBA {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}
