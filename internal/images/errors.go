package images

import (
	"errors"
	"fmt"
)

var (
	// ErrDecodeFailed means the source could not be read as an image.
	ErrDecodeFailed = errors.New("decode failed")
	// ErrUnsupportedMode means the image decoded but cannot be processed
	// (unknown format, empty or oversized canvas, invalid parameters).
	ErrUnsupportedMode = errors.New("unsupported image")
	// ErrWriteFailed means the encoded output could not be persisted.
	ErrWriteFailed = errors.New("write failed")

	// ErrConversionFailed matches every *ConversionError.
	ErrConversionFailed = errors.New("image conversion failed")
	// ErrVariantFailed matches every *VariantError.
	ErrVariantFailed = errors.New("variant generation failed")

	// ErrNotFound is returned by the Resolver when no candidate exists.
	ErrNotFound = errors.New("image not found")
	// ErrInvalidPath is returned for requests escaping the image root.
	ErrInvalidPath = errors.New("invalid image path")
)

// ConversionError reports a failed format conversion of Path.
type ConversionError struct {
	Path string
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert %s: %v", e.Path, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrConversionFailed) true for any ConversionError.
func (e *ConversionError) Is(target error) bool {
	return target == ErrConversionFailed
}

// VariantError reports a failed variant of Path at Width.
type VariantError struct {
	Path  string
	Width int
	Err   error
}

func (e *VariantError) Error() string {
	return fmt.Sprintf("variant %dw of %s: %v", e.Width, e.Path, e.Err)
}

func (e *VariantError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrVariantFailed) true for any VariantError.
func (e *VariantError) Is(target error) bool {
	return target == ErrVariantFailed
}
