package images

import (
	"fmt"
	"html"
	"path"
	"strconv"
	"strings"
)

// URLPrefix is the mount point images are served from.
const URLPrefix = "/images/"

// VariantName returns the file name of the variant of base at width.
func VariantName(base string, width int, ext string) string {
	return fmt.Sprintf("%s-%dw.%s", base, width, strings.TrimPrefix(ext, "."))
}

// ParseVariantName splits a variant file name into its parts. ok is false
// when name does not follow the {base}-{width}w.{ext} convention.
func ParseVariantName(name string) (base string, width int, ext string, ok bool) {
	name = path.Base(name)
	dot := strings.LastIndexByte(name, '.')
	if dot <= 0 || dot == len(name)-1 {
		return "", 0, "", false
	}
	stem, ext := name[:dot], name[dot+1:]
	if !strings.HasSuffix(stem, "w") {
		return "", 0, "", false
	}
	stem = stem[:len(stem)-1]
	dash := strings.LastIndexByte(stem, '-')
	if dash <= 0 || dash == len(stem)-1 {
		return "", 0, "", false
	}
	w, err := strconv.Atoi(stem[dash+1:])
	if err != nil || w <= 0 || strings.HasPrefix(stem[dash+1:], "+") {
		return "", 0, "", false
	}
	return stem[:dash], w, ext, true
}

// IsVariant reports whether name looks like a generated variant.
func IsVariant(name string) bool {
	_, _, _, ok := ParseVariantName(name)
	return ok
}

// splitExt splits name into its stem and lower-cased extension without the dot.
func splitExt(name string) (string, string) {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext), strings.ToLower(strings.TrimPrefix(ext, "."))
}

// ImageURL returns the public URL of filename, optionally at a variant width
// and in another format. Width 0 means the full-size image.
func ImageURL(filename string, width int, format string) string {
	filename = strings.TrimPrefix(filename, "/")
	base, ext := splitExt(filename)
	if format != "" {
		ext = strings.ToLower(format)
	}
	if width > 0 {
		return URLPrefix + VariantName(base, width, ext)
	}
	return URLPrefix + base + "." + ext
}

// WebPURL returns the URL of the WebP conversion of filename.
func WebPURL(filename string, width int) string {
	return ImageURL(filename, width, "webp")
}

// SrcSet builds a srcset attribute value covering widths.
func SrcSet(filename string, widths []int, format string) string {
	parts := make([]string, 0, len(widths))
	for _, w := range widths {
		parts = append(parts, fmt.Sprintf("%s %dw", ImageURL(filename, w, format), w))
	}
	return strings.Join(parts, ", ")
}

// ResponsiveImage renders a <picture> element with a WebP source and a
// fallback <img> in the original format.
func ResponsiveImage(filename, alt, class, sizes string, widths []int) string {
	if sizes == "" {
		sizes = "100vw"
	}
	if len(widths) == 0 {
		widths = DefaultWidths
	}

	var b strings.Builder
	b.WriteString("<picture>")
	fmt.Fprintf(&b, `<source type="image/webp" srcset="%s" sizes="%s">`,
		html.EscapeString(SrcSet(filename, widths, "webp")), html.EscapeString(sizes))
	fmt.Fprintf(&b, `<img src="%s" srcset="%s" sizes="%s" alt="%s"`,
		html.EscapeString(ImageURL(filename, 0, "")),
		html.EscapeString(SrcSet(filename, widths, "")),
		html.EscapeString(sizes), html.EscapeString(alt))
	if class != "" {
		fmt.Fprintf(&b, ` class="%s"`, html.EscapeString(class))
	}
	b.WriteString(` loading="lazy"></picture>`)
	return b.String()
}
