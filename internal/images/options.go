package images

// DefaultQuality is the encoder quality used when none is configured.
const DefaultQuality = 85

// DefaultWidths is the responsive width ladder.
var DefaultWidths = []int{300, 600, 900, 1200}

// Options carries the pipeline configuration. It is built once from the
// environment (startup.Config.ImageOptions) or from CLI flags and passed
// explicitly to every component.
type Options struct {
	// Quality is the lossy encoder quality, 1-100.
	Quality int
	// Widths is the set of variant widths to produce.
	Widths []int
	// VariantDir places variants in a sub-directory of the source's
	// directory (or an absolute directory). Empty keeps them beside the
	// source.
	VariantDir string
	// UseVips routes WebP encoding through libvips when it initialised.
	UseVips bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Quality: DefaultQuality,
		Widths:  append([]int(nil), DefaultWidths...),
		UseVips: true,
	}
}

// Process returns the per-call options derived from o.
func (o Options) Process() ProcessOptions {
	return ProcessOptions{
		Quality:    o.Quality,
		Widths:     o.Widths,
		VariantDir: o.VariantDir,
	}
}

// ProcessOptions controls a single Pipeline.Process or Pipeline.Batch call.
type ProcessOptions struct {
	Quality    int
	Widths     []int
	VariantDir string
}

func (o ProcessOptions) quality() int {
	if o.Quality == 0 {
		return DefaultQuality
	}
	return o.Quality
}

func (o ProcessOptions) widths() []int {
	if len(o.Widths) == 0 {
		return DefaultWidths
	}
	return o.Widths
}
