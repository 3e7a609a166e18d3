package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"portfolio-site/internal/images"
	"portfolio-site/internal/logging"
	"portfolio-site/internal/memory"
	"portfolio-site/internal/publish"
	"portfolio-site/internal/startup"
	"portfolio-site/internal/watcher"
)

// errFailures is returned by run when at least one file failed.
var errFailures = errors.New("some images could not be processed")

type cliOptions struct {
	target  string
	opts    images.Options
	watch   bool
	publish bool
	verbose bool
}

func main() {
	o, err := parseArgs(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "imgopt: %v\n", err)
		os.Exit(2)
	}

	if o.verbose {
		logging.SetLevel(logging.LevelDebug)
	}
	memory.ConfigureFromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if o.opts.UseVips {
		if err := images.InitVips(); err != nil {
			logging.Warn("libvips unavailable, using libwebp: %v", err)
		} else {
			defer images.ShutdownVips()
		}
	}

	var pub publish.Publisher
	if o.publish {
		s3pub, err := publish.NewS3Publisher(ctx, s3ConfigFromEnv())
		if err != nil {
			fmt.Fprintf(os.Stderr, "imgopt: %v\n", err)
			os.Exit(2)
		}
		pub = s3pub
	}

	if err := run(ctx, o, pub, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "imgopt: %v\n", err)
		os.Exit(1)
	}
}

func parseArgs(args []string, stderr io.Writer) (*cliOptions, error) {
	fs := flag.NewFlagSet("imgopt", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: imgopt [flags] <file|dir>")
		fs.PrintDefaults()
	}

	out := fs.String("o", "", "variant output directory, relative to each source or absolute")
	sizes := fs.String("sizes", "300,600,900,1200", "comma-separated variant widths")
	quality := fs.Int("quality", images.DefaultQuality, "encoder quality (1-100)")
	useVips := fs.Bool("vips", true, "encode WebP through libvips when available")
	watch := fs.Bool("watch", false, "keep running and process new or changed images")
	pub := fs.Bool("publish", false, "mirror derived files to S3")
	verbose := fs.Bool("v", false, "debug logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, errors.New("exactly one file or directory is required")
	}
	if *quality < 1 || *quality > 100 {
		return nil, fmt.Errorf("-quality must be between 1 and 100, got %d", *quality)
	}
	widths, err := startup.ParseWidths(*sizes)
	if err != nil {
		return nil, fmt.Errorf("-sizes: %w", err)
	}
	if *pub && filepath.IsAbs(*out) {
		return nil, errors.New("-publish needs -o relative to the sources so keys stay under the target")
	}

	return &cliOptions{
		target: fs.Arg(0),
		opts: images.Options{
			Quality:    *quality,
			Widths:     widths,
			VariantDir: *out,
			UseVips:    *useVips,
		},
		watch:   *watch,
		publish: *pub,
		verbose: *verbose,
	}, nil
}

func s3ConfigFromEnv() publish.S3Config {
	return publish.S3Config{
		Bucket:          os.Getenv("S3_BUCKET"),
		Region:          os.Getenv("S3_REGION"),
		Endpoint:        os.Getenv("S3_ENDPOINT"),
		AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		Prefix:          os.Getenv("S3_PREFIX"),
	}
}

// run processes the target once, prints a summary to out and, with -watch,
// keeps processing changes until ctx is done. A nil pub disables mirroring.
func run(ctx context.Context, o *cliOptions, pub publish.Publisher, out io.Writer) error {
	info, err := os.Stat(o.target)
	if err != nil {
		return err
	}
	root := o.target
	if !info.IsDir() {
		root = filepath.Dir(o.target)
	}

	pipeline := images.NewPipeline(nil, images.NewCodec(o.opts.UseVips))
	popts := o.opts.Process()

	start := time.Now()
	batch := pipeline.Batch(ctx, o.target, popts)

	published := 0
	if pub != nil {
		for _, res := range batch.Results {
			n, err := publish.PublishResult(ctx, pub, root, res)
			if err != nil {
				logging.Warn("Mirror incomplete for %s: %v", res.Source, err)
			}
			published += n
		}
	}

	printSummary(out, batch, published, time.Since(start))

	if o.watch {
		if err := watch(ctx, pipeline, popts, root, pub, out); err != nil {
			return err
		}
	}

	if len(batch.Failed) > 0 {
		return errFailures
	}
	return nil
}

func printSummary(out io.Writer, batch *images.BatchResult, published int, took time.Duration) {
	fmt.Fprintf(out, "Processed %d images, %d failed in %v\n",
		batch.Succeeded, len(batch.Failed), took.Round(time.Millisecond))
	for _, res := range batch.Results {
		fmt.Fprintf(out, "  %s: %d derived files\n", res.Source, len(res.Paths()))
		for key, msg := range res.Errors {
			fmt.Fprintf(out, "    %s: %s\n", key, msg)
		}
	}
	for _, f := range batch.Failed {
		fmt.Fprintf(out, "  FAILED %s: %s\n", f.Path, f.Error)
	}
	if published > 0 {
		fmt.Fprintf(out, "Published %d files\n", published)
	}
	if batch.Canceled {
		fmt.Fprintln(out, "Canceled before all images were processed")
	}
}

func watch(ctx context.Context, pipeline *images.Pipeline, opts images.ProcessOptions, root string, pub publish.Publisher, out io.Writer) error {
	w, err := watcher.New(pipeline, opts, 0)
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(root); err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}

	w.OnProcessed = func(ctx context.Context, result *images.Result) {
		fmt.Fprintf(out, "  %s: %d derived files\n", result.Source, len(result.Paths()))
		if pub == nil {
			return
		}
		if _, err := publish.PublishResult(ctx, pub, root, result); err != nil {
			logging.Warn("Mirror incomplete for %s: %v", result.Source, err)
		}
	}
	w.OnError = func(path string, err error) {
		fmt.Fprintf(out, "  FAILED %s: %v\n", path, err)
	}

	fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", root)
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
