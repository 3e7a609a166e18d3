package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"portfolio-site/internal/content"
	"portfolio-site/internal/database"
	"portfolio-site/internal/filesystem"
	"portfolio-site/internal/handlers"
	"portfolio-site/internal/images"
	"portfolio-site/internal/logging"
	"portfolio-site/internal/memory"
	"portfolio-site/internal/metrics"
	"portfolio-site/internal/middleware"
	"portfolio-site/internal/publish"
	"portfolio-site/internal/startup"
	"portfolio-site/internal/watcher"

	"github.com/gorilla/mux"
)

func main() {
	startTime := time.Now()

	memory.ConfigureFromEnv()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	metrics.InitializeMetrics()
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"site":     config.SiteDir,
		"images":   config.ImagesDir,
		"uploads":  config.UploadDir,
		"database": config.DatabaseDir,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	dbStart := time.Now()
	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer db.Close()
	startup.LogDatabaseInit(time.Since(dbStart))

	seedContent(ctx, db, config.ContentFile)

	collector := metrics.NewCollector(db, time.Minute)
	collector.Start()

	// Image pipeline
	opts := config.ImageOptions()
	var vipsErr error
	if opts.UseVips {
		vipsErr = images.InitVips()
	}
	startup.LogImagePipelineInit(opts, vipsErr)
	pipeline := images.NewPipeline(nil, images.NewCodec(opts.UseVips && vipsErr == nil))

	var publisher publish.Publisher = publish.Nop{}
	if config.S3.Enabled() {
		s3pub, err := publish.NewS3Publisher(ctx, config.S3)
		if err == nil {
			publisher = s3pub
		}
		startup.LogPublisherInit(config.S3, err)
	}

	h, err := handlers.New(db, pipeline, publisher, config)
	if err != nil {
		startup.LogFatal("Failed to initialize handlers: %v", err)
	}

	if config.WatchUploads && config.UploadsEnabled {
		w, err := startUploadWatcher(ctx, pipeline, publisher, config)
		startup.LogWatcherInit(config.UploadDir, err)
		if err == nil {
			defer w.Close()
		}
	}

	contactLimiter := middleware.NewRateLimiter(config.ContactRateLimit, config.TrustedProxies)
	go contactLimiter.Run(ctx)

	router := setupRouter(h, config, contactLimiter)
	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks

	handler := middleware.Chain(router,
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.Logger(loggingConfig),
		middleware.Metrics(middleware.DefaultMetricsConfig()),
		middleware.Compression(middleware.DefaultCompressionConfig()),
	)

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", h.MetricsHandler())
		metricsSrv = &http.Server{
			Addr:              ":" + config.MetricsPort,
			Handler:           metricsMux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.ListenAndServe()
	}()

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			startup.LogFatal("Server error: %v", err)
		}
	case <-ctx.Done():
		startup.LogShutdownInitiated("signal")
	}

	shutdown(srv, metricsSrv, collector, opts.UseVips && vipsErr == nil)
}

// seedContent loads the seed document, or the built-in defaults, into the
// database. Existing rows are never overwritten.
func seedContent(ctx context.Context, db *database.Database, contentFile string) {
	source := "built-in defaults"
	p := content.Defaults()
	if contentFile != "" {
		loaded, err := content.Load(contentFile)
		if err != nil {
			startup.LogContentSeeded(contentFile, 0, err)
			return
		}
		source = contentFile
		p = loaded
	}

	created, err := db.Seed(ctx, p)
	startup.LogContentSeeded(source, created, err)
	if err != nil {
		return
	}
	if err := db.SetMetadata(ctx, database.MetaContentSeeded, time.Now().UTC().Format(time.RFC3339)); err != nil {
		logging.Warn("Failed to record content seeding: %v", err)
	}
}

// startUploadWatcher processes images dropped into the upload directory
// and mirrors the derived files.
func startUploadWatcher(ctx context.Context, pipeline *images.Pipeline, publisher publish.Publisher, config *startup.Config) (*watcher.Watcher, error) {
	opts := config.ImageOptions().Process()
	w, err := watcher.New(pipeline, opts, 0)
	if err != nil {
		return nil, err
	}
	if err := w.Add(config.UploadDir); err != nil {
		w.Close()
		return nil, err
	}

	if _, off := publisher.(publish.Nop); !off {
		w.OnProcessed = func(ctx context.Context, result *images.Result) {
			if err := publisher.Publish(ctx, result.Source, relKey(config.UploadDir, result.Source)); err != nil {
				logging.Warn("Mirror of %s failed: %v", result.Source, err)
			}
			if _, err := publish.PublishResult(ctx, publisher, config.UploadDir, result); err != nil {
				logging.Warn("Mirror of %s incomplete: %v", result.Source, err)
			}
		}
	}

	go func() {
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logging.Error("Upload watcher stopped: %v", err)
		}
	}()
	return w, nil
}

func relKey(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return filepath.Base(p)
	}
	return filepath.ToSlash(rel)
}

func setupRouter(h *handlers.Handlers, config *startup.Config, contactLimiter *middleware.RateLimiter) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// Pages
	r.HandleFunc("/", h.Home).Methods("GET", "HEAD")
	r.HandleFunc("/blog", h.Blog).Methods("GET", "HEAD")
	r.Handle("/contact", middleware.Chain(http.HandlerFunc(h.Contact),
		func(next http.Handler) http.Handler { return contactLimiter.Handler(next, http.MethodPost) },
		middleware.MaxBody(64<<10),
	)).Methods("POST")
	r.HandleFunc("/download-resume", h.DownloadResume).Methods("GET", "HEAD")

	// Images and uploads with WebP negotiation
	r.HandleFunc("/images/{path:.*}", h.ServeImage).Methods("GET", "HEAD")
	r.HandleFunc("/uploads/{path:.*}", h.ServeUpload).Methods("GET", "HEAD")

	// Static site assets
	for _, dir := range []string{"css", "js", "files"} {
		prefix := "/" + dir + "/"
		r.PathPrefix(prefix).Handler(h.SiteAssets(prefix, dir)).Methods("GET", "HEAD")
	}

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(h.AdminOnly)
	api.Handle("/upload", middleware.MaxBody(config.MaxUploadBytes+1<<20)(http.HandlerFunc(h.Upload))).Methods("POST")
	api.HandleFunc("/images/optimize", h.Optimize).Methods("POST")
	api.HandleFunc("/messages", h.ListMessages).Methods("GET")
	api.HandleFunc("/messages/{id:[0-9]+}/read", h.MarkMessageRead).Methods("POST")

	r.NotFoundHandler = http.HandlerFunc(h.NotFound)

	return r
}

func shutdown(srv, metricsSrv *http.Server, collector *metrics.Collector, vips bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	if vips {
		startup.LogShutdownStep("Shutting down libvips")
		images.ShutdownVips()
		startup.LogShutdownStepComplete("libvips shut down")
	}

	startup.LogShutdownComplete()
}
