package startup

import (
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"portfolio-site/internal/images"
	"portfolio-site/internal/logging"
	"portfolio-site/internal/publish"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	SiteDir     string
	ImagesDir   string
	UploadDir   string
	VariantDir  string
	DatabaseDir string
	ContentFile string

	Port           string
	MetricsPort    string
	MetricsEnabled bool

	ImageQuality   int
	ImageWidths    []int
	MaxUploadBytes int64
	VipsEnabled    bool
	WatchUploads   bool

	AdminPasswordHash string
	ContactRateLimit  int
	TrustedProxies    []netip.Prefix

	ResumeFile         string
	ResumeDownloadName string

	S3 publish.S3Config

	LogStaticFiles  bool
	LogHealthChecks bool

	// Derived paths
	DatabasePath string

	// Feature flags based on directory availability
	UploadsEnabled bool
}

// ImageOptions returns the image pipeline options for this configuration.
func (c *Config) ImageOptions() images.Options {
	return images.Options{
		Quality:    c.ImageQuality,
		Widths:     append([]int(nil), c.ImageWidths...),
		VariantDir: c.VariantDir,
		UseVips:    c.VipsEnabled,
	}
}

// AdminEnabled reports whether the protected endpoints are usable.
func (c *Config) AdminEnabled() bool {
	return c.AdminPasswordHash != ""
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	siteDir := getEnv("SITE_DIR", "./site")
	imagesDir := getEnv("IMAGES_DIR", "./images")
	uploadDir := getEnv("UPLOAD_DIR", "./static/uploads")
	variantDir := getEnv("VARIANT_DIR", "")
	databaseDir := getEnv("DATABASE_DIR", "./data")
	contentFile := getEnv("CONTENT_FILE", "")
	port := getEnv("PORT", "8080")
	metricsPort := getEnv("METRICS_PORT", "9090")
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	quality := getEnvInt("IMAGE_QUALITY", images.DefaultQuality)
	widthsStr := getEnv("IMAGE_WIDTHS", "300,600,900,1200")
	maxUploadMB := getEnvInt("MAX_UPLOAD_MB", 16)
	vipsEnabled := getEnvBool("VIPS_ENABLED", true)
	watchUploads := getEnvBool("WATCH_UPLOADS", false)
	adminHash := getEnv("ADMIN_PASSWORD_HASH", "")
	contactRate := getEnvInt("CONTACT_RATE_LIMIT", 5)
	proxiesStr := getEnv("TRUSTED_PROXIES", "")
	resumeFile := getEnv("RESUME_FILE", "files/resume.pdf")
	resumeName := getEnv("RESUME_DOWNLOAD_NAME", "resume.pdf")
	logStaticFiles := getEnvBool("LOG_STATIC_FILES", false)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", true)
	s3 := publish.S3Config{
		Bucket:          getEnv("S3_BUCKET", ""),
		Region:          getEnv("S3_REGION", ""),
		Endpoint:        getEnv("S3_ENDPOINT", ""),
		AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		Prefix:          getEnv("S3_PREFIX", ""),
	}

	logging.Info("  SITE_DIR:            %s", siteDir)
	logging.Info("  IMAGES_DIR:          %s", imagesDir)
	logging.Info("  UPLOAD_DIR:          %s", uploadDir)
	logging.Info("  VARIANT_DIR:         %s", valueOr(variantDir, "(beside source)"))
	logging.Info("  DATABASE_DIR:        %s", databaseDir)
	logging.Info("  CONTENT_FILE:        %s", valueOr(contentFile, "(built-in defaults)"))
	logging.Info("  PORT:                %s", port)
	logging.Info("  METRICS_PORT:        %s", metricsPort)
	logging.Info("  METRICS_ENABLED:     %v", metricsEnabled)
	logging.Info("  IMAGE_QUALITY:       %d", quality)
	logging.Info("  IMAGE_WIDTHS:        %s", widthsStr)
	logging.Info("  MAX_UPLOAD_MB:       %d", maxUploadMB)
	logging.Info("  VIPS_ENABLED:        %v", vipsEnabled)
	logging.Info("  WATCH_UPLOADS:       %v", watchUploads)
	logging.Info("  ADMIN_PASSWORD_HASH: %s", setString(adminHash != ""))
	logging.Info("  CONTACT_RATE_LIMIT:  %d/min", contactRate)
	logging.Info("  TRUSTED_PROXIES:     %s", valueOr(proxiesStr, "(none)"))
	logging.Info("  S3_BUCKET:           %s", valueOr(s3.Bucket, "(disabled)"))
	logging.Info("  LOG_STATIC_FILES:    %v", logStaticFiles)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", logHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	if quality < 1 || quality > 100 {
		return nil, fmt.Errorf("IMAGE_QUALITY must be between 1 and 100, got %d", quality)
	}

	widths, err := ParseWidths(widthsStr)
	if err != nil {
		return nil, fmt.Errorf("invalid IMAGE_WIDTHS: %w", err)
	}

	proxies, err := ParseTrustedProxies(proxiesStr)
	if err != nil {
		return nil, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}

	if maxUploadMB <= 0 {
		logging.Warn("  Invalid MAX_UPLOAD_MB, using default: 16")
		maxUploadMB = 16
	}
	if contactRate <= 0 {
		logging.Warn("  Invalid CONTACT_RATE_LIMIT, using default: 5")
		contactRate = 5
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	for _, dir := range []struct {
		name string
		path *string
	}{
		{"site", &siteDir},
		{"images", &imagesDir},
		{"upload", &uploadDir},
		{"database", &databaseDir},
	} {
		abs, err := filepath.Abs(*dir.path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s directory path: %w", dir.name, err)
		}
		*dir.path = abs
		logging.Info("  %-9s directory (absolute): %s", dir.name, abs)
	}

	// Site and image directories are content; missing ones only warn
	if err := ensureDirectory(siteDir, "site"); err != nil {
		logging.Warn("  Site directory issue: %v", err)
	}
	if err := ensureDirectory(imagesDir, "images"); err != nil {
		logging.Warn("  Images directory issue: %v", err)
	}

	config := &Config{
		SiteDir:            siteDir,
		ImagesDir:          imagesDir,
		UploadDir:          uploadDir,
		VariantDir:         variantDir,
		DatabaseDir:        databaseDir,
		ContentFile:        contentFile,
		Port:               port,
		MetricsPort:        metricsPort,
		MetricsEnabled:     metricsEnabled,
		ImageQuality:       quality,
		ImageWidths:        widths,
		MaxUploadBytes:     int64(maxUploadMB) << 20,
		VipsEnabled:        vipsEnabled,
		WatchUploads:       watchUploads,
		AdminPasswordHash:  adminHash,
		ContactRateLimit:   contactRate,
		TrustedProxies:     proxies,
		ResumeFile:         resumeFile,
		ResumeDownloadName: resumeName,
		S3:                 s3,
		LogStaticFiles:     logStaticFiles,
		LogHealthChecks:    logHealthChecks,
		DatabasePath:       filepath.Join(databaseDir, "portfolio.db"),
	}

	// Ensure base database directory exists (required for database)
	if err := ensureDirectory(databaseDir, "database"); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}

	// Test write access for database (required)
	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(databaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable (required for database): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	// Upload directory (optional)
	config.UploadsEnabled = setupOptionalDir(config.UploadDir, "uploads")

	// Summary
	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Database:    ENABLED (required)")
	logging.Info("    Uploads:     %s", enabledString(config.UploadsEnabled && config.AdminEnabled()))
	logging.Info("    Admin API:   %s", enabledString(config.AdminEnabled()))
	logging.Info("    Watcher:     %s", enabledString(config.WatchUploads && config.UploadsEnabled))
	logging.Info("    S3 mirror:   %s", enabledString(config.S3.Enabled()))
	logging.Info("    Metrics:     %s", enabledString(config.MetricsEnabled))

	return config, nil
}

// ParseWidths parses a comma-separated list of positive widths.
func ParseWidths(s string) ([]int, error) {
	var widths []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		w, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("width %q is not a number", part)
		}
		if w <= 0 {
			return nil, fmt.Errorf("width %d must be positive", w)
		}
		widths = append(widths, w)
	}
	if len(widths) == 0 {
		return nil, fmt.Errorf("no widths given")
	}
	return widths, nil
}

// ParseTrustedProxies parses a comma-separated list of IP addresses and CIDR
// networks. An empty list trusts no proxy.
func ParseTrustedProxies(s string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, "/") {
			p, err := netip.ParsePrefix(part)
			if err != nil {
				return nil, err
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(part)
		if err != nil {
			return nil, err
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

func setupOptionalDir(path, name string) bool {
	logging.Debug("  Setting up %s directory: %s", name, path)

	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Warn("    Failed to create %s directory: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	if err := testWriteAccess(path); err != nil {
		logging.Warn("    %s directory is not writable: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	logging.Debug("    [OK] %s directory ready", name)
	return true
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func setString(set bool) string {
	if set {
		return "(set)"
	}
	return "(not set)"
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogContentSeeded logs the result of seeding portfolio content
func LogContentSeeded(source string, created int, err error) {
	if err != nil {
		logging.Warn("  Content seeding from %s failed: %v", source, err)
		return
	}
	logging.Info("  [OK] Content seeded from %s (%d new records)", source, created)
}

// LogImagePipelineInit logs image pipeline configuration and libvips state
func LogImagePipelineInit(opts images.Options, vipsErr error) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("IMAGE PIPELINE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Quality:  %d", opts.Quality)
	logging.Info("  Widths:   %v", opts.Widths)

	switch {
	case !opts.UseVips:
		logging.Info("  WebP encoder: libwebp (libvips disabled)")
	case vipsErr != nil:
		logging.Warn("  libvips unavailable: %v", vipsErr)
		logging.Warn("  WebP encoder: libwebp")
	default:
		logging.Info("  [OK] WebP encoder: libvips")
	}
}

// LogWatcherInit logs upload watcher startup
func LogWatcherInit(dir string, err error) {
	if err != nil {
		logging.Warn("  Upload watcher failed to start on %s: %v", dir, err)
		return
	}
	logging.Info("  [OK] Watching %s for new uploads", dir)
}

// LogPublisherInit logs object storage mirroring state
func LogPublisherInit(cfg publish.S3Config, err error) {
	if !cfg.Enabled() {
		logging.Debug("  S3 mirror disabled (S3_BUCKET not set)")
		return
	}
	if err != nil {
		logging.Warn("  S3 mirror disabled: %v", err)
		return
	}
	logging.Info("  [OK] Mirroring derived images to s3://%s/%s", cfg.Bucket, cfg.Prefix)
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			pathTemplate, err = route.GetPathRegexp()
			if err != nil {
				return nil
			}
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Prefix routes (static file servers) have no methods
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logStaticFiles, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}

			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logStaticFiles {
		logging.Info("    Static file logging: ON")
	} else {
		logging.Info("    Static file logging: OFF (set LOG_STATIC_FILES=true to enable)")
	}
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Site:          http://0.0.0.0:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Local access:")
	logging.Info("    Site:          http://localhost:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://localhost:%s/metrics", config.MetricsPort)
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
    ____             __  ____      ___
   / __ \____  _____/ /_/ __/___  / (_)___
  / /_/ / __ \/ ___/ __/ /_/ __ \/ / / __ \
 / ____/ /_/ / /  / /_/ __/ /_/ / / / /_/ /
/_/    \____/_/   \__/_/  \____/_/_/\____/

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
