// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig]:
//
//   - SITE_DIR: templates overrides, css/, js/ and files/ (default: ./site)
//   - IMAGES_DIR: public image root served at /images/ (default: ./images)
//   - UPLOAD_DIR: upload target served at /uploads/ (default: ./static/uploads)
//   - VARIANT_DIR: sub-directory for responsive variants (default: beside source)
//   - DATABASE_DIR: sqlite directory (default: ./data)
//   - CONTENT_FILE: YAML seed for portfolio content (default: built-in)
//   - PORT / METRICS_PORT / METRICS_ENABLED: listeners (default: 8080 / 9090 / true)
//   - IMAGE_QUALITY: encoder quality 1-100 (default: 85)
//   - IMAGE_WIDTHS: variant ladder (default: 300,600,900,1200)
//   - MAX_UPLOAD_MB: upload size limit (default: 16)
//   - VIPS_ENABLED: encode WebP with libvips when available (default: true)
//   - WATCH_UPLOADS: process files dropped into UPLOAD_DIR (default: false)
//   - ADMIN_PASSWORD_HASH: bcrypt hash guarding the admin API
//   - CONTACT_RATE_LIMIT: contact posts per minute per client (default: 5)
//   - S3_BUCKET, S3_REGION, S3_ENDPOINT, S3_ACCESS_KEY_ID,
//     S3_SECRET_ACCESS_KEY, S3_PREFIX: optional mirror of derived images
//   - RESUME_FILE / RESUME_DOWNLOAD_NAME: resume download
//   - LOG_LEVEL, LOG_STATIC_FILES, LOG_HEALTH_CHECKS: logging
//
// [Config.ImageOptions] turns the image settings into the explicit
// images.Options value the pipeline takes.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
package startup
