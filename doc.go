// Command portfolio-site serves a personal portfolio: the home page with
// skills, services, projects, experience and education, a blog page, the
// contact form and the image pipeline behind every picture on the site.
//
// # Application Lifecycle
//
//  1. Configuration Loading: reads environment variables and prepares directories
//  2. Database Initialization: opens the SQLite database and creates the schema
//  3. Content Seeding: loads CONTENT_FILE (YAML) or built-in defaults; existing rows are kept
//  4. Image Pipeline: starts libvips when VIPS_ENABLED is set, otherwise libwebp
//  5. Optional Services: S3 mirroring of derived images and the upload watcher
//  6. HTTP Server Setup: routes, middleware and the metrics server
//  7. Graceful Shutdown: SIGINT/SIGTERM stop both servers within 30 seconds
//
// # HTTP Server
//
// The main server (PORT, default 8080) serves the pages, /images/ and
// /uploads/ with WebP negotiation, the static css/js/files directories and
// the admin API under /api/ (HTTP Basic, user "admin", bcrypt hash from
// ADMIN_PASSWORD_HASH). The metrics server (METRICS_PORT, default 9090)
// exposes /metrics.
//
// # Environment Variables
//
//   - SITE_DIR: templates, css, js and files (default: ./site)
//   - IMAGES_DIR: image root served under /images/ (default: ./images)
//   - UPLOAD_DIR: upload target served under /uploads/ (default: ./static/uploads)
//   - VARIANT_DIR: directory for width variants, relative to each source (default: beside the source)
//   - DATABASE_DIR: SQLite database directory (default: ./data)
//   - CONTENT_FILE: YAML seed document
//   - IMAGE_QUALITY, IMAGE_WIDTHS, MAX_UPLOAD_MB, VIPS_ENABLED, WATCH_UPLOADS
//   - ADMIN_PASSWORD_HASH: bcrypt hash, see cmd/hashpw
//   - CONTACT_RATE_LIMIT: contact submissions per minute per client
//   - TRUSTED_PROXIES: IPs or CIDRs of reverse proxies whose X-Forwarded-For
//     is used to identify rate-limited clients
//   - S3_BUCKET, S3_REGION, S3_ENDPOINT, S3_ACCESS_KEY_ID, S3_SECRET_ACCESS_KEY, S3_PREFIX
//   - LOG_LEVEL, LOG_STATIC_FILES, LOG_HEALTH_CHECKS
//
// # Related Commands
//
//   - cmd/imgopt: batch and watch-mode image optimization
//   - cmd/hashpw: creates and checks admin password hashes
package main
