// Package metrics declares the Prometheus metrics exported by the portfolio
// server and the image tooling.
//
// Metrics are registered on the default registry through promauto and served
// by promhttp on the metrics port. Groups:
//   - HTTP: request counts, durations, in-flight gauge, rate-limit rejections
//   - Database: per-operation query counts and durations
//   - Images: conversions, variants, freshness cache hits/misses, batch runs,
//     serving candidates and object-storage mirroring
//   - Site: uploads, contact submissions, unread messages, portfolio items
//   - Filesystem: per-volume operation latency and NFS retry behaviour
//
// [InitializeMetrics] pre-creates label combinations so dashboards see zero
// values before the first event. [Collector] refreshes gauges that come from
// the database.
package metrics
