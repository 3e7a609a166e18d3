// Package logging provides a small leveled logger for the portfolio server
// and its command-line tools.
//
// Levels, in increasing severity:
//   - DEBUG: pipeline decisions (cache hits, resize dimensions)
//   - INFO: lifecycle and per-image results
//   - WARN: recoverable problems (a single variant failed)
//   - ERROR: failed requests and failed images
//   - FATAL: startup errors that terminate the process
//
// The level comes from DEBUG or LOG_LEVEL unless [SetLevel] overrides it.
package logging
