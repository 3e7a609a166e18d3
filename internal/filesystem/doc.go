/*
Package filesystem wraps the handful of os calls the image pipeline makes
(stat, open, readdir, rename) with retry logic for NFS stale file handle
errors.

Upload and image directories are frequently bind-mounted network shares. A
transient ESTALE (errno 116) while the server refreshes its handles should not
turn into a failed upload, so each helper retries with capped exponential
backoff. Any other error is returned immediately.

Usage:

	info, err := filesystem.StatWithRetry("/srv/images/photo.png", filesystem.DefaultRetryConfig())

Metrics are reported through an [Observer] installed with [SetObserver]; the
metrics package provides the Prometheus implementation. Paths are labelled
with a volume name by a [VolumeResolver] so that, for example, operations on
the upload share and the public image root are reported separately.
*/
package filesystem
