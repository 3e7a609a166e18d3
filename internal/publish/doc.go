// Package publish mirrors derived images to object storage so they can be
// served from a CDN. The S3 implementation works with AWS and with any
// S3-compatible endpoint (MinIO, R2) through S3_ENDPOINT.
package publish
