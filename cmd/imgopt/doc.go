// Command imgopt converts images to WebP and writes responsive width
// variants, the same way the site does for uploads.
//
// Usage:
//
//	imgopt [flags] <file|dir>
//
// Directories are processed recursively in lexical order; files that are
// already variants are skipped. Derived files are reused while they are
// newer than their source, so repeated runs only touch what changed.
//
// Flags:
//
//	-o dir        write variants to dir, relative to each source or absolute
//	-sizes list   comma-separated variant widths (default 300,600,900,1200)
//	-quality n    encoder quality 1-100 (default 85)
//	-vips         encode WebP through libvips when available (default true)
//	-watch        keep running and process new or changed images
//	-publish      mirror derived files to S3 (S3_BUCKET and friends)
//	-v            debug logging
//
// The exit status is 1 when any file failed.
package main
