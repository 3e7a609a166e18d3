// Package images implements the image derivative pipeline used by the
// portfolio site and the imgopt tool.
//
// Three pieces cooperate:
//   - [Converter] re-encodes a raster source as WebP, flattening any
//     transparency onto white
//   - [Generator] writes aspect-preserving resized copies named
//     {base}-{width}w.{ext}
//   - [IsFresh] decides whether an existing output can be reused: it is
//     valid when its mtime is not older than the source's
//
// [Pipeline] strings them together for uploads and batch runs, and
// [Resolver] maps incoming /images/ requests to the best file on disk.
// All file access goes through a [Store] so the freshness logic can be
// tested without a disk.
package images
