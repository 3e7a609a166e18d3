// Package handlers provides the HTTP handlers of the portfolio site.
//
// It includes handlers for:
//   - The rendered pages (home, blog, error pages)
//   - The contact form and the admin message inbox
//   - Image serving with WebP negotiation and responsive variants
//   - Image upload and batch optimisation
//   - Resume download and static site assets
//   - Health checks, version and metrics
package handlers
