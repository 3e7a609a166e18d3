// Package database provides SQLite storage for the portfolio site.
//
// It holds the portfolio content rendered on the home page (skills,
// services, categories, items, experience, education, about, contact
// details, stats), the messages submitted through the contact form, and a
// small key/value metadata table.
//
// The database uses WAL mode for concurrent reads and creates its schema on
// open. Content is seeded with get-or-create semantics, so re-seeding never
// duplicates or overwrites records edited after the first run.
package database
