package database

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Metadata keys
const (
	// MetaLastBatchRun holds the RFC 3339 time of the last completed image batch.
	MetaLastBatchRun = "last_batch_run"
	// MetaContentSeeded holds the source of the last content seed.
	MetaContentSeeded = "content_seeded"
)

// GetMetadata retrieves a metadata value by key. A missing key yields "".
func (d *Database) GetMetadata(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	d.mu.RLock()
	defer d.mu.RUnlock()

	var value string
	err := d.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// SetMetadata sets a metadata value.
func (d *Database) SetMetadata(ctx context.Context, key, value string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	d.mu.Lock()
	defer d.mu.Unlock()

	_, err := d.db.ExecContext(ctx, "INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)", key, value)
	return err
}

// LastBatchRun returns when the last image batch finished, or the zero time.
func (d *Database) LastBatchRun(ctx context.Context) (time.Time, error) {
	v, err := d.GetMetadata(ctx, MetaLastBatchRun)
	if err != nil || v == "" {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, v)
}

// SetLastBatchRun records the completion time of an image batch.
func (d *Database) SetLastBatchRun(ctx context.Context, t time.Time) error {
	return d.SetMetadata(ctx, MetaLastBatchRun, t.UTC().Format(time.RFC3339))
}
