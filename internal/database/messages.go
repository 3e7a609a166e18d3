package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"portfolio-site/internal/content"
)

// SaveContactMessage stores a contact form submission. It assigns the ID, a
// random public reference and, when unset, DateSent.
func (d *Database) SaveContactMessage(ctx context.Context, msg *content.ContactMessage) (err error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	start := time.Now()
	defer func() { recordQuery("save_contact_message", start, err) }()

	if msg.Reference == "" {
		msg.Reference = uuid.NewString()
	}
	if msg.DateSent.IsZero() {
		msg.DateSent = time.Now()
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	res, err := d.db.ExecContext(ctx, `
		INSERT INTO contact_messages (reference, name, email, subject, message, date_sent, is_read)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, msg.Reference, msg.Name, msg.Email, msg.Subject, msg.Message, msg.DateSent.Unix(), boolToInt(msg.IsRead))
	if err != nil {
		return fmt.Errorf("insert contact message: %w", err)
	}

	msg.ID, err = res.LastInsertId()
	return err
}

// ListContactMessages returns contact messages newest first.
func (d *Database) ListContactMessages(ctx context.Context, unreadOnly bool) (msgs []content.ContactMessage, err error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	start := time.Now()
	defer func() { recordQuery("list_contact_messages", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	query := `SELECT id, reference, name, email, subject, message, date_sent, is_read FROM contact_messages`
	if unreadOnly {
		query += ` WHERE is_read = 0`
	}
	query += ` ORDER BY date_sent DESC, id DESC`

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs = []content.ContactMessage{}
	for rows.Next() {
		var m content.ContactMessage
		var sent int64
		var read int
		if err = rows.Scan(&m.ID, &m.Reference, &m.Name, &m.Email, &m.Subject, &m.Message, &sent, &read); err != nil {
			return nil, err
		}
		m.DateSent = time.Unix(sent, 0)
		m.IsRead = read != 0
		msgs = append(msgs, m)
	}
	err = rows.Err()
	return msgs, err
}

// MarkMessageRead flags a message as read. Returns ErrNotFound for an
// unknown ID.
func (d *Database) MarkMessageRead(ctx context.Context, id int64) (err error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	start := time.Now()
	defer func() { recordQuery("mark_message_read", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	res, err := d.db.ExecContext(ctx, `UPDATE contact_messages SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
