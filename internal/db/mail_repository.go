package db

import (
	"context"
	"fmt"
	"time"
)

// Mail is a persisted in-game mail row.
type Mail struct {
	ID         int64
	FromCharID uint32
	ToCharID   uint32
	Subject    string
	Body       string
	SentAt     time.Time
	Read       bool
}

// MailRepository provides access to in-game mail.
type MailRepository struct {
	db *DB
}

// NewMailRepository creates a mail repository.
func NewMailRepository(db *DB) *MailRepository {
	return &MailRepository{db: db}
}

// Send stores a new mail for the recipient.
func (r *MailRepository) Send(ctx context.Context, fromCharID, toCharID uint32, subject, body string) (int64, error) {
	var id int64
	err := r.db.pool.QueryRow(ctx,
		`INSERT INTO mail (from_character_id, to_character_id, subject, body, sent_at, read)
		 VALUES ($1, $2, $3, $4, $5, false)
		 RETURNING id`,
		fromCharID, toCharID, subject, body, time.Now(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("sending mail from %d to %d: %w", fromCharID, toCharID, err)
	}
	return id, nil
}

// Inbox returns the recipient's mail, newest first.
func (r *MailRepository) Inbox(ctx context.Context, charID uint32, limit int) ([]*Mail, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.pool.Query(ctx,
		`SELECT id, from_character_id, to_character_id, subject, body, sent_at, read
		 FROM mail WHERE to_character_id = $1
		 ORDER BY sent_at DESC LIMIT $2`, charID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying inbox of %d: %w", charID, err)
	}
	defer rows.Close()

	var mails []*Mail
	for rows.Next() {
		var m Mail
		if err := rows.Scan(&m.ID, &m.FromCharID, &m.ToCharID, &m.Subject, &m.Body, &m.SentAt, &m.Read); err != nil {
			return nil, fmt.Errorf("scanning mail row: %w", err)
		}
		mails = append(mails, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating inbox: %w", err)
	}
	return mails, nil
}

// MarkRead flags a mail as read. The recipient check prevents marking
// someone else's mail through a forged packet.
func (r *MailRepository) MarkRead(ctx context.Context, charID uint32, mailID int64) error {
	_, err := r.db.pool.Exec(ctx,
		`UPDATE mail SET read = true WHERE id = $1 AND to_character_id = $2`,
		mailID, charID)
	if err != nil {
		return fmt.Errorf("marking mail %d read: %w", mailID, err)
	}
	return nil
}
