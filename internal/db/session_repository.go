package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SessionRepository issues and validates session tokens. A token is handed
// out at login and presented again by the game client in the session-check
// packet.
type SessionRepository struct {
	db  *DB
	ttl time.Duration
}

// NewSessionRepository creates a session repository with the given token TTL.
func NewSessionRepository(db *DB, ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionRepository{db: db, ttl: ttl}
}

// Issue creates a fresh session token for the account, replacing any
// previous one (one live token per account).
func (r *SessionRepository) Issue(ctx context.Context, accountID int64) (string, error) {
	token := uuid.NewString()
	_, err := r.db.pool.Exec(ctx,
		`INSERT INTO sessions (account_id, token, expires_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (account_id) DO UPDATE SET token = $2, expires_at = $3`,
		accountID, token, time.Now().Add(r.ttl),
	)
	if err != nil {
		return "", fmt.Errorf("issuing session for account %d: %w", accountID, err)
	}
	return token, nil
}

// Validate resolves a token to its account id.
// Returns 0, nil for unknown or expired tokens.
func (r *SessionRepository) Validate(ctx context.Context, token string) (int64, error) {
	var accountID int64
	err := r.db.pool.QueryRow(ctx,
		`SELECT account_id FROM sessions WHERE token = $1 AND expires_at > $2`,
		token, time.Now(),
	).Scan(&accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("validating session token: %w", err)
	}
	return accountID, nil
}

// Revoke drops the account's session token.
func (r *SessionRepository) Revoke(ctx context.Context, accountID int64) error {
	_, err := r.db.pool.Exec(ctx,
		`DELETE FROM sessions WHERE account_id = $1`, accountID)
	if err != nil {
		return fmt.Errorf("revoking session for account %d: %w", accountID, err)
	}
	return nil
}

// DeleteExpired removes stale tokens. Run periodically from main.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.pool.Exec(ctx,
		`DELETE FROM sessions WHERE expires_at <= $1`, time.Now())
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
