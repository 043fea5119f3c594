package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/avdonin/openlobby/internal/model"
)

// AccountRepository provides access to account rows.
type AccountRepository struct {
	db *DB
}

// NewAccountRepository creates an account repository.
func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// GetByLogin returns the account for the given login.
// Returns nil, nil if the account does not exist.
func (r *AccountRepository) GetByLogin(ctx context.Context, login string) (*model.Account, error) {
	login = strings.ToLower(login)
	var acc model.Account
	err := r.db.pool.QueryRow(ctx,
		`SELECT id, login, password, access_level, last_ip, last_active
		 FROM accounts WHERE login = $1`, login,
	).Scan(&acc.ID, &acc.Login, &acc.PasswordHash, &acc.AccessLevel, &acc.LastIP, &acc.LastActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying account %q: %w", login, err)
	}
	return &acc, nil
}

// GetByID returns the account with the given id.
// Returns nil, nil if the account does not exist.
func (r *AccountRepository) GetByID(ctx context.Context, accountID int64) (*model.Account, error) {
	var acc model.Account
	err := r.db.pool.QueryRow(ctx,
		`SELECT id, login, password, access_level, last_ip, last_active
		 FROM accounts WHERE id = $1`, accountID,
	).Scan(&acc.ID, &acc.Login, &acc.PasswordHash, &acc.AccessLevel, &acc.LastIP, &acc.LastActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying account %d: %w", accountID, err)
	}
	return &acc, nil
}

// Create inserts a new account and returns it.
func (r *AccountRepository) Create(ctx context.Context, login, passwordHash, ip string) (*model.Account, error) {
	login = strings.ToLower(login)
	var id int64
	err := r.db.pool.QueryRow(ctx,
		`INSERT INTO accounts (login, password, access_level, last_ip, last_active)
		 VALUES ($1, $2, 0, $3, $4)
		 RETURNING id`,
		login, passwordHash, ip, time.Now(),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("creating account %q: %w", login, err)
	}
	return &model.Account{
		ID:           id,
		Login:        login,
		PasswordHash: passwordHash,
		LastIP:       ip,
		LastActive:   time.Now(),
	}, nil
}

// UpdateLastLogin records the successful login time and source IP.
func (r *AccountRepository) UpdateLastLogin(ctx context.Context, accountID int64, ip string) error {
	_, err := r.db.pool.Exec(ctx,
		`UPDATE accounts SET last_active = $1, last_ip = $2 WHERE id = $3`,
		time.Now(), ip, accountID,
	)
	if err != nil {
		return fmt.Errorf("updating last login for account %d: %w", accountID, err)
	}
	return nil
}
