package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/avdonin/openlobby/internal/model"
)

// ErrNameTaken reports a character name collision on create.
var ErrNameTaken = errors.New("character name already taken")

// CharacterRepository provides access to character rows.
type CharacterRepository struct {
	db *DB
}

// NewCharacterRepository creates a character repository.
func NewCharacterRepository(db *DB) *CharacterRepository {
	return &CharacterRepository{db: db}
}

// ListByAccount returns all characters owned by the account.
func (r *CharacterRepository) ListByAccount(ctx context.Context, accountID int64) ([]*model.Character, error) {
	rows, err := r.db.pool.Query(ctx,
		`SELECT id, account_id, name, rank, exp, wins, losses, clan_id
		 FROM characters WHERE account_id = $1 ORDER BY id`, accountID)
	if err != nil {
		return nil, fmt.Errorf("querying characters for account %d: %w", accountID, err)
	}
	defer rows.Close()

	var chars []*model.Character
	for rows.Next() {
		var c model.Character
		if err := rows.Scan(&c.ID, &c.AccountID, &c.Name, &c.Rank, &c.Exp, &c.Wins, &c.Losses, &c.ClanID); err != nil {
			return nil, fmt.Errorf("scanning character row: %w", err)
		}
		chars = append(chars, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating characters: %w", err)
	}
	return chars, nil
}

// GetByID returns a character by id, or nil, nil if absent.
func (r *CharacterRepository) GetByID(ctx context.Context, charID uint32) (*model.Character, error) {
	var c model.Character
	err := r.db.pool.QueryRow(ctx,
		`SELECT id, account_id, name, rank, exp, wins, losses, clan_id
		 FROM characters WHERE id = $1`, charID,
	).Scan(&c.ID, &c.AccountID, &c.Name, &c.Rank, &c.Exp, &c.Wins, &c.Losses, &c.ClanID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying character %d: %w", charID, err)
	}
	return &c, nil
}

// GetByName returns a character by name, or nil, nil if absent.
// The lookup is case-insensitive to match the client's name entry.
func (r *CharacterRepository) GetByName(ctx context.Context, name string) (*model.Character, error) {
	var c model.Character
	err := r.db.pool.QueryRow(ctx,
		`SELECT id, account_id, name, rank, exp, wins, losses, clan_id
		 FROM characters WHERE lower(name) = lower($1)`, name,
	).Scan(&c.ID, &c.AccountID, &c.Name, &c.Rank, &c.Exp, &c.Wins, &c.Losses, &c.ClanID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying character %q: %w", name, err)
	}
	return &c, nil
}

// Create inserts a new character for the account.
func (r *CharacterRepository) Create(ctx context.Context, accountID int64, name string) (*model.Character, error) {
	var taken bool
	err := r.db.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM characters WHERE lower(name) = lower($1))`, name,
	).Scan(&taken)
	if err != nil {
		return nil, fmt.Errorf("checking character name %q: %w", name, err)
	}
	if taken {
		return nil, ErrNameTaken
	}

	var id uint32
	err = r.db.pool.QueryRow(ctx,
		`INSERT INTO characters (account_id, name, rank, exp, wins, losses, clan_id)
		 VALUES ($1, $2, 0, 0, 0, 0, 0)
		 RETURNING id`,
		accountID, name,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("creating character %q: %w", name, err)
	}
	return &model.Character{ID: id, AccountID: accountID, Name: name}, nil
}

// Delete removes a character. The account check prevents deleting someone
// else's character through a forged packet.
func (r *CharacterRepository) Delete(ctx context.Context, accountID int64, charID uint32) error {
	tag, err := r.db.pool.Exec(ctx,
		`DELETE FROM characters WHERE id = $1 AND account_id = $2`, charID, accountID)
	if err != nil {
		return fmt.Errorf("deleting character %d: %w", charID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("character %d not found for account %d", charID, accountID)
	}
	return nil
}

// RecordResult applies one round's outcome to the character's record.
func (r *CharacterRepository) RecordResult(ctx context.Context, charID uint32, won bool, expGain int64) error {
	var err error
	if won {
		_, err = r.db.pool.Exec(ctx,
			`UPDATE characters SET wins = wins + 1, exp = exp + $2 WHERE id = $1`,
			charID, expGain)
	} else {
		_, err = r.db.pool.Exec(ctx,
			`UPDATE characters SET losses = losses + 1, exp = exp + $2 WHERE id = $1`,
			charID, expGain)
	}
	if err != nil {
		return fmt.Errorf("recording result for character %d: %w", charID, err)
	}
	return nil
}
