package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ErrClanNameTaken reports a clan name collision on create.
var ErrClanNameTaken = errors.New("clan name already taken")

// Clan is a persisted clan row.
type Clan struct {
	ID           int64
	Name         string
	LeaderCharID uint32
	MemberCount  int32
}

// ClanRepository provides access to clan rows.
type ClanRepository struct {
	db *DB
}

// NewClanRepository creates a clan repository.
func NewClanRepository(db *DB) *ClanRepository {
	return &ClanRepository{db: db}
}

// Create founds a clan with the given leader. Creation and the leader's
// membership update run in one transaction.
func (r *ClanRepository) Create(ctx context.Context, name string, leaderCharID uint32) (*Clan, error) {
	var taken bool
	err := r.db.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM clans WHERE lower(name) = lower($1))`, name,
	).Scan(&taken)
	if err != nil {
		return nil, fmt.Errorf("checking clan name %q: %w", name, err)
	}
	if taken {
		return nil, ErrClanNameTaken
	}

	var id int64
	err = r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx,
			`INSERT INTO clans (name, leader_character_id) VALUES ($1, $2) RETURNING id`,
			name, leaderCharID,
		).Scan(&id); err != nil {
			return fmt.Errorf("inserting clan %q: %w", name, err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE characters SET clan_id = $1 WHERE id = $2`, id, leaderCharID); err != nil {
			return fmt.Errorf("assigning leader %d to clan: %w", leaderCharID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Clan{ID: id, Name: name, LeaderCharID: leaderCharID, MemberCount: 1}, nil
}

// GetByID returns a clan with its member count, or nil, nil if absent.
func (r *ClanRepository) GetByID(ctx context.Context, clanID int64) (*Clan, error) {
	var c Clan
	err := r.db.pool.QueryRow(ctx,
		`SELECT c.id, c.name, c.leader_character_id,
		        (SELECT count(*) FROM characters WHERE clan_id = c.id)
		 FROM clans c WHERE c.id = $1`, clanID,
	).Scan(&c.ID, &c.Name, &c.LeaderCharID, &c.MemberCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying clan %d: %w", clanID, err)
	}
	return &c, nil
}

// MemberNames returns the names of the clan's characters.
func (r *ClanRepository) MemberNames(ctx context.Context, clanID int64) ([]string, error) {
	rows, err := r.db.pool.Query(ctx,
		`SELECT name FROM characters WHERE clan_id = $1 ORDER BY name`, clanID)
	if err != nil {
		return nil, fmt.Errorf("querying members of clan %d: %w", clanID, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning member name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating clan members: %w", err)
	}
	return names, nil
}
