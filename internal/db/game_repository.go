package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/avdonin/openlobby/internal/game/room"
	"github.com/avdonin/openlobby/internal/model"
)

// GameRepository persists game lifecycle transitions.
// Implements room.GameStore.
type GameRepository struct {
	db *DB
}

// NewGameRepository creates a game repository.
func NewGameRepository(db *DB) *GameRepository {
	return &GameRepository{db: db}
}

var _ room.GameStore = (*GameRepository)(nil)

// InsertGame persists a new game and its host membership in one transaction.
func (r *GameRepository) InsertGame(ctx context.Context, g room.GameRecord) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO games (id, name, lobby_id, host_character_id, max_players, passworded)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			g.ID, g.Name, g.LobbyID, g.HostCharID, g.MaxPlayers, g.Passworded)
		if err != nil {
			return fmt.Errorf("inserting game %d: %w", g.ID, err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO game_players (game_id, character_id, team)
			 VALUES ($1, $2, 0)`,
			g.ID, g.HostCharID)
		if err != nil {
			return fmt.Errorf("inserting host membership for game %d: %w", g.ID, err)
		}
		return nil
	})
}

// DeleteGame removes the game row and its memberships in one transaction.
func (r *GameRepository) DeleteGame(ctx context.Context, gameID int32) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM game_players WHERE game_id = $1`, gameID); err != nil {
			return fmt.Errorf("deleting memberships of game %d: %w", gameID, err)
		}
		if _, err := tx.Exec(ctx,
			`DELETE FROM games WHERE id = $1`, gameID); err != nil {
			return fmt.Errorf("deleting game %d: %w", gameID, err)
		}
		return nil
	})
}

// AddPlayer persists a new membership.
func (r *GameRepository) AddPlayer(ctx context.Context, gameID int32, charID uint32, team int32) error {
	_, err := r.db.pool.Exec(ctx,
		`INSERT INTO game_players (game_id, character_id, team)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (character_id) DO UPDATE SET game_id = $1, team = $3`,
		gameID, charID, team)
	if err != nil {
		return fmt.Errorf("inserting membership of %d in game %d: %w", charID, gameID, err)
	}
	return nil
}

// RemovePlayer deletes a membership.
func (r *GameRepository) RemovePlayer(ctx context.Context, gameID int32, charID uint32) error {
	_, err := r.db.pool.Exec(ctx,
		`DELETE FROM game_players WHERE game_id = $1 AND character_id = $2`,
		gameID, charID)
	if err != nil {
		return fmt.Errorf("deleting membership of %d in game %d: %w", charID, gameID, err)
	}
	return nil
}

// SetHost updates the persisted host reference.
func (r *GameRepository) SetHost(ctx context.Context, gameID int32, charID uint32) error {
	_, err := r.db.pool.Exec(ctx,
		`UPDATE games SET host_character_id = $2 WHERE id = $1`,
		gameID, charID)
	if err != nil {
		return fmt.Errorf("updating host of game %d: %w", gameID, err)
	}
	return nil
}

// PurgeAll clears game state left over from a previous process. Rooms are
// in-memory entities; rows without a live process are garbage.
func (r *GameRepository) PurgeAll(ctx context.Context) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM game_players`); err != nil {
			return fmt.Errorf("purging game players: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM games`); err != nil {
			return fmt.Errorf("purging games: %w", err)
		}
		return nil
	})
}

// LoadLobbies reads the static lobby list, populated at startup and
// read-only thereafter.
func (r *GameRepository) LoadLobbies(ctx context.Context) ([]*model.Lobby, error) {
	rows, err := r.db.pool.Query(ctx,
		`SELECT id, name, subtype FROM lobbies ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying lobbies: %w", err)
	}
	defer rows.Close()

	var lobbies []*model.Lobby
	for rows.Next() {
		var l model.Lobby
		if err := rows.Scan(&l.ID, &l.Name, &l.Subtype); err != nil {
			return nil, fmt.Errorf("scanning lobby row: %w", err)
		}
		lobbies = append(lobbies, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lobbies: %w", err)
	}
	return lobbies, nil
}
