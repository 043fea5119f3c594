package lobbyserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/avdonin/openlobby/internal/game/room"
	"github.com/avdonin/openlobby/internal/lobbyserver/clientpackets"
	"github.com/avdonin/openlobby/internal/lobbyserver/serverpackets"
	"github.com/avdonin/openlobby/internal/protocol"
)

// handleGameList returns the rooms of one lobby. Selecting a lobby here
// also moves the connection into it for lobby-scoped chat.
func (h *Handlers) handleGameList(ctx context.Context, c *Client, r *protocol.Reader) error {
	if c.User() == nil {
		return c.SendStatus(OpGameListAck, StatusNotOnline)
	}
	p, err := clientpackets.ParseGameList(r)
	if err != nil {
		return fmt.Errorf("parsing game list request: %w", err)
	}

	lobby := h.lobbies.Get(p.LobbyID)
	if lobby == nil {
		return c.SendStatus(OpGameListAck, StatusNotFound)
	}
	c.SetLobby(lobby)

	pkt := serverpackets.NewGameList(h.rooms.GamesInLobby(p.LobbyID))
	return c.Send(OpGameListAck, pkt.Write())
}

// handleGameDetail returns one room's roster.
func (h *Handlers) handleGameDetail(ctx context.Context, c *Client, r *protocol.Reader) error {
	if c.User() == nil {
		return c.SendStatus(OpGameDetailAck, StatusNotOnline)
	}
	p, err := clientpackets.ParseGameDetail(r)
	if err != nil {
		return fmt.Errorf("parsing game detail request: %w", err)
	}

	g := h.rooms.Get(p.GameID)
	if g == nil {
		return c.SendStatus(OpGameDetailAck, StatusNotFound)
	}
	pkt := serverpackets.NewGameDetail(g)
	return c.Send(OpGameDetailAck, pkt.Write())
}

// handleGameJoin validates the join (room exists, password, capacity) and
// marks the character as joining. Membership becomes real only when the
// host confirms the arrival with a player-connect notification.
func (h *Handlers) handleGameJoin(ctx context.Context, c *Client, r *protocol.Reader) error {
	ch := selectedCharacter(c)
	if ch == nil {
		return c.SendStatus(OpGameJoinAck, StatusNotOnline)
	}
	p, err := clientpackets.ParseGameJoin(r)
	if err != nil {
		return fmt.Errorf("parsing game join request: %w", err)
	}

	g := h.rooms.Get(p.GameID)
	if g == nil {
		return c.SendStatus(OpGameJoinAck, StatusNotFound)
	}
	if !g.CheckPassword(p.Password) {
		slog.Debug("join with wrong password", "game", g.ID(), "char", ch.ID)
		return c.SendStatus(OpGameJoinAck, StatusBadPassword)
	}
	if g.PlayerCount() >= g.MaxPlayers() {
		return c.SendStatus(OpGameJoinAck, StatusFull)
	}
	if cur := h.rooms.FindByCharacter(ch.ID); cur != nil && cur.ID() == g.ID() {
		// Already a member, treat the repeat join as success.
		pkt := serverpackets.NewGameJoinOk(g.ID())
		return c.Send(OpGameJoinAck, pkt.Write())
	}

	h.rooms.MarkJoining(ch.ID, g.ID())
	slog.Info("join approved", "game", g.ID(), "char", ch.ID, "name", ch.Name)

	pkt := serverpackets.NewGameJoinOk(g.ID())
	return c.Send(OpGameJoinAck, pkt.Write())
}

// handleGameQuit removes the character from its current game. A quitting
// host ends the game for everyone.
func (h *Handlers) handleGameQuit(ctx context.Context, c *Client, r *protocol.Reader) error {
	ch := selectedCharacter(c)
	if ch == nil {
		return c.SendStatus(OpGameQuitAck, StatusNotOnline)
	}
	h.rooms.ClearJoining(ch.ID)

	if err := h.rooms.QuitGame(ctx, ch.ID); err != nil {
		if errors.Is(err, room.ErrNotInAnyGame) {
			// Quitting while not in a game is harmless.
			return c.SendStatus(OpGameQuitAck, StatusOK)
		}
		return fmt.Errorf("quitting game for character %d: %w", ch.ID, err)
	}
	slog.Info("left game", "char", ch.ID, "name", ch.Name)
	return c.SendStatus(OpGameQuitAck, StatusOK)
}
