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

// hostedGame returns the game hosted by the connection's character, or nil
// when the character hosts nothing.
func (h *Handlers) hostedGame(c *Client) *room.Game {
	charID := c.CharacterID()
	if charID == 0 {
		return nil
	}
	g := h.rooms.FindByCharacter(charID)
	if g == nil || g.HostCharacterID() != charID {
		return nil
	}
	return g
}

// handleGameCreate opens a new room in the connection's current lobby with
// the requesting character as host.
func (h *Handlers) handleGameCreate(ctx context.Context, c *Client, r *protocol.Reader) error {
	ch := selectedCharacter(c)
	if ch == nil {
		return c.SendStatus(OpGameCreateAck, StatusNotOnline)
	}
	lobby := c.Lobby()
	if lobby == nil {
		return c.SendStatus(OpGameCreateAck, StatusDenied)
	}
	p, err := clientpackets.ParseGameCreate(r)
	if err != nil {
		return fmt.Errorf("parsing game create request: %w", err)
	}
	if p.Name == "" {
		return c.SendStatus(OpGameCreateAck, StatusDenied)
	}

	g, err := h.rooms.CreateGame(ctx, ch.ID, ch.Name, lobby.ID, room.Config{
		Name:       p.Name,
		Password:   p.Password,
		MaxPlayers: int(p.MaxPlayers),
		Team:       p.Team,
	})
	if err != nil {
		if errors.Is(err, room.ErrAlreadyHosting) {
			return c.SendStatus(OpGameCreateAck, StatusDenied)
		}
		return fmt.Errorf("creating game %q: %w", p.Name, err)
	}
	slog.Info("game created", "game", g.ID(), "name", g.Name(), "host", ch.ID, "lobby", lobby.ID)

	pkt := serverpackets.NewGameCreateOk(g.ID())
	return c.Send(OpGameCreateAck, pkt.Write())
}

// handlePlayerConnect is the host confirming that a joining character
// reached the room. Membership is committed here; the join marker set by
// the lobby-side join request is required and consumed.
func (h *Handlers) handlePlayerConnect(ctx context.Context, c *Client, r *protocol.Reader) error {
	g := h.hostedGame(c)
	if g == nil {
		return c.SendStatus(OpPlayerConnectAck, StatusNotInGame)
	}
	p, err := clientpackets.ParsePlayerConnect(r)
	if err != nil {
		return fmt.Errorf("parsing player connect: %w", err)
	}

	ch, err := h.chars.GetByID(ctx, p.CharacterID)
	if err != nil {
		return fmt.Errorf("loading character %d: %w", p.CharacterID, err)
	}
	if ch == nil {
		return c.SendStatus(OpPlayerConnectAck, StatusNoTarget)
	}

	err = h.rooms.AddPlayer(ctx, g, ch.ID, ch.Name, true)
	switch {
	case err == nil, errors.Is(err, room.ErrAlreadyInGame):
		// A duplicate connect for a present member is a success.
	default:
		slog.Debug("player connect refused", "game", g.ID(), "char", ch.ID, "error", err)
		return c.SendStatus(OpPlayerConnectAck, statusForRoomErr(err))
	}
	slog.Info("player joined game", "game", g.ID(), "char", ch.ID, "name", ch.Name)
	return c.SendStatus(OpPlayerConnectAck, StatusOK)
}

// handlePlayerDisconnect is the host reporting that a member dropped.
func (h *Handlers) handlePlayerDisconnect(ctx context.Context, c *Client, r *protocol.Reader) error {
	g := h.hostedGame(c)
	if g == nil {
		return nil
	}
	p, err := clientpackets.ParsePlayerDisconnect(r)
	if err != nil {
		return fmt.Errorf("parsing player disconnect: %w", err)
	}
	if p.CharacterID == g.HostCharacterID() {
		// The host cannot drop itself this way; quitting ends the game.
		return nil
	}
	if err := h.rooms.RemovePlayer(ctx, g, p.CharacterID, true); err != nil {
		slog.Debug("player disconnect ignored", "game", g.ID(), "char", p.CharacterID, "error", err)
		return nil
	}
	slog.Info("player left game", "game", g.ID(), "char", p.CharacterID)
	return nil
}

// handleTeamChange moves a member to another team.
func (h *Handlers) handleTeamChange(ctx context.Context, c *Client, r *protocol.Reader) error {
	g := h.hostedGame(c)
	if g == nil {
		return nil
	}
	p, err := clientpackets.ParseTeamChange(r)
	if err != nil {
		return fmt.Errorf("parsing team change: %w", err)
	}
	g.SetPlayerTeam(p.CharacterID, p.Team)
	return nil
}

// handleStatReport applies one character's round result. Only characters
// that actually played the last round may be credited; anything else is a
// forged or stale report.
func (h *Handlers) handleStatReport(ctx context.Context, c *Client, r *protocol.Reader) error {
	g := h.hostedGame(c)
	if g == nil {
		return c.SendStatus(OpStatReportAck, StatusNotInGame)
	}
	p, err := clientpackets.ParseStatReport(r)
	if err != nil {
		return fmt.Errorf("parsing stat report: %w", err)
	}
	if !g.PlayedInLastRound(p.CharacterID) {
		slog.Warn("stat report for character outside last round",
			"game", g.ID(), "char", p.CharacterID, "host", g.HostCharacterID())
		return c.SendStatus(OpStatReportAck, StatusDenied)
	}

	if err := h.chars.RecordResult(ctx, p.CharacterID, p.Won != 0, p.ExpGain); err != nil {
		return fmt.Errorf("recording result for character %d: %w", p.CharacterID, err)
	}
	return c.SendStatus(OpStatReportAck, StatusOK)
}

// handlePingReport applies the host's latency batch and counts as a
// heartbeat keeping the room off the idle reaper's list.
func (h *Handlers) handlePingReport(ctx context.Context, c *Client, r *protocol.Reader) error {
	g := h.hostedGame(c)
	if g == nil {
		return nil
	}
	p, err := clientpackets.ParsePingReport(r)
	if err != nil {
		return fmt.Errorf("parsing ping report: %w", err)
	}
	for _, e := range p.Pings {
		g.SetPlayerPing(e.CharacterID, e.Ping)
	}
	h.rooms.OnPing(g)
	return nil
}

// handlePassHost hands the room to another member. The old host leaves the
// game once the new host is installed.
func (h *Handlers) handlePassHost(ctx context.Context, c *Client, r *protocol.Reader) error {
	g := h.hostedGame(c)
	if g == nil {
		return c.SendStatus(OpPassHostAck, StatusNotInGame)
	}
	p, err := clientpackets.ParsePassHost(r)
	if err != nil {
		return fmt.Errorf("parsing pass host: %w", err)
	}

	if err := h.rooms.PassHost(ctx, g, p.TargetCharacterID); err != nil {
		slog.Debug("pass host refused", "game", g.ID(), "target", p.TargetCharacterID, "error", err)
		return c.SendStatus(OpPassHostAck, statusForRoomErr(err))
	}
	slog.Info("host passed", "game", g.ID(), "from", c.CharacterID(), "to", p.TargetCharacterID)
	return c.SendStatus(OpPassHostAck, StatusOK)
}

// handleRoundStart freezes the current roster as the round's participants.
func (h *Handlers) handleRoundStart(ctx context.Context, c *Client, r *protocol.Reader) error {
	g := h.hostedGame(c)
	if g == nil {
		return nil
	}
	h.rooms.StartRound(g)
	slog.Info("round started", "game", g.ID(), "round", g.CurrentRound(), "players", g.PlayerCount())
	return nil
}

// handleSetRound moves the room's rotation pointer.
func (h *Handlers) handleSetRound(ctx context.Context, c *Client, r *protocol.Reader) error {
	g := h.hostedGame(c)
	if g == nil {
		return nil
	}
	p, err := clientpackets.ParseSetRound(r)
	if err != nil {
		return fmt.Errorf("parsing set round: %w", err)
	}
	h.rooms.SetRound(g, p.Index)
	return nil
}
