package lobbyserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avdonin/openlobby/internal/lobbyserver/clientpackets"
	"github.com/avdonin/openlobby/internal/lobbyserver/serverpackets"
	"github.com/avdonin/openlobby/internal/protocol"
)

// handleLobbyChat relays a chat line to everyone browsing the same lobby,
// sender included.
func (h *Handlers) handleLobbyChat(ctx context.Context, c *Client, r *protocol.Reader) error {
	ch := selectedCharacter(c)
	if ch == nil {
		return nil
	}
	lobby := c.Lobby()
	if lobby == nil {
		return nil
	}
	p, err := clientpackets.ParseChat(r)
	if err != nil {
		return fmt.Errorf("parsing lobby chat: %w", err)
	}
	if p.Text == "" {
		return nil
	}

	pkt := serverpackets.NewChatBroadcast(ch.Name, p.Text)
	h.bcast.BroadcastLobby(lobby.ID, OpLobbyChatBcast, pkt.Write())
	return nil
}

// handleGameChat relays a chat line to the sender's game roster.
func (h *Handlers) handleGameChat(ctx context.Context, c *Client, r *protocol.Reader) error {
	ch := selectedCharacter(c)
	if ch == nil {
		return nil
	}
	g := h.rooms.FindByCharacter(ch.ID)
	if g == nil {
		return nil
	}
	p, err := clientpackets.ParseChat(r)
	if err != nil {
		return fmt.Errorf("parsing game chat: %w", err)
	}
	if p.Text == "" {
		return nil
	}

	pkt := serverpackets.NewChatBroadcast(ch.Name, p.Text)
	h.bcast.SendFrameToCharacters(g.PlayerCharacterIDs(), OpGameChatBcast, pkt.Write())
	return nil
}

// handleWhisper delivers a direct message to a named character. The target
// receives the chat line; the sender gets a one-byte delivery status.
func (h *Handlers) handleWhisper(ctx context.Context, c *Client, r *protocol.Reader) error {
	ch := selectedCharacter(c)
	if ch == nil {
		return c.SendStatus(OpWhisperAck, StatusNotOnline)
	}
	p, err := clientpackets.ParseWhisper(r)
	if err != nil {
		return fmt.Errorf("parsing whisper: %w", err)
	}
	if p.Text == "" {
		return c.SendStatus(OpWhisperAck, StatusDenied)
	}

	target, err := h.chars.GetByName(ctx, p.TargetName)
	if err != nil {
		return fmt.Errorf("resolving whisper target %q: %w", p.TargetName, err)
	}
	if target == nil {
		return c.SendStatus(OpWhisperAck, StatusNoTarget)
	}
	tc := h.users.ClientByCharacter(target.ID)
	if tc == nil {
		return c.SendStatus(OpWhisperAck, StatusNotOnline)
	}

	pkt := serverpackets.NewChatBroadcast(ch.Name, p.Text)
	if err := tc.Send(OpWhisperAck, pkt.Write()); err != nil {
		slog.Debug("whisper delivery failed", "from", ch.ID, "to", target.ID, "error", err)
		return c.SendStatus(OpWhisperAck, StatusError)
	}
	return c.SendStatus(OpWhisperAck, StatusOK)
}
