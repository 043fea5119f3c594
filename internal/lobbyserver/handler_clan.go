package lobbyserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/avdonin/openlobby/internal/db"
	"github.com/avdonin/openlobby/internal/lobbyserver/clientpackets"
	"github.com/avdonin/openlobby/internal/lobbyserver/serverpackets"
	"github.com/avdonin/openlobby/internal/protocol"
)

// handleClanCreate founds a clan with the session character as leader.
func (h *Handlers) handleClanCreate(ctx context.Context, c *Client, r *protocol.Reader) error {
	ch := selectedCharacter(c)
	if ch == nil {
		return c.SendStatus(OpClanCreateAck, StatusNotOnline)
	}
	if ch.ClanID != 0 {
		return c.SendStatus(OpClanCreateAck, StatusDenied)
	}
	p, err := clientpackets.ParseClanCreate(r)
	if err != nil {
		return fmt.Errorf("parsing clan create: %w", err)
	}
	if p.Name == "" {
		return c.SendStatus(OpClanCreateAck, StatusDenied)
	}

	clan, err := h.clans.Create(ctx, p.Name, ch.ID)
	if err != nil {
		if errors.Is(err, db.ErrClanNameTaken) {
			return c.SendStatus(OpClanCreateAck, StatusNameTaken)
		}
		return fmt.Errorf("creating clan %q: %w", p.Name, err)
	}
	ch.ClanID = clan.ID
	slog.Info("clan created", "clan", clan.ID, "name", clan.Name, "leader", ch.ID)

	pkt := serverpackets.NewClanInfo(clan, []string{ch.Name})
	return c.Send(OpClanCreateAck, pkt.Write())
}

// handleClanInfo returns a clan's summary and member roster.
func (h *Handlers) handleClanInfo(ctx context.Context, c *Client, r *protocol.Reader) error {
	if c.User() == nil {
		return c.SendStatus(OpClanInfoAck, StatusNotOnline)
	}
	p, err := clientpackets.ParseClanInfo(r)
	if err != nil {
		return fmt.Errorf("parsing clan info request: %w", err)
	}

	clan, err := h.clans.GetByID(ctx, p.ClanID)
	if err != nil {
		return fmt.Errorf("loading clan %d: %w", p.ClanID, err)
	}
	if clan == nil {
		return c.SendStatus(OpClanInfoAck, StatusNotFound)
	}
	members, err := h.clans.MemberNames(ctx, p.ClanID)
	if err != nil {
		return fmt.Errorf("loading members of clan %d: %w", p.ClanID, err)
	}

	pkt := serverpackets.NewClanInfo(clan, members)
	return c.Send(OpClanInfoAck, pkt.Write())
}
