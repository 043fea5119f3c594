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

// handleCharList returns the account's characters.
func (h *Handlers) handleCharList(ctx context.Context, c *Client, r *protocol.Reader) error {
	u := c.User()
	if u == nil {
		return c.SendStatus(OpCharListAck, StatusNotOnline)
	}
	chars, err := h.chars.ListByAccount(ctx, u.AccountID)
	if err != nil {
		return fmt.Errorf("listing characters for account %d: %w", u.AccountID, err)
	}
	pkt := serverpackets.NewCharList(chars)
	return c.Send(OpCharListAck, pkt.Write())
}

// handleCharCreate creates a character. Names are globally unique.
func (h *Handlers) handleCharCreate(ctx context.Context, c *Client, r *protocol.Reader) error {
	u := c.User()
	if u == nil {
		return c.SendStatus(OpCharCreateAck, StatusNotOnline)
	}
	p, err := clientpackets.ParseCharCreate(r)
	if err != nil {
		return fmt.Errorf("parsing character create: %w", err)
	}
	if p.Name == "" {
		return c.SendStatus(OpCharCreateAck, StatusDenied)
	}

	ch, err := h.chars.Create(ctx, u.AccountID, p.Name)
	if err != nil {
		if errors.Is(err, db.ErrNameTaken) {
			return c.SendStatus(OpCharCreateAck, StatusNameTaken)
		}
		return fmt.Errorf("creating character %q: %w", p.Name, err)
	}
	slog.Info("character created", "account", u.AccountID, "char", ch.ID, "name", ch.Name)

	pkt := serverpackets.NewCharCreateOk(ch.ID)
	return c.Send(OpCharCreateAck, pkt.Write())
}

// handleCharDelete removes one of the account's characters. The selected
// character cannot be deleted while in a game.
func (h *Handlers) handleCharDelete(ctx context.Context, c *Client, r *protocol.Reader) error {
	u := c.User()
	if u == nil {
		return c.SendStatus(OpCharDeleteAck, StatusNotOnline)
	}
	p, err := clientpackets.ParseCharDelete(r)
	if err != nil {
		return fmt.Errorf("parsing character delete: %w", err)
	}
	if h.rooms.FindByCharacter(p.CharacterID) != nil {
		return c.SendStatus(OpCharDeleteAck, StatusDenied)
	}

	if err := h.chars.Delete(ctx, u.AccountID, p.CharacterID); err != nil {
		slog.Debug("character delete refused", "account", u.AccountID, "char", p.CharacterID, "error", err)
		return c.SendStatus(OpCharDeleteAck, StatusNotFound)
	}
	if u.CharacterID() == p.CharacterID {
		h.users.UnbindCharacter(c, p.CharacterID)
		u.SetCharacter(nil)
	}
	slog.Info("character deleted", "account", u.AccountID, "char", p.CharacterID)
	return c.SendStatus(OpCharDeleteAck, StatusOK)
}

// handleCharSelect picks the session character and indexes the connection
// under it so game notifications can reach it.
func (h *Handlers) handleCharSelect(ctx context.Context, c *Client, r *protocol.Reader) error {
	u := c.User()
	if u == nil {
		return c.SendStatus(OpCharSelectAck, StatusNotOnline)
	}
	p, err := clientpackets.ParseCharSelect(r)
	if err != nil {
		return fmt.Errorf("parsing character select: %w", err)
	}

	ch, err := h.chars.GetByID(ctx, p.CharacterID)
	if err != nil {
		return fmt.Errorf("loading character %d: %w", p.CharacterID, err)
	}
	if ch == nil || ch.AccountID != u.AccountID {
		return c.SendStatus(OpCharSelectAck, StatusNotFound)
	}

	if prev := u.CharacterID(); prev != 0 && prev != ch.ID {
		h.users.UnbindCharacter(c, prev)
	}
	u.SetCharacter(ch)
	h.users.BindCharacter(c, ch.ID)
	slog.Info("character selected", "account", u.AccountID, "char", ch.ID, "name", ch.Name)

	pkt := serverpackets.NewCharSelectOk(ch)
	return c.Send(OpCharSelectAck, pkt.Write())
}
