package lobbyserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avdonin/openlobby/internal/db"
	"github.com/avdonin/openlobby/internal/lobbyserver/clientpackets"
	"github.com/avdonin/openlobby/internal/lobbyserver/serverpackets"
	"github.com/avdonin/openlobby/internal/model"
	"github.com/avdonin/openlobby/internal/protocol"
)

// handleLogin authenticates by login and password, issues a session token
// and attaches the user to the connection. A second login on the same
// account evicts the earlier connection.
func (h *Handlers) handleLogin(ctx context.Context, c *Client, r *protocol.Reader) error {
	p, err := clientpackets.ParseLogin(r)
	if err != nil {
		return fmt.Errorf("parsing login request: %w", err)
	}
	if p.Login == "" || p.Password == "" {
		return c.SendStatus(OpLoginAck, StatusDenied)
	}

	acc, err := h.accounts.GetByLogin(ctx, p.Login)
	if err != nil {
		return fmt.Errorf("loading account %q: %w", p.Login, err)
	}
	if acc == nil {
		if !h.autoCreateAccounts {
			slog.Debug("login for unknown account", "login", p.Login, "ip", c.IP())
			return c.SendStatus(OpLoginAck, StatusDenied)
		}
		hash, err := db.HashPassword(p.Password)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}
		acc, err = h.accounts.Create(ctx, p.Login, hash, c.IP())
		if err != nil {
			return fmt.Errorf("auto-creating account %q: %w", p.Login, err)
		}
		slog.Info("account auto-created", "login", p.Login, "account", acc.ID)
	} else {
		if !db.CheckPassword(acc.PasswordHash, p.Password) {
			slog.Debug("wrong password", "login", p.Login, "ip", c.IP())
			return c.SendStatus(OpLoginAck, StatusDenied)
		}
	}
	if acc.IsBanned() {
		slog.Info("banned account login attempt", "login", p.Login, "ip", c.IP())
		return c.SendStatus(OpLoginAck, StatusDenied)
	}

	token, err := h.sessions.Issue(ctx, acc.ID)
	if err != nil {
		return fmt.Errorf("issuing session for account %d: %w", acc.ID, err)
	}
	if err := h.accounts.UpdateLastLogin(ctx, acc.ID, c.IP()); err != nil {
		slog.Warn("updating last login failed", "account", acc.ID, "error", err)
	}

	h.users.Attach(c, model.NewUser(acc))
	slog.Info("login ok", "account", acc.ID, "login", acc.Login, "conn", c.ID())

	pkt := serverpackets.NewLoginOk(acc.ID, token, acc.AccessLevel)
	return c.Send(OpLoginAck, pkt.Write())
}

// handleSessionCheck authenticates by a previously issued token. Used by
// the client after a reconnect instead of resending credentials.
func (h *Handlers) handleSessionCheck(ctx context.Context, c *Client, r *protocol.Reader) error {
	p, err := clientpackets.ParseSessionCheck(r)
	if err != nil {
		return fmt.Errorf("parsing session check: %w", err)
	}

	accountID, err := h.sessions.Validate(ctx, p.Token)
	if err != nil {
		return fmt.Errorf("validating session token: %w", err)
	}
	if accountID == 0 {
		return c.SendStatus(OpSessionCheckAck, StatusDenied)
	}

	acc, err := h.accounts.GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("loading account %d: %w", accountID, err)
	}
	if acc == nil || acc.IsBanned() {
		return c.SendStatus(OpSessionCheckAck, StatusDenied)
	}

	h.users.Attach(c, model.NewUser(acc))
	slog.Info("session check ok", "account", acc.ID, "conn", c.ID())

	pkt := serverpackets.NewSessionOk(acc.ID)
	return c.Send(OpSessionCheckAck, pkt.Write())
}

// handleLogout revokes the session token and detaches the user. The client
// closes the socket afterwards; disconnect cleanup handles the rest.
func (h *Handlers) handleLogout(ctx context.Context, c *Client, r *protocol.Reader) error {
	u := c.User()
	if u == nil {
		return nil
	}
	if err := h.sessions.Revoke(ctx, u.AccountID); err != nil {
		slog.Warn("revoking session failed", "account", u.AccountID, "error", err)
	}
	if charID := u.CharacterID(); charID != 0 {
		if err := h.rooms.QuitGame(ctx, charID); err != nil {
			slog.Debug("quit on logout", "char", charID, "error", err)
		}
		h.users.UnbindCharacter(c, charID)
	}
	h.users.Detach(c)
	c.SetUser(nil)
	slog.Info("logout", "account", u.AccountID, "conn", c.ID())
	return nil
}
