package lobbyserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avdonin/openlobby/internal/lobbyserver/clientpackets"
	"github.com/avdonin/openlobby/internal/lobbyserver/serverpackets"
	"github.com/avdonin/openlobby/internal/protocol"
)

const inboxLimit = 50

// handleMailSend posts a mail to a named character. Offline recipients
// receive it on their next inbox fetch; online ones get a server message.
func (h *Handlers) handleMailSend(ctx context.Context, c *Client, r *protocol.Reader) error {
	ch := selectedCharacter(c)
	if ch == nil {
		return c.SendStatus(OpMailSendAck, StatusNotOnline)
	}
	p, err := clientpackets.ParseMailSend(r)
	if err != nil {
		return fmt.Errorf("parsing mail send: %w", err)
	}
	if p.Subject == "" && p.Body == "" {
		return c.SendStatus(OpMailSendAck, StatusDenied)
	}

	target, err := h.chars.GetByName(ctx, p.ToName)
	if err != nil {
		return fmt.Errorf("resolving mail recipient %q: %w", p.ToName, err)
	}
	if target == nil {
		return c.SendStatus(OpMailSendAck, StatusNoTarget)
	}

	id, err := h.mail.Send(ctx, ch.ID, target.ID, p.Subject, p.Body)
	if err != nil {
		return fmt.Errorf("sending mail from %d to %d: %w", ch.ID, target.ID, err)
	}
	slog.Info("mail sent", "mail", id, "from", ch.ID, "to", target.ID)

	if tc := h.users.ClientByCharacter(target.ID); tc != nil {
		h.bcast.ServerMessageClient(tc, fmt.Sprintf("New mail from %s", ch.Name))
	}
	return c.SendStatus(OpMailSendAck, StatusOK)
}

// handleMailInbox returns the session character's most recent mail.
func (h *Handlers) handleMailInbox(ctx context.Context, c *Client, r *protocol.Reader) error {
	ch := selectedCharacter(c)
	if ch == nil {
		return c.SendStatus(OpMailInboxAck, StatusNotOnline)
	}

	mails, err := h.mail.Inbox(ctx, ch.ID, inboxLimit)
	if err != nil {
		return fmt.Errorf("loading inbox for character %d: %w", ch.ID, err)
	}
	pkt := serverpackets.NewMailInbox(mails)
	return c.Send(OpMailInboxAck, pkt.Write())
}

// handleMailRead marks one of the character's mails as read.
func (h *Handlers) handleMailRead(ctx context.Context, c *Client, r *protocol.Reader) error {
	ch := selectedCharacter(c)
	if ch == nil {
		return c.SendStatus(OpMailReadAck, StatusNotOnline)
	}
	p, err := clientpackets.ParseMailRead(r)
	if err != nil {
		return fmt.Errorf("parsing mail read: %w", err)
	}

	if err := h.mail.MarkRead(ctx, ch.ID, p.MailID); err != nil {
		slog.Debug("mail read refused", "char", ch.ID, "mail", p.MailID, "error", err)
		return c.SendStatus(OpMailReadAck, StatusNotFound)
	}
	return c.SendStatus(OpMailReadAck, StatusOK)
}
