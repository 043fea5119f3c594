package clientpackets

import (
	"fmt"

	"github.com/avdonin/openlobby/internal/protocol"
)

// Chat is a lobby or game chat line (opcodes 0x4600, 0x4610).
type Chat struct {
	Text string
}

// ParseChat reads a Chat packet.
func ParseChat(r *protocol.Reader) (Chat, error) {
	var p Chat
	var err error
	if p.Text, err = r.ReadFixedString(TextWidth); err != nil {
		return p, fmt.Errorf("parsing chat text: %w", err)
	}
	return p, nil
}

// Whisper is a direct message to a named character (opcode 0x4620).
type Whisper struct {
	TargetName string
	Text       string
}

// ParseWhisper reads a Whisper packet.
func ParseWhisper(r *protocol.Reader) (Whisper, error) {
	var p Whisper
	var err error
	if p.TargetName, err = r.ReadFixedString(NameWidth); err != nil {
		return p, fmt.Errorf("parsing whisper target: %w", err)
	}
	if p.Text, err = r.ReadFixedString(TextWidth); err != nil {
		return p, fmt.Errorf("parsing whisper text: %w", err)
	}
	return p, nil
}

// ClanCreate founds a clan (opcode 0x4500).
type ClanCreate struct {
	Name string
}

// ParseClanCreate reads a ClanCreate packet.
func ParseClanCreate(r *protocol.Reader) (ClanCreate, error) {
	var p ClanCreate
	var err error
	if p.Name, err = r.ReadFixedString(NameWidth); err != nil {
		return p, fmt.Errorf("parsing clan name: %w", err)
	}
	return p, nil
}

// ClanInfo requests a clan's summary (opcode 0x4510).
type ClanInfo struct {
	ClanID int64
}

// ParseClanInfo reads a ClanInfo packet.
func ParseClanInfo(r *protocol.Reader) (ClanInfo, error) {
	var p ClanInfo
	var err error
	if p.ClanID, err = r.ReadInt64(); err != nil {
		return p, fmt.Errorf("parsing clan id: %w", err)
	}
	return p, nil
}

// MailSend posts a mail to a named character (opcode 0x4700).
type MailSend struct {
	ToName  string
	Subject string
	Body    string
}

// ParseMailSend reads a MailSend packet.
func ParseMailSend(r *protocol.Reader) (MailSend, error) {
	var p MailSend
	var err error
	if p.ToName, err = r.ReadFixedString(NameWidth); err != nil {
		return p, fmt.Errorf("parsing mail recipient: %w", err)
	}
	if p.Subject, err = r.ReadFixedString(SubjectWidth); err != nil {
		return p, fmt.Errorf("parsing mail subject: %w", err)
	}
	if p.Body, err = r.ReadFixedString(BodyWidth); err != nil {
		return p, fmt.Errorf("parsing mail body: %w", err)
	}
	return p, nil
}

// MailRead marks a mail as read (opcode 0x4720).
type MailRead struct {
	MailID int64
}

// ParseMailRead reads a MailRead packet.
func ParseMailRead(r *protocol.Reader) (MailRead, error) {
	var p MailRead
	var err error
	if p.MailID, err = r.ReadInt64(); err != nil {
		return p, fmt.Errorf("parsing mail id: %w", err)
	}
	return p, nil
}
