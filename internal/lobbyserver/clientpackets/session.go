// Package clientpackets parses the payloads of client → server requests.
// Field widths are dictated by the legacy client and must not change.
package clientpackets

import (
	"fmt"

	"github.com/avdonin/openlobby/internal/protocol"
)

// Fixed field widths of the legacy client.
const (
	LoginWidth    = 24
	PasswordWidth = 32
	TokenWidth    = 36 // UUID string form
	NameWidth     = 24
	RoomNameWidth = 32
	RoomPassWidth = 16
	SubjectWidth  = 32
	TextWidth     = 128
	BodyWidth     = 256
)

// Login is the credentials login request (opcode 0x4100).
type Login struct {
	Login    string
	Password string
}

// ParseLogin reads a Login packet.
func ParseLogin(r *protocol.Reader) (Login, error) {
	var p Login
	var err error
	if p.Login, err = r.ReadFixedString(LoginWidth); err != nil {
		return p, fmt.Errorf("parsing login: %w", err)
	}
	if p.Password, err = r.ReadFixedString(PasswordWidth); err != nil {
		return p, fmt.Errorf("parsing password: %w", err)
	}
	return p, nil
}

// SessionCheck re-validates a previously issued session token (opcode 0x4110).
type SessionCheck struct {
	Token string
}

// ParseSessionCheck reads a SessionCheck packet.
func ParseSessionCheck(r *protocol.Reader) (SessionCheck, error) {
	var p SessionCheck
	var err error
	if p.Token, err = r.ReadFixedString(TokenWidth); err != nil {
		return p, fmt.Errorf("parsing session token: %w", err)
	}
	return p, nil
}
