// Package serverpackets builds the payloads of server → client responses.
// Every builder returns the payload bytes; framing is the caller's job.
package serverpackets

import (
	"github.com/avdonin/openlobby/internal/protocol"
)

// Fixed field widths of the legacy client.
const (
	TokenWidth = 36
	NameWidth  = 24
	RoomWidth  = 32
	TextWidth  = 128
)

// LoginOk acknowledges a successful login (opcode 0x4101).
//
// Structure:
// - byte: status (0x00)
// - int64: account id
// - byte[36]: session token
// - int32: access level
type LoginOk struct {
	AccountID   int64
	Token       string
	AccessLevel int32
}

// NewLoginOk creates a LoginOk packet.
func NewLoginOk(accountID int64, token string, accessLevel int32) LoginOk {
	return LoginOk{AccountID: accountID, Token: token, AccessLevel: accessLevel}
}

// Write serializes the LoginOk payload.
func (p *LoginOk) Write() []byte {
	w := protocol.NewWriter(64)
	w.WriteByte(0x00)
	w.WriteInt64(p.AccountID)
	w.WriteFixedString(p.Token, TokenWidth)
	w.WriteInt32(p.AccessLevel)
	return w.Bytes()
}

// SessionOk acknowledges a successful session check (opcode 0x4111).
//
// Structure:
// - byte: status (0x00)
// - int64: account id
type SessionOk struct {
	AccountID int64
}

// NewSessionOk creates a SessionOk packet.
func NewSessionOk(accountID int64) SessionOk {
	return SessionOk{AccountID: accountID}
}

// Write serializes the SessionOk payload.
func (p *SessionOk) Write() []byte {
	w := protocol.NewWriter(16)
	w.WriteByte(0x00)
	w.WriteInt64(p.AccountID)
	return w.Bytes()
}
