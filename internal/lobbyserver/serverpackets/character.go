package serverpackets

import (
	"github.com/avdonin/openlobby/internal/model"
	"github.com/avdonin/openlobby/internal/protocol"
)

// CharList carries the account's characters (opcode 0x4201).
//
// Structure:
// - byte: status (0x00)
// - byte: count
// - per character:
//   - uint32: character id
//   - byte[24]: name
//   - int32: rank
//   - int64: exp
//   - int32: wins
//   - int32: losses
//   - int64: clan id
type CharList struct {
	Characters []*model.Character
}

// NewCharList creates a CharList packet.
func NewCharList(chars []*model.Character) CharList {
	return CharList{Characters: chars}
}

// Write serializes the CharList payload.
func (p *CharList) Write() []byte {
	w := protocol.NewWriter(2 + len(p.Characters)*56)
	w.WriteByte(0x00)
	w.WriteByte(byte(len(p.Characters)))
	for _, c := range p.Characters {
		w.WriteUint32(c.ID)
		w.WriteFixedString(c.Name, NameWidth)
		w.WriteInt32(c.Rank)
		w.WriteInt64(c.Exp)
		w.WriteInt32(c.Wins)
		w.WriteInt32(c.Losses)
		w.WriteInt64(c.ClanID)
	}
	return w.Bytes()
}

// CharCreateOk acknowledges character creation (opcode 0x4211).
//
// Structure:
// - byte: status (0x00)
// - uint32: new character id
type CharCreateOk struct {
	CharacterID uint32
}

// NewCharCreateOk creates a CharCreateOk packet.
func NewCharCreateOk(charID uint32) CharCreateOk {
	return CharCreateOk{CharacterID: charID}
}

// Write serializes the CharCreateOk payload.
func (p *CharCreateOk) Write() []byte {
	w := protocol.NewWriter(8)
	w.WriteByte(0x00)
	w.WriteUint32(p.CharacterID)
	return w.Bytes()
}

// CharSelectOk acknowledges character selection (opcode 0x4231).
//
// Structure:
// - byte: status (0x00)
// - uint32: character id
// - byte[24]: name
type CharSelectOk struct {
	Character *model.Character
}

// NewCharSelectOk creates a CharSelectOk packet.
func NewCharSelectOk(c *model.Character) CharSelectOk {
	return CharSelectOk{Character: c}
}

// Write serializes the CharSelectOk payload.
func (p *CharSelectOk) Write() []byte {
	w := protocol.NewWriter(32)
	w.WriteByte(0x00)
	w.WriteUint32(p.Character.ID)
	w.WriteFixedString(p.Character.Name, NameWidth)
	return w.Bytes()
}
