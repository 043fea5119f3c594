package clientpackets

import (
	"fmt"

	"github.com/avdonin/openlobby/internal/protocol"
)

// CharCreate requests a new character (opcode 0x4210).
type CharCreate struct {
	Name string
}

// ParseCharCreate reads a CharCreate packet.
func ParseCharCreate(r *protocol.Reader) (CharCreate, error) {
	var p CharCreate
	var err error
	if p.Name, err = r.ReadFixedString(NameWidth); err != nil {
		return p, fmt.Errorf("parsing character name: %w", err)
	}
	return p, nil
}

// CharDelete requests removal of a character (opcode 0x4220).
type CharDelete struct {
	CharacterID uint32
}

// ParseCharDelete reads a CharDelete packet.
func ParseCharDelete(r *protocol.Reader) (CharDelete, error) {
	var p CharDelete
	var err error
	if p.CharacterID, err = r.ReadUint32(); err != nil {
		return p, fmt.Errorf("parsing character id: %w", err)
	}
	return p, nil
}

// CharSelect picks the session character (opcode 0x4230).
type CharSelect struct {
	CharacterID uint32
}

// ParseCharSelect reads a CharSelect packet.
func ParseCharSelect(r *protocol.Reader) (CharSelect, error) {
	var p CharSelect
	var err error
	if p.CharacterID, err = r.ReadUint32(); err != nil {
		return p, fmt.Errorf("parsing character id: %w", err)
	}
	return p, nil
}
