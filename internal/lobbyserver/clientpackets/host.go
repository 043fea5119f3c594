package clientpackets

import (
	"fmt"

	"github.com/avdonin/openlobby/internal/protocol"
)

// PlayerConnect is the host's notification that a joining character reached
// the room (opcode 0x4350).
type PlayerConnect struct {
	CharacterID uint32
}

// ParsePlayerConnect reads a PlayerConnect packet.
func ParsePlayerConnect(r *protocol.Reader) (PlayerConnect, error) {
	var p PlayerConnect
	var err error
	if p.CharacterID, err = r.ReadUint32(); err != nil {
		return p, fmt.Errorf("parsing character id: %w", err)
	}
	return p, nil
}

// PlayerDisconnect is the host's notification that a character dropped from
// the room (opcode 0x4360).
type PlayerDisconnect struct {
	CharacterID uint32
}

// ParsePlayerDisconnect reads a PlayerDisconnect packet.
func ParsePlayerDisconnect(r *protocol.Reader) (PlayerDisconnect, error) {
	var p PlayerDisconnect
	var err error
	if p.CharacterID, err = r.ReadUint32(); err != nil {
		return p, fmt.Errorf("parsing character id: %w", err)
	}
	return p, nil
}

// TeamChange moves a character to another team (opcode 0x4370).
type TeamChange struct {
	CharacterID uint32
	Team        int32
}

// ParseTeamChange reads a TeamChange packet.
func ParseTeamChange(r *protocol.Reader) (TeamChange, error) {
	var p TeamChange
	var err error
	if p.CharacterID, err = r.ReadUint32(); err != nil {
		return p, fmt.Errorf("parsing character id: %w", err)
	}
	if p.Team, err = r.ReadInt32(); err != nil {
		return p, fmt.Errorf("parsing team: %w", err)
	}
	return p, nil
}

// StatReport carries one character's round result (opcode 0x4380).
type StatReport struct {
	CharacterID uint32
	Won         byte
	ExpGain     int64
}

// ParseStatReport reads a StatReport packet.
func ParseStatReport(r *protocol.Reader) (StatReport, error) {
	var p StatReport
	var err error
	if p.CharacterID, err = r.ReadUint32(); err != nil {
		return p, fmt.Errorf("parsing character id: %w", err)
	}
	if p.Won, err = r.ReadByte(); err != nil {
		return p, fmt.Errorf("parsing result flag: %w", err)
	}
	if p.ExpGain, err = r.ReadInt64(); err != nil {
		return p, fmt.Errorf("parsing exp gain: %w", err)
	}
	return p, nil
}

// PingReport carries the host's per-player latency batch (opcode 0x4390).
// The count prefix is followed by (characterID, ping) pairs.
type PingReport struct {
	Pings []PlayerPing
}

// PlayerPing is one entry of a PingReport.
type PlayerPing struct {
	CharacterID uint32
	Ping        int32
}

// ParsePingReport reads a PingReport packet.
func ParsePingReport(r *protocol.Reader) (PingReport, error) {
	var p PingReport
	count, err := r.ReadByte()
	if err != nil {
		return p, fmt.Errorf("parsing ping count: %w", err)
	}
	p.Pings = make([]PlayerPing, 0, count)
	for i := 0; i < int(count); i++ {
		var e PlayerPing
		if e.CharacterID, err = r.ReadUint32(); err != nil {
			return p, fmt.Errorf("parsing ping entry %d: %w", i, err)
		}
		if e.Ping, err = r.ReadInt32(); err != nil {
			return p, fmt.Errorf("parsing ping entry %d: %w", i, err)
		}
		p.Pings = append(p.Pings, e)
	}
	return p, nil
}

// PassHost hands room leadership to another player (opcode 0x43A0).
type PassHost struct {
	TargetCharacterID uint32
}

// ParsePassHost reads a PassHost packet.
func ParsePassHost(r *protocol.Reader) (PassHost, error) {
	var p PassHost
	var err error
	if p.TargetCharacterID, err = r.ReadUint32(); err != nil {
		return p, fmt.Errorf("parsing target character id: %w", err)
	}
	return p, nil
}

// SetRound advances the room's map/rule rotation (opcode 0x43C0).
type SetRound struct {
	Index int32
}

// ParseSetRound reads a SetRound packet.
func ParseSetRound(r *protocol.Reader) (SetRound, error) {
	var p SetRound
	var err error
	if p.Index, err = r.ReadInt32(); err != nil {
		return p, fmt.Errorf("parsing round index: %w", err)
	}
	return p, nil
}
