package clientpackets

import (
	"fmt"

	"github.com/avdonin/openlobby/internal/protocol"
)

// GameList requests the game list of one lobby (opcode 0x4300).
type GameList struct {
	LobbyID int32
}

// ParseGameList reads a GameList packet.
func ParseGameList(r *protocol.Reader) (GameList, error) {
	var p GameList
	var err error
	if p.LobbyID, err = r.ReadInt32(); err != nil {
		return p, fmt.Errorf("parsing lobby id: %w", err)
	}
	return p, nil
}

// GameDetail requests one room's details (opcode 0x4310).
type GameDetail struct {
	GameID int32
}

// ParseGameDetail reads a GameDetail packet.
func ParseGameDetail(r *protocol.Reader) (GameDetail, error) {
	var p GameDetail
	var err error
	if p.GameID, err = r.ReadInt32(); err != nil {
		return p, fmt.Errorf("parsing game id: %w", err)
	}
	return p, nil
}

// GameJoin asks to enter a room (opcode 0x4320).
type GameJoin struct {
	GameID   int32
	Password string
}

// ParseGameJoin reads a GameJoin packet.
func ParseGameJoin(r *protocol.Reader) (GameJoin, error) {
	var p GameJoin
	var err error
	if p.GameID, err = r.ReadInt32(); err != nil {
		return p, fmt.Errorf("parsing game id: %w", err)
	}
	if p.Password, err = r.ReadFixedString(RoomPassWidth); err != nil {
		return p, fmt.Errorf("parsing room password: %w", err)
	}
	return p, nil
}

// GameCreate asks to host a new room (opcode 0x4340).
type GameCreate struct {
	Name       string
	Password   string
	MaxPlayers byte
	Team       int32
}

// ParseGameCreate reads a GameCreate packet.
func ParseGameCreate(r *protocol.Reader) (GameCreate, error) {
	var p GameCreate
	var err error
	if p.Name, err = r.ReadFixedString(RoomNameWidth); err != nil {
		return p, fmt.Errorf("parsing room name: %w", err)
	}
	if p.Password, err = r.ReadFixedString(RoomPassWidth); err != nil {
		return p, fmt.Errorf("parsing room password: %w", err)
	}
	if p.MaxPlayers, err = r.ReadByte(); err != nil {
		return p, fmt.Errorf("parsing max players: %w", err)
	}
	if p.Team, err = r.ReadInt32(); err != nil {
		return p, fmt.Errorf("parsing team: %w", err)
	}
	return p, nil
}
