package serverpackets

import (
	"github.com/avdonin/openlobby/internal/game/room"
	"github.com/avdonin/openlobby/internal/protocol"
)

// GameList carries one lobby's room list (opcode 0x4301).
//
// Structure:
// - byte: status (0x00)
// - byte: count
// - per game:
//   - int32: game id
//   - byte[32]: name
//   - byte: players
//   - byte: max players
//   - byte: passworded flag
//   - int32: current round
type GameList struct {
	Games []*room.Game
}

// NewGameList creates a GameList packet.
func NewGameList(games []*room.Game) GameList {
	return GameList{Games: games}
}

// Write serializes the GameList payload.
func (p *GameList) Write() []byte {
	w := protocol.NewWriter(2 + len(p.Games)*44)
	w.WriteByte(0x00)
	w.WriteByte(byte(len(p.Games)))
	for _, g := range p.Games {
		w.WriteInt32(g.ID())
		w.WriteFixedString(g.Name(), RoomWidth)
		w.WriteByte(byte(g.PlayerCount()))
		w.WriteByte(byte(g.MaxPlayers()))
		if g.HasPassword() {
			w.WriteByte(0x01)
		} else {
			w.WriteByte(0x00)
		}
		w.WriteInt32(g.CurrentRound())
	}
	return w.Bytes()
}

// GameDetail carries one room's roster (opcode 0x4311).
//
// Structure:
// - byte: status (0x00)
// - int32: game id
// - byte[32]: name
// - uint32: host character id
// - int32: current round
// - byte: count
// - per player:
//   - uint32: character id
//   - byte[24]: name
//   - int32: team
//   - int32: ping
type GameDetail struct {
	Game *room.Game
}

// NewGameDetail creates a GameDetail packet.
func NewGameDetail(g *room.Game) GameDetail {
	return GameDetail{Game: g}
}

// Write serializes the GameDetail payload.
func (p *GameDetail) Write() []byte {
	players := p.Game.Players()
	w := protocol.NewWriter(48 + len(players)*36)
	w.WriteByte(0x00)
	w.WriteInt32(p.Game.ID())
	w.WriteFixedString(p.Game.Name(), RoomWidth)
	w.WriteUint32(p.Game.HostCharacterID())
	w.WriteInt32(p.Game.CurrentRound())
	w.WriteByte(byte(len(players)))
	for _, pl := range players {
		w.WriteUint32(pl.CharacterID)
		w.WriteFixedString(pl.Name, NameWidth)
		w.WriteInt32(pl.Team)
		w.WriteInt32(pl.Ping)
	}
	return w.Bytes()
}

// GameJoinOk tells the client which game it may enter (opcode 0x4321).
//
// Structure:
// - byte: status (0x00)
// - int32: game id
type GameJoinOk struct {
	GameID int32
}

// NewGameJoinOk creates a GameJoinOk packet.
func NewGameJoinOk(gameID int32) GameJoinOk {
	return GameJoinOk{GameID: gameID}
}

// Write serializes the GameJoinOk payload.
func (p *GameJoinOk) Write() []byte {
	w := protocol.NewWriter(8)
	w.WriteByte(0x00)
	w.WriteInt32(p.GameID)
	return w.Bytes()
}

// GameCreateOk acknowledges room creation (opcode 0x4341).
//
// Structure:
// - byte: status (0x00)
// - int32: game id
type GameCreateOk struct {
	GameID int32
}

// NewGameCreateOk creates a GameCreateOk packet.
func NewGameCreateOk(gameID int32) GameCreateOk {
	return GameCreateOk{GameID: gameID}
}

// Write serializes the GameCreateOk payload.
func (p *GameCreateOk) Write() []byte {
	w := protocol.NewWriter(8)
	w.WriteByte(0x00)
	w.WriteInt32(p.GameID)
	return w.Bytes()
}
