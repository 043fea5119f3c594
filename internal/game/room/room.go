package room

import (
	"crypto/subtle"
	"sync"
	"time"
)

// Room size limits. The legacy client caps the room creation dialog at 16
// slots; anything larger in a create request is a tampered packet.
const (
	MinPlayers = 2
	MaxPlayers = 16
)

// Player is a character's membership record inside one game.
// Guarded by the owning Game's mutex.
type Player struct {
	CharacterID uint32
	Name        string
	Team        int32
	Ping        int32
}

// Game is one hosted match room.
//
// Each Game owns exactly one mutex guarding its player list, host field and
// round index. All mutation goes through the Manager, which holds the mutex
// for the whole critical section of every lifecycle operation. Accessors
// below take the same lock, so snapshots are never torn.
type Game struct {
	mu sync.RWMutex

	id         int32
	name       string
	lobbyID    int32
	password   string
	maxPlayers int

	hostCharID      uint32
	players         []*Player
	currentRound    int32
	playedLastRound []uint32

	lastUpdate time.Time
	lastNCheck time.Time
}

// ID returns the immutable game id.
func (g *Game) ID() int32 {
	return g.id
}

// Name returns the immutable room name.
func (g *Game) Name() string {
	return g.name
}

// LobbyID returns the id of the lobby this game was created in.
func (g *Game) LobbyID() int32 {
	return g.lobbyID
}

// MaxPlayers returns the room's player cap.
func (g *Game) MaxPlayers() int {
	return g.maxPlayers
}

// HostCharacterID returns the current host's character id.
func (g *Game) HostCharacterID() uint32 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.hostCharID
}

// HasPassword reports whether the room is password-protected.
func (g *Game) HasPassword() bool {
	return g.password != ""
}

// CheckPassword verifies a join password in constant time.
// Open rooms accept any input.
func (g *Game) CheckPassword(pw string) bool {
	if g.password == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(g.password), []byte(pw)) == 1
}

// PlayerCount returns the number of players currently in the room.
func (g *Game) PlayerCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.players)
}

// Players returns a snapshot copy of the player list.
// Safe to iterate without holding the lock.
func (g *Game) Players() []Player {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Player, len(g.players))
	for i, p := range g.players {
		out[i] = *p
	}
	return out
}

// PlayerCharacterIDs returns a snapshot of the member character ids.
func (g *Game) PlayerCharacterIDs() []uint32 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.playerIDsLocked()
}

func (g *Game) playerIDsLocked() []uint32 {
	ids := make([]uint32, len(g.players))
	for i, p := range g.players {
		ids[i] = p.CharacterID
	}
	return ids
}

// HasPlayer reports whether the character is a member of this room.
func (g *Game) HasPlayer(charID uint32) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.indexOfLocked(charID) >= 0
}

func (g *Game) indexOfLocked(charID uint32) int {
	for i, p := range g.players {
		if p.CharacterID == charID {
			return i
		}
	}
	return -1
}

// CurrentRound returns the index into the room's map/rule rotation.
func (g *Game) CurrentRound() int32 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.currentRound
}

// PlayedLastRound returns the character ids snapshotted at the last round
// start. Stat reports are validated against this set so a reporter that left
// mid-round is still accepted.
func (g *Game) PlayedLastRound() []uint32 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]uint32, len(g.playedLastRound))
	copy(out, g.playedLastRound)
	return out
}

// PlayedInLastRound reports whether the character took part in the last
// started round.
func (g *Game) PlayedInLastRound(charID uint32) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, id := range g.playedLastRound {
		if id == charID {
			return true
		}
	}
	return false
}

// LastUpdate returns the time of the last activity report.
func (g *Game) LastUpdate() time.Time {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.lastUpdate
}

// SetPlayerPing records the last reported ping for a member.
// Unknown characters are ignored.
func (g *Game) SetPlayerPing(charID uint32, ping int32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i := g.indexOfLocked(charID); i >= 0 {
		g.players[i].Ping = ping
	}
}

// SetPlayerTeam moves a member to the given team.
// Unknown characters are ignored.
func (g *Game) SetPlayerTeam(charID uint32, team int32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i := g.indexOfLocked(charID); i >= 0 {
		g.players[i].Team = team
	}
}
