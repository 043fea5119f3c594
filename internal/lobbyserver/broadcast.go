package lobbyserver

import (
	"log/slog"

	"github.com/avdonin/openlobby/internal/game/room"
	"github.com/avdonin/openlobby/internal/protocol"
)

// serverMessageWidth is the fixed width of the server-message text field.
const serverMessageWidth = 128

// Broadcaster delivers frames to audiences: all connections, the players
// of one game, or a single connection. Implements room.Notifier.
type Broadcaster struct {
	conns *ConnectionManager
	users *UserManager
}

// NewBroadcaster creates a broadcaster over the given registries.
func NewBroadcaster(conns *ConnectionManager, users *UserManager) *Broadcaster {
	return &Broadcaster{conns: conns, users: users}
}

func serverMessagePayload(text string) []byte {
	w := protocol.GetWriter()
	defer w.Put()
	w.WriteFixedString(text, serverMessageWidth)
	out := make([]byte, w.Len())
	copy(out, w.Bytes())
	return out
}

// ServerMessageAll sends a server message to every authenticated connection.
func (b *Broadcaster) ServerMessageAll(text string) int {
	return b.BroadcastMatching(
		func(c *Client) bool { return c.User() != nil },
		OpServerMessage, serverMessagePayload(text))
}

// ServerMessageGame sends a server message to the players of one game.
func (b *Broadcaster) ServerMessageGame(g *room.Game, text string) {
	b.SendFrameToCharacters(g.PlayerCharacterIDs(), OpServerMessage, serverMessagePayload(text))
}

// ServerMessageClient sends a server message to a single connection.
func (b *Broadcaster) ServerMessageClient(c *Client, text string) {
	if err := c.Send(OpServerMessage, serverMessagePayload(text)); err != nil {
		slog.Debug("server message send failed", "conn", c.ID(), "error", err)
	}
}

// SendToCharacters delivers a server message to the given characters.
// Implements room.Notifier for the lifecycle manager.
func (b *Broadcaster) SendToCharacters(charIDs []uint32, text string) {
	b.SendFrameToCharacters(charIDs, OpServerMessage, serverMessagePayload(text))
}

// SendFrameToCharacters sends one frame to every online character in the
// list. Offline characters are skipped.
func (b *Broadcaster) SendFrameToCharacters(charIDs []uint32, opcode uint16, payload []byte) {
	for _, id := range charIDs {
		c := b.users.ClientByCharacter(id)
		if c == nil {
			continue
		}
		if err := c.Send(opcode, payload); err != nil {
			slog.Debug("frame send failed", "character", id, "conn", c.ID(), "error", err)
		}
	}
}

// BroadcastMatching sends one frame to every connection the predicate
// selects and returns the number of successful sends.
func (b *Broadcaster) BroadcastMatching(pred func(*Client) bool, opcode uint16, payload []byte) int {
	sent := 0
	b.conns.ForEachMatching(pred, func(c *Client) {
		if err := c.Send(opcode, payload); err != nil {
			slog.Debug("broadcast send failed", "conn", c.ID(), "error", err)
			return
		}
		sent++
	})
	return sent
}

// BroadcastLobby sends one frame to every connection browsing the lobby.
func (b *Broadcaster) BroadcastLobby(lobbyID int32, opcode uint16, payload []byte) int {
	return b.BroadcastMatching(func(c *Client) bool {
		l := c.Lobby()
		return l != nil && l.ID == lobbyID
	}, opcode, payload)
}
