package lobbyserver

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/avdonin/openlobby/internal/model"
	"github.com/avdonin/openlobby/internal/protocol"
)

const (
	defaultSendQueueSize = 256
	defaultWriteTimeout  = 5 * time.Second
	defaultReadTimeout   = 120 * time.Second
)

// Client is the per-connection context: one physical socket plus the
// session state attached to it (authenticated user, current lobby).
// Created on accept, destroyed on close, never shared across sockets.
type Client struct {
	id   uint32
	conn net.Conn
	ip   string

	// mu guards user and lobby (rare writes, per-dispatch reads).
	mu    sync.Mutex
	user  *model.User
	lobby *model.Lobby

	// Per-client write queue: handlers enqueue encoded frames, writePump
	// owns the socket writes. Frames from one connection keep their order.
	sendCh    chan []byte
	closeCh   chan struct{}
	closeOnce sync.Once

	writeTimeout time.Duration
}

// NewClient creates a client context for the given connection.
func NewClient(id uint32, conn net.Conn, sendQueueSize int, writeTimeout time.Duration) (*Client, error) {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		return nil, fmt.Errorf("splitting host port: %w", err)
	}
	if sendQueueSize <= 0 {
		sendQueueSize = defaultSendQueueSize
	}
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	return &Client{
		id:           id,
		conn:         conn,
		ip:           host,
		sendCh:       make(chan []byte, sendQueueSize),
		closeCh:      make(chan struct{}),
		writeTimeout: writeTimeout,
	}, nil
}

// ID returns the connection id.
func (c *Client) ID() uint32 {
	return c.id
}

// IP returns the remote host.
func (c *Client) IP() string {
	return c.ip
}

// Conn returns the underlying connection.
func (c *Client) Conn() net.Conn {
	return c.conn
}

// User returns the authenticated user, or nil before session check.
func (c *Client) User() *model.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// SetUser attaches the authenticated user.
func (c *Client) SetUser(u *model.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = u
}

// Lobby returns the lobby the connection currently browses, or nil.
func (c *Client) Lobby() *model.Lobby {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lobby
}

// SetLobby moves the connection into a lobby.
func (c *Client) SetLobby(l *model.Lobby) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lobby = l
}

// CharacterID returns the selected character id, or 0.
func (c *Client) CharacterID() uint32 {
	u := c.User()
	if u == nil {
		return 0
	}
	return u.CharacterID()
}

// Send encodes a frame and enqueues it on the write queue.
// A full queue means the client stopped draining; the connection is closed
// rather than blocking the dispatching goroutine.
func (c *Client) Send(opcode uint16, payload []byte) error {
	frame, err := protocol.EncodeFrame(nil, opcode, payload)
	if err != nil {
		return fmt.Errorf("encoding frame 0x%04X: %w", opcode, err)
	}

	// Checked before the enqueue select: with both channels ready the
	// select below would pick the enqueue half the time, making Send on a
	// closed client succeed nondeterministically.
	select {
	case <-c.closeCh:
		return fmt.Errorf("connection %d closed", c.id)
	default:
	}

	select {
	case <-c.closeCh:
		return fmt.Errorf("connection %d closed", c.id)
	case c.sendCh <- frame:
		return nil
	default:
		slog.Warn("send queue full, dropping client", "conn", c.id, "ip", c.ip)
		c.Close()
		return fmt.Errorf("send queue full on connection %d", c.id)
	}
}

// SendStatus replies with a single status byte on the given opcode.
func (c *Client) SendStatus(opcode uint16, status byte) error {
	return c.Send(opcode, []byte{status})
}

// writePump drains the send queue onto the socket. Runs on its own
// goroutine per connection; exits when the client closes.
func (c *Client) writePump() {
	for {
		select {
		case <-c.closeCh:
			return
		case frame := <-c.sendCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
				slog.Debug("set write deadline", "conn", c.id, "error", err)
				c.Close()
				return
			}
			if _, err := c.conn.Write(frame); err != nil {
				slog.Debug("write failed", "conn", c.id, "error", err)
				c.Close()
				return
			}
		}
	}
}

// Close shuts the connection down once. Safe to call from any goroutine.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closeCh)
		c.conn.Close()
	})
}

// Closed reports whether Close has been called.
func (c *Client) Closed() bool {
	select {
	case <-c.closeCh:
		return true
	default:
		return false
	}
}
