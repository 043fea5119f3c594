package lobbyserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/avdonin/openlobby/internal/config"
	"github.com/avdonin/openlobby/internal/game/room"
	"github.com/avdonin/openlobby/internal/protocol"
)

// Server accepts client connections and runs one read loop per connection.
// Frames from one connection are processed in arrival order; different
// connections are fully concurrent.
type Server struct {
	cfg      config.Server
	conns    *ConnectionManager
	users    *UserManager
	rooms    *room.Manager
	registry *Registry
	flood    *FloodLimiter

	listener net.Listener
	mu       sync.Mutex
}

// NewServer assembles a server from already-wired components.
func NewServer(cfg config.Server, conns *ConnectionManager, users *UserManager, rooms *room.Manager, registry *Registry) *Server {
	var flood *FloodLimiter
	if cfg.FloodProtection {
		flood = NewFloodLimiter(cfg.ConnectionRate, cfg.ConnectionBurst)
	}
	return &Server{
		cfg:      cfg,
		conns:    conns,
		users:    users,
		rooms:    rooms,
		registry: registry,
		flood:    flood,
	}
}

// Addr returns the listen address, or nil before Run.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close shuts the listener down.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.BindAddress, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	return s.Serve(ctx, ln)
}

// Serve runs the accept loop on a ready listener. Exposed separately so
// tests can serve on an ephemeral port or a pipe listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("lobby server started", "address", ln.Addr())
		s.acceptLoop(ctx, &wg, ln)
	}()

	wg.Wait()

	return nil
}

func (s *Server) acceptLoop(ctx context.Context, wg *sync.WaitGroup, ln net.Listener) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			conn, err := ln.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				slog.Error("accept failed", "error", err)
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.handleConnection(ctx, conn)
			}()
		}
	}
}

// handleConnection owns one socket from accept to cleanup.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	if tcp, ok := conn.(*net.TCPConn); ok {
		if err := tcp.SetKeepAlive(true); err != nil {
			slog.Debug("set keepalive", "remote", conn.RemoteAddr(), "error", err)
		}
	}

	client, err := NewClient(s.conns.NextID(), conn, s.cfg.SendQueueSize, s.cfg.WriteTimeout)
	if err != nil {
		slog.Error("rejecting connection", "remote", conn.RemoteAddr(), "error", err)
		return
	}
	if s.flood != nil && !s.flood.Allow(client.IP()) {
		slog.Warn("connection rate limited", "ip", client.IP())
		return
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			client.Close()
		case <-done:
		}
	}()

	s.conns.Add(client)
	defer s.disconnect(client)

	slog.Info("new connection", "conn", client.ID(), "ip", client.IP())

	go client.writePump()
	s.readLoop(ctx, client)
}

// readLoop decodes frames off the socket and dispatches them until the
// connection dies. A malformed frame desynchronizes the stream, so it is
// connection-fatal; handler failures are not.
func (s *Server) readLoop(ctx context.Context, c *Client) {
	buf := make([]byte, protocol.MaxFrameSize)
	for {
		if c.Closed() || ctx.Err() != nil {
			return
		}
		if err := c.Conn().SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
			slog.Debug("set read deadline", "conn", c.ID(), "error", err)
			return
		}

		opcode, payload, err := protocol.ReadFrame(c.Conn(), buf)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
				slog.Debug("connection closed by peer", "conn", c.ID())
			case errors.Is(err, protocol.ErrMalformedFrame):
				slog.Warn("malformed frame, dropping connection", "conn", c.ID(), "ip", c.IP(), "error", err)
			default:
				slog.Debug("read failed", "conn", c.ID(), "error", err)
			}
			return
		}

		s.registry.Dispatch(ctx, c, opcode, payload)
	}
}

// disconnect runs the teardown of a dead connection: the character leaves
// its game (a quitting host ends it), the join marker and the user indexes
// are dropped, and the connection is deregistered.
func (s *Server) disconnect(c *Client) {
	c.Close()

	if charID := c.CharacterID(); charID != 0 {
		s.rooms.ClearJoining(charID)
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.rooms.QuitGame(cleanupCtx, charID); err != nil && !errors.Is(err, room.ErrNotInAnyGame) {
			slog.Warn("game cleanup on disconnect failed", "conn", c.ID(), "char", charID, "error", err)
		}
		cancel()
		s.users.UnbindCharacter(c, charID)
	}
	s.users.Detach(c)
	s.conns.Remove(c.ID())

	slog.Info("connection closed", "conn", c.ID(), "ip", c.IP())
}
