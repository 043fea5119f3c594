package lobbyserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avdonin/openlobby/internal/protocol"
)

// HandlerFunc processes one decoded frame on the connection's processing
// goroutine. It may write response frames through the client and block on
// storage; frames from the same connection wait their turn.
type HandlerFunc func(ctx context.Context, c *Client, r *protocol.Reader) error

// Handler pairs a handler function with the opcode its reply, if any, is
// sent on. Reply 0 means the request has no defined response and failures
// are silent.
type Handler struct {
	Fn    HandlerFunc
	Reply uint16
}

// HandlerSet groups the handlers of one controller (session, game, ...).
type HandlerSet map[uint16]Handler

// Registry is the static opcode → handler table, built once at startup and
// immutable afterwards.
type Registry struct {
	handlers map[uint16]Handler
}

// NewRegistry merges handler sets into one registry. Registering the same
// opcode twice is a startup-time configuration error.
func NewRegistry(sets ...HandlerSet) (*Registry, error) {
	merged := make(map[uint16]Handler)
	for _, set := range sets {
		for opcode, h := range set {
			if _, dup := merged[opcode]; dup {
				return nil, fmt.Errorf("duplicate handler for opcode 0x%04X", opcode)
			}
			if h.Fn == nil {
				return nil, fmt.Errorf("nil handler for opcode 0x%04X", opcode)
			}
			merged[opcode] = h
		}
	}
	return &Registry{handlers: merged}, nil
}

// Len returns the number of registered opcodes.
func (reg *Registry) Len() int {
	return len(reg.handlers)
}

// Dispatch routes a decoded frame to its handler.
//
// Unknown opcodes are logged and ignored: the legacy client sends opcodes
// this deployment does not implement. Handler errors and panics are
// contained here — logged with full context and converted into a generic
// error reply where the opcode defines one — so a failed dispatch never
// kills the connection loop.
func (reg *Registry) Dispatch(ctx context.Context, c *Client, opcode uint16, payload []byte) {
	h, ok := reg.handlers[opcode]
	if !ok {
		slog.Warn("unknown opcode, ignoring",
			"opcode", fmt.Sprintf("0x%04X", opcode),
			"conn", c.ID())
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("handler panic",
				"opcode", fmt.Sprintf("0x%04X", opcode),
				"conn", c.ID(),
				"panic", rec)
			if h.Reply != 0 {
				_ = c.SendStatus(h.Reply, StatusError)
			}
		}
	}()

	if err := h.Fn(ctx, c, protocol.NewReader(payload)); err != nil {
		slog.Error("handler failed",
			"opcode", fmt.Sprintf("0x%04X", opcode),
			"conn", c.ID(),
			"error", err)
		if h.Reply != 0 {
			_ = c.SendStatus(h.Reply, StatusError)
		}
	}
}
