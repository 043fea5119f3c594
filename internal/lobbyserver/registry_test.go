package lobbyserver

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avdonin/openlobby/internal/protocol"
)

var testConnIDs atomic.Uint32

// newTestClient returns a server-side Client over a real TCP socket pair
// plus the peer's end for driving it.
func newTestClient(t *testing.T) (*Client, net.Conn) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	type res struct {
		conn net.Conn
		err  error
	}
	accepted := make(chan res, 1)
	go func() {
		conn, err := ln.Accept()
		accepted <- res{conn, err}
	}()

	peer, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { peer.Close() })

	r := <-accepted
	require.NoError(t, r.err)

	c, err := NewClient(testConnIDs.Add(1), r.conn, 16, time.Second)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	go c.writePump()

	return c, peer
}

// readReply reads one frame off the peer's end.
func readReply(t *testing.T, peer net.Conn) (uint16, []byte) {
	t.Helper()
	require.NoError(t, peer.SetReadDeadline(time.Now().Add(time.Second)))
	buf := make([]byte, protocol.MaxFrameSize)
	opcode, payload, err := protocol.ReadFrame(peer, buf)
	require.NoError(t, err)
	return opcode, payload
}

func TestNewRegistryDuplicateOpcode(t *testing.T) {
	fn := func(ctx context.Context, c *Client, r *protocol.Reader) error { return nil }

	_, err := NewRegistry(
		HandlerSet{0x4100: {Fn: fn}},
		HandlerSet{0x4100: {Fn: fn}},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0x4100")
}

func TestNewRegistryNilHandler(t *testing.T) {
	_, err := NewRegistry(HandlerSet{0x4100: {}})
	require.Error(t, err)
}

func TestDispatchUnknownOpcodeIgnored(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	c, _ := newTestClient(t)

	// Must not panic, must not close the connection.
	reg.Dispatch(context.Background(), c, 0xDEAD, nil)
	assert.False(t, c.Closed())
}

func TestDispatchHandlerErrorSendsStatus(t *testing.T) {
	reg, err := NewRegistry(HandlerSet{
		0x4200: {
			Fn: func(ctx context.Context, c *Client, r *protocol.Reader) error {
				return assert.AnError
			},
			Reply: 0x4201,
		},
	})
	require.NoError(t, err)

	c, peer := newTestClient(t)
	reg.Dispatch(context.Background(), c, 0x4200, nil)

	opcode, payload := readReply(t, peer)
	assert.Equal(t, uint16(0x4201), opcode)
	require.Len(t, payload, 1)
	assert.Equal(t, StatusError, payload[0])
	assert.False(t, c.Closed())
}

func TestDispatchPanicContained(t *testing.T) {
	reg, err := NewRegistry(HandlerSet{
		0x4200: {
			Fn: func(ctx context.Context, c *Client, r *protocol.Reader) error {
				panic("boom")
			},
			Reply: 0x4201,
		},
	})
	require.NoError(t, err)

	c, peer := newTestClient(t)

	require.NotPanics(t, func() {
		reg.Dispatch(context.Background(), c, 0x4200, nil)
	})

	opcode, payload := readReply(t, peer)
	assert.Equal(t, uint16(0x4201), opcode)
	require.Len(t, payload, 1)
	assert.Equal(t, StatusError, payload[0])
	assert.False(t, c.Closed())
}

func TestDispatchNoReplyOpcodeStaysSilent(t *testing.T) {
	reg, err := NewRegistry(HandlerSet{
		0x4390: {
			Fn: func(ctx context.Context, c *Client, r *protocol.Reader) error {
				return assert.AnError
			},
		},
	})
	require.NoError(t, err)

	c, peer := newTestClient(t)
	reg.Dispatch(context.Background(), c, 0x4390, nil)

	require.NoError(t, peer.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err = protocol.ReadFrame(peer, make([]byte, protocol.MaxFrameSize))
	require.Error(t, err, "no reply expected for a fire-and-forget opcode")
	assert.False(t, c.Closed())
}
