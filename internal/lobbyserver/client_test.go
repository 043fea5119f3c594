package lobbyserver

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendAfterCloseAlwaysFails(t *testing.T) {
	c, _ := newTestClient(t)
	c.Close()

	// The queue has free capacity, so a bare two-way select would race the
	// closed channel against the enqueue and sometimes accept the frame.
	// Every send after Close must fail.
	for i := 0; i < 200; i++ {
		err := c.Send(OpServerMessage, []byte{0})
		require.Error(t, err, "send %d accepted on a closed client", i)
	}
	assert.Empty(t, c.sendCh)
}

func TestSendBeforeCloseDelivered(t *testing.T) {
	c, peer := newTestClient(t)

	require.NoError(t, c.Send(OpServerMessage, []byte{1}))

	opcode, payload := readReply(t, peer)
	assert.Equal(t, OpServerMessage, opcode)
	assert.Equal(t, []byte{1}, payload)
}

func TestSendFullQueueClosesClient(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	peer, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { peer.Close() })

	// Queue of one and no writePump draining it.
	c, err := NewClient(testConnIDs.Add(1), <-accepted, 1, time.Second)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	require.NoError(t, c.Send(OpServerMessage, []byte{1}))

	err = c.Send(OpServerMessage, []byte{2})
	require.Error(t, err, "overflowing the queue must fail")
	assert.True(t, c.Closed(), "a client that stopped draining is dropped")
}

func TestCloseIsIdempotent(t *testing.T) {
	c, _ := newTestClient(t)

	c.Close()
	require.NotPanics(t, c.Close)
	assert.True(t, c.Closed())

	// writePump exits promptly once closed.
	assert.Eventually(t, c.Closed, time.Second, 10*time.Millisecond)
}
