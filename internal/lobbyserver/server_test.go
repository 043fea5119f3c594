package lobbyserver

import (
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avdonin/openlobby/internal/config"
	"github.com/avdonin/openlobby/internal/game/room"
	"github.com/avdonin/openlobby/internal/model"
	"github.com/avdonin/openlobby/internal/protocol"
)

type nopStore struct{}

func (nopStore) InsertGame(ctx context.Context, g room.GameRecord) error                      { return nil }
func (nopStore) DeleteGame(ctx context.Context, gameID int32) error                           { return nil }
func (nopStore) AddPlayer(ctx context.Context, gameID int32, charID uint32, team int32) error { return nil }
func (nopStore) RemovePlayer(ctx context.Context, gameID int32, charID uint32) error          { return nil }
func (nopStore) SetHost(ctx context.Context, gameID int32, charID uint32) error               { return nil }

type allOnline struct{}

func (allOnline) CharacterOnline(charID uint32) bool { return true }

type nopNotifier struct{}

func (nopNotifier) SendToCharacters(charIDs []uint32, text string) {}

// testServer bundles a running server with the registries a test needs to
// inspect or seed.
type testServer struct {
	addr  string
	conns *ConnectionManager
	users *UserManager
	rooms *room.Manager
}

// startTestServer serves a registry with a single echo opcode on an
// ephemeral port.
func startTestServer(t *testing.T) *testServer {
	t.Helper()

	echo := HandlerSet{
		0x4200: {
			Fn: func(ctx context.Context, c *Client, r *protocol.Reader) error {
				data, err := r.ReadBytes(r.Remaining())
				if err != nil {
					return err
				}
				return c.Send(0x4201, data)
			},
			Reply: 0x4201,
		},
	}
	reg, err := NewRegistry(echo)
	require.NoError(t, err)

	conns := NewConnectionManager()
	users := NewUserManager()
	rooms := room.NewManager(nopStore{}, allOnline{}, nopNotifier{}, nil, room.Options{})

	cfg := config.DefaultServer()
	cfg.FloodProtection = false
	srv := NewServer(cfg, conns, users, rooms, reg)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx, ln)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return &testServer{addr: ln.Addr().String(), conns: conns, users: users, rooms: rooms}
}

func writeRequest(t *testing.T, conn net.Conn, opcode uint16, payload []byte) {
	t.Helper()
	require.NoError(t, protocol.WriteFrame(conn, opcode, payload))
}

func readFrame(t *testing.T, conn net.Conn) (uint16, []byte, error) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	return protocol.ReadFrame(conn, make([]byte, protocol.MaxFrameSize))
}

func TestServerEchoRoundtrip(t *testing.T) {
	ts := startTestServer(t)

	conn, err := net.Dial("tcp", ts.addr)
	require.NoError(t, err)
	defer conn.Close()

	writeRequest(t, conn, 0x4200, []byte{1, 2, 3})

	opcode, payload, err := readFrame(t, conn)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x4201), opcode)
	assert.Equal(t, []byte{1, 2, 3}, payload)
}

func TestServerUnknownOpcodeKeepsConnection(t *testing.T) {
	ts := startTestServer(t)

	conn, err := net.Dial("tcp", ts.addr)
	require.NoError(t, err)
	defer conn.Close()

	// Unknown opcode: no response, connection survives.
	writeRequest(t, conn, 0xDEAD, []byte{9, 9})

	_, _, err = readFrame(t, conn)
	require.Error(t, err, "unknown opcode must not produce a reply")

	// The stream is still usable afterwards.
	writeRequest(t, conn, 0x4200, []byte{7})
	opcode, payload, err := readFrame(t, conn)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x4201), opcode)
	assert.Equal(t, []byte{7}, payload)
}

func TestServerMalformedFrameDropsConnection(t *testing.T) {
	ts := startTestServer(t)

	conn, err := net.Dial("tcp", ts.addr)
	require.NoError(t, err)
	defer conn.Close()

	// Length field below the header size is unrecoverable.
	var header [protocol.HeaderSize]byte
	binary.LittleEndian.PutUint16(header[:2], 2)
	binary.LittleEndian.PutUint16(header[2:], 0x4200)
	_, err = conn.Write(header[:])
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	buf := make([]byte, 1)
	_, err = conn.Read(buf)
	assert.Error(t, err, "server should close the connection")
}

func TestHostDisconnectEndsGame(t *testing.T) {
	ts := startTestServer(t)
	ctx := context.Background()

	peer, err := net.Dial("tcp", ts.addr)
	require.NoError(t, err)
	defer peer.Close()

	// Wait for the server-side client, then attach a session directly;
	// the teardown under test does not depend on how it was established.
	var host *Client
	require.Eventually(t, func() bool {
		ts.conns.ForEach(func(c *Client) bool {
			host = c
			return false
		})
		return host != nil
	}, time.Second, 10*time.Millisecond)

	user := model.NewUser(&model.Account{ID: 7, Login: "host"})
	ts.users.Attach(host, user)
	user.SetCharacter(&model.Character{ID: 10, AccountID: 7, Name: "HostChar"})
	ts.users.BindCharacter(host, 10)

	g, err := ts.rooms.CreateGame(ctx, 10, "HostChar", 1, room.Config{Name: "Doomed", MaxPlayers: 4})
	require.NoError(t, err)
	require.True(t, ts.rooms.Exists(g.ID()))

	// The host's socket dies without a quit request.
	require.NoError(t, peer.Close())

	require.Eventually(t, func() bool { return !ts.rooms.Exists(g.ID()) },
		2*time.Second, 10*time.Millisecond, "host disconnect must end the game")
	require.Eventually(t, func() bool { return ts.conns.Count() == 0 },
		2*time.Second, 10*time.Millisecond)
	assert.Nil(t, ts.users.ClientByAccount(7))
	assert.Nil(t, ts.rooms.FindByCharacter(10))
}

func TestServerShutdownClosesClients(t *testing.T) {
	echo := HandlerSet{}
	reg, err := NewRegistry(echo)
	require.NoError(t, err)

	conns := NewConnectionManager()
	users := NewUserManager()
	rooms := room.NewManager(nopStore{}, allOnline{}, nopNotifier{}, nil, room.Options{})

	cfg := config.DefaultServer()
	cfg.FloodProtection = false
	srv := NewServer(cfg, conns, users, rooms, reg)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx, ln)
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return conns.Count() == 1 }, time.Second, 10*time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop after cancel")
	}
	assert.Equal(t, 0, conns.Count())
}
