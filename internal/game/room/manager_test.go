package room

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu          sync.Mutex
	inserts     int
	deletes     int
	addErr      error
	deleteErr   error
	hostChanges []uint32
}

func (s *fakeStore) InsertGame(_ context.Context, _ GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts++
	return nil
}

func (s *fakeStore) DeleteGame(_ context.Context, _ int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deletes++
	return nil
}

func (s *fakeStore) AddPlayer(_ context.Context, _ int32, _ uint32, _ int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addErr
}

func (s *fakeStore) RemovePlayer(_ context.Context, _ int32, _ uint32) error {
	return nil
}

func (s *fakeStore) SetHost(_ context.Context, _ int32, charID uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hostChanges = append(s.hostChanges, charID)
	return nil
}

func (s *fakeStore) deleteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deletes
}

type fakePresence struct {
	mu     sync.Mutex
	online map[uint32]bool
}

func newFakePresence(chars ...uint32) *fakePresence {
	p := &fakePresence{online: make(map[uint32]bool)}
	for _, c := range chars {
		p.online[c] = true
	}
	return p
}

func (p *fakePresence) CharacterOnline(charID uint32) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online[charID]
}

type fakeNotifier struct {
	mu    sync.Mutex
	sent  int
	texts []string
}

func (n *fakeNotifier) SendToCharacters(_ []uint32, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent++
	n.texts = append(n.texts, text)
}

func (n *fakeNotifier) sentCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent
}

type fakeHeartbeat struct {
	mu    sync.Mutex
	fired int
}

func (h *fakeHeartbeat) OnGameHeartbeat(_ *Game) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fired++
}

func (h *fakeHeartbeat) firedCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fired
}

type testEnv struct {
	mgr       *Manager
	store     *fakeStore
	presence  *fakePresence
	notifier  *fakeNotifier
	heartbeat *fakeHeartbeat
}

func newTestEnv(t *testing.T, opts Options, online ...uint32) *testEnv {
	t.Helper()
	env := &testEnv{
		store:     &fakeStore{},
		presence:  newFakePresence(online...),
		notifier:  &fakeNotifier{},
		heartbeat: &fakeHeartbeat{},
	}
	env.mgr = NewManager(env.store, env.presence, env.notifier, env.heartbeat, opts)
	return env
}

func mustCreate(t *testing.T, env *testEnv, host uint32, maxPlayers int) *Game {
	t.Helper()
	g, err := env.mgr.CreateGame(context.Background(), host, "Host", 1, Config{
		Name:       "room",
		MaxPlayers: maxPlayers,
	})
	require.NoError(t, err)
	return g
}

func TestCreateGame(t *testing.T) {
	env := newTestEnv(t, Options{}, 1)

	g := mustCreate(t, env, 1, 4)

	assert.Equal(t, 1, g.PlayerCount())
	assert.Equal(t, uint32(1), g.HostCharacterID())
	assert.Equal(t, 1, env.store.inserts)
	assert.Equal(t, g, env.mgr.Get(g.ID()))
	assert.Equal(t, g, env.mgr.FindByCharacter(1))
}

func TestCreateGame_AlreadyHosting(t *testing.T) {
	env := newTestEnv(t, Options{}, 1)
	mustCreate(t, env, 1, 4)

	_, err := env.mgr.CreateGame(context.Background(), 1, "Host", 1, Config{Name: "second", MaxPlayers: 4})
	assert.ErrorIs(t, err, ErrAlreadyHosting)
}

func TestCreateGame_InvalidMaxPlayers(t *testing.T) {
	env := newTestEnv(t, Options{}, 1)

	_, err := env.mgr.CreateGame(context.Background(), 1, "Host", 1, Config{Name: "room", MaxPlayers: 1})
	assert.Error(t, err)

	_, err = env.mgr.CreateGame(context.Background(), 1, "Host", 1, Config{Name: "room", MaxPlayers: MaxPlayers + 1})
	assert.Error(t, err)
}

func TestAddPlayer(t *testing.T) {
	env := newTestEnv(t, Options{}, 1, 2)
	g := mustCreate(t, env, 1, 4)

	err := env.mgr.AddPlayer(context.Background(), g, 2, "B", false)
	require.NoError(t, err)
	assert.Equal(t, 2, g.PlayerCount())
	assert.Equal(t, g, env.mgr.FindByCharacter(2))
}

func TestAddPlayer_CharacterOffline(t *testing.T) {
	env := newTestEnv(t, Options{}, 1)
	g := mustCreate(t, env, 1, 4)

	err := env.mgr.AddPlayer(context.Background(), g, 99, "ghost", false)
	assert.ErrorIs(t, err, ErrCharacterNotOnline)
}

func TestAddPlayer_RequireJoining(t *testing.T) {
	env := newTestEnv(t, Options{}, 1, 2)
	g := mustCreate(t, env, 1, 4)

	// No marker at all.
	err := env.mgr.AddPlayer(context.Background(), g, 2, "B", true)
	assert.ErrorIs(t, err, ErrNotJoiningThisGame)

	// Marker pointing at a different game id.
	env.mgr.MarkJoining(2, g.ID()+100)
	err = env.mgr.AddPlayer(context.Background(), g, 2, "B", true)
	assert.ErrorIs(t, err, ErrNotJoiningThisGame)

	// Correct marker admits and is consumed.
	env.mgr.MarkJoining(2, g.ID())
	err = env.mgr.AddPlayer(context.Background(), g, 2, "B", true)
	require.NoError(t, err)
	_, ok := env.mgr.JoiningTarget(2)
	assert.False(t, ok)
}

func TestAddPlayer_Full(t *testing.T) {
	env := newTestEnv(t, Options{}, 1, 2, 3)
	g := mustCreate(t, env, 1, 2)

	require.NoError(t, env.mgr.AddPlayer(context.Background(), g, 2, "B", false))
	assert.Equal(t, g.MaxPlayers(), g.PlayerCount())

	err := env.mgr.AddPlayer(context.Background(), g, 3, "C", false)
	assert.ErrorIs(t, err, ErrGameFull)
	assert.LessOrEqual(t, g.PlayerCount(), g.MaxPlayers())
}

func TestAddPlayer_Idempotent(t *testing.T) {
	env := newTestEnv(t, Options{}, 1, 2)
	g := mustCreate(t, env, 1, 4)

	require.NoError(t, env.mgr.AddPlayer(context.Background(), g, 2, "B", false))
	err := env.mgr.AddPlayer(context.Background(), g, 2, "B", false)
	assert.ErrorIs(t, err, ErrAlreadyInGame)
	assert.Equal(t, 2, g.PlayerCount())
}

func TestAddPlayer_TransfersFromOtherGame(t *testing.T) {
	env := newTestEnv(t, Options{}, 1, 2, 3)
	g1 := mustCreate(t, env, 1, 4)
	g2 := mustCreate(t, env, 2, 4)

	require.NoError(t, env.mgr.AddPlayer(context.Background(), g1, 3, "C", false))
	require.NoError(t, env.mgr.AddPlayer(context.Background(), g2, 3, "C", false))

	assert.False(t, g1.HasPlayer(3))
	assert.True(t, g2.HasPlayer(3))
	assert.Equal(t, g2, env.mgr.FindByCharacter(3))
}

func TestAddPlayer_StoreFailureRollsBack(t *testing.T) {
	env := newTestEnv(t, Options{}, 1, 2)
	g := mustCreate(t, env, 1, 4)

	env.store.addErr = errors.New("db down")
	err := env.mgr.AddPlayer(context.Background(), g, 2, "B", false)
	require.Error(t, err)
	assert.Equal(t, 1, g.PlayerCount())
	assert.Nil(t, env.mgr.FindByCharacter(2))
}

func TestRemovePlayer(t *testing.T) {
	env := newTestEnv(t, Options{}, 1, 2)
	g := mustCreate(t, env, 1, 4)
	require.NoError(t, env.mgr.AddPlayer(context.Background(), g, 2, "B", false))

	require.NoError(t, env.mgr.RemovePlayer(context.Background(), g, 2, true))
	assert.Equal(t, 1, g.PlayerCount())
	assert.Nil(t, env.mgr.FindByCharacter(2))
}

func TestRemovePlayer_Errors(t *testing.T) {
	env := newTestEnv(t, Options{}, 1, 2)
	g1 := mustCreate(t, env, 1, 4)
	mustCreate(t, env, 2, 4)

	err := env.mgr.RemovePlayer(context.Background(), g1, 99, true)
	assert.ErrorIs(t, err, ErrNotInAnyGame)

	// Character 2 hosts g2, not a member of g1.
	err = env.mgr.RemovePlayer(context.Background(), g1, 2, true)
	assert.ErrorIs(t, err, ErrNotInThisGame)
}

func TestPassHost(t *testing.T) {
	env := newTestEnv(t, Options{}, 1, 2)
	g := mustCreate(t, env, 1, 4)
	require.NoError(t, env.mgr.AddPlayer(context.Background(), g, 2, "B", false))

	require.NoError(t, env.mgr.PassHost(context.Background(), g, 2))

	assert.Equal(t, uint32(2), g.HostCharacterID())
	assert.False(t, g.HasPlayer(1))
	assert.Equal(t, 1, g.PlayerCount())
	assert.Equal(t, []uint32{2}, env.store.hostChanges)
}

func TestPassHost_TargetNotFound(t *testing.T) {
	env := newTestEnv(t, Options{}, 1)
	g := mustCreate(t, env, 1, 4)

	err := env.mgr.PassHost(context.Background(), g, 42)
	assert.ErrorIs(t, err, ErrTargetNotFound)
	assert.Equal(t, uint32(1), g.HostCharacterID())
}

func TestQuitGame_MemberLeaves(t *testing.T) {
	env := newTestEnv(t, Options{}, 1, 2)
	g := mustCreate(t, env, 1, 4)
	require.NoError(t, env.mgr.AddPlayer(context.Background(), g, 2, "B", false))

	require.NoError(t, env.mgr.QuitGame(context.Background(), 2))
	assert.True(t, env.mgr.Exists(g.ID()))
	assert.Equal(t, 1, g.PlayerCount())
}

func TestQuitGame_HostEndsGame(t *testing.T) {
	env := newTestEnv(t, Options{}, 1, 2)
	g := mustCreate(t, env, 1, 4)
	require.NoError(t, env.mgr.AddPlayer(context.Background(), g, 2, "B", false))

	require.NoError(t, env.mgr.QuitGame(context.Background(), 1))

	assert.False(t, env.mgr.Exists(g.ID()))
	assert.Nil(t, env.mgr.FindByCharacter(2))
	assert.Equal(t, 1, env.store.deleteCount())
	assert.Equal(t, 1, env.notifier.sentCount())
}

func TestEndGame_Idempotent(t *testing.T) {
	env := newTestEnv(t, Options{}, 1, 2)
	g := mustCreate(t, env, 1, 4)
	require.NoError(t, env.mgr.AddPlayer(context.Background(), g, 2, "B", false))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = env.mgr.EndGame(context.Background(), g)
		}()
	}
	wg.Wait()

	assert.False(t, env.mgr.Exists(g.ID()))
	assert.Equal(t, 1, env.store.deleteCount())
	assert.Equal(t, 1, env.notifier.sentCount())
}

func TestEndGame_DeleteFailureKeepsRegistration(t *testing.T) {
	env := newTestEnv(t, Options{}, 1)
	g := mustCreate(t, env, 1, 4)

	env.store.deleteErr = errors.New("db down")
	err := env.mgr.EndGame(context.Background(), g)
	require.Error(t, err)
	assert.True(t, env.mgr.Exists(g.ID()))
}

func TestStartRound_SnapshotSurvivesLeaver(t *testing.T) {
	env := newTestEnv(t, Options{}, 1, 2)
	g := mustCreate(t, env, 1, 4)
	require.NoError(t, env.mgr.AddPlayer(context.Background(), g, 2, "B", false))

	env.mgr.StartRound(g)
	require.NoError(t, env.mgr.RemovePlayer(context.Background(), g, 2, true))

	assert.True(t, g.PlayedInLastRound(2))
	assert.False(t, g.HasPlayer(2))
}

func TestSetRound(t *testing.T) {
	env := newTestEnv(t, Options{}, 1)
	g := mustCreate(t, env, 1, 4)

	env.mgr.SetRound(g, 3)
	assert.Equal(t, int32(3), g.CurrentRound())
}

func TestOnPing_HeartbeatThrottled(t *testing.T) {
	env := newTestEnv(t, Options{HeartbeatInterval: 50 * time.Millisecond}, 1)
	g := mustCreate(t, env, 1, 4)

	// Creation stamps lastNCheck, so immediate pings stay inside the window.
	env.mgr.OnPing(g)
	env.mgr.OnPing(g)
	assert.Equal(t, 0, env.heartbeat.firedCount())

	time.Sleep(60 * time.Millisecond)
	env.mgr.OnPing(g)
	assert.Equal(t, 1, env.heartbeat.firedCount())

	env.mgr.OnPing(g)
	assert.Equal(t, 1, env.heartbeat.firedCount())
}

// Full lifecycle scenario: create, fill, reject overflow, pass host, host
// chain departure removes the room.
func TestLifecycleScenario(t *testing.T) {
	env := newTestEnv(t, Options{}, 1, 2, 3)
	ctx := context.Background()

	g, err := env.mgr.CreateGame(ctx, 1, "A", 1, Config{Name: "duel room", MaxPlayers: 2})
	require.NoError(t, err)

	require.NoError(t, env.mgr.AddPlayer(ctx, g, 2, "B", false))
	assert.Equal(t, 2, g.PlayerCount())

	err = env.mgr.AddPlayer(ctx, g, 3, "C", false)
	assert.ErrorIs(t, err, ErrGameFull)

	require.NoError(t, env.mgr.PassHost(ctx, g, 2))
	assert.Equal(t, uint32(2), g.HostCharacterID())
	assert.Equal(t, 1, g.PlayerCount())

	require.NoError(t, env.mgr.QuitGame(ctx, 2))
	assert.False(t, env.mgr.Exists(g.ID()))
}
