package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Domain results returned by lifecycle operations. Handlers map these to
// the non-zero status codes of the opcode-specific replies.
var (
	ErrNotOnline          = errors.New("user not online")
	ErrCharacterNotOnline = errors.New("character not online")
	ErrNotJoiningThisGame = errors.New("character is not joining this game")
	ErrGameFull           = errors.New("game is full")
	ErrAlreadyInGame      = errors.New("character already in this game")
	ErrNotInAnyGame       = errors.New("character not in any game")
	ErrNotInThisGame      = errors.New("character not in this game")
	ErrTargetNotFound     = errors.New("target player not found")
	ErrAlreadyHosting     = errors.New("character already hosting a game")
	ErrGameNotFound       = errors.New("game not found")
)

// GameStore persists game lifecycle transitions. Implementations group
// multi-row writes into a single transaction (see db.GameRepository).
type GameStore interface {
	InsertGame(ctx context.Context, g GameRecord) error
	DeleteGame(ctx context.Context, gameID int32) error
	AddPlayer(ctx context.Context, gameID int32, charID uint32, team int32) error
	RemovePlayer(ctx context.Context, gameID int32, charID uint32) error
	SetHost(ctx context.Context, gameID int32, charID uint32) error
}

// GameRecord is the persisted shape of a newly created game.
type GameRecord struct {
	ID         int32
	Name       string
	LobbyID    int32
	HostCharID uint32
	MaxPlayers int
	Passworded bool
}

// PresenceChecker answers whether a character currently has a live session.
type PresenceChecker interface {
	CharacterOnline(charID uint32) bool
}

// Notifier delivers server messages to a set of characters.
type Notifier interface {
	SendToCharacters(charIDs []uint32, text string)
}

// HeartbeatHook is the anti-cheat collaborator, invoked at most once per
// heartbeat interval per game.
type HeartbeatHook interface {
	OnGameHeartbeat(g *Game)
}

// Config holds the host-supplied parameters of a new room.
type Config struct {
	Name       string
	Password   string
	MaxPlayers int
	Team       int32 // host's initial team
}

// Options tune manager timings. Zero values fall back to legacy defaults.
type Options struct {
	// IdleTimeout is how long a game may go without a ping before the
	// reaper ends it.
	IdleTimeout time.Duration
	// HeartbeatInterval throttles the anti-cheat hook per game.
	HeartbeatInterval time.Duration
}

const (
	defaultIdleTimeout       = 60 * time.Second
	defaultHeartbeatInterval = 60 * time.Second
)

// Manager owns the authoritative set of active games and their lifecycle.
// It is the only component allowed to mutate a Game's player list, host and
// round index, always under that game's own mutex.
//
// Lock order: a game's mutex may be taken first and the registry mutex
// nested inside it, never the reverse. The registry mutex is never held
// across storage calls.
type Manager struct {
	mu     sync.RWMutex
	games  map[int32]*Game
	byChar map[uint32]int32 // character id → game id membership index
	nextID atomic.Int32

	// joining maps character id → game id announced by the join-request
	// flow. Consumed by AddPlayer when requireJoining is set.
	joining sync.Map

	store     GameStore
	presence  PresenceChecker
	notifier  Notifier
	heartbeat HeartbeatHook

	idleTimeout       time.Duration
	heartbeatInterval time.Duration
}

// NewManager creates a game lifecycle manager.
func NewManager(store GameStore, presence PresenceChecker, notifier Notifier, heartbeat HeartbeatHook, opts Options) *Manager {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = defaultIdleTimeout
	}
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = defaultHeartbeatInterval
	}
	return &Manager{
		games:             make(map[int32]*Game, 64),
		byChar:            make(map[uint32]int32, 256),
		store:             store,
		presence:          presence,
		notifier:          notifier,
		heartbeat:         heartbeat,
		idleTimeout:       opts.IdleTimeout,
		heartbeatInterval: opts.HeartbeatInterval,
	}
}

// Get returns a game by id, or nil if not registered.
func (m *Manager) Get(gameID int32) *Game {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.games[gameID]
}

// Exists reports whether a game id is registered.
func (m *Manager) Exists(gameID int32) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.games[gameID]
	return ok
}

// FindByCharacter returns the game whose player list contains the
// character, or nil.
func (m *Manager) FindByCharacter(charID uint32) *Game {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.byChar[charID]; ok {
		return m.games[id]
	}
	return nil
}

// Count returns the number of active games.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.games)
}

// Snapshot returns a copy of the active game set. Callers may end games
// while iterating the snapshot without invalidating it.
func (m *Manager) Snapshot() []*Game {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Game, 0, len(m.games))
	for _, g := range m.games {
		out = append(out, g)
	}
	return out
}

// GamesInLobby returns a snapshot of games belonging to the given lobby.
func (m *Manager) GamesInLobby(lobbyID int32) []*Game {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Game, 0, 16)
	for _, g := range m.games {
		if g.lobbyID == lobbyID {
			out = append(out, g)
		}
	}
	return out
}

// MarkJoining records that the join-request flow told the character it is
// entering the given game. Overwrites any previous marker.
func (m *Manager) MarkJoining(charID uint32, gameID int32) {
	m.joining.Store(charID, gameID)
}

// ClearJoining drops the character's joining marker.
func (m *Manager) ClearJoining(charID uint32) {
	m.joining.Delete(charID)
}

// JoiningTarget returns the game id the character was told it is entering.
func (m *Manager) JoiningTarget(charID uint32) (int32, bool) {
	v, ok := m.joining.Load(charID)
	if !ok {
		return 0, false
	}
	return v.(int32), true
}

// CreateGame allocates a new game with the host as its first player,
// persists it, and registers it. The caller is responsible for checking the
// host is not already hosting; the manager still rejects a double host.
func (m *Manager) CreateGame(ctx context.Context, hostCharID uint32, hostName string, lobbyID int32, cfg Config) (*Game, error) {
	if existing := m.FindByCharacter(hostCharID); existing != nil && existing.HostCharacterID() == hostCharID {
		return nil, ErrAlreadyHosting
	}
	if cfg.MaxPlayers < MinPlayers || cfg.MaxPlayers > MaxPlayers {
		return nil, fmt.Errorf("invalid max players: %d", cfg.MaxPlayers)
	}

	now := time.Now()
	g := &Game{
		id:         m.nextID.Add(1),
		name:       cfg.Name,
		lobbyID:    lobbyID,
		password:   cfg.Password,
		maxPlayers: cfg.MaxPlayers,
		hostCharID: hostCharID,
		players: []*Player{{
			CharacterID: hostCharID,
			Name:        hostName,
			Team:        cfg.Team,
		}},
		lastUpdate: now,
		lastNCheck: now,
	}

	rec := GameRecord{
		ID:         g.id,
		Name:       g.name,
		LobbyID:    g.lobbyID,
		HostCharID: hostCharID,
		MaxPlayers: g.maxPlayers,
		Passworded: g.password != "",
	}
	if err := m.store.InsertGame(ctx, rec); err != nil {
		return nil, fmt.Errorf("persisting game %d: %w", g.id, err)
	}

	m.mu.Lock()
	m.games[g.id] = g
	m.byChar[hostCharID] = g.id
	m.mu.Unlock()

	slog.Info("game created",
		"game", g.id,
		"name", g.name,
		"lobby", g.lobbyID,
		"host", hostCharID)
	return g, nil
}

// AddPlayer admits a character into the game under the game's lock.
//
// With requireJoining set, the character must have been told by the
// join-request flow that it is entering this specific game id. Membership in
// a different game is torn down first (the old game's lock is released
// before this game's is taken, so the character is briefly in neither list).
// Joining a game it is already in returns ErrAlreadyInGame; callers treat
// that as success.
func (m *Manager) AddPlayer(ctx context.Context, g *Game, charID uint32, name string, requireJoining bool) error {
	if !m.presence.CharacterOnline(charID) {
		return ErrCharacterNotOnline
	}
	if requireJoining {
		target, ok := m.JoiningTarget(charID)
		if !ok || target != g.ID() {
			return ErrNotJoiningThisGame
		}
	}

	// Tear down membership in any other game before touching this one.
	if old := m.FindByCharacter(charID); old != nil {
		if old.ID() == g.ID() {
			return ErrAlreadyInGame
		}
		if err := m.RemovePlayer(ctx, old, charID, false); err != nil {
			slog.Warn("tearing down previous game membership",
				"character", charID,
				"oldGame", old.ID(),
				"error", err)
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.indexOfLocked(charID) >= 0 {
		return ErrAlreadyInGame
	}
	if len(g.players) >= g.maxPlayers {
		return ErrGameFull
	}

	p := &Player{CharacterID: charID, Name: name}
	g.players = append(g.players, p)

	if err := m.store.AddPlayer(ctx, g.id, charID, p.Team); err != nil {
		g.players = g.players[:len(g.players)-1]
		return fmt.Errorf("persisting player %d in game %d: %w", charID, g.id, err)
	}

	m.mu.Lock()
	m.byChar[charID] = g.id
	m.mu.Unlock()

	m.ClearJoining(charID)
	g.lastUpdate = time.Now()

	slog.Info("player joined game", "game", g.id, "character", charID)
	return nil
}

// RemovePlayer removes the character's membership record under the game's
// lock and persists the removal. Host succession is the caller's concern.
func (m *Manager) RemovePlayer(ctx context.Context, g *Game, charID uint32, requireSameGame bool) error {
	m.mu.RLock()
	memberOf, inAnyGame := m.byChar[charID]
	m.mu.RUnlock()

	if !inAnyGame {
		return ErrNotInAnyGame
	}
	if memberOf != g.ID() {
		if requireSameGame {
			return ErrNotInThisGame
		}
		// Best-effort removal: fall through to whichever game actually
		// holds the character.
		other := m.Get(memberOf)
		if other == nil {
			return ErrNotInAnyGame
		}
		g = other
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return m.removePlayerLocked(ctx, g, charID)
}

// removePlayerLocked removes a player while g.mu is already held.
func (m *Manager) removePlayerLocked(ctx context.Context, g *Game, charID uint32) error {
	i := g.indexOfLocked(charID)
	if i < 0 {
		return ErrNotInThisGame
	}

	removed := g.players[i]
	g.players = append(g.players[:i], g.players[i+1:]...)

	if err := m.store.RemovePlayer(ctx, g.id, charID); err != nil {
		// Restore in-memory state close to its pre-call value.
		g.players = append(g.players, removed)
		return fmt.Errorf("persisting removal of player %d from game %d: %w", charID, g.id, err)
	}

	m.mu.Lock()
	delete(m.byChar, charID)
	m.mu.Unlock()

	slog.Info("player left game", "game", g.id, "character", charID)
	return nil
}

// PassHost reassigns the room's host to the target player, then removes the
// previous host from the player list. The new host is installed before the
// old one is removed so the game is never observed without a host.
func (m *Manager) PassHost(ctx context.Context, g *Game, targetCharID uint32) error {
	g.mu.Lock()
	if g.indexOfLocked(targetCharID) < 0 {
		g.mu.Unlock()
		return ErrTargetNotFound
	}

	prevHost := g.hostCharID
	g.hostCharID = targetCharID
	if err := m.store.SetHost(ctx, g.id, targetCharID); err != nil {
		g.hostCharID = prevHost
		g.mu.Unlock()
		return fmt.Errorf("persisting host change in game %d: %w", g.id, err)
	}
	g.mu.Unlock()

	slog.Info("host passed", "game", g.id, "from", prevHost, "to", targetCharID)

	if prevHost == targetCharID {
		return nil
	}
	if err := m.RemovePlayer(ctx, g, prevHost, true); err != nil {
		return fmt.Errorf("removing previous host %d: %w", prevHost, err)
	}
	return nil
}

// QuitGame removes the character from its current game. A departing host
// without prior succession ends the whole game.
func (m *Manager) QuitGame(ctx context.Context, charID uint32) error {
	g := m.FindByCharacter(charID)
	if g == nil {
		return ErrNotInAnyGame
	}
	if g.HostCharacterID() == charID {
		return m.EndGame(ctx, g)
	}
	return m.RemovePlayer(ctx, g, charID, true)
}

// EndGame terminates a game: notifies the remaining players, removes every
// membership, deletes the persisted record and deregisters the game.
//
// Idempotent: a game already deregistered by a concurrent caller is a no-op.
// Deregistration is ordered last, after persistence succeeds, so a game is
// never gone from the registry while still present in storage.
func (m *Manager) EndGame(ctx context.Context, g *Game) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !m.Exists(g.id) {
		return nil
	}

	if ids := g.playerIDsLocked(); len(ids) > 0 {
		m.notifier.SendToCharacters(ids, "The game has been closed.")
	}

	for _, id := range g.playerIDsLocked() {
		if err := m.removePlayerLocked(ctx, g, id); err != nil {
			slog.Warn("removing player during game end",
				"game", g.id,
				"character", id,
				"error", err)
		}
	}

	if err := m.store.DeleteGame(ctx, g.id); err != nil {
		return fmt.Errorf("deleting game %d: %w", g.id, err)
	}

	m.mu.Lock()
	delete(m.games, g.id)
	m.mu.Unlock()

	slog.Info("game ended", "game", g.id, "name", g.name)
	return nil
}

// StartRound snapshots the current player set into the played-last-round
// list used to validate stat reports from characters that later leave.
func (m *Manager) StartRound(g *Game) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.playedLastRound = g.playerIDsLocked()
	g.lastUpdate = time.Now()
	slog.Debug("round started", "game", g.id, "players", len(g.playedLastRound))
}

// SetRound advances the index into the room's map/rule rotation.
func (m *Manager) SetRound(g *Game, index int32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.currentRound = index
	g.lastUpdate = time.Now()
}

// OnPing refreshes the game's activity timestamp. At most once per
// heartbeat interval it additionally fires the anti-cheat hook.
func (m *Manager) OnPing(g *Game) {
	now := time.Now()

	g.mu.Lock()
	g.lastUpdate = now
	fireHeartbeat := now.Sub(g.lastNCheck) >= m.heartbeatInterval
	if fireHeartbeat {
		g.lastNCheck = now
	}
	g.mu.Unlock()

	if fireHeartbeat && m.heartbeat != nil {
		m.heartbeat.OnGameHeartbeat(g)
	}
}
