package lobbyserver

import "github.com/avdonin/openlobby/internal/model"

// LobbyManager is the static lobby registry, populated at startup and
// read-only thereafter, so lookups need no locking.
type LobbyManager struct {
	byID    map[int32]*model.Lobby
	ordered []*model.Lobby
}

// NewLobbyManager creates the registry from the loaded lobby list.
func NewLobbyManager(lobbies []*model.Lobby) *LobbyManager {
	lm := &LobbyManager{
		byID:    make(map[int32]*model.Lobby, len(lobbies)),
		ordered: lobbies,
	}
	for _, l := range lobbies {
		lm.byID[l.ID] = l
	}
	return lm
}

// Get returns the lobby with the given id, or nil.
func (lm *LobbyManager) Get(id int32) *model.Lobby {
	return lm.byID[id]
}

// All returns the lobbies in load order.
func (lm *LobbyManager) All() []*model.Lobby {
	return lm.ordered
}

// Count returns the number of lobbies.
func (lm *LobbyManager) Count() int {
	return len(lm.ordered)
}
