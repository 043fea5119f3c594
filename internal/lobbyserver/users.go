package lobbyserver

import (
	"log/slog"
	"sync"

	"github.com/avdonin/openlobby/internal/model"
)

// UserManager maps connections to authenticated users, with a secondary
// character-id index for O(1) reverse lookup.
//
// Single-session rule: attaching a user whose account already has a live
// connection evicts the older connection by closing it before the new
// mapping is installed.
type UserManager struct {
	mu        sync.RWMutex
	byConn    map[uint32]*model.User
	byAccount map[int64]*Client
	byChar    map[uint32]*Client
}

// NewUserManager creates a user registry.
func NewUserManager() *UserManager {
	return &UserManager{
		byConn:    make(map[uint32]*model.User, 1024),
		byAccount: make(map[int64]*Client, 1024),
		byChar:    make(map[uint32]*Client, 1024),
	}
}

// Attach registers the authenticated user for the connection, evicting any
// previous connection of the same account. The evicted connection is closed
// outside the registry lock.
func (um *UserManager) Attach(c *Client, user *model.User) {
	um.mu.Lock()
	evicted := um.byAccount[user.AccountID]
	if evicted == c {
		evicted = nil
	}
	if evicted != nil {
		um.detachLocked(evicted)
	}
	um.byConn[c.ID()] = user
	um.byAccount[user.AccountID] = c
	um.mu.Unlock()

	c.SetUser(user)

	if evicted != nil {
		slog.Info("evicting previous session",
			"account", user.AccountID,
			"oldConn", evicted.ID(),
			"newConn", c.ID())
		evicted.Close()
	}
}

// Detach removes the connection's user mappings. Called on disconnect.
func (um *UserManager) Detach(c *Client) {
	um.mu.Lock()
	um.detachLocked(c)
	um.mu.Unlock()
}

// detachLocked removes all mappings of c while um.mu is held.
func (um *UserManager) detachLocked(c *Client) {
	user, ok := um.byConn[c.ID()]
	if !ok {
		return
	}
	delete(um.byConn, c.ID())
	if um.byAccount[user.AccountID] == c {
		delete(um.byAccount, user.AccountID)
	}
	if charID := user.CharacterID(); charID != 0 && um.byChar[charID] == c {
		delete(um.byChar, charID)
	}
}

// BindCharacter indexes the connection under the selected character id.
func (um *UserManager) BindCharacter(c *Client, charID uint32) {
	um.mu.Lock()
	defer um.mu.Unlock()
	um.byChar[charID] = c
}

// UnbindCharacter drops the character index entry if it still points at c.
func (um *UserManager) UnbindCharacter(c *Client, charID uint32) {
	um.mu.Lock()
	defer um.mu.Unlock()
	if um.byChar[charID] == c {
		delete(um.byChar, charID)
	}
}

// UserByConn returns the authenticated user of a connection, or nil.
func (um *UserManager) UserByConn(connID uint32) *model.User {
	um.mu.RLock()
	defer um.mu.RUnlock()
	return um.byConn[connID]
}

// ClientByAccount returns the live connection of an account, or nil.
func (um *UserManager) ClientByAccount(accountID int64) *Client {
	um.mu.RLock()
	defer um.mu.RUnlock()
	return um.byAccount[accountID]
}

// ClientByCharacter returns the connection a character is online on, or nil.
func (um *UserManager) ClientByCharacter(charID uint32) *Client {
	um.mu.RLock()
	defer um.mu.RUnlock()
	return um.byChar[charID]
}

// CharacterOnline reports whether the character has a live session.
// Implements room.PresenceChecker.
func (um *UserManager) CharacterOnline(charID uint32) bool {
	return um.ClientByCharacter(charID) != nil
}

// Count returns the number of authenticated sessions.
func (um *UserManager) Count() int {
	um.mu.RLock()
	defer um.mu.RUnlock()
	return len(um.byConn)
}
