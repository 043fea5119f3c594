package model

import "sync"

// User is the session-side view of an authenticated account.
// At most one live connection may claim a given account id; the registry
// enforces that, not this struct.
type User struct {
	AccountID   int64
	Login       string
	AccessLevel int32

	// mu guards only the selected character (rare writes, frequent reads).
	mu        sync.RWMutex
	character *Character
}

// NewUser creates a session user for the given account.
func NewUser(acc *Account) *User {
	return &User{
		AccountID:   acc.ID,
		Login:       acc.Login,
		AccessLevel: acc.AccessLevel,
	}
}

// Character returns the currently selected character, or nil.
func (u *User) Character() *Character {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.character
}

// SetCharacter selects the session character (nil to deselect).
func (u *User) SetCharacter(c *Character) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.character = c
}

// CharacterID returns the selected character's id, or 0 if none selected.
func (u *User) CharacterID() uint32 {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.character == nil {
		return 0
	}
	return u.character.ID
}
