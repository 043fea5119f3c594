package model

import "time"

// Access levels. Anything above AccessLevelPlayer unlocks moderation opcodes.
const (
	AccessLevelBanned    int32 = -1
	AccessLevelPlayer    int32 = 0
	AccessLevelModerator int32 = 50
	AccessLevelAdmin     int32 = 100
)

// Account represents a persisted account row.
type Account struct {
	ID           int64
	Login        string
	PasswordHash string
	AccessLevel  int32
	LastIP       string
	LastActive   time.Time
}

// IsBanned reports whether the account is blocked from logging in.
func (a *Account) IsBanned() bool {
	return a.AccessLevel < AccessLevelPlayer
}
