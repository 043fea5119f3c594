package model

// Character is a persisted character row. One account owns up to several
// characters; exactly one may be selected per session.
type Character struct {
	ID        uint32
	AccountID int64
	Name      string
	Rank      int32
	Exp       int64
	Wins      int32
	Losses    int32
	ClanID    int64 // 0 = no clan
}
