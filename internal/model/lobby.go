package model

// Lobby is a named matchmaking region grouping games by subtype.
// Immutable after initial load; referenced, never owned, by games and
// connections.
type Lobby struct {
	ID      int32
	Name    string
	Subtype uint8
}
