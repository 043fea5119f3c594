package room

import "log/slog"

// LogHeartbeat is the stock HeartbeatHook. It records each game's periodic
// heartbeat so operators can see which rooms are still reporting and with
// how many players.
type LogHeartbeat struct{}

func (LogHeartbeat) OnGameHeartbeat(g *Game) {
	slog.Debug("game heartbeat",
		"game", g.ID(),
		"name", g.Name(),
		"players", g.PlayerCount(),
		"round", g.CurrentRound())
}
