package room

import (
	"testing"
	"time"
)

var _ HeartbeatHook = LogHeartbeat{}

// LogHeartbeat must be safe to fire through OnPing on a live game.
func TestLogHeartbeatFiresThroughOnPing(t *testing.T) {
	env := newTestEnv(t, Options{HeartbeatInterval: time.Nanosecond}, 1)
	env.mgr.heartbeat = LogHeartbeat{}
	g := mustCreate(t, env, 1, 4)

	time.Sleep(time.Millisecond)
	env.mgr.OnPing(g)
}
