package room

import (
	"context"
	"log/slog"
	"time"
)

// Reaper terminates games that stopped reporting activity.
type Reaper struct {
	manager  *Manager
	interval time.Duration
}

// NewReaper creates an idle reaper scanning at the given interval.
// A non-positive interval falls back to 15 seconds.
func NewReaper(manager *Manager, interval time.Duration) *Reaper {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Reaper{manager: manager, interval: interval}
}

// Run scans until the context is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	slog.Info("idle reaper started", "interval", r.interval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("idle reaper stopped")
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep ends every game whose last activity is strictly older than the
// manager's idle timeout. The game set is snapshotted before iterating,
// since EndGame mutates the registry.
func (r *Reaper) Sweep(ctx context.Context) int {
	now := time.Now()
	reaped := 0

	for _, g := range r.manager.Snapshot() {
		idle := now.Sub(g.LastUpdate())
		if idle <= r.manager.idleTimeout {
			continue
		}
		slog.Info("reaping idle game", "game", g.ID(), "name", g.Name(), "idle", idle)
		if err := r.manager.EndGame(ctx, g); err != nil {
			slog.Error("ending idle game", "game", g.ID(), "error", err)
			continue
		}
		reaped++
	}
	return reaped
}
