package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/avdonin/openlobby/internal/config"
	"github.com/avdonin/openlobby/internal/db"
	"github.com/avdonin/openlobby/internal/game/room"
	"github.com/avdonin/openlobby/internal/lobbyserver"
)

const ConfigPath = "config/lobbyserver.yaml"

const sessionSweepInterval = time.Hour

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func run(ctx context.Context) error {
	slog.Info("openlobby server starting")

	cfgPath := ConfigPath
	if p := os.Getenv("OPENLOBBY_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadServer(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	})))
	slog.Info("config loaded", "bind", cfg.BindAddress, "port", cfg.Port, "auto_create", cfg.AutoCreateAccounts)

	database, err := db.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()
	slog.Info("database connected")

	if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// Repositories
	accounts := db.NewAccountRepository(database)
	sessions := db.NewSessionRepository(database, cfg.SessionTTL)
	chars := db.NewCharacterRepository(database)
	games := db.NewGameRepository(database)
	clans := db.NewClanRepository(database)
	mail := db.NewMailRepository(database)

	// Game rows from a previous run are stale: the in-memory registry is
	// the authority and it starts empty.
	if err := games.PurgeAll(ctx); err != nil {
		return fmt.Errorf("purging stale games: %w", err)
	}

	lobbyRows, err := games.LoadLobbies(ctx)
	if err != nil {
		return fmt.Errorf("loading lobbies: %w", err)
	}
	slog.Info("lobbies loaded", "count", len(lobbyRows))

	// In-memory registries and the game lifecycle manager
	conns := lobbyserver.NewConnectionManager()
	users := lobbyserver.NewUserManager()
	lobbies := lobbyserver.NewLobbyManager(lobbyRows)
	bcast := lobbyserver.NewBroadcaster(conns, users)

	rooms := room.NewManager(games, users, bcast, room.LogHeartbeat{}, room.Options{
		IdleTimeout:       cfg.GameIdleTimeout,
		HeartbeatInterval: cfg.HeartbeatInterval,
	})

	handlers := lobbyserver.NewHandlers(
		conns, users, lobbies, rooms, bcast,
		accounts, sessions, chars, clans, mail,
		cfg.AutoCreateAccounts,
	)
	registry, err := handlers.BuildRegistry()
	if err != nil {
		return fmt.Errorf("building handler registry: %w", err)
	}
	slog.Info("handlers registered", "opcodes", registry.Len())

	server := lobbyserver.NewServer(cfg, conns, users, rooms, registry)
	reaper := room.NewReaper(rooms, cfg.ReaperInterval)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Run(gctx); err != nil {
			return fmt.Errorf("lobby server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		reaper.Run(gctx)
		return nil
	})

	// Expired session tokens accumulate slowly; sweeping hourly is plenty.
	g.Go(func() error {
		ticker := time.NewTicker(sessionSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				n, err := sessions.DeleteExpired(gctx)
				if err != nil {
					slog.Warn("session sweep failed", "error", err)
					continue
				}
				if n > 0 {
					slog.Info("expired sessions removed", "count", n)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
