package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"sync/atomic"
	"syscall"

	"github.com/tableside/tableside/agent/internal/config"
	"github.com/tableside/tableside/agent/internal/listener"
	"github.com/tableside/tableside/pkg/types"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("tableside-agent starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	level.Set(cfg.Agent.Log.SlogLevel())

	slog.Info("config loaded",
		"server_url", cfg.Agent.ServerURL,
		"user_id", cfg.Agent.UserID,
		"role", cfg.Agent.Role,
		"events", cfg.Agent.Events,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var events atomic.Pointer[[]string]
	events.Store(&cfg.Agent.Events)

	l := listener.New(cfg.Agent, func(n types.Notification) {
		if filter := *events.Load(); len(filter) > 0 && !slices.Contains(filter, n.Type) {
			return
		}
		slog.Info("notification", "type", n.Type, "fields", n.Fields)
	})

	// Identity, event filter and log level follow the config file.
	go func() {
		if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			a := updated.Agent
			level.Set(a.Log.SlogLevel())
			events.Store(&a.Events)
			l.SetIdentity(a.UserID, a.Role)
			if a.ServerURL != cfg.Agent.ServerURL {
				slog.Warn("server_url change requires a restart", "server_url", a.ServerURL)
			}
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	l.Run(ctx)
	slog.Info("tableside-agent shutting down")
}
