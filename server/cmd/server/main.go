package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"

	"github.com/tableside/tableside/server/internal/api"
	"github.com/tableside/tableside/server/internal/auth"
	"github.com/tableside/tableside/server/internal/config"
	"github.com/tableside/tableside/server/internal/notify"
	"github.com/tableside/tableside/server/internal/relay"
	"github.com/tableside/tableside/server/internal/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(*configPath, level); err != nil {
		slog.Error("tableside-server failed", "err", err)
		os.Exit(1)
	}
}

// run wires every component and blocks until SIGINT or SIGTERM. Deferred
// cleanup always runs before it returns.
func run(configPath string, level *slog.LevelVar) error {
	slog.Info("tableside-server starting", "config", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	level.Set(cfg.Server.Log.SlogLevel())

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"grpc_port", cfg.Server.GRPCPort,
		"storage", cfg.Server.Storage.Path,
		"auth_mode", cfg.Server.Auth.Mode,
		"relay_enabled", cfg.Server.Relay.Enabled,
		"webhooks", len(cfg.Server.Notify.Webhooks),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := store.Open(ctx, cfg.Server.Storage.Path)
	if err != nil {
		return fmt.Errorf("open store %q: %w", cfg.Server.Storage.Path, err)
	}
	defer st.Close()

	// Notification core: one Registry shared by the hub and the dispatcher.
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	registry := notify.NewRegistry()
	metrics := notify.NewMetrics(promReg, registry)

	var sinks []notify.Sink
	for _, wh := range cfg.Server.Notify.Webhooks {
		sinks = append(sinks, notify.NewWebhook(wh.Type, wh.URL(), wh.Events))
	}
	dispatcher := notify.NewDispatcher(registry, metrics, sinks...)

	n := cfg.Server.Notify
	hub := notify.NewHub(registry, notify.Options{
		SendBuffer:          n.SendBuffer,
		MaxMessageBytes:     n.MaxMessageBytes,
		MaxFrameBytes:       n.MaxFrameBytes,
		PingInterval:        n.PingInterval,
		PongWait:            n.PongWait,
		RegistrationTimeout: n.RegistrationTimeout,
		AllowedOrigins:      n.AllowedOrigins,
	}, metrics)
	hubDone := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(hubDone)
	}()
	defer func() { <-hubDone }()

	// gRPC relay for sibling processes.
	if cfg.Server.Relay.Enabled {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRPCPort))
		if err != nil {
			cancel()
			return fmt.Errorf("listen on gRPC port %d: %w", cfg.Server.GRPCPort, err)
		}

		grpcSrv := grpc.NewServer(grpc.UnaryInterceptor(auth.RelayInterceptor(cfg.Server.Relay)))
		health := relay.Register(grpcSrv, relay.New(dispatcher))
		defer grpcSrv.GracefulStop()
		defer health.Shutdown()

		go func() {
			slog.Info("gRPC relay listening", "port", cfg.Server.GRPCPort)
			if err := grpcSrv.Serve(lis); err != nil {
				slog.Error("gRPC server stopped", "err", err)
			}
		}()
	}

	// REST producers, WebSocket hub and /metrics share HTTPPort.
	handler := api.New(st, dispatcher, hub, api.Config{
		AuthMode:       cfg.Server.Auth.Mode,
		JWTSecret:      cfg.Server.Auth.Secret(),
		AllowedOrigins: n.AllowedOrigins,
		WebSocket:      hub,
		Metrics:        promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}),
	})

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("tableside-server shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	return httpSrv.Shutdown(shutdownCtx)
}
