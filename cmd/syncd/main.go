package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rideops/fleetsync/internal/archive"
	"github.com/rideops/fleetsync/internal/auth"
	"github.com/rideops/fleetsync/internal/bus"
	"github.com/rideops/fleetsync/internal/cache"
	"github.com/rideops/fleetsync/internal/config"
	"github.com/rideops/fleetsync/internal/database"
	"github.com/rideops/fleetsync/internal/handlers"
	"github.com/rideops/fleetsync/internal/notify"
	"github.com/rideops/fleetsync/internal/realtime"
	"github.com/rideops/fleetsync/internal/throttle"
	"github.com/rideops/fleetsync/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/syncd.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting syncd",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"server_url", cfg.Server.URL,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Session source
	session := auth.NewMemorySource()
	if cfg.Session.TokenEnv != "" {
		if token := os.Getenv(cfg.Session.TokenEnv); token != "" {
			session.SetToken(token)
		}
	}
	if session.State().Token == "" && cfg.Session.Token != "" {
		session.SetToken(cfg.Session.Token)
	}
	if !session.State().Authenticated {
		logger.Warn("no session token configured, will not connect until one is supplied",
			"token_env", cfg.Session.TokenEnv,
		)
	}

	// Core components
	store := cache.NewMemory()
	notifier := notify.NewLogSink(logger)
	registry := bus.NewRegistry(logger)
	guard := throttle.NewGuard(cfg.Throttle.Window, cfg.Throttle.StaleAfter, cfg.Throttle.MaxEntries)

	mgr := realtime.NewManager(realtime.ManagerConfig{
		URL:                  cfg.Server.URL,
		ReconnectBaseDelay:   cfg.Realtime.ReconnectBaseDelay,
		ReconnectMaxDelay:    cfg.Realtime.ReconnectMaxDelay,
		MaxReconnectAttempts: cfg.Realtime.MaxReconnectAttempts,
		HandshakeTimeout:     cfg.Realtime.HandshakeTimeout,
		WriteTimeout:         cfg.Realtime.WriteTimeout,
		PingInterval:         cfg.Realtime.PingInterval,
		MessageBufferSize:    cfg.Realtime.MessageBufferSize,
	}, session, registry, notifier, logger)

	handlers.RegisterAll(mgr, store, guard, notifier, logger)

	// Optional event archiver
	var archiver *archive.Archiver
	if cfg.Archive.Enabled {
		logger.Info("connecting to archive database",
			"host", cfg.Archive.Database.Host,
			"database", cfg.Archive.Database.Name,
		)
		pool, err := database.Connect(ctx, cfg.Archive.Database)
		if err != nil {
			logger.Error("failed to connect to archive database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		archiver = archive.NewArchiver(archive.Config{
			BatchSize:     cfg.Archive.BatchSize,
			FlushInterval: cfg.Archive.FlushInterval,
			BufferSize:    cfg.Archive.BufferSize,
		}, pool, logger)
		if err := archiver.Start(ctx); err != nil {
			logger.Error("failed to start archiver", "error", err)
			os.Exit(1)
		}
		mgr.SetEventTap(archiver.Record)
	}

	// Bind connection lifecycle to the session
	binder := realtime.NewBinder(mgr, session, logger)
	binder.Start()
	defer binder.Stop()

	// Health server
	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Health.Port),
		Handler: healthHandler(cfg.Health.Path, mgr, store, archiver),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting health server", "port", cfg.Health.Port)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return healthServer.Shutdown(shutdownCtx)
	})

	logger.Info("syncd running",
		"instance_id", cfg.Instance.ID,
		"health_url", fmt.Sprintf("http://localhost:%d%s", cfg.Health.Port, cfg.Health.Path),
	)

	if err := g.Wait(); err != nil {
		logger.Error("syncd exited with error", "error", err)
	}

	if archiver != nil {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		archiver.Stop(stopCtx)
	}

	logger.Info("syncd stopped")
}

// healthHandler reports connection and cache state.
func healthHandler(path string, mgr *realtime.Manager, store *cache.Memory, archiver *archive.Archiver) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		status := mgr.Status()

		health := struct {
			Status     string         `json:"status"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]any),
		}

		conn := map[string]any{
			"status": status.String(),
		}
		if id := mgr.ConnectionID(); id != "" {
			conn["connection_id"] = id
			conn["connected_since"] = mgr.ConnectedSince().Format(time.RFC3339)
		}
		health.Components["realtime"] = conn
		if status != realtime.StatusConnected {
			health.Status = "degraded"
		}

		health.Components["cache"] = map[string]any{
			"keys": store.Len(),
		}

		if archiver != nil {
			stats := archiver.Stats()
			health.Components["archive"] = map[string]any{
				"recorded": stats.Recorded,
				"dropped":  stats.Dropped,
				"inserts":  stats.Inserts,
				"errors":   stats.Errors,
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	return mux
}
