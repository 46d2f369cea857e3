// feedtail connects to the realtime endpoint and streams parsed events to
// the console. Usage: go run ./cmd/feedtail --config configs/syncd.local.yaml
//
// The session token is read from the environment variable named by
// session.token_env in the config (FLEETSYNC_TOKEN by default).
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rideops/fleetsync/internal/auth"
	"github.com/rideops/fleetsync/internal/bus"
	"github.com/rideops/fleetsync/internal/config"
	"github.com/rideops/fleetsync/internal/notify"
	"github.com/rideops/fleetsync/internal/realtime"
)

// eventTypes is the full catalogue consumed by the dashboard.
var eventTypes = []string{
	"order.created",
	"order.updated",
	"order.assigned",
	"order.completed",
	"order.cancelled",
	"driver.status.changed",
	"driver.location.updated",
	"driver.shift.started",
	"driver.shift.ended",
	"vehicle.location.updated",
	"vehicle.status.changed",
	"incident.created",
	"incident.updated",
	"dashboard.stats.updated",
}

func main() {
	configPath := flag.String("config", "configs/syncd.local.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "print full payload JSON")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	session := auth.FromEnv(cfg.Session.TokenEnv)
	if !session.State().Authenticated && cfg.Session.Token != "" {
		session.SetToken(cfg.Session.Token)
	}
	if !session.State().Authenticated {
		logger.Error("no session token", "token_env", cfg.Session.TokenEnv)
		os.Exit(1)
	}

	registry := bus.NewRegistry(logger)
	mgr := realtime.NewManager(realtime.ManagerConfig{
		URL:                  cfg.Server.URL,
		ReconnectBaseDelay:   cfg.Realtime.ReconnectBaseDelay,
		ReconnectMaxDelay:    cfg.Realtime.ReconnectMaxDelay,
		MaxReconnectAttempts: cfg.Realtime.MaxReconnectAttempts,
		HandshakeTimeout:     cfg.Realtime.HandshakeTimeout,
		WriteTimeout:         cfg.Realtime.WriteTimeout,
		PingInterval:         cfg.Realtime.PingInterval,
		MessageBufferSize:    cfg.Realtime.MessageBufferSize,
	}, session, registry, notify.NewLogSink(logger), logger)

	for _, eventType := range eventTypes {
		mgr.On(eventType, printEvent(*verbose))
	}

	mgr.OnStatusChange(func(s realtime.Status) {
		logger.Info("connection status", "status", s.String())
	})

	mgr.Connect()
	defer mgr.Disconnect()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutting down")
}

func printEvent(verbose bool) bus.HandlerFunc {
	return func(evt bus.Event) {
		if verbose {
			fmt.Printf("%s  %-26s %s\n", evt.Timestamp, evt.Type, evt.Payload)
			return
		}
		fmt.Printf("%s  %s\n", evt.Timestamp, evt.Type)
	}
}
