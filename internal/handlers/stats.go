package handlers

import (
	"log/slog"

	"github.com/rideops/fleetsync/internal/bus"
	"github.com/rideops/fleetsync/internal/cache"
	"github.com/rideops/fleetsync/internal/model"
)

// StatsHandler keeps the dashboard aggregate summary current. The server
// pushes recomputed stats; this handler just replaces the cached value.
type StatsHandler struct {
	store  cache.Store
	logger *slog.Logger
}

// NewStatsHandler creates a stats handler.
func NewStatsHandler(store cache.Store, logger *slog.Logger) *StatsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsHandler{store: store, logger: logger}
}

// Register subscribes the handler to its event types.
func (h *StatsHandler) Register(sub Subscriber) {
	sub.On("dashboard.stats.updated", h.handleUpdated)
}

func (h *StatsHandler) handleUpdated(evt bus.Event) {
	var stats model.DashboardStats
	if !decode(evt, &stats, h.logger) {
		return
	}
	stats.UpdatedAt = evt.Timestamp
	h.store.Set(KeyStats, stats)
}
