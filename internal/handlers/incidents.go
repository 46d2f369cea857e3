package handlers

import (
	"fmt"
	"log/slog"

	"github.com/rideops/fleetsync/internal/bus"
	"github.com/rideops/fleetsync/internal/cache"
	"github.com/rideops/fleetsync/internal/model"
	"github.com/rideops/fleetsync/internal/notify"
)

// IncidentHandler maintains the safety incident caches. Notice urgency and
// the audible alert follow incident severity, not just the event type.
type IncidentHandler struct {
	store    cache.Store
	notifier notify.Sink
	logger   *slog.Logger
}

// NewIncidentHandler creates an incident handler.
func NewIncidentHandler(store cache.Store, notifier notify.Sink, logger *slog.Logger) *IncidentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &IncidentHandler{store: store, notifier: notifier, logger: logger}
}

// Register subscribes the handler to its event types.
func (h *IncidentHandler) Register(sub Subscriber) {
	sub.On("incident.created", h.handleCreated)
	sub.On("incident.updated", h.handleUpdated)
}

func (h *IncidentHandler) handleCreated(evt bus.Event) {
	var incident model.Incident
	if !decode(evt, &incident, h.logger) || incident.IncidentID == "" {
		return
	}
	if incident.CreatedAt == "" {
		incident.CreatedAt = evt.Timestamp
	}
	if incident.Status == "" {
		incident.Status = "Open"
	}
	incident.UpdatedAt = evt.Timestamp

	h.store.Update(KeyIncidents, func(cur any) any {
		return prependIfAbsent(listOf[model.Incident](cur),
			func(i model.Incident) bool { return i.IncidentID == incident.IncidentID },
			incident)
	})
	h.store.Set(KeyIncident(incident.IncidentID), incident)
	h.store.Invalidate(StatsPrefix)

	n := notify.New(severityLevel(incident.Severity),
		fmt.Sprintf("%s incident reported: %s", incident.Severity, incident.Description))
	n.Sound = severitySound(incident.Severity)
	h.notifier.Notify(n)
}

type incidentUpdateWire struct {
	IncidentID string `json:"incidentId"`
	model.IncidentPatch
}

func (h *IncidentHandler) handleUpdated(evt bus.Event) {
	var wire incidentUpdateWire
	if !decode(evt, &wire, h.logger) || wire.IncidentID == "" {
		return
	}

	raw, ok := h.store.Get(KeyIncident(wire.IncidentID))
	if !ok {
		return
	}
	incident, ok := raw.(model.Incident)
	if !ok {
		return
	}

	merged := wire.IncidentPatch.Apply(incident, evt.Timestamp)
	h.store.Set(KeyIncident(merged.IncidentID), merged)
	h.store.Update(KeyIncidents, func(cur any) any {
		return replaceMatch(listOf[model.Incident](cur),
			func(i model.Incident) bool { return i.IncidentID == merged.IncidentID },
			func(model.Incident) model.Incident { return merged })
	})
}

// severityLevel maps incident severity to notice urgency.
func severityLevel(severity string) notify.Level {
	switch severity {
	case "Critical":
		return notify.LevelError
	case "High":
		return notify.LevelWarning
	default:
		return notify.LevelInfo
	}
}

// severitySound reports whether an audible alert fires. Low severity never
// sounds.
func severitySound(severity string) bool {
	switch severity {
	case "Critical", "High", "Medium":
		return true
	default:
		return false
	}
}
