package handlers

import (
	"fmt"
	"log/slog"

	"github.com/rideops/fleetsync/internal/bus"
	"github.com/rideops/fleetsync/internal/cache"
	"github.com/rideops/fleetsync/internal/model"
	"github.com/rideops/fleetsync/internal/notify"
	"github.com/rideops/fleetsync/internal/throttle"
)

// VehicleHandler maintains the vehicle caches from fleet events.
type VehicleHandler struct {
	store    cache.Store
	guard    *throttle.Guard
	notifier notify.Sink
	logger   *slog.Logger
}

// NewVehicleHandler creates a vehicle handler.
func NewVehicleHandler(store cache.Store, guard *throttle.Guard, notifier notify.Sink, logger *slog.Logger) *VehicleHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &VehicleHandler{store: store, guard: guard, notifier: notifier, logger: logger}
}

// Register subscribes the handler to its event types.
func (h *VehicleHandler) Register(sub Subscriber) {
	sub.On("vehicle.location.updated", h.handleLocationUpdated)
	sub.On("vehicle.status.changed", h.handleStatusChanged)
}

type vehicleLocationWire struct {
	VehicleID string         `json:"vehicleId"`
	Location  model.Location `json:"location"`
}

func (h *VehicleHandler) handleLocationUpdated(evt bus.Event) {
	var wire vehicleLocationWire
	if !decode(evt, &wire, h.logger) || wire.VehicleID == "" {
		return
	}

	if !h.guard.Accept(wire.VehicleID, evt.ReceivedAt) {
		return
	}

	if wire.Location.RecordedAt == "" {
		wire.Location.RecordedAt = evt.Timestamp
	}

	if vehicle, ok := h.getVehicle(wire.VehicleID); ok {
		h.putVehicle(vehicle.WithLocation(wire.Location, evt.Timestamp))
	}

	h.store.Update(KeyLiveVehicles, func(cur any) any {
		m := locationMap(cur)
		m[wire.VehicleID] = wire.Location
		return m
	})
}

type vehicleStatusWire struct {
	VehicleID string `json:"vehicleId"`
	Status    string `json:"status"`
}

func (h *VehicleHandler) handleStatusChanged(evt bus.Event) {
	var wire vehicleStatusWire
	if !decode(evt, &wire, h.logger) || wire.VehicleID == "" {
		return
	}

	vehicle, ok := h.getVehicle(wire.VehicleID)
	if !ok {
		return
	}
	previous := vehicle.Status
	if previous == wire.Status {
		return
	}

	vehicle.Status = wire.Status
	vehicle.UpdatedAt = evt.Timestamp
	h.putVehicle(vehicle)

	// Only maintenance transitions matter to operators; active/idle churn
	// does not.
	if previous == "maintenance" || wire.Status == "maintenance" {
		h.notifier.Notify(notify.New(notify.LevelInfo,
			fmt.Sprintf("vehicle %s is now %s", vehicle.Plate, wire.Status)))
	}
}

func (h *VehicleHandler) getVehicle(id string) (model.Vehicle, bool) {
	raw, ok := h.store.Get(KeyVehicle(id))
	if !ok {
		return model.Vehicle{}, false
	}
	vehicle, ok := raw.(model.Vehicle)
	return vehicle, ok
}

func (h *VehicleHandler) putVehicle(vehicle model.Vehicle) {
	h.store.Set(KeyVehicle(vehicle.VehicleID), vehicle)
	h.store.Update(KeyVehicles, func(cur any) any {
		return replaceMatch(listOf[model.Vehicle](cur),
			func(v model.Vehicle) bool { return v.VehicleID == vehicle.VehicleID },
			func(model.Vehicle) model.Vehicle { return vehicle })
	})
}
