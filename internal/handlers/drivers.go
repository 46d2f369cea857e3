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

// DriverHandler maintains the driver caches from driver events. Location
// updates pass through the throttle guard before any cache write.
type DriverHandler struct {
	store    cache.Store
	guard    *throttle.Guard
	notifier notify.Sink
	logger   *slog.Logger
}

// NewDriverHandler creates a driver handler.
func NewDriverHandler(store cache.Store, guard *throttle.Guard, notifier notify.Sink, logger *slog.Logger) *DriverHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DriverHandler{store: store, guard: guard, notifier: notifier, logger: logger}
}

// Register subscribes the handler to its event types.
func (h *DriverHandler) Register(sub Subscriber) {
	sub.On("driver.status.changed", h.handleStatusChanged)
	sub.On("driver.location.updated", h.handleLocationUpdated)
	sub.On("driver.shift.started", h.handleShiftStarted)
	sub.On("driver.shift.ended", h.handleShiftEnded)
}

type driverStatusWire struct {
	DriverID string `json:"driverId"`
	Status   string `json:"status"`
}

func (h *DriverHandler) handleStatusChanged(evt bus.Event) {
	var wire driverStatusWire
	if !decode(evt, &wire, h.logger) || wire.DriverID == "" {
		return
	}

	driver, ok := h.getDriver(wire.DriverID)
	if !ok {
		return
	}
	previous := driver.Status
	if previous == wire.Status {
		return
	}

	driver.Status = wire.Status
	driver.UpdatedAt = evt.Timestamp
	h.putDriver(driver)

	// Notices only for online/offline flips; busy churn would flood.
	if significantDriverTransition(previous, wire.Status) {
		h.notifier.Notify(notify.New(notify.LevelInfo,
			fmt.Sprintf("driver %s is now %s", driver.Name, wire.Status)))
	}
}

// significantDriverTransition reports whether a status change warrants a
// notice: a driver coming online from offline, or dropping offline.
// online<->busy churn stays silent.
func significantDriverTransition(previous, next string) bool {
	if previous == "offline" && next == "online" {
		return true
	}
	return previous != "offline" && next == "offline"
}

type driverLocationWire struct {
	DriverID string         `json:"driverId"`
	Location model.Location `json:"location"`
}

func (h *DriverHandler) handleLocationUpdated(evt bus.Event) {
	var wire driverLocationWire
	if !decode(evt, &wire, h.logger) || wire.DriverID == "" {
		return
	}

	if !h.guard.Accept(wire.DriverID, evt.ReceivedAt) {
		return
	}

	if wire.Location.RecordedAt == "" {
		wire.Location.RecordedAt = evt.Timestamp
	}

	if driver, ok := h.getDriver(wire.DriverID); ok {
		h.putDriver(driver.WithLocation(wire.Location, evt.Timestamp))
	}

	// The live-map projection is keyed by id; updating it never fabricates
	// a partial driver record. Aggregates are never invalidated here.
	h.store.Update(KeyLiveDrivers, func(cur any) any {
		m := locationMap(cur)
		m[wire.DriverID] = wire.Location
		return m
	})
}

type driverShiftWire struct {
	DriverID string `json:"driverId"`
	At       string `json:"at"`
}

func (h *DriverHandler) handleShiftStarted(evt bus.Event) {
	var wire driverShiftWire
	if !decode(evt, &wire, h.logger) || wire.DriverID == "" {
		return
	}

	driver, ok := h.getDriver(wire.DriverID)
	if !ok {
		return
	}

	at := wire.At
	if at == "" {
		at = evt.Timestamp
	}
	driver.ShiftStartedAt = at
	driver.ShiftEndedAt = ""
	driver.Status = "online"
	driver.UpdatedAt = evt.Timestamp
	h.putDriver(driver)
	h.store.Invalidate(StatsPrefix)

	h.notifier.Notify(notify.New(notify.LevelInfo,
		fmt.Sprintf("driver %s started a shift", driver.Name)))
}

func (h *DriverHandler) handleShiftEnded(evt bus.Event) {
	var wire driverShiftWire
	if !decode(evt, &wire, h.logger) || wire.DriverID == "" {
		return
	}

	driver, ok := h.getDriver(wire.DriverID)
	if !ok {
		return
	}

	at := wire.At
	if at == "" {
		at = evt.Timestamp
	}
	driver.ShiftEndedAt = at
	driver.Status = "offline"
	driver.UpdatedAt = evt.Timestamp
	h.putDriver(driver)

	// An off-shift driver no longer belongs on the live map.
	h.store.Update(KeyLiveDrivers, func(cur any) any {
		m := locationMap(cur)
		delete(m, wire.DriverID)
		return m
	})
	h.store.Invalidate(StatsPrefix)

	h.notifier.Notify(notify.New(notify.LevelInfo,
		fmt.Sprintf("driver %s ended their shift", driver.Name)))
}

func (h *DriverHandler) getDriver(id string) (model.Driver, bool) {
	raw, ok := h.store.Get(KeyDriver(id))
	if !ok {
		return model.Driver{}, false
	}
	driver, ok := raw.(model.Driver)
	return driver, ok
}

func (h *DriverHandler) putDriver(driver model.Driver) {
	h.store.Set(KeyDriver(driver.DriverID), driver)
	h.store.Update(KeyDrivers, func(cur any) any {
		return replaceMatch(listOf[model.Driver](cur),
			func(d model.Driver) bool { return d.DriverID == driver.DriverID },
			func(model.Driver) model.Driver { return driver })
	})
}
