package handlers

import (
	"testing"
	"time"

	"github.com/rideops/fleetsync/internal/cache"
	"github.com/rideops/fleetsync/internal/model"
)

func seedDriver(store cache.Store, d model.Driver) {
	store.Set(KeyDriver(d.DriverID), d)
	store.Set(KeyDrivers, []model.Driver{d})
}

func TestDriverHandler_StatusChanged(t *testing.T) {
	store := cache.NewMemory()
	sink := &recordSink{}
	h := NewDriverHandler(store, newGuard(), sink, testLogger())
	seedDriver(store, model.Driver{DriverID: "d-1", Name: "Bob", Status: "offline"})

	h.handleStatusChanged(event(t, "driver.status.changed", map[string]any{
		"driverId": "d-1",
		"status":   "online",
	}))

	raw, _ := store.Get(KeyDriver("d-1"))
	if got := raw.(model.Driver); got.Status != "online" {
		t.Errorf("Status = %q, want online", got.Status)
	}
	if len(sink.notices) != 1 {
		t.Errorf("notices = %d, want 1 for offline->online", len(sink.notices))
	}
}

func TestDriverHandler_StatusChurnStaysSilent(t *testing.T) {
	store := cache.NewMemory()
	sink := &recordSink{}
	h := NewDriverHandler(store, newGuard(), sink, testLogger())
	seedDriver(store, model.Driver{DriverID: "d-1", Status: "online"})

	h.handleStatusChanged(event(t, "driver.status.changed", map[string]any{
		"driverId": "d-1", "status": "busy",
	}))
	h.handleStatusChanged(event(t, "driver.status.changed", map[string]any{
		"driverId": "d-1", "status": "online",
	}))

	if len(sink.notices) != 0 {
		t.Errorf("notices = %d, want 0 for online<->busy churn", len(sink.notices))
	}

	// Same-status event is a full no-op.
	h.handleStatusChanged(event(t, "driver.status.changed", map[string]any{
		"driverId": "d-1", "status": "online",
	}))
	raw, _ := store.Get(KeyDriver("d-1"))
	if got := raw.(model.Driver); got.Status != "online" {
		t.Errorf("Status = %q, want online", got.Status)
	}
}

func TestDriverHandler_LocationUpdated(t *testing.T) {
	store := cache.NewMemory()
	h := NewDriverHandler(store, newGuard(), &recordSink{}, testLogger())
	seedDriver(store, model.Driver{DriverID: "d-1", Status: "online"})
	store.Set(KeyStats, model.DashboardStats{})

	h.handleLocationUpdated(event(t, "driver.location.updated", map[string]any{
		"driverId": "d-1",
		"location": map[string]any{"lat": 52.1, "lng": 4.3},
	}))

	raw, _ := store.Get(KeyDriver("d-1"))
	got := raw.(model.Driver)
	if got.Location == nil || got.Location.Lat != 52.1 {
		t.Fatalf("Location = %+v, want lat 52.1", got.Location)
	}

	liveRaw, _ := store.Get(KeyLiveDrivers)
	live := liveRaw.(map[string]model.Location)
	if loc, ok := live["d-1"]; !ok || loc.Lng != 4.3 {
		t.Errorf("live map = %+v, want d-1 at lng 4.3", live)
	}

	// High-frequency events never touch aggregates.
	if _, ok := store.Get(KeyStats); !ok {
		t.Error("location update must not invalidate the stats cache")
	}
}

func TestDriverHandler_LocationThrottled(t *testing.T) {
	store := cache.NewMemory()
	h := NewDriverHandler(store, newGuard(), &recordSink{}, testLogger())

	first := event(t, "driver.location.updated", map[string]any{
		"driverId": "d-1",
		"location": map[string]any{"lat": 1.0, "lng": 1.0},
	})
	h.handleLocationUpdated(first)

	burst := event(t, "driver.location.updated", map[string]any{
		"driverId": "d-1",
		"location": map[string]any{"lat": 9.0, "lng": 9.0},
	})
	burst.ReceivedAt = first.ReceivedAt.Add(200 * time.Millisecond)
	h.handleLocationUpdated(burst)

	liveRaw, _ := store.Get(KeyLiveDrivers)
	live := liveRaw.(map[string]model.Location)
	if live["d-1"].Lat != 1.0 {
		t.Errorf("live lat = %v, want 1.0 (throttled update must not write)", live["d-1"].Lat)
	}

	later := burst
	later.ReceivedAt = first.ReceivedAt.Add(1100 * time.Millisecond)
	h.handleLocationUpdated(later)

	liveRaw, _ = store.Get(KeyLiveDrivers)
	live = liveRaw.(map[string]model.Location)
	if live["d-1"].Lat != 9.0 {
		t.Errorf("live lat = %v, want 9.0 after window elapsed", live["d-1"].Lat)
	}
}

// A location for a driver with no cached record still lands on the live map
// but never fabricates a partial driver record.
func TestDriverHandler_LocationForUnknownDriver(t *testing.T) {
	store := cache.NewMemory()
	h := NewDriverHandler(store, newGuard(), &recordSink{}, testLogger())

	h.handleLocationUpdated(event(t, "driver.location.updated", map[string]any{
		"driverId": "d-ghost",
		"location": map[string]any{"lat": 1.0, "lng": 2.0},
	}))

	if _, ok := store.Get(KeyDriver("d-ghost")); ok {
		t.Error("location update must not fabricate a driver record")
	}
	liveRaw, _ := store.Get(KeyLiveDrivers)
	if live := liveRaw.(map[string]model.Location); live["d-ghost"].Lng != 2.0 {
		t.Errorf("live map = %+v, want d-ghost present", live)
	}
}

func TestDriverHandler_ShiftLifecycle(t *testing.T) {
	store := cache.NewMemory()
	sink := &recordSink{}
	h := NewDriverHandler(store, newGuard(), sink, testLogger())
	seedDriver(store, model.Driver{DriverID: "d-1", Name: "Bob", Status: "offline"})
	store.Set(KeyLiveDrivers, map[string]model.Location{"d-1": {Lat: 1}})
	store.Set(KeyStats, model.DashboardStats{})

	h.handleShiftStarted(event(t, "driver.shift.started", map[string]any{
		"driverId": "d-1",
		"at":       "2025-06-01T08:00:00Z",
	}))

	raw, _ := store.Get(KeyDriver("d-1"))
	got := raw.(model.Driver)
	if got.Status != "online" || got.ShiftStartedAt != "2025-06-01T08:00:00Z" {
		t.Errorf("after shift start: %+v, want online with start stamp", got)
	}
	if _, ok := store.Get(KeyStats); ok {
		t.Error("stats cache should be invalidated on shift start")
	}

	h.handleShiftEnded(event(t, "driver.shift.ended", map[string]any{
		"driverId": "d-1",
	}))

	raw, _ = store.Get(KeyDriver("d-1"))
	got = raw.(model.Driver)
	if got.Status != "offline" || got.ShiftEndedAt == "" {
		t.Errorf("after shift end: %+v, want offline with end stamp", got)
	}
	liveRaw, _ := store.Get(KeyLiveDrivers)
	if live := liveRaw.(map[string]model.Location); len(live) != 0 {
		t.Errorf("live map = %+v, want driver removed after shift end", live)
	}
}
