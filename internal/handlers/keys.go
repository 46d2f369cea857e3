package handlers

// Cache key scheme. List caches hold newest-first slices; record caches hold
// one record per key; "live" keys are projection caches for the map screens.
const (
	KeyOrders       = "orders"
	KeyActiveOrders = "orders:active"
	KeyDrivers      = "drivers"
	KeyLiveDrivers  = "drivers:live"
	KeyVehicles     = "vehicles"
	KeyLiveVehicles = "vehicles:live"
	KeyIncidents    = "incidents"
	KeyStats        = "dashboard:stats"

	// StatsPrefix covers every aggregate/summary key; creation and terminal
	// events invalidate it, location events never do.
	StatsPrefix = "dashboard:"
)

// KeyOrder returns the record cache key for an order.
func KeyOrder(id string) string { return "order:" + id }

// KeyDriver returns the record cache key for a driver.
func KeyDriver(id string) string { return "driver:" + id }

// KeyVehicle returns the record cache key for a vehicle.
func KeyVehicle(id string) string { return "vehicle:" + id }

// KeyIncident returns the record cache key for an incident.
func KeyIncident(id string) string { return "incident:" + id }
