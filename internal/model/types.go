package model

// -----------------------------------------------------------------------------
// Record Types
// -----------------------------------------------------------------------------

// Order is a ride or delivery order as cached by the dashboard.
type Order struct {
	OrderID        string        `json:"orderId"`
	Status         string        `json:"status"` // Created, Assigned, InTransit, Completed, Cancelled
	CustomerName   string        `json:"customerName"`
	PickupAddress  string        `json:"pickupAddress"`
	DropoffAddress string        `json:"dropoffAddress"`
	Fare           float64       `json:"fare"`
	Driver         *Assignment   `json:"driver,omitempty"`
	Cancellation   *Cancellation `json:"cancellation,omitempty"`
	CreatedAt      string        `json:"createdAt"`
	CompletedAt    string        `json:"completedAt,omitempty"`
	UpdatedAt      string        `json:"updatedAt"`
}

// Assignment is the driver sub-object merged onto an order when assigned.
type Assignment struct {
	DriverID   string `json:"driverId"`
	Name       string `json:"name"`
	AssignedAt string `json:"assignedAt"`
}

// Cancellation carries cancellation metadata for an order.
type Cancellation struct {
	Reason      string `json:"reason"`
	CancelledBy string `json:"cancelledBy"` // "customer", "driver", "ops"
	CancelledAt string `json:"cancelledAt"`
}

// Driver is a driver record.
type Driver struct {
	DriverID       string    `json:"driverId"`
	Name           string    `json:"name"`
	Status         string    `json:"status"` // online, offline, busy
	Rating         float64   `json:"rating"`
	Location       *Location `json:"location,omitempty"`
	ShiftStartedAt string    `json:"shiftStartedAt,omitempty"`
	ShiftEndedAt   string    `json:"shiftEndedAt,omitempty"`
	UpdatedAt      string    `json:"updatedAt"`
}

// Vehicle is a fleet vehicle record.
type Vehicle struct {
	VehicleID string    `json:"vehicleId"`
	Plate     string    `json:"plate"`
	Model     string    `json:"model"`
	Status    string    `json:"status"` // active, idle, maintenance
	Location  *Location `json:"location,omitempty"`
	UpdatedAt string    `json:"updatedAt"`
}

// Location is the position sub-object for drivers and vehicles.
type Location struct {
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Heading    float64 `json:"heading"`
	SpeedKph   float64 `json:"speedKph"`
	RecordedAt string  `json:"recordedAt"`
}

// Incident is a safety incident record.
type Incident struct {
	IncidentID  string `json:"incidentId"`
	OrderID     string `json:"orderId,omitempty"`
	DriverID    string `json:"driverId,omitempty"`
	Severity    string `json:"severity"` // Critical, High, Medium, Low
	Category    string `json:"category"`
	Description string `json:"description"`
	Status      string `json:"status"` // Open, Investigating, Resolved
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// DashboardStats is the aggregate summary shown on the overview screen.
type DashboardStats struct {
	ActiveOrders    int     `json:"activeOrders"`
	OnlineDrivers   int     `json:"onlineDrivers"`
	ActiveVehicles  int     `json:"activeVehicles"`
	OpenIncidents   int     `json:"openIncidents"`
	CompletedToday  int     `json:"completedToday"`
	CancelledToday  int     `json:"cancelledToday"`
	RevenueToday    float64 `json:"revenueToday"`
	AvgWaitMinutes  float64 `json:"avgWaitMinutes"`
	UpdatedAt       string  `json:"updatedAt"`
}

// -----------------------------------------------------------------------------
// Patch Types
// -----------------------------------------------------------------------------
// Patches are partial wire payloads; nil fields are absent from the patch
// and must not overwrite existing record fields.

// OrderPatch is a partial order update.
type OrderPatch struct {
	Status         *string  `json:"status"`
	CustomerName   *string  `json:"customerName"`
	PickupAddress  *string  `json:"pickupAddress"`
	DropoffAddress *string  `json:"dropoffAddress"`
	Fare           *float64 `json:"fare"`
	CompletedAt    *string  `json:"completedAt"`
}

// DriverPatch is a partial driver update.
type DriverPatch struct {
	Name           *string  `json:"name"`
	Status         *string  `json:"status"`
	Rating         *float64 `json:"rating"`
	ShiftStartedAt *string  `json:"shiftStartedAt"`
	ShiftEndedAt   *string  `json:"shiftEndedAt"`
}

// VehiclePatch is a partial vehicle update.
type VehiclePatch struct {
	Plate  *string `json:"plate"`
	Model  *string `json:"model"`
	Status *string `json:"status"`
}

// IncidentPatch is a partial incident update.
type IncidentPatch struct {
	Severity    *string `json:"severity"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}
