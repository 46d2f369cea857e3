// Package throttle caps the propagation rate of high-frequency per-entity
// streams (driver and vehicle position updates) to bound downstream cache
// write and render cost.
package throttle
