// Package model defines the dashboard's cached record shapes (orders,
// drivers, vehicles, incidents, aggregate stats) and the patch merge
// semantics the event handlers rely on.
package model
