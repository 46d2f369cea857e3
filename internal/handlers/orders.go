package handlers

import (
	"fmt"
	"log/slog"

	"github.com/rideops/fleetsync/internal/bus"
	"github.com/rideops/fleetsync/internal/cache"
	"github.com/rideops/fleetsync/internal/model"
	"github.com/rideops/fleetsync/internal/notify"
)

// OrderHandler maintains the order caches from order lifecycle events.
type OrderHandler struct {
	store    cache.Store
	notifier notify.Sink
	logger   *slog.Logger
}

// NewOrderHandler creates an order handler.
func NewOrderHandler(store cache.Store, notifier notify.Sink, logger *slog.Logger) *OrderHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderHandler{store: store, notifier: notifier, logger: logger}
}

// Register subscribes the handler to its event types.
func (h *OrderHandler) Register(sub Subscriber) {
	sub.On("order.created", h.handleCreated)
	sub.On("order.updated", h.handleUpdated)
	sub.On("order.assigned", h.handleAssigned)
	sub.On("order.completed", h.handleCompleted)
	sub.On("order.cancelled", h.handleCancelled)
}

func (h *OrderHandler) handleCreated(evt bus.Event) {
	var order model.Order
	if !decode(evt, &order, h.logger) || order.OrderID == "" {
		return
	}
	if order.CreatedAt == "" {
		order.CreatedAt = evt.Timestamp
	}
	order.UpdatedAt = evt.Timestamp

	matches := func(o model.Order) bool { return o.OrderID == order.OrderID }
	h.store.Update(KeyOrders, func(cur any) any {
		return prependIfAbsent(listOf[model.Order](cur), matches, order)
	})
	h.store.Update(KeyActiveOrders, func(cur any) any {
		return prependIfAbsent(listOf[model.Order](cur), matches, order)
	})
	h.store.Set(KeyOrder(order.OrderID), order)
	h.store.Invalidate(StatsPrefix)

	h.notifier.Notify(notify.New(notify.LevelInfo,
		fmt.Sprintf("new order %s from %s", order.OrderID, order.CustomerName)))
}

type orderUpdateWire struct {
	OrderID string `json:"orderId"`
	model.OrderPatch
}

func (h *OrderHandler) handleUpdated(evt bus.Event) {
	var wire orderUpdateWire
	if !decode(evt, &wire, h.logger) || wire.OrderID == "" {
		return
	}

	order, ok := h.getOrder(wire.OrderID)
	if !ok {
		// Update for an order we never saw; do not fabricate a record.
		return
	}

	merged := wire.OrderPatch.Apply(order, evt.Timestamp)
	h.putOrder(merged)
}

type orderAssignedWire struct {
	OrderID string           `json:"orderId"`
	Driver  model.Assignment `json:"driver"`
}

func (h *OrderHandler) handleAssigned(evt bus.Event) {
	var wire orderAssignedWire
	if !decode(evt, &wire, h.logger) || wire.OrderID == "" {
		return
	}

	order, ok := h.getOrder(wire.OrderID)
	if !ok {
		return
	}

	if wire.Driver.AssignedAt == "" {
		wire.Driver.AssignedAt = evt.Timestamp
	}
	merged := order.WithAssignment(wire.Driver, evt.Timestamp)
	merged.Status = "Assigned"
	h.putOrder(merged)

	h.notifier.Notify(notify.New(notify.LevelInfo,
		fmt.Sprintf("order %s assigned to %s", wire.OrderID, wire.Driver.Name)))
}

type orderCompletedWire struct {
	OrderID     string `json:"orderId"`
	CompletedAt string `json:"completedAt"`
}

func (h *OrderHandler) handleCompleted(evt bus.Event) {
	var wire orderCompletedWire
	if !decode(evt, &wire, h.logger) || wire.OrderID == "" {
		return
	}

	order, ok := h.getOrder(wire.OrderID)
	if !ok {
		return
	}

	order.Status = "Completed"
	order.CompletedAt = wire.CompletedAt
	if order.CompletedAt == "" {
		order.CompletedAt = evt.Timestamp
	}
	order.UpdatedAt = evt.Timestamp
	h.putOrder(order)
	h.removeFromActive(wire.OrderID)
	h.store.Invalidate(StatsPrefix)

	h.notifier.Notify(notify.New(notify.LevelSuccess,
		fmt.Sprintf("order %s completed", wire.OrderID)))
}

type orderCancelledWire struct {
	OrderID     string `json:"orderId"`
	Reason      string `json:"reason"`
	CancelledBy string `json:"cancelledBy"`
}

func (h *OrderHandler) handleCancelled(evt bus.Event) {
	var wire orderCancelledWire
	if !decode(evt, &wire, h.logger) || wire.OrderID == "" {
		return
	}

	order, ok := h.getOrder(wire.OrderID)
	if !ok {
		return
	}

	merged := order.WithCancellation(model.Cancellation{
		Reason:      wire.Reason,
		CancelledBy: wire.CancelledBy,
		CancelledAt: evt.Timestamp,
	}, evt.Timestamp)
	h.putOrder(merged)
	h.removeFromActive(wire.OrderID)
	h.store.Invalidate(StatsPrefix)

	msg := fmt.Sprintf("order %s cancelled", wire.OrderID)
	if wire.Reason != "" {
		msg = fmt.Sprintf("order %s cancelled: %s", wire.OrderID, wire.Reason)
	}
	h.notifier.Notify(notify.New(notify.LevelWarning, msg))
}

func (h *OrderHandler) getOrder(id string) (model.Order, bool) {
	raw, ok := h.store.Get(KeyOrder(id))
	if !ok {
		return model.Order{}, false
	}
	order, ok := raw.(model.Order)
	return order, ok
}

// putOrder writes the record cache and patches the matching entry in both
// list caches.
func (h *OrderHandler) putOrder(order model.Order) {
	h.store.Set(KeyOrder(order.OrderID), order)
	matches := func(o model.Order) bool { return o.OrderID == order.OrderID }
	replace := func(model.Order) model.Order { return order }
	h.store.Update(KeyOrders, func(cur any) any {
		return replaceMatch(listOf[model.Order](cur), matches, replace)
	})
	h.store.Update(KeyActiveOrders, func(cur any) any {
		return replaceMatch(listOf[model.Order](cur), matches, replace)
	})
}

func (h *OrderHandler) removeFromActive(id string) {
	h.store.Update(KeyActiveOrders, func(cur any) any {
		return removeMatch(listOf[model.Order](cur), func(o model.Order) bool {
			return o.OrderID == id
		})
	})
}
