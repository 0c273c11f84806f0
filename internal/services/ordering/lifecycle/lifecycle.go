// Package lifecycle exposes status-filtered order views and moves orders
// along NEW, PROCESSING, DELIVERING, COMPLETED.
package lifecycle

import (
	"context"
	"errors"
	"log"
	"time"

	apperrors "github.com/louisbranch/restobot/internal/platform/errors"
	"github.com/louisbranch/restobot/internal/platform/requestctx"
	"github.com/louisbranch/restobot/internal/services/ordering/notify"
	"github.com/louisbranch/restobot/internal/services/ordering/order"
	"github.com/louisbranch/restobot/internal/services/ordering/storage"
)

// Entry pairs an order with its identifier in list results.
type Entry struct {
	ID    string
	Order order.Order
}

// Transition reports one applied status change.
type Transition struct {
	Order order.Order
	From  order.Status
	To    order.Status
}

// Manager reads and advances orders for staff.
type Manager struct {
	orders   storage.OrderStore
	notifier notify.Notifier
	clock    func() time.Time
}

// NewManager creates a manager. A nil notifier discards events.
func NewManager(orders storage.OrderStore, notifier notify.Notifier) *Manager {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Manager{orders: orders, notifier: notifier, clock: time.Now}
}

// ListByStatus returns the orders passing filter, in store iteration order.
func (m *Manager) ListByStatus(ctx context.Context, filter order.Filter) ([]Entry, error) {
	all, err := m.orders.LoadAll(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodePersistenceFailure, "load orders", err)
	}
	entries := make([]Entry, 0, all.Len())
	for _, o := range all.Orders() {
		if filter.Matches(o.Status) {
			entries = append(entries, Entry{ID: o.ID, Order: o})
		}
	}
	return entries, nil
}

// Get returns one order or ORDER_NOT_FOUND.
func (m *Manager) Get(ctx context.Context, id string) (order.Order, error) {
	o, err := m.orders.Get(ctx, id)
	if err != nil {
		return order.Order{}, mapStoreError(err, id)
	}
	return o, nil
}

// Advance moves the order to target. Only the unique legal successor of the
// current status is accepted; anything else fails with ILLEGAL_TRANSITION
// and leaves the record unchanged.
func (m *Manager) Advance(ctx context.Context, id string, target order.Status) (Transition, error) {
	var from order.Status
	updated, err := m.orders.Update(ctx, id, func(current *order.Order) error {
		from = current.Status
		if !order.IsTransitionAllowed(current.Status, target) {
			return apperrors.WithMetadata(
				apperrors.CodeIllegalTransition,
				"status transition not allowed",
				map[string]string{
					"OrderID": id,
					"From":    string(current.Status),
					"To":      string(target),
				},
			)
		}
		current.Status = target
		return nil
	})
	if err != nil {
		return Transition{}, mapStoreError(err, id)
	}

	log.Printf("order %s status changed from %s to %s by %q", id, from, updated.Status, requestctx.UserIDFromContext(ctx))
	if err := m.notifier.Notify(ctx, notify.StatusChanged(updated, from, m.clock())); err != nil {
		log.Printf("notify status change for order %s: %v", id, err)
	}
	return Transition{Order: updated, From: from, To: updated.Status}, nil
}

func mapStoreError(err error, id string) error {
	if _, ok := apperrors.As(err); ok {
		return err
	}
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.WithMetadata(
			apperrors.CodeOrderNotFound,
			"order not found",
			map[string]string{"OrderID": id},
		)
	}
	return apperrors.Wrap(apperrors.CodePersistenceFailure, "order store", err)
}

// Direction moves a navigation cursor.
type Direction int

const (
	DirectionPrev Direction = -1
	DirectionNext Direction = 1
)

// ParseDirection decodes "prev" or "next".
func ParseDirection(value string) (Direction, bool) {
	switch value {
	case "prev":
		return DirectionPrev, true
	case "next":
		return DirectionNext, true
	default:
		return 0, false
	}
}

// String returns "prev" or "next".
func (d Direction) String() string {
	if d == DirectionPrev {
		return "prev"
	}
	return "next"
}

// Navigate returns the index after moving one step in dir over ids, clamped
// to the list bounds without wrapping. An empty list yields 0.
func Navigate(ids []string, current int, dir Direction) int {
	if len(ids) == 0 {
		return 0
	}
	next := current + int(dir)
	if next < 0 {
		return 0
	}
	if next > len(ids)-1 {
		return len(ids) - 1
	}
	return next
}
