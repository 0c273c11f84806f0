// Package storage defines persistence contracts for placed orders.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/louisbranch/restobot/internal/services/ordering/order"
)

var (
	// ErrNotFound indicates a requested order record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates an order with the same identifier is stored.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrImmutableField indicates a mutator changed a field other than status.
	ErrImmutableField = errors.New("order fields other than status are immutable")
)

// Mutator edits one loaded order in place.
type Mutator func(*order.Order) error

// Collection is the full order set in store iteration order.
type Collection struct {
	ids    []string
	orders map[string]order.Order
}

// NewCollection builds a collection from orders in the given order. Later
// duplicates replace the earlier record but keep its position.
func NewCollection(orders []order.Order) Collection {
	c := Collection{
		ids:    make([]string, 0, len(orders)),
		orders: make(map[string]order.Order, len(orders)),
	}
	for _, o := range orders {
		c.put(o)
	}
	return c
}

func (c *Collection) put(o order.Order) {
	if c.orders == nil {
		c.orders = make(map[string]order.Order)
	}
	if _, ok := c.orders[o.ID]; !ok {
		c.ids = append(c.ids, o.ID)
	}
	c.orders[o.ID] = o.Clone()
}

// Len returns the number of orders.
func (c Collection) Len() int {
	return len(c.ids)
}

// IDs returns order identifiers in iteration order.
func (c Collection) IDs() []string {
	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}

// Get returns the order stored under id.
func (c Collection) Get(id string) (order.Order, bool) {
	o, ok := c.orders[id]
	if !ok {
		return order.Order{}, false
	}
	return o.Clone(), true
}

// Orders returns every order in iteration order.
func (c Collection) Orders() []order.Order {
	out := make([]order.Order, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.orders[id].Clone())
	}
	return out
}

// ByCustomer returns the customer's orders sorted by creation time
// ascending. Ties keep iteration order.
func (c Collection) ByCustomer(customerID string) []order.Order {
	var out []order.Order
	for _, id := range c.ids {
		if o := c.orders[id]; o.CustomerID == customerID {
			out = append(out, o.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// OrderStore persists placed orders keyed by identifier.
type OrderStore interface {
	// LoadAll returns every order. A store with no backing data yet is empty,
	// not an error.
	LoadAll(ctx context.Context) (Collection, error)
	// Create inserts o under its identifier. ErrAlreadyExists if taken.
	Create(ctx context.Context, o order.Order) error
	// Update loads the order, applies mutate, and persists the result.
	// ErrNotFound if id is absent.
	Update(ctx context.Context, id string, mutate Mutator) (order.Order, error)
	// Get returns one order. ErrNotFound if absent.
	Get(ctx context.Context, id string) (order.Order, error)
	// FindByCustomer returns the customer's orders, oldest first.
	FindByCustomer(ctx context.Context, customerID string) ([]order.Order, error)
	// Close releases backing resources.
	Close() error
}

// ApplyMutation runs mutate on a copy of current and checks that only the
// status changed and the result is still a valid record.
func ApplyMutation(current order.Order, mutate Mutator) (order.Order, error) {
	next := current.Clone()
	if mutate != nil {
		if err := mutate(&next); err != nil {
			return order.Order{}, err
		}
	}
	if !order.SameRecord(current, next) {
		return order.Order{}, ErrImmutableField
	}
	if err := next.Validate(); err != nil {
		return order.Order{}, fmt.Errorf("invalid order after update: %w", err)
	}
	return next, nil
}
