// Package notify fans order events out to interested parties.
package notify

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/louisbranch/restobot/internal/services/ordering/order"
)

// EventType names an order event.
type EventType string

const (
	EventOrderCreated       EventType = "order.created"
	EventOrderStatusChanged EventType = "order.status_changed"
)

// Event describes one order change.
type Event struct {
	Type       EventType    `json:"type"`
	OrderID    string       `json:"order_id"`
	CustomerID string       `json:"customer_id"`
	From       order.Status `json:"from,omitempty"`
	To         order.Status `json:"to"`
	Total      int64        `json:"total"`
	At         time.Time    `json:"at"`
}

// Created builds the event for a freshly placed order.
func Created(o order.Order) Event {
	return Event{
		Type:       EventOrderCreated,
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		To:         o.Status,
		Total:      o.Total,
		At:         o.CreatedAt,
	}
}

// StatusChanged builds the event for a status transition.
func StatusChanged(o order.Order, from order.Status, at time.Time) Event {
	return Event{
		Type:       EventOrderStatusChanged,
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		From:       from,
		To:         o.Status,
		Total:      o.Total,
		At:         at,
	}
}

// Notifier delivers order events.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Nop discards events.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, Event) error { return nil }

// LogNotifier writes events to the process log.
type LogNotifier struct {
	Logger *log.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(_ context.Context, event Event) error {
	printf := log.Printf
	if n.Logger != nil {
		printf = n.Logger.Printf
	}
	switch event.Type {
	case EventOrderStatusChanged:
		printf("notify customer %s: order %s is now %s", event.CustomerID, event.OrderID, event.To)
	default:
		printf("notify %s: order %s for customer %s", event.Type, event.OrderID, event.CustomerID)
	}
	return nil
}

// Multi delivers each event to every notifier and joins their errors.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, event Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
