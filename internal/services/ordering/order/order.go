// Package order defines the order record, its cart line snapshots, and the
// closed status lifecycle.
package order

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// CartLine is a menu item snapshot copied into a cart at add time. Name and
// price are frozen even if the catalog changes later.
type CartLine struct {
	ItemID      string
	Name        string
	Price       int64 // smallest currency unit
	Description string
}

// Order is the durable record of a completed checkout. Only Status changes
// after creation.
type Order struct {
	ID           string
	CustomerID   string
	CustomerName string
	Phone        string
	Address      string
	Items        []CartLine
	Total        int64
	Status       Status
	CreatedAt    time.Time
}

// Total sums the prices of lines.
func Total(lines []CartLine) int64 {
	var total int64
	for _, line := range lines {
		total += line.Price
	}
	return total
}

// CloneLines returns an independent copy of lines.
func CloneLines(lines []CartLine) []CartLine {
	if lines == nil {
		return nil
	}
	out := make([]CartLine, len(lines))
	copy(out, lines)
	return out
}

// Clone returns a copy of o that shares no slices with it.
func (o Order) Clone() Order {
	o.Items = CloneLines(o.Items)
	return o
}

// Validate checks the record invariants every store relies on.
func (o Order) Validate() error {
	if strings.TrimSpace(o.ID) == "" {
		return errors.New("order id is required")
	}
	if strings.TrimSpace(o.CustomerID) == "" {
		return errors.New("customer id is required")
	}
	if len(o.Items) == 0 {
		return errors.New("order must contain at least one item")
	}
	for i, line := range o.Items {
		if line.Price < 0 {
			return fmt.Errorf("item %d has negative price", i)
		}
	}
	if got := Total(o.Items); o.Total != got {
		return fmt.Errorf("order total %d does not match item sum %d", o.Total, got)
	}
	if !o.Status.Valid() {
		return fmt.Errorf("order status %q is invalid", o.Status)
	}
	if o.CreatedAt.IsZero() {
		return errors.New("order created_at is required")
	}
	return nil
}

// SameRecord reports whether b has the same immutable fields as a; only the
// status may differ.
func SameRecord(a, b Order) bool {
	if a.ID != b.ID ||
		a.CustomerID != b.CustomerID ||
		a.CustomerName != b.CustomerName ||
		a.Phone != b.Phone ||
		a.Address != b.Address ||
		a.Total != b.Total ||
		!a.CreatedAt.Equal(b.CreatedAt) ||
		len(a.Items) != len(b.Items) {
		return false
	}
	for i := range a.Items {
		if a.Items[i] != b.Items[i] {
			return false
		}
	}
	return true
}
