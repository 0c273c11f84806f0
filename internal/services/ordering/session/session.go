// Package session tracks each customer's cart and checkout dialogue step.
//
// Sessions are ephemeral. The in-memory store loses everything on restart;
// the Redis store survives restarts but still expires idle sessions when a
// TTL is configured.
package session

import (
	"context"
	"time"

	"github.com/louisbranch/restobot/internal/services/ordering/order"
)

// Step is the position of a customer inside the checkout dialogue.
type Step string

const (
	StepNone           Step = ""
	StepWaitingName    Step = "WAITING_NAME"
	StepWaitingPhone   Step = "WAITING_PHONE"
	StepWaitingAddress Step = "WAITING_ADDRESS"
)

// Valid reports whether s is a known dialogue step.
func (s Step) Valid() bool {
	switch s {
	case StepNone, StepWaitingName, StepWaitingPhone, StepWaitingAddress:
		return true
	default:
		return false
	}
}

// String returns "NONE" for the idle step.
func (s Step) String() string {
	if s == StepNone {
		return "NONE"
	}
	return string(s)
}

// Session is the per-customer dialogue state.
type Session struct {
	CustomerID   string           `json:"customer_id"`
	Cart         []order.CartLine `json:"cart"`
	Step         Step             `json:"step"`
	CustomerName string           `json:"customer_name,omitempty"`
	Phone        string           `json:"phone,omitempty"`
	Address      string           `json:"address,omitempty"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// Fresh returns the empty session for customerID.
func Fresh(customerID string) Session {
	return Session{CustomerID: customerID, Cart: []order.CartLine{}, Step: StepNone}
}

// Total sums the cart prices.
func (s Session) Total() int64 {
	return order.Total(s.Cart)
}

// Clone returns a copy of s that shares no slices with it.
func (s Session) Clone() Session {
	s.Cart = order.CloneLines(s.Cart)
	if s.Cart == nil {
		s.Cart = []order.CartLine{}
	}
	return s
}

// Store owns sessions keyed by customer identifier. Implementations return
// copies; mutating a returned Session never changes stored state.
type Store interface {
	// Get returns the session for customerID, or a fresh one if absent.
	Get(ctx context.Context, customerID string) (Session, error)
	// Put replaces the stored session.
	Put(ctx context.Context, s Session) error
	// Reset discards the session; the next Get returns a fresh one.
	Reset(ctx context.Context, customerID string) error
	// AppendToCart adds line to the end of the cart and returns the new session.
	AppendToCart(ctx context.Context, customerID string, line order.CartLine) (Session, error)
	// ClearCart empties the cart and leaves the dialogue step unchanged.
	ClearCart(ctx context.Context, customerID string) (Session, error)
}
