// Package checkout drives the name, phone, and address dialogue that turns a
// customer's cart into a placed order.
package checkout

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	apperrors "github.com/louisbranch/restobot/internal/platform/errors"
	"github.com/louisbranch/restobot/internal/services/ordering/order"
	"github.com/louisbranch/restobot/internal/services/ordering/session"
	"github.com/louisbranch/restobot/internal/services/ordering/storage"
)

// Outcome reports what one free-text message did to the dialogue.
type Outcome struct {
	// Handled is false when the customer is not in a dialogue.
	Handled bool
	// Step is the dialogue step after the message.
	Step session.Step
	// Session is the dialogue state after a step that did not place an order.
	Session session.Session
	// Order is set when the message completed checkout.
	Order *order.Order
}

// Machine runs the per-customer checkout dialogue. Callers serialize work for
// one customer; the machine does not lock sessions itself.
type Machine struct {
	sessions session.Store
	orders   storage.OrderStore
	clock    func() time.Time
	newID    func(time.Time) string
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock overrides the order timestamp source.
func WithClock(clock func() time.Time) Option {
	return func(m *Machine) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithIDGenerator overrides order identifier generation.
func WithIDGenerator(newID func(time.Time) string) Option {
	return func(m *Machine) {
		if newID != nil {
			m.newID = newID
		}
	}
}

// NewMachine creates a checkout machine over sessions and orders.
func NewMachine(sessions session.Store, orders storage.OrderStore, opts ...Option) *Machine {
	m := &Machine{
		sessions: sessions,
		orders:   orders,
		clock:    time.Now,
		newID:    order.NewID,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Begin starts the dialogue. An empty cart fails with VALIDATION_CART_EMPTY
// and leaves the session unchanged. Restarting mid-dialogue keeps the cart
// and discards the answers collected so far.
func (m *Machine) Begin(ctx context.Context, customerID string) (session.Session, error) {
	current, err := m.sessions.Get(ctx, customerID)
	if err != nil {
		return session.Session{}, apperrors.Wrap(apperrors.CodePersistenceFailure, "load session", err)
	}
	if len(current.Cart) == 0 {
		return current, apperrors.New(apperrors.CodeCartEmpty, "cart is empty")
	}
	current.Step = session.StepWaitingName
	current.CustomerName = ""
	current.Phone = ""
	current.Address = ""
	if err := m.sessions.Put(ctx, current); err != nil {
		return session.Session{}, apperrors.Wrap(apperrors.CodePersistenceFailure, "save session", err)
	}
	return current, nil
}

// Cancel leaves the dialogue and keeps the cart.
func (m *Machine) Cancel(ctx context.Context, customerID string) (session.Session, error) {
	current, err := m.sessions.Get(ctx, customerID)
	if err != nil {
		return session.Session{}, apperrors.Wrap(apperrors.CodePersistenceFailure, "load session", err)
	}
	if current.Step == session.StepNone {
		return current, nil
	}
	current.Step = session.StepNone
	current.CustomerName = ""
	current.Phone = ""
	current.Address = ""
	if err := m.sessions.Put(ctx, current); err != nil {
		return session.Session{}, apperrors.Wrap(apperrors.CodePersistenceFailure, "save session", err)
	}
	return current, nil
}

// HandleText feeds one free-text message into the dialogue. Outside a
// dialogue nothing is mutated and Handled is false. Blank answers fail with
// VALIDATION_TEXT_EMPTY and keep the current step.
func (m *Machine) HandleText(ctx context.Context, customerID, text string) (Outcome, error) {
	current, err := m.sessions.Get(ctx, customerID)
	if err != nil {
		return Outcome{}, apperrors.Wrap(apperrors.CodePersistenceFailure, "load session", err)
	}
	if current.Step == session.StepNone {
		return Outcome{Handled: false, Step: session.StepNone}, nil
	}
	if strings.TrimSpace(text) == "" {
		return Outcome{Handled: true, Step: current.Step}, apperrors.WithMetadata(
			apperrors.CodeTextEmpty,
			"text is required",
			map[string]string{"Step": current.Step.String()},
		)
	}

	switch current.Step {
	case session.StepWaitingName:
		current.CustomerName = text
		current.Step = session.StepWaitingPhone
	case session.StepWaitingPhone:
		current.Phone = text
		current.Step = session.StepWaitingAddress
	case session.StepWaitingAddress:
		current.Address = text
		placed, err := m.place(ctx, current)
		if err != nil {
			return Outcome{Handled: true, Step: session.StepWaitingAddress}, err
		}
		return Outcome{Handled: true, Step: session.StepNone, Order: &placed}, nil
	default:
		return Outcome{}, apperrors.WithMetadata(
			apperrors.CodeUnknown,
			"session step is invalid",
			map[string]string{"Step": string(current.Step)},
		)
	}

	if err := m.sessions.Put(ctx, current); err != nil {
		return Outcome{}, apperrors.Wrap(apperrors.CodePersistenceFailure, "save session", err)
	}
	return Outcome{Handled: true, Step: current.Step, Session: current}, nil
}

// place mints the order from the completed session. The session is only
// reset after the order is durably stored, so a failed write can be retried
// by resending the address.
func (m *Machine) place(ctx context.Context, completed session.Session) (order.Order, error) {
	if len(completed.Cart) == 0 {
		return order.Order{}, apperrors.New(apperrors.CodeCartEmpty, "cart is empty")
	}
	now := m.clock().Truncate(time.Millisecond)
	items := order.CloneLines(completed.Cart)
	placed := order.Order{
		ID:           m.newID(now),
		CustomerID:   completed.CustomerID,
		CustomerName: completed.CustomerName,
		Phone:        completed.Phone,
		Address:      completed.Address,
		Items:        items,
		Total:        order.Total(items),
		Status:       order.StatusNew,
		CreatedAt:    now,
	}
	if err := m.orders.Create(ctx, placed); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return order.Order{}, apperrors.WrapWithMetadata(
				apperrors.CodeOrderIDCollision,
				"order id already exists",
				map[string]string{"OrderID": placed.ID},
				err,
			)
		}
		return order.Order{}, apperrors.Wrap(apperrors.CodePersistenceFailure, "create order", err)
	}
	if err := m.sessions.Reset(ctx, completed.CustomerID); err != nil {
		log.Printf("reset session for %s after order %s: %v", completed.CustomerID, placed.ID, err)
	}
	return placed.Clone(), nil
}
