package session

import (
	"context"
	"sync"
	"time"

	"github.com/louisbranch/restobot/internal/services/ordering/order"
)

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	ttl      time.Duration
	now      func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithTTL expires sessions idle for longer than ttl. Zero disables expiry.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		s.ttl = ttl
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]Session),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the customer's session or a fresh one.
func (s *MemoryStore) Get(_ context.Context, customerID string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(customerID).Clone(), nil
}

// Put replaces the customer's session.
func (s *MemoryStore) Put(_ context.Context, session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storeLocked(session)
	return nil
}

// Reset discards the customer's session.
func (s *MemoryStore) Reset(_ context.Context, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, customerID)
	return nil
}

// AppendToCart adds line to the customer's cart.
func (s *MemoryStore) AppendToCart(_ context.Context, customerID string, line order.CartLine) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session := s.loadLocked(customerID).Clone()
	session.Cart = append(session.Cart, line)
	return s.storeLocked(session), nil
}

// ClearCart empties the customer's cart.
func (s *MemoryStore) ClearCart(_ context.Context, customerID string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session := s.loadLocked(customerID).Clone()
	session.Cart = []order.CartLine{}
	return s.storeLocked(session), nil
}

// Len reports how many live sessions are held.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for id := range s.sessions {
		if !s.expiredLocked(s.sessions[id]) {
			count++
		}
	}
	return count
}

func (s *MemoryStore) loadLocked(customerID string) Session {
	session, ok := s.sessions[customerID]
	if !ok || s.expiredLocked(session) {
		delete(s.sessions, customerID)
		return Fresh(customerID)
	}
	return session
}

func (s *MemoryStore) storeLocked(session Session) Session {
	session = session.Clone()
	session.UpdatedAt = s.now()
	s.sessions[session.CustomerID] = session
	return session.Clone()
}

func (s *MemoryStore) expiredLocked(session Session) bool {
	return s.ttl > 0 && s.now().Sub(session.UpdatedAt) > s.ttl
}
