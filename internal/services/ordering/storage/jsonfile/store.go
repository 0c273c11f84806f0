// Package jsonfile stores orders in a single JSON document mapping order id
// to record. Every write rewrites the whole document.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/restobot/internal/services/ordering/order"
	"github.com/louisbranch/restobot/internal/services/ordering/storage"
)

// Store is a full-document order store. One mutex serializes each
// load-modify-write cycle so concurrent updates cannot lose each other.
type Store struct {
	mu   sync.Mutex
	path string
	loc  *time.Location
}

// Option configures a Store.
type Option func(*Store)

// WithLocation sets the zone used for timestamps written without an offset.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// Open prepares a store at path. The file is created on first write.
func Open(path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	s := &Store{path: filepath.Clean(path), loc: time.Local}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the document location.
func (s *Store) Path() string {
	return s.path
}

// Close is a no-op; the document is not held open between calls.
func (s *Store) Close() error {
	return nil
}

// LoadAll reads the entire document.
func (s *Store) LoadAll(ctx context.Context) (storage.Collection, error) {
	if err := ctx.Err(); err != nil {
		return storage.Collection{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked()
}

// Get returns one order.
func (s *Store) Get(ctx context.Context, id string) (order.Order, error) {
	all, err := s.LoadAll(ctx)
	if err != nil {
		return order.Order{}, err
	}
	o, ok := all.Get(id)
	if !ok {
		return order.Order{}, storage.ErrNotFound
	}
	return o, nil
}

// FindByCustomer returns the customer's orders, oldest first.
func (s *Store) FindByCustomer(ctx context.Context, customerID string) ([]order.Order, error) {
	all, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return all.ByCustomer(customerID), nil
}

// Create appends o to the document.
func (s *Store) Create(ctx context.Context, o order.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := o.Validate(); err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readLocked()
	if err != nil {
		return err
	}
	if _, exists := all.Get(o.ID); exists {
		return storage.ErrAlreadyExists
	}
	orders := append(all.Orders(), o)
	return s.writeLocked(orders)
}

// Update applies mutate to the order stored under id.
func (s *Store) Update(ctx context.Context, id string, mutate storage.Mutator) (order.Order, error) {
	if err := ctx.Err(); err != nil {
		return order.Order{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readLocked()
	if err != nil {
		return order.Order{}, err
	}
	current, ok := all.Get(id)
	if !ok {
		return order.Order{}, storage.ErrNotFound
	}
	next, err := storage.ApplyMutation(current, mutate)
	if err != nil {
		return order.Order{}, err
	}
	orders := all.Orders()
	for i := range orders {
		if orders[i].ID == id {
			orders[i] = next
			break
		}
	}
	if err := s.writeLocked(orders); err != nil {
		return order.Order{}, err
	}
	return next.Clone(), nil
}

func (s *Store) readLocked() (storage.Collection, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return storage.NewCollection(nil), nil
	}
	if err != nil {
		return storage.Collection{}, fmt.Errorf("read orders: %w", err)
	}
	orders, err := decodeDocument(data, s.loc)
	if err != nil {
		return storage.Collection{}, fmt.Errorf("decode orders: %w", err)
	}
	return storage.NewCollection(orders), nil
}

func (s *Store) writeLocked(orders []order.Order) error {
	data, err := encodeDocument(orders)
	if err != nil {
		return fmt.Errorf("encode orders: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create orders dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".orders-*.json")
	if err != nil {
		return fmt.Errorf("create temp orders file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}
	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write orders: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync orders: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close orders: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace orders: %w", err)
	}
	return nil
}

// decodeDocument reads the top-level object token by token so the order of
// keys in the file becomes the iteration order of the collection.
func decodeDocument(data []byte, loc *time.Location) ([]order.Order, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}
	var orders []order.Order
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		id, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected order id, got %v", keyTok)
		}
		var rec orderRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("order %s: %w", id, err)
		}
		o, err := fromRecord(id, rec, loc)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after document")
	}
	return orders, nil
}

func encodeDocument(orders []order.Order) ([]byte, error) {
	var buf bytes.Buffer
	if len(orders) == 0 {
		buf.WriteString("{}\n")
		return buf.Bytes(), nil
	}
	buf.WriteString("{\n")
	for i, o := range orders {
		key, err := json.Marshal(o.ID)
		if err != nil {
			return nil, err
		}
		value, err := marshalIndent(toRecord(o))
		if err != nil {
			return nil, err
		}
		buf.WriteString("  ")
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(value)
		if i < len(orders)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

func marshalIndent(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("  ", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

var _ storage.OrderStore = (*Store)(nil)
