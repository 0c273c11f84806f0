package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/restobot/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/restobot/internal/services/ordering/order"
	"github.com/louisbranch/restobot/internal/services/ordering/storage"
	"github.com/louisbranch/restobot/internal/services/ordering/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists orders in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite order store and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_txlock=immediate"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// LoadAll returns every order in insertion order.
func (s *Store) LoadAll(ctx context.Context) (storage.Collection, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Collection{}, err
	}
	orders, err := s.queryOrders(ctx, s.sqlDB, `ORDER BY o.seq`)
	if err != nil {
		return storage.Collection{}, fmt.Errorf("load orders: %w", err)
	}
	return storage.NewCollection(orders), nil
}

// Get returns one order.
func (s *Store) Get(ctx context.Context, id string) (order.Order, error) {
	if err := s.ready(ctx); err != nil {
		return order.Order{}, err
	}
	o, err := s.getOrder(ctx, s.sqlDB, id)
	if err != nil {
		return order.Order{}, err
	}
	return o, nil
}

// FindByCustomer returns the customer's orders, oldest first.
func (s *Store) FindByCustomer(ctx context.Context, customerID string) ([]order.Order, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	orders, err := s.queryOrders(ctx, s.sqlDB, `WHERE o.customer_id = ? ORDER BY o.created_at, o.seq`, customerID)
	if err != nil {
		return nil, fmt.Errorf("find orders by customer: %w", err)
	}
	return orders, nil
}

// Create inserts one order and its items.
func (s *Store) Create(ctx context.Context, o order.Order) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := o.Validate(); err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create order: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createdAt := toMillis(o.CreatedAt)
	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO orders (
		   id, customer_id, customer_name, phone, address,
		   total, status, created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID,
		o.CustomerID,
		o.CustomerName,
		o.Phone,
		o.Address,
		o.Total,
		string(o.Status),
		createdAt,
		toMillis(s.now()),
	)
	if err != nil {
		if isOrderUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create order: %w", err)
	}
	for position, line := range o.Items {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO order_items (order_id, position, item_id, name, price, description)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			o.ID,
			position,
			line.ItemID,
			line.Name,
			line.Price,
			line.Description,
		); err != nil {
			return fmt.Errorf("create order item: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create order: %w", err)
	}
	return nil
}

// Update applies mutate to one order inside a transaction.
func (s *Store) Update(ctx context.Context, id string, mutate storage.Mutator) (order.Order, error) {
	if err := s.ready(ctx); err != nil {
		return order.Order{}, err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return order.Order{}, fmt.Errorf("begin update order: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := s.getOrder(ctx, tx, id)
	if err != nil {
		return order.Order{}, err
	}
	next, err := storage.ApplyMutation(current, mutate)
	if err != nil {
		return order.Order{}, err
	}
	if _, err := tx.ExecContext(
		ctx,
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
		string(next.Status),
		toMillis(s.now()),
		id,
	); err != nil {
		return order.Order{}, fmt.Errorf("update order: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return order.Order{}, fmt.Errorf("commit update order: %w", err)
	}
	return next, nil
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) getOrder(ctx context.Context, q queryer, id string) (order.Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return order.Order{}, fmt.Errorf("order id is required")
	}
	orders, err := s.queryOrders(ctx, q, `WHERE o.id = ?`, id)
	if err != nil {
		return order.Order{}, fmt.Errorf("get order: %w", err)
	}
	if len(orders) == 0 {
		return order.Order{}, storage.ErrNotFound
	}
	return orders[0], nil
}

// queryOrders selects orders matching clause and attaches their items.
func (s *Store) queryOrders(ctx context.Context, q queryer, clause string, args ...any) ([]order.Order, error) {
	rows, err := q.QueryContext(
		ctx,
		`SELECT o.id, o.customer_id, o.customer_name, o.phone, o.address,
		        o.total, o.status, o.created_at
		   FROM orders o `+clause,
		args...,
	)
	if err != nil {
		return nil, err
	}
	var (
		orders []order.Order
		index  = make(map[string]int)
	)
	for rows.Next() {
		var (
			o         order.Order
			status    string
			createdAt int64
		)
		if err := rows.Scan(
			&o.ID,
			&o.CustomerID,
			&o.CustomerName,
			&o.Phone,
			&o.Address,
			&o.Total,
			&status,
			&createdAt,
		); err != nil {
			_ = rows.Close()
			return nil, err
		}
		parsed, ok := order.ParseStatus(status)
		if !ok {
			_ = rows.Close()
			return nil, fmt.Errorf("order %s: unknown status %q", o.ID, status)
		}
		o.Status = parsed
		o.CreatedAt = fromMillis(createdAt)
		o.Items = []order.CartLine{}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}
	if err := s.attachItems(ctx, q, orders, index); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *Store) attachItems(ctx context.Context, q queryer, orders []order.Order, index map[string]int) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(orders)), ",")
	args := make([]any, len(orders))
	for i, o := range orders {
		args[i] = o.ID
	}
	rows, err := q.QueryContext(
		ctx,
		`SELECT order_id, item_id, name, price, description
		   FROM order_items
		  WHERE order_id IN (`+placeholders+`)
		  ORDER BY order_id, position`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			orderID string
			line    order.CartLine
		)
		if err := rows.Scan(&orderID, &line.ItemID, &line.Name, &line.Price, &line.Description); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if i, ok := index[orderID]; ok {
			orders[i].Items = append(orders[i].Items, line)
		}
	}
	return rows.Err()
}

func isOrderUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed") &&
		strings.Contains(message, "orders.id")
}

var _ storage.OrderStore = (*Store)(nil)
