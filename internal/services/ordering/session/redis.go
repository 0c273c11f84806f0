package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/louisbranch/restobot/internal/services/ordering/order"
)

const redisKeyPrefix = "restobot:session:"

// maxTxRetries bounds optimistic retries when a watched key changes.
const maxTxRetries = 5

// RedisStore keeps sessions as JSON documents in Redis.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisStore creates a store backed by a new Redis client.
func NewRedisStore(addr, password string, db int, ttl time.Duration) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedisStoreWithClient(client, ttl)
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, now: time.Now}
}

// Ping verifies the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

// Close releases the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Get returns the customer's session or a fresh one.
func (s *RedisStore) Get(ctx context.Context, customerID string) (Session, error) {
	return s.load(ctx, s.client, customerID)
}

// Put replaces the customer's session.
func (s *RedisStore) Put(ctx context.Context, session Session) error {
	_, err := s.save(ctx, s.client, session)
	return err
}

// Reset deletes the customer's session.
func (s *RedisStore) Reset(ctx context.Context, customerID string) error {
	if err := s.client.Del(ctx, redisKey(customerID)).Err(); err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	return nil
}

// AppendToCart adds line to the customer's cart.
func (s *RedisStore) AppendToCart(ctx context.Context, customerID string, line order.CartLine) (Session, error) {
	return s.mutate(ctx, customerID, func(session *Session) {
		session.Cart = append(session.Cart, line)
	})
}

// ClearCart empties the customer's cart.
func (s *RedisStore) ClearCart(ctx context.Context, customerID string) (Session, error) {
	return s.mutate(ctx, customerID, func(session *Session) {
		session.Cart = []order.CartLine{}
	})
}

// mutate applies fn under WATCH so concurrent writers to the same key retry
// instead of overwriting each other.
func (s *RedisStore) mutate(ctx context.Context, customerID string, fn func(*Session)) (Session, error) {
	key := redisKey(customerID)
	var result Session
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			session, err := s.load(ctx, tx, customerID)
			if err != nil {
				return err
			}
			fn(&session)
			payload, err := s.encode(&session)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, payload, s.ttl)
				return nil
			})
			if err == nil {
				result = session.Clone()
			}
			return err
		}, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return Session{}, fmt.Errorf("update session: %w", err)
	}
	return Session{}, fmt.Errorf("update session: %w", redis.TxFailedErr)
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisStore) load(ctx context.Context, cmd getter, customerID string) (Session, error) {
	raw, err := cmd.Get(ctx, redisKey(customerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Fresh(customerID), nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	session.CustomerID = customerID
	return session.Clone(), nil
}

func (s *RedisStore) save(ctx context.Context, cmd *redis.Client, session Session) (Session, error) {
	payload, err := s.encode(&session)
	if err != nil {
		return Session{}, err
	}
	if err := cmd.Set(ctx, redisKey(session.CustomerID), payload, s.ttl).Err(); err != nil {
		return Session{}, fmt.Errorf("put session: %w", err)
	}
	return session.Clone(), nil
}

func (s *RedisStore) encode(session *Session) ([]byte, error) {
	session.UpdatedAt = s.now().UTC()
	payload, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return payload, nil
}

func redisKey(customerID string) string {
	return redisKeyPrefix + customerID
}
