package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/liliang-cn/askstock/internal/domain"
)

// Redis key prefix for session records
const sessionKeyPrefix = "chatsession:"

// RedisStore implements Store on Redis, for deployments running more than
// one instance. The sliding TTL maps onto the key TTL, refreshed on every
// read and write; read-modify-write goes through WATCH so two racing
// appends for one user cannot both see the pre-truncation history.
type RedisStore struct {
	client       *redis.Client
	ttl          time.Duration
	historyLimit int
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client, ttl time.Duration, historyLimit int) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &RedisStore{
		client:       client,
		ttl:          ttl,
		historyLimit: historyLimit,
	}
}

// History implements Store.
func (s *RedisStore) History(ctx context.Context, userID string) ([]domain.ConversationMessage, error) {
	rec, err := s.get(ctx, userID)
	if err != nil || rec == nil {
		return nil, err
	}
	return rec.History, nil
}

// AddMessage implements Store.
func (s *RedisStore) AddMessage(ctx context.Context, userID string, msg domain.ConversationMessage) error {
	return s.update(ctx, userID, func(rec *Record) {
		rec.History = append(rec.History, msg)
		if n := len(rec.History); n > s.historyLimit {
			rec.History = rec.History[n-s.historyLimit:]
		}
	})
}

// Data implements Store.
func (s *RedisStore) Data(ctx context.Context, userID string) (map[string]string, error) {
	rec, err := s.get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.Data == nil {
		return map[string]string{}, nil
	}
	return rec.Data, nil
}

// SetData implements Store.
func (s *RedisStore) SetData(ctx context.Context, userID, key, value string) error {
	return s.update(ctx, userID, func(rec *Record) {
		rec.Data[key] = value
	})
}

// Clear implements Store.
func (s *RedisStore) Clear(ctx context.Context, userID string) error {
	return s.client.Del(ctx, s.key(userID)).Err()
}

// get loads a record, refreshing its TTL. Returns nil when absent.
func (s *RedisStore) get(ctx context.Context, userID string) (*Record, error) {
	key := s.key(userID)
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, fmt.Errorf("decode session record: %w", err)
	}

	// Sliding expiry: reads refresh the TTL too
	_ = s.client.Expire(ctx, key, s.ttl).Err()

	return &rec, nil
}

// update applies fn to the stored record (creating an empty one when
// absent) under optimistic locking.
func (s *RedisStore) update(ctx context.Context, userID string, fn func(*Record)) error {
	key := s.key(userID)

	return s.client.Watch(ctx, func(tx *redis.Tx) error {
		rec := Record{Data: make(map[string]string)}

		val, err := tx.Get(ctx, key).Result()
		if err != nil && err != redis.Nil {
			return err
		}
		if err == nil {
			if err := json.Unmarshal([]byte(val), &rec); err != nil {
				return fmt.Errorf("decode session record: %w", err)
			}
			if rec.Data == nil {
				rec.Data = make(map[string]string)
			}
		}

		fn(&rec)

		newVal, err := json.Marshal(&rec)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, newVal, s.ttl)
			return nil
		})
		return err
	}, key)
}

func (s *RedisStore) key(userID string) string {
	return sessionKeyPrefix + userID
}
