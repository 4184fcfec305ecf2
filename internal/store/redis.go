package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"order-relay/internal/domain"
)

// Store keeps published order payloads and offer-message locations so that a
// refused order can be re-published and a published order can be deleted by id.
type Store interface {
	SavePayload(ctx context.Context, orderID string, p domain.OrderPayload) error
	GetPayload(ctx context.Context, orderID string) (domain.OrderPayload, bool, error)
	SaveLocation(ctx context.Context, orderID string, loc domain.MessageLocation) error
	GetLocation(ctx context.Context, orderID string) (domain.MessageLocation, bool, error)
	Delete(ctx context.Context, orderID string) error
}

const keyPrefix = "order:"

// Entries outlive any realistic claim window; expiry cleans up abandoned orders.
const defaultTTL = 30 * 24 * time.Hour

type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore { return &RedisStore{rdb: rdb} }

func (s *RedisStore) SavePayload(ctx context.Context, orderID string, p domain.OrderPayload) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, keyPrefix+orderID, b, defaultTTL).Err()
}

func (s *RedisStore) GetPayload(ctx context.Context, orderID string) (domain.OrderPayload, bool, error) {
	raw, err := s.rdb.Get(ctx, keyPrefix+orderID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.OrderPayload{}, false, nil
		}
		return domain.OrderPayload{}, false, err
	}
	var p domain.OrderPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.OrderPayload{}, false, err
	}
	return p, true, nil
}

func (s *RedisStore) SaveLocation(ctx context.Context, orderID string, loc domain.MessageLocation) error {
	b, err := json.Marshal(loc)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, keyPrefix+orderID+":message", b, defaultTTL).Err()
}

func (s *RedisStore) GetLocation(ctx context.Context, orderID string) (domain.MessageLocation, bool, error) {
	raw, err := s.rdb.Get(ctx, keyPrefix+orderID+":message").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.MessageLocation{}, false, nil
		}
		return domain.MessageLocation{}, false, err
	}
	var loc domain.MessageLocation
	if err := json.Unmarshal(raw, &loc); err != nil {
		return domain.MessageLocation{}, false, err
	}
	return loc, true, nil
}

func (s *RedisStore) Delete(ctx context.Context, orderID string) error {
	if err := s.rdb.Del(ctx, keyPrefix+orderID).Err(); err != nil {
		return err
	}
	return s.rdb.Del(ctx, keyPrefix+orderID+":message").Err()
}
