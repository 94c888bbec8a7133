// Package redisstore backs the idempotency middleware with Redis so that
// duplicate detection survives restarts and is shared across instances.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pendingMarker = "__pending__"

// Idempotency keeps one Redis key per request. Reserved keys hold a pending
// marker with a short TTL so a crashed handler cannot wedge the key forever;
// completed keys hold the JSON result for the retention window.
type Idempotency struct {
	client     *redis.Client
	prefix     string
	pendingTTL time.Duration
	resultTTL  time.Duration
}

func NewIdempotency(client *redis.Client, prefix string) *Idempotency {
	return &Idempotency{
		client:     client,
		prefix:     prefix,
		pendingTTL: 30 * time.Second,
		resultTTL:  24 * time.Hour,
	}
}

func (s *Idempotency) key(k string) string {
	return fmt.Sprintf("%s:idem:%s", s.prefix, k)
}

func (s *Idempotency) Reserve(ctx context.Context, key string) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.key(key), pendingMarker, s.pendingTTL).Result()
	if err != nil {
		return false, fmt.Errorf("redisstore: reserve: %w", err)
	}
	return ok, nil
}

func (s *Idempotency) Complete(ctx context.Context, key string, result any) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("redisstore: encode result: %w", err)
	}
	if err := s.client.Set(ctx, s.key(key), payload, s.resultTTL).Err(); err != nil {
		return fmt.Errorf("redisstore: complete: %w", err)
	}
	return nil
}

func (s *Idempotency) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redisstore: release: %w", err)
	}
	return nil
}

// Lookup reports completion. The stored JSON is not rehydrated into the
// handler's result type; a completed replay returns the zero result, which
// the bus treats as "already done".
func (s *Idempotency) Lookup(ctx context.Context, key string) (any, bool, error) {
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redisstore: lookup: %w", err)
	}
	if val == pendingMarker {
		return nil, false, nil
	}
	return nil, true, nil
}
