package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/toko-checkout/internal/resilience"
)

// JSON wraps Redis helpers for JSON payloads. A nil client disables caching.
type JSON struct {
	client  *redis.Client
	ttl     time.Duration
	breaker *resilience.Breaker
}

// NewJSON constructs a cache helper.
func NewJSON(client *redis.Client, ttl time.Duration) *JSON {
	return &JSON{client: client, ttl: ttl}
}

// WithBreaker routes every Redis call through b. While b is open, reads miss
// and writes are dropped with resilience.ErrOpenCircuit.
func (c *JSON) WithBreaker(b *resilience.Breaker) *JSON {
	c.breaker = b
	return c
}

// Enabled reports whether a backing client is configured.
func (c *JSON) Enabled() bool {
	return c != nil && c.client != nil
}

// GetJSON unmarshals a cached JSON payload into dst. It reports whether the key existed.
func (c *JSON) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if !c.Enabled() || key == "" {
		return false, nil
	}
	var data []byte
	err := c.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		data, err = c.client.Get(ctx, key).Bytes()
		return err
	}, isMiss)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON serialises v as JSON and stores it with the configured TTL.
func (c *JSON) SetJSON(ctx context.Context, key string, v any) error {
	if !c.Enabled() || key == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.breaker.Do(ctx, func(ctx context.Context) error {
		return c.client.Set(ctx, key, data, c.ttl).Err()
	}, nil)
}

func isMiss(err error) bool { return errors.Is(err, redis.Nil) }
