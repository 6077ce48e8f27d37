package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// Decision is the outcome of one rate limit check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Sliding implements a sliding window rate limiter backed by Redis sorted sets.
type Sliding struct {
	Client *redis.Client
	Prefix string
	Window time.Duration
	Max    int
}

// Allow registers an event for key and reports whether it is within the limit.
func (l Sliding) Allow(ctx context.Context, key string) (Decision, error) {
	now := time.Now()
	d := Decision{Allowed: true, Limit: l.Max, Remaining: l.Max, ResetAt: now.Add(l.Window)}
	if l.Client == nil || l.Max <= 0 || l.Window <= 0 {
		return d, nil
	}

	redisKey := l.Prefix + key
	cutoff := float64(now.Add(-l.Window).UnixNano())
	member := key + ":" + uuid.NewString()

	pipe := l.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", fmt.Sprintf("%f", cutoff))
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: member})
	count := pipe.ZCard(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, err
	}

	current := int(count.Val())
	d.Remaining = max(l.Max-current, 0)
	d.Allowed = current <= l.Max
	return d, nil
}

// Fixed is a fixed-window limiter on top of ulule/limiter.
type Fixed struct {
	l *limiter.Limiter
}

// NewFixed builds a fixed-window limiter. With a nil client counters live in
// process memory, otherwise they are shared through Redis.
func NewFixed(client *redis.Client, prefix string, window time.Duration, maxEvents int) (*Fixed, error) {
	var (
		store limiter.Store
		err   error
	)
	if client == nil {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: prefix, CleanUpInterval: window})
	} else {
		store, err = limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
		if err != nil {
			return nil, fmt.Errorf("ratelimit store: %w", err)
		}
	}
	rate := limiter.Rate{Period: window, Limit: int64(maxEvents)}
	return &Fixed{l: limiter.New(store, rate)}, nil
}

// Allow implements Limiter.
func (f *Fixed) Allow(ctx context.Context, key string) (Decision, error) {
	res, err := f.l.Get(ctx, key)
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Allowed:   !res.Reached,
		Limit:     int(res.Limit),
		Remaining: int(res.Remaining),
		ResetAt:   time.Unix(res.Reset, 0),
	}, nil
}
