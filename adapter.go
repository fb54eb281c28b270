package authredis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Adapter translates domain operations into key/value operations against a
// Redis-compatible store. It is stateless and safe for concurrent use.
//
// Construct one with [New]; the zero value is not usable.
type Adapter struct {
	redis redis.UniversalClient
	keys  keySet
	ttl   time.Duration
	log   zerolog.Logger
}

// New creates an [Adapter] backed by the given Redis client. The client's
// lifecycle (connection pooling, timeouts, closing) stays with the caller.
func New(client redis.UniversalClient, opts Options) *Adapter {
	opts = opts.withDefaults()

	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	return &Adapter{
		redis: client,
		keys:  newKeySet(opts),
		ttl:   opts.TTL,
		log:   log,
	}
}

// Ping returns a point-in-time store availability check and its latency.
func (a *Adapter) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := a.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}

// getJSON reads and decodes the record at key, refreshing its sliding TTL on
// a hit. Returns false with a nil error when the key is absent.
func (a *Adapter) getJSON(ctx context.Context, key string, dest any) (bool, error) {
	data, err := a.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}

	a.touch(ctx, key)
	return true, nil
}

// touch refreshes the sliding TTL on each key. It is best-effort: a failed
// refresh never fails the read that triggered it, it is only logged.
func (a *Adapter) touch(ctx context.Context, keys ...string) {
	if a.ttl <= 0 {
		return
	}
	for _, key := range keys {
		if err := a.redis.Expire(ctx, key, a.ttl).Err(); err != nil {
			a.log.Warn().Err(err).Str("key", key).Msg("sliding ttl refresh failed")
		}
	}
}

// setWithTTL queues a SET carrying the configured TTL (or no expiry).
func (a *Adapter) setWithTTL(ctx context.Context, pipe redis.Pipeliner, key string, value any) {
	pipe.Set(ctx, key, value, a.ttl)
}

// indexAdd queues adding member to the index set at key, re-arming the set's
// TTL alongside the write.
func (a *Adapter) indexAdd(ctx context.Context, pipe redis.Pipeliner, key, member string) {
	pipe.SAdd(ctx, key, member)
	if a.ttl > 0 {
		pipe.Expire(ctx, key, a.ttl)
	}
}

// atomically runs fn inside a MULTI/EXEC pipeline so multi-key writes and
// deletes land as one batch.
func (a *Adapter) atomically(ctx context.Context, fn func(pipe redis.Pipeliner) error) error {
	if _, err := a.redis.TxPipelined(ctx, fn); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
