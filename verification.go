package authredis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// CreateVerificationToken stores the token record under its composite
// identifier:token key and returns it.
func (a *Adapter) CreateVerificationToken(ctx context.Context, token VerificationToken) (*VerificationToken, error) {
	data, err := json.Marshal(token)
	if err != nil {
		return nil, err
	}

	key := a.keys.verificationTokenKey(token.Identifier, token.Token)
	if err := a.redis.Set(ctx, key, data, a.ttl).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return &token, nil
}

// UseVerificationToken consumes the token: the stored record is returned and
// deleted, so a second call with the same identifier and token yields nil.
// The read does not refresh any TTL since the key is removed immediately.
func (a *Adapter) UseVerificationToken(ctx context.Context, identifier, token string) (*VerificationToken, error) {
	key := a.keys.verificationTokenKey(identifier, token)

	data, err := a.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	var record VerificationToken
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}

	if err := a.redis.Del(ctx, key).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return &record, nil
}
