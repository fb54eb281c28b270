package authredis

import "errors"

var (
	// ErrRedisUnavailable wraps every transport-level failure surfaced by the
	// underlying Redis client. Unwrap with errors.Is to distinguish store
	// outages from serialization errors.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
