package authredis

import (
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultUserKeyPrefix              = "user:"
	defaultAccountKeyPrefix           = "user:account:"
	defaultAccountByUserIDKeyPrefix   = "user:account:by-user-id:"
	defaultEmailKeyPrefix             = "user:email:"
	defaultSessionKeyPrefix           = "user:session:"
	defaultSessionByUserIDKeyPrefix   = "user:session:by-user-id:"
	defaultVerificationTokenKeyPrefix = "user:token:"
)

// Options configures an [Adapter]. The zero value is fully usable: default
// key prefixes, no TTL, no logging.
//
// Options instances are read once at construction time and never mutated
// afterwards.
type Options struct {
	// BaseKeyPrefix is prepended to every managed key, in front of the
	// per-category prefix. Use it to isolate tenants sharing one store.
	BaseKeyPrefix string

	// Per-category prefix overrides. Empty fields keep the defaults
	// ("user:", "user:account:", "user:account:by-user-id:", "user:email:",
	// "user:session:", "user:session:by-user-id:", "user:token:").
	UserKeyPrefix              string
	AccountKeyPrefix           string
	AccountByUserIDKeyPrefix   string
	EmailKeyPrefix             string
	SessionKeyPrefix           string
	SessionByUserIDKeyPrefix   string
	VerificationTokenKeyPrefix string

	// TTL, when positive, is applied to every managed key on write and
	// refreshed on every read hit (sliding expiration). Zero disables
	// expiry entirely.
	TTL time.Duration

	// Logger receives best-effort warnings (TTL refresh failures). Nil
	// disables logging.
	Logger *zerolog.Logger
}

func (o Options) withDefaults() Options {
	if o.UserKeyPrefix == "" {
		o.UserKeyPrefix = defaultUserKeyPrefix
	}
	if o.AccountKeyPrefix == "" {
		o.AccountKeyPrefix = defaultAccountKeyPrefix
	}
	if o.AccountByUserIDKeyPrefix == "" {
		o.AccountByUserIDKeyPrefix = defaultAccountByUserIDKeyPrefix
	}
	if o.EmailKeyPrefix == "" {
		o.EmailKeyPrefix = defaultEmailKeyPrefix
	}
	if o.SessionKeyPrefix == "" {
		o.SessionKeyPrefix = defaultSessionKeyPrefix
	}
	if o.SessionByUserIDKeyPrefix == "" {
		o.SessionByUserIDKeyPrefix = defaultSessionByUserIDKeyPrefix
	}
	if o.VerificationTokenKeyPrefix == "" {
		o.VerificationTokenKeyPrefix = defaultVerificationTokenKeyPrefix
	}
	if o.TTL < 0 {
		o.TTL = 0
	}
	return o
}
