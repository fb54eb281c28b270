package authredis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CreateUser stores user under a freshly generated id and, when an email is
// present, writes the email → id index. The stored user (id included) is
// returned.
func (a *Adapter) CreateUser(ctx context.Context, user User) (*User, error) {
	user.ID = uuid.NewString()
	if err := a.setUser(ctx, &user, ""); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser returns the user stored under id, or nil when absent.
func (a *Adapter) GetUser(ctx context.Context, id string) (*User, error) {
	var user User
	found, err := a.getJSON(ctx, a.keys.userKey(id), &user)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail resolves email through the email index, then loads the user.
func (a *Adapter) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	key := a.keys.emailKey(email)

	id, err := a.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	a.touch(ctx, key)
	return a.GetUser(ctx, id)
}

// GetUserByAccount loads the account identified by provider and
// providerAccountID and returns its linked user, or nil when either is
// absent.
func (a *Adapter) GetUserByAccount(ctx context.Context, provider, providerAccountID string) (*User, error) {
	account, err := a.getAccount(ctx, provider, providerAccountID)
	if err != nil || account == nil {
		return nil, err
	}
	return a.GetUser(ctx, account.UserID)
}

// UpdateUser shallow-merges patch (id required) over the stored user and
// rewrites the record. A missing user is not an error: the merge runs
// against an empty base. When the merge changes the email, the stale email
// index entry is removed in the same batch the new one is written.
func (a *Adapter) UpdateUser(ctx context.Context, patch User) (*User, error) {
	existing, err := a.GetUser(ctx, patch.ID)
	if err != nil {
		return nil, err
	}

	merged := User{ID: patch.ID}
	staleEmail := ""
	if existing != nil {
		merged = *existing
		staleEmail = existing.Email
	}
	merged.merge(patch)

	if err := a.setUser(ctx, &merged, staleEmail); err != nil {
		return nil, err
	}
	return &merged, nil
}

// DeleteUser removes the user's primary record, its email index entry, every
// account and session reachable through the by-user-id index sets, and the
// sets themselves, in one batched delete. Absent users are a no-op.
func (a *Adapter) DeleteUser(ctx context.Context, id string) error {
	user, err := a.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	accountIndexKey := a.keys.accountByUserKey(id)
	sessionIndexKey := a.keys.sessionByUserKey(id)

	accountKeys, err := a.redis.SMembers(ctx, accountIndexKey).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	sessionKeys, err := a.redis.SMembers(ctx, sessionIndexKey).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	del := make([]string, 0, len(accountKeys)+len(sessionKeys)+4)
	del = append(del, a.keys.userKey(id))
	if user.Email != "" {
		del = append(del, a.keys.emailKey(user.Email))
	}
	del = append(del, accountKeys...)
	del = append(del, sessionKeys...)
	del = append(del, accountIndexKey, sessionIndexKey)

	if err := a.redis.Del(ctx, del...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// setUser writes the user record and maintains the email index in one batch.
// staleEmail, when different from the user's current email, names an index
// entry to drop.
func (a *Adapter) setUser(ctx context.Context, user *User, staleEmail string) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	return a.atomically(ctx, func(pipe redis.Pipeliner) error {
		a.setWithTTL(ctx, pipe, a.keys.userKey(user.ID), data)
		if user.Email != "" {
			a.setWithTTL(ctx, pipe, a.keys.emailKey(user.Email), user.ID)
		}
		if staleEmail != "" && staleEmail != user.Email {
			pipe.Del(ctx, a.keys.emailKey(staleEmail))
		}
		return nil
	})
}
