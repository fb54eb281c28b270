package authredis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// LinkAccount stores the account under its derived composite id
// (provider:providerAccountId) and adds its primary key to the owning user's
// account index set, in one batch. The stored account is returned.
func (a *Adapter) LinkAccount(ctx context.Context, account Account) (*Account, error) {
	account.ID = compositeID(account.Provider, account.ProviderAccountID)

	data, err := json.Marshal(account)
	if err != nil {
		return nil, err
	}

	key := a.keys.accountKey(account.Provider, account.ProviderAccountID)
	err = a.atomically(ctx, func(pipe redis.Pipeliner) error {
		a.setWithTTL(ctx, pipe, key, data)
		a.indexAdd(ctx, pipe, a.keys.accountByUserKey(account.UserID), key)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// UnlinkAccount deletes the account record and removes its key from the
// owning user's account index set. Absent accounts are a no-op.
func (a *Adapter) UnlinkAccount(ctx context.Context, provider, providerAccountID string) error {
	account, err := a.getAccount(ctx, provider, providerAccountID)
	if err != nil {
		return err
	}
	if account == nil {
		return nil
	}

	key := a.keys.accountKey(provider, providerAccountID)
	return a.atomically(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.SRem(ctx, a.keys.accountByUserKey(account.UserID), key)
		return nil
	})
}

// ListUserAccounts returns every account currently linked to userID, in
// unspecified order. Index members whose record has expired are skipped.
func (a *Adapter) ListUserAccounts(ctx context.Context, userID string) ([]Account, error) {
	keys, err := a.redis.SMembers(ctx, a.keys.accountByUserKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(keys) == 0 {
		return []Account{}, nil
	}

	pipe := a.redis.Pipeline()
	cmds := make([]*redis.StringCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.Get(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	accounts := make([]Account, 0, len(keys))
	for _, cmd := range cmds {
		data, cmdErr := cmd.Bytes()
		if cmdErr != nil {
			if errors.Is(cmdErr, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, cmdErr)
		}

		var account Account
		if err := json.Unmarshal(data, &account); err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

func (a *Adapter) getAccount(ctx context.Context, provider, providerAccountID string) (*Account, error) {
	var account Account
	found, err := a.getJSON(ctx, a.keys.accountKey(provider, providerAccountID), &account)
	if err != nil || !found {
		return nil, err
	}
	return &account, nil
}
