package authredis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// CreateSession stores the session under its token and adds its primary key
// to the owning user's session index set, in one batch. The stored session
// is returned.
func (a *Adapter) CreateSession(ctx context.Context, session Session) (*Session, error) {
	if err := a.setSession(ctx, &session, ""); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSessionAndUser loads the session stored under sessionToken and the user
// it belongs to. Both results are nil when either record is absent.
func (a *Adapter) GetSessionAndUser(ctx context.Context, sessionToken string) (*Session, *User, error) {
	session, err := a.getSession(ctx, sessionToken)
	if err != nil || session == nil {
		return nil, nil, err
	}

	user, err := a.GetUser(ctx, session.UserID)
	if err != nil || user == nil {
		return nil, nil, err
	}
	return session, user, nil
}

// UpdateSession shallow-merges patch (sessionToken required) over the stored
// session and rewrites it, refreshing the by-user-id index entry. Unlike
// UpdateUser, a missing session returns nil rather than merging against an
// empty base.
func (a *Adapter) UpdateSession(ctx context.Context, patch Session) (*Session, error) {
	existing, err := a.getSession(ctx, patch.SessionToken)
	if err != nil || existing == nil {
		return nil, err
	}

	merged := *existing
	merged.merge(patch)

	staleUserID := ""
	if merged.UserID != existing.UserID {
		staleUserID = existing.UserID
	}
	if err := a.setSession(ctx, &merged, staleUserID); err != nil {
		return nil, err
	}
	return &merged, nil
}

// DeleteSession removes the session record and its index entry, returning
// the deleted session, or nil when it was already absent.
func (a *Adapter) DeleteSession(ctx context.Context, sessionToken string) (*Session, error) {
	session, err := a.getSession(ctx, sessionToken)
	if err != nil || session == nil {
		return nil, err
	}

	key := a.keys.sessionKey(sessionToken)
	err = a.atomically(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.SRem(ctx, a.keys.sessionByUserKey(session.UserID), key)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// ListUserSessions returns every active session of userID, in unspecified
// order. Index members whose record has expired are skipped.
func (a *Adapter) ListUserSessions(ctx context.Context, userID string) ([]Session, error) {
	keys, err := a.redis.SMembers(ctx, a.keys.sessionByUserKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(keys) == 0 {
		return []Session{}, nil
	}

	pipe := a.redis.Pipeline()
	cmds := make([]*redis.StringCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.Get(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sessions := make([]Session, 0, len(keys))
	for _, cmd := range cmds {
		data, cmdErr := cmd.Bytes()
		if cmdErr != nil {
			if errors.Is(cmdErr, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, cmdErr)
		}

		var session Session
		if err := json.Unmarshal(data, &session); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func (a *Adapter) getSession(ctx context.Context, sessionToken string) (*Session, error) {
	var session Session
	found, err := a.getJSON(ctx, a.keys.sessionKey(sessionToken), &session)
	if err != nil || !found {
		return nil, err
	}
	return &session, nil
}

// setSession writes the session record and maintains the by-user-id index in
// one batch. staleUserID, when set, names an index set the session key must
// leave.
func (a *Adapter) setSession(ctx context.Context, session *Session, staleUserID string) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	key := a.keys.sessionKey(session.SessionToken)
	return a.atomically(ctx, func(pipe redis.Pipeliner) error {
		a.setWithTTL(ctx, pipe, key, data)
		a.indexAdd(ctx, pipe, a.keys.sessionByUserKey(session.UserID), key)
		if staleUserID != "" {
			pipe.SRem(ctx, a.keys.sessionByUserKey(staleUserID), key)
		}
		return nil
	})
}
