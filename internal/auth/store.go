// AngelaMos | 2026
// store.go

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/medprep/internal/core"
)

const (
	sessionKeyPrefix      = "session:"
	accountSessionsPrefix = "account_sessions:"
)

type SessionStore interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	ListForAccount(ctx context.Context, accountID string) ([]Session, error)
	Delete(ctx context.Context, accountID, id string) error
	DeleteAllForAccount(ctx context.Context, accountID string) (int, error)
}

type redisStore struct {
	rdb *redis.Client
}

func NewSessionStore(rdb *redis.Client) SessionStore {
	return &redisStore{rdb: rdb}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func accountSessionsKey(accountID string) string {
	return accountSessionsPrefix + accountID
}

func (s *redisStore) Create(ctx context.Context, sess *Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("create session: %w", core.ErrSessionExpired)
	}

	indexKey := accountSessionsKey(sess.AccountID)
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(sess.ID), payload, ttl)
		pipe.SAdd(ctx, indexKey, sess.ID)
		pipe.Expire(ctx, indexKey, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

func (s *redisStore) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get session: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	return &sess, nil
}

// ListForAccount returns live sessions newest first and prunes index
// entries whose session key has expired.
func (s *redisStore) ListForAccount(
	ctx context.Context,
	accountID string,
) ([]Session, error) {
	indexKey := accountSessionsKey(accountID)

	ids, err := s.rdb.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	sessions := make([]Session, 0, len(ids))
	var stale []any

	for _, id := range ids {
		sess, err := s.Get(ctx, id)
		if errors.Is(err, core.ErrNotFound) {
			stale = append(stale, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}

	if len(stale) > 0 {
		//nolint:errcheck // best-effort index cleanup
		_ = s.rdb.SRem(ctx, indexKey, stale...).Err()
	}

	slices.SortFunc(sessions, func(a, b Session) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return sessions, nil
}

func (s *redisStore) Delete(ctx context.Context, accountID, id string) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(id))
		pipe.SRem(ctx, accountSessionsKey(accountID), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

func (s *redisStore) DeleteAllForAccount(
	ctx context.Context,
	accountID string,
) (int, error) {
	indexKey := accountSessionsKey(accountID)

	ids, err := s.rdb.SMembers(ctx, indexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("revoke sessions: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, indexKey)

	deleted, err := s.rdb.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("revoke sessions: %w", err)
	}

	// The index key itself is counted by DEL when it existed.
	count := int(deleted)
	if len(ids) > 0 {
		count--
	}
	return count, nil
}
