package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned by Get when no session exists under the given id.
var ErrNotFound = errors.New("session not found")

// ErrRedisUnavailable wraps transport-level Redis failures.
var ErrRedisUnavailable = errors.New("session redis unavailable")

// Store persists sessions in Redis. Each session lives under its own key
// with a TTL matching its expiry, and every user has a set of their session
// ids so revoke-all and listing stay O(sessions-per-user).
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore returns a Store namespaced under prefix.
func NewStore(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "acs"
	}
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

func (s *Store) userKey(userID string) string {
	return s.prefix + ":u:" + userID
}

// Save persists sess with the given TTL and indexes it under its user.
func (s *Store) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	data, err := Encode(sess)
	if err != nil {
		return err
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(sess.ID), data, ttl)
		pipe.SAdd(ctx, s.userKey(sess.UserID), sess.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Get returns the session stored under sessionID, or ErrNotFound. Expiry is
// not checked here; callers compare ExpiresAt against their own clock.
func (s *Store) Get(ctx context.Context, sessionID string) (*Session, error) {
	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return Decode(data)
}

// ExtendExpiry rewrites the session's expiry and resets its key TTL. It is
// a read-modify-write on a single record; concurrent extensions resolve
// last-write-wins.
func (s *Store) ExtendExpiry(ctx context.Context, sessionID string, expiresAt time.Time, ttl time.Duration) error {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	sess.ExpiresAt = expiresAt

	data, err := Encode(sess)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(sessionID), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Delete removes a session. Deleting an absent session is not an error.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	sess, err := s.Get(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(sessionID))
		pipe.SRem(ctx, s.userKey(sess.UserID), sessionID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// DeleteAllForUser removes every session belonging to userID and returns
// how many records were deleted.
func (s *Store) DeleteAllForUser(ctx context.Context, userID string) (int, error) {
	ids, err := s.redis.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, s.key(id))
	}
	deleted, err := s.redis.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if err := s.redis.Del(ctx, s.userKey(userID)).Err(); err != nil {
		return int(deleted), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return int(deleted), nil
}

// ListForUser returns the user's sessions that still have a live record.
// Index entries whose session key already expired are pruned as a side
// effect.
func (s *Store) ListForUser(ctx context.Context, userID string) ([]*Session, error) {
	ids, err := s.redis.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sessions := make([]*Session, 0, len(ids))
	var stale []interface{}
	for _, id := range ids {
		sess, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			stale = append(stale, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if len(stale) > 0 {
		_ = s.redis.SRem(ctx, s.userKey(userID), stale...).Err()
	}
	return sessions, nil
}
