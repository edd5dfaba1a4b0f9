package limiters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrRateLimited is returned when a caller exceeds the window quota.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps transport-level Redis failures.
	ErrRedisUnavailable = errors.New("limiter redis unavailable")
)

// ResetLimiter bounds password-reset code issuance per user: at most
// MaxRequests within a fixed Window. The counter is INCR with an EXPIRE set
// on first increment, which is race-tolerant but not strictly exact under
// concurrency; that slack is acceptable for an issuance quota.
type ResetLimiter struct {
	redis       redis.UniversalClient
	prefix      string
	maxRequests int
	window      time.Duration
}

// NewResetLimiter returns a limiter allowing maxRequests per window.
func NewResetLimiter(client redis.UniversalClient, prefix string, maxRequests int, window time.Duration) *ResetLimiter {
	if prefix == "" {
		prefix = "acrl"
	}
	return &ResetLimiter{
		redis:       client,
		prefix:      prefix,
		maxRequests: maxRequests,
		window:      window,
	}
}

// Allow consumes one issuance slot for userID, or returns ErrRateLimited
// once the window quota is spent.
func (l *ResetLimiter) Allow(ctx context.Context, userID string) error {
	key := l.prefix + ":" + userID

	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}
	if count > int64(l.maxRequests) {
		return ErrRateLimited
	}
	return nil
}
