package limiters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, max int, window time.Duration) (*miniredis.Miniredis, *ResetLimiter) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, NewResetLimiter(client, "acrl", max, window)
}

func TestAllowEnforcesQuota(t *testing.T) {
	_, limiter := newTestLimiter(t, 2, 3*time.Minute)
	ctx := context.Background()

	if err := limiter.Allow(ctx, "u1"); err != nil {
		t.Fatalf("first request limited: %v", err)
	}
	if err := limiter.Allow(ctx, "u1"); err != nil {
		t.Fatalf("second request limited: %v", err)
	}
	if err := limiter.Allow(ctx, "u1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("third request not limited: %v", err)
	}
}

func TestAllowQuotaIsPerUser(t *testing.T) {
	_, limiter := newTestLimiter(t, 1, 3*time.Minute)
	ctx := context.Background()

	if err := limiter.Allow(ctx, "u1"); err != nil {
		t.Fatalf("u1 first request limited: %v", err)
	}
	if err := limiter.Allow(ctx, "u2"); err != nil {
		t.Fatalf("u2 blocked by u1's quota: %v", err)
	}
}

func TestAllowResetsAfterWindow(t *testing.T) {
	mr, limiter := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	if err := limiter.Allow(ctx, "u1"); err != nil {
		t.Fatalf("first request limited: %v", err)
	}
	if err := limiter.Allow(ctx, "u1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("second request not limited: %v", err)
	}

	mr.FastForward(61 * time.Second)

	if err := limiter.Allow(ctx, "u1"); err != nil {
		t.Fatalf("request after window elapsed still limited: %v", err)
	}
}
