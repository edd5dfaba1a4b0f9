package authcore

import (
	"context"
	"testing"
)

func TestMetricsCountLifecycleOperations(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Enabled = true
	env := newTestEnv(t, cfg)
	ctx := context.Background()

	env.registerVerified(t, "Alice", "alice@example.com", "strong-password")

	login, err := env.engine.Login(ctx, LoginInput{Email: "alice@example.com", Password: "strong-password"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if _, err := env.engine.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong"}); err == nil {
		t.Fatal("bad login succeeded")
	}
	if err := env.engine.Logout(ctx, login.SessionID); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	snap := env.engine.Metrics()
	checks := map[MetricID]uint64{
		MetricRegisterSuccess:    1,
		MetricEmailVerifySuccess: 1,
		MetricLoginSuccess:       1,
		MetricLoginFailure:       1,
		MetricLogout:             1,
	}
	for id, want := range checks {
		if got := snap.Counters[id]; got != want {
			t.Fatalf("counter %d = %d, want %d", id, got, want)
		}
	}
}

func TestMetricsDisabledStaysZero(t *testing.T) {
	env := newTestEnv(t, testConfig())

	env.registerVerified(t, "Alice", "alice@example.com", "strong-password")

	snap := env.engine.Metrics()
	for id, v := range snap.Counters {
		if v != 0 {
			t.Fatalf("counter %d incremented while disabled", id)
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricLoginSuccess)
	if snap := m.Snapshot(); len(snap.Counters) != 0 {
		t.Fatalf("nil metrics returned counters: %+v", snap)
	}
}
