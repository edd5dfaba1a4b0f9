package authcore

import (
	"context"
	"errors"
	"testing"
)

func TestLoginIssuesSessionAndTokens(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	user := env.registerVerified(t, "Alice", "alice@example.com", "strong-password")

	result, err := env.engine.Login(ctx, LoginInput{
		Email:     "alice@example.com",
		Password:  "strong-password",
		UserAgent: "test-browser/1.0",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.MFARequired {
		t.Fatal("MFA demanded for an account without it")
	}
	if result.SessionID == "" || result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatalf("incomplete login result: %+v", result)
	}
	if result.User.ID != user.ID {
		t.Fatalf("login returned wrong user: %q", result.User.ID)
	}

	auth, err := env.engine.ValidateAccess(ctx, result.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccess failed: %v", err)
	}
	if auth.UserID != user.ID || auth.SessionID != result.SessionID {
		t.Fatalf("unexpected auth result: %+v", auth)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	env.registerVerified(t, "Alice", "alice@example.com", "strong-password")

	_, unknownErr := env.engine.Login(ctx, LoginInput{
		Email:    "nobody@example.com",
		Password: "strong-password",
	})
	_, wrongErr := env.engine.Login(ctx, LoginInput{
		Email:    "alice@example.com",
		Password: "wrong-password",
	})

	if !errors.Is(unknownErr, ErrInvalidCredentials) {
		t.Fatalf("unknown email: %v", unknownErr)
	}
	if !errors.Is(wrongErr, ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v", wrongErr)
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Fatalf("errors differ: %q vs %q", unknownErr, wrongErr)
	}
}

func TestLoginIsCaseInsensitiveOnEmail(t *testing.T) {
	env := newTestEnv(t, testConfig())

	env.registerVerified(t, "Alice", "alice@example.com", "strong-password")

	if _, err := env.engine.Login(context.Background(), LoginInput{
		Email:    "ALICE@example.COM",
		Password: "strong-password",
	}); err != nil {
		t.Fatalf("Login with differently-cased email failed: %v", err)
	}
}

func TestLoginUpgradesWeakHashes(t *testing.T) {
	cfg := testConfig()
	env := newTestEnv(t, cfg)
	ctx := context.Background()

	user := env.registerVerified(t, "Alice", "alice@example.com", "strong-password")
	oldHash := user.PasswordHash

	// Rebuild the engine with stronger cost parameters over the same state.
	strong := cfg
	strong.Password.Time = 2
	upgraded, err := New().
		WithConfig(strong).
		WithRedis(env.client).
		WithUserStore(env.users).
		WithMailer(env.mailer).
		WithClock(env.clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer upgraded.Close()

	if _, err := upgraded.Login(ctx, LoginInput{
		Email:    "alice@example.com",
		Password: "strong-password",
	}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	after, err := env.users.FindUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("FindUserByID failed: %v", err)
	}
	if after.PasswordHash == oldHash {
		t.Fatal("hash not upgraded on login")
	}

	// The upgraded hash still verifies.
	if _, err := upgraded.Login(ctx, LoginInput{
		Email:    "alice@example.com",
		Password: "strong-password",
	}); err != nil {
		t.Fatalf("Login after upgrade failed: %v", err)
	}
}

func TestLoginLifecycleBeforeVerification(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	user, err := env.engine.Register(ctx, RegisterInput{
		Name:     "Alice",
		Email:    "a@x.com",
		Password: "Secret123!",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.EmailVerified {
		t.Fatal("new user already verified")
	}

	// Email verification is not a login gate.
	login, err := env.engine.Login(ctx, LoginInput{Email: "a@x.com", Password: "Secret123!"})
	if err != nil {
		t.Fatalf("Login before verification failed: %v", err)
	}

	sessions, err := env.engine.Sessions(ctx, user.ID, login.SessionID)
	if err != nil {
		t.Fatalf("Sessions failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected one session, got %d", len(sessions))
	}

	if err := env.engine.Logout(ctx, login.SessionID); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := env.engine.Refresh(ctx, login.RefreshToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("refresh succeeded after logout: %v", err)
	}
}

func TestValidateAccessRejectsGarbage(t *testing.T) {
	env := newTestEnv(t, testConfig())

	for _, bad := range []string{"", "garbage", "a.b.c"} {
		if _, err := env.engine.ValidateAccess(context.Background(), bad); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("token %q accepted: %v", bad, err)
		}
	}
}

func TestValidateAccessStatelessModeSkipsSessionCheck(t *testing.T) {
	cfg := testConfig()
	cfg.Validation = ModeStateless
	env := newTestEnv(t, cfg)
	ctx := context.Background()

	env.registerVerified(t, "Alice", "alice@example.com", "strong-password")
	login, err := env.engine.Login(ctx, LoginInput{Email: "alice@example.com", Password: "strong-password"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := env.engine.Logout(ctx, login.SessionID); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	// Stateless validation trusts the signature even after revocation.
	if _, err := env.engine.ValidateAccess(ctx, login.AccessToken); err != nil {
		t.Fatalf("stateless validation failed after logout: %v", err)
	}
}
