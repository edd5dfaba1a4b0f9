package authcore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// totpCodeAt computes the valid code for a base32 secret at a point in time,
// standing in for the user's authenticator app.
func totpCodeAt(t *testing.T, secretBase32 string, at time.Time, cfg TOTPConfig) string {
	t.Helper()

	secret, err := base32NoPad.DecodeString(strings.ToUpper(secretBase32))
	if err != nil {
		t.Fatalf("decode secret failed: %v", err)
	}
	code, err := hotpCode(secret, at.Unix()/int64(cfg.Period), cfg.Digits, cfg.Algorithm)
	if err != nil {
		t.Fatalf("hotpCode failed: %v", err)
	}
	return code
}

func enableMFA(t *testing.T, env *testEnv, userID string) string {
	t.Helper()
	ctx := context.Background()

	setup, err := env.engine.GenerateMFASetup(ctx, userID)
	if err != nil {
		t.Fatalf("GenerateMFASetup failed: %v", err)
	}

	code := totpCodeAt(t, setup.Secret, env.clock.Now(), env.engine.config.TOTP)
	if _, err := env.engine.VerifyMFASetup(ctx, userID, code); err != nil {
		t.Fatalf("VerifyMFASetup failed: %v", err)
	}
	return setup.Secret
}

func TestMFASetupAndVerifyEnablesSecondFactor(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	user := env.registerVerified(t, "Alice", "alice@example.com", "strong-password")

	setup, err := env.engine.GenerateMFASetup(ctx, user.ID)
	if err != nil {
		t.Fatalf("GenerateMFASetup failed: %v", err)
	}
	if setup.Secret == "" {
		t.Fatal("no secret provisioned")
	}
	// PathEscape leaves @ literal in the label segment.
	if !strings.HasPrefix(setup.URI, "otpauth://totp/") || !strings.Contains(setup.URI, "authcore:alice@example.com") {
		t.Fatalf("unexpected provisioning URI: %q", setup.URI)
	}

	// MFA stays pending until the authenticator is proven.
	pending, err := env.users.FindUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("FindUserByID failed: %v", err)
	}
	if pending.Preferences.MFAEnabled {
		t.Fatal("MFA enabled before setup verification")
	}

	code := totpCodeAt(t, setup.Secret, env.clock.Now(), env.engine.config.TOTP)
	enabled, err := env.engine.VerifyMFASetup(ctx, user.ID, code)
	if err != nil {
		t.Fatalf("VerifyMFASetup failed: %v", err)
	}
	if !enabled.Preferences.MFAEnabled {
		t.Fatal("MFA not enabled after valid code")
	}
}

func TestMFASetupReusesPendingSecret(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	user := env.registerVerified(t, "Alice", "alice@example.com", "strong-password")

	first, err := env.engine.GenerateMFASetup(ctx, user.ID)
	if err != nil {
		t.Fatalf("GenerateMFASetup failed: %v", err)
	}
	second, err := env.engine.GenerateMFASetup(ctx, user.ID)
	if err != nil {
		t.Fatalf("second GenerateMFASetup failed: %v", err)
	}
	if first.Secret != second.Secret {
		t.Fatal("pending secret regenerated; earlier QR code invalidated")
	}
}

func TestMFASetupRejectsWrongCode(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	user := env.registerVerified(t, "Alice", "alice@example.com", "strong-password")
	if _, err := env.engine.GenerateMFASetup(ctx, user.ID); err != nil {
		t.Fatalf("GenerateMFASetup failed: %v", err)
	}

	if _, err := env.engine.VerifyMFASetup(ctx, user.ID, "000000"); !errors.Is(err, ErrTOTPInvalid) {
		t.Fatalf("wrong code accepted: %v", err)
	}
}

func TestMFASetupGuards(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	user := env.registerVerified(t, "Alice", "alice@example.com", "strong-password")

	// No pending secret yet.
	if _, err := env.engine.VerifyMFASetup(ctx, user.ID, "123456"); !errors.Is(err, ErrMFANotEnabled) {
		t.Fatalf("setup verified without provisioning: %v", err)
	}
	if _, err := env.engine.RevokeMFA(ctx, user.ID); !errors.Is(err, ErrMFANotEnabled) {
		t.Fatalf("revoked MFA that was never enabled: %v", err)
	}

	enableMFA(t, env, user.ID)

	if _, err := env.engine.GenerateMFASetup(ctx, user.ID); !errors.Is(err, ErrMFAAlreadyEnabled) {
		t.Fatalf("setup regenerated while enabled: %v", err)
	}
	if _, err := env.engine.VerifyMFASetup(ctx, user.ID, "123456"); !errors.Is(err, ErrMFAAlreadyEnabled) {
		t.Fatalf("setup reverified while enabled: %v", err)
	}
}

func TestLoginWithMFARequiresSecondStep(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	user := env.registerVerified(t, "Alice", "alice@example.com", "strong-password")
	secret := enableMFA(t, env, user.ID)

	login, err := env.engine.Login(ctx, LoginInput{
		Email:    "alice@example.com",
		Password: "strong-password",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !login.MFARequired {
		t.Fatal("MFA not demanded")
	}
	if login.SessionID != "" || login.AccessToken != "" || login.RefreshToken != "" {
		t.Fatalf("session issued before second factor: %+v", login)
	}

	code := totpCodeAt(t, secret, env.clock.Now(), env.engine.config.TOTP)
	completed, err := env.engine.VerifyMFAForLogin(ctx, "alice@example.com", code, "test-browser/1.0")
	if err != nil {
		t.Fatalf("VerifyMFAForLogin failed: %v", err)
	}
	if completed.SessionID == "" || completed.AccessToken == "" || completed.RefreshToken == "" {
		t.Fatalf("incomplete MFA login result: %+v", completed)
	}

	if _, err := env.engine.ValidateAccess(ctx, completed.AccessToken); err != nil {
		t.Fatalf("MFA login token invalid: %v", err)
	}
}

func TestVerifyMFAForLoginRejectsWrongCode(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	user := env.registerVerified(t, "Alice", "alice@example.com", "strong-password")
	enableMFA(t, env, user.ID)

	if _, err := env.engine.VerifyMFAForLogin(ctx, "alice@example.com", "000000", ""); !errors.Is(err, ErrTOTPInvalid) {
		t.Fatalf("wrong code accepted: %v", err)
	}
}

func TestVerifyMFAForLoginRequiresEnabledMFA(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	env.registerVerified(t, "Alice", "alice@example.com", "strong-password")

	if _, err := env.engine.VerifyMFAForLogin(ctx, "alice@example.com", "123456", ""); !errors.Is(err, ErrMFANotEnabled) {
		t.Fatalf("MFA login allowed without MFA: %v", err)
	}
	if _, err := env.engine.VerifyMFAForLogin(ctx, "nobody@example.com", "123456", ""); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestRevokeMFARestoresPasswordOnlyLogin(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	user := env.registerVerified(t, "Alice", "alice@example.com", "strong-password")
	enableMFA(t, env, user.ID)

	revoked, err := env.engine.RevokeMFA(ctx, user.ID)
	if err != nil {
		t.Fatalf("RevokeMFA failed: %v", err)
	}
	if revoked.Preferences.MFAEnabled || revoked.Preferences.TOTPSecret != "" {
		t.Fatalf("MFA state not cleared: %+v", revoked.Preferences)
	}

	login, err := env.engine.Login(ctx, LoginInput{
		Email:    "alice@example.com",
		Password: "strong-password",
	})
	if err != nil {
		t.Fatalf("Login failed after revoke: %v", err)
	}
	if login.MFARequired {
		t.Fatal("MFA still demanded after revoke")
	}
}
