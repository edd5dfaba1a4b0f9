// Command authcore-demo walks the full authentication lifecycle against an
// in-memory user store. It connects to REDIS_ADDR when set and falls back to
// an embedded miniredis otherwise, so it runs with no external services.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"

	"github.com/authcore-io/authcore"
	"github.com/authcore-io/authcore/mail"
)

type demoConfig struct {
	RedisAddr     string `env:"REDIS_ADDR"`
	AccessSecret  string `env:"ACCESS_SECRET" envDefault:"demo-access-secret-change-me"`
	RefreshSecret string `env:"REFRESH_SECRET" envDefault:"demo-refresh-secret-change-me"`
	BaseURL       string `env:"BASE_URL" envDefault:"http://localhost:3000"`
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := run(logger); err != nil {
		logger.Error("demo failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	var cfg demoConfig
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	ctx := context.Background()

	addr := cfg.RedisAddr
	var cleanup func()
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("start miniredis: %w", err)
		}
		addr = mr.Addr()
		cleanup = mr.Close
		logger.Info("using embedded miniredis", "addr", addr)
	} else {
		cleanup = func() {}
		logger.Info("using redis", "addr", addr)
	}
	defer cleanup()

	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	defer client.Close()

	engineCfg := authcore.DefaultConfig()
	engineCfg.Mail.BaseURL = cfg.BaseURL

	engine, err := authcore.New().
		WithConfig(engineCfg).
		WithRedis(client).
		WithUserStore(newMemoryUserStore()).
		WithMailer(&consoleMailer{logger: logger}).
		WithSecrets([]byte(cfg.AccessSecret), []byte(cfg.RefreshSecret)).
		WithAuditSink(authcore.NewJSONWriterSink(os.Stdout)).
		WithMetrics(true).
		Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	// Register and capture the verification code from the console mailer.
	user, err := engine.Register(ctx, authcore.RegisterInput{
		Name:     "Demo User",
		Email:    "demo@example.com",
		Password: "correct-horse-battery",
	})
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	logger.Info("registered", "userId", user.ID, "email", user.Email)

	code := lastCodeFromLink(lastSentLink)
	if code == "" {
		return errors.New("no verification code captured")
	}
	if user, err = engine.VerifyEmail(ctx, code); err != nil {
		return fmt.Errorf("verify email: %w", err)
	}
	logger.Info("email verified", "verified", user.EmailVerified)

	login, err := engine.Login(ctx, authcore.LoginInput{
		Email:     "demo@example.com",
		Password:  "correct-horse-battery",
		UserAgent: "authcore-demo/1.0",
	})
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	logger.Info("logged in", "sessionId", login.SessionID)

	auth, err := engine.ValidateAccess(ctx, login.AccessToken)
	if err != nil {
		return fmt.Errorf("validate access: %w", err)
	}
	logger.Info("access validated", "userId", auth.UserID, "sessionId", auth.SessionID)

	refreshed, err := engine.Refresh(ctx, login.RefreshToken)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	logger.Info("refreshed", "rotated", refreshed.RefreshToken != "", "expiresAt", refreshed.ExpiresAt)

	sessions, err := engine.Sessions(ctx, user.ID, login.SessionID)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	for _, s := range sessions {
		logger.Info("session", "id", s.ID, "userAgent", s.UserAgent, "current", s.Current)
	}

	if err := engine.Logout(ctx, login.SessionID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if _, err := engine.ValidateAccess(ctx, login.AccessToken); !errors.Is(err, authcore.ErrUnauthorized) {
		return fmt.Errorf("expected unauthorized after logout, got %v", err)
	}
	logger.Info("logged out, access revoked")

	// Enable the second factor, acting as the authenticator app ourselves.
	setup, err := engine.GenerateMFASetup(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("generate mfa setup: %w", err)
	}
	logger.Info("mfa setup", "uri", setup.URI)

	if _, err := engine.VerifyMFASetup(ctx, user.ID, totpCode(setup.Secret, time.Now())); err != nil {
		return fmt.Errorf("verify mfa setup: %w", err)
	}

	mfaLogin, err := engine.Login(ctx, authcore.LoginInput{
		Email:    "demo@example.com",
		Password: "correct-horse-battery",
	})
	if err != nil {
		return fmt.Errorf("login with mfa: %w", err)
	}
	if !mfaLogin.MFARequired {
		return errors.New("expected mfa challenge")
	}
	logger.Info("mfa required, no session issued yet")

	completed, err := engine.VerifyMFAForLogin(ctx, "demo@example.com", totpCode(setup.Secret, time.Now()), "authcore-demo/1.0")
	if err != nil {
		return fmt.Errorf("verify mfa for login: %w", err)
	}
	logger.Info("mfa login completed", "sessionId", completed.SessionID)

	// Password reset revokes every live session.
	if err := engine.ForgotPassword(ctx, "demo@example.com"); err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}
	resetCode := lastCodeFromLink(lastSentLink)
	if resetCode == "" {
		return errors.New("no reset code captured")
	}
	if err := engine.ResetPassword(ctx, authcore.ResetInput{Code: resetCode, Password: "even-better-password"}); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	if _, err := engine.Refresh(ctx, completed.RefreshToken); !errors.Is(err, authcore.ErrUnauthorized) {
		return fmt.Errorf("expected unauthorized after reset, got %v", err)
	}
	logger.Info("password reset, all sessions revoked")

	snap := engine.Metrics()
	logger.Info("metrics",
		"logins", snap.Counters[authcore.MetricLoginSuccess],
		"mfaLogins", snap.Counters[authcore.MetricMFALoginSuccess],
		"refreshes", snap.Counters[authcore.MetricRefreshSuccess],
		"logouts", snap.Counters[authcore.MetricLogout],
		"resets", snap.Counters[authcore.MetricPasswordResetSuccess],
	)
	return nil
}

// totpCode plays the part of the authenticator app: RFC 6238, SHA1, six
// digits, 30-second steps.
func totpCode(secretBase32 string, at time.Time) string {
	secret, err := base32.StdEncoding.WithPadding(base32.NoPadding).
		DecodeString(strings.ToUpper(secretBase32))
	if err != nil {
		return ""
	}

	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(at.Unix()/30))
	mac := hmac.New(sha1.New, secret)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := (int(sum[offset])&0x7f)<<24 |
		(int(sum[offset+1])&0xff)<<16 |
		(int(sum[offset+2])&0xff)<<8 |
		(int(sum[offset+3]) & 0xff)
	return fmt.Sprintf("%06d", bin%1000000)
}

// lastSentLink captures the most recent link printed by the console mailer
// so the demo can drive the verification flow.
var lastSentLink string

func lastCodeFromLink(link string) string {
	_, code, ok := strings.Cut(link, "code=")
	if !ok {
		return ""
	}
	code, _, _ = strings.Cut(code, "&")
	return code
}

// consoleMailer prints messages instead of delivering them.
type consoleMailer struct {
	logger *slog.Logger
}

func (m *consoleMailer) Send(_ context.Context, msg mail.Message) (string, error) {
	for _, line := range strings.Split(msg.Text, "\n") {
		if strings.HasPrefix(line, "http") {
			lastSentLink = line
		}
	}
	m.logger.Info("mail", "to", msg.To, "subject", msg.Subject)
	return fmt.Sprintf("console-%d", time.Now().UnixNano()), nil
}

// memoryUserStore is a map-backed UserStore for demos and tests.
type memoryUserStore struct {
	mu      sync.RWMutex
	byID    map[string]authcore.User
	byEmail map[string]string
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{
		byID:    make(map[string]authcore.User),
		byEmail: make(map[string]string),
	}
}

func (s *memoryUserStore) FindUserByEmail(_ context.Context, email string) (authcore.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return authcore.User{}, authcore.ErrUserNotFound
	}
	return s.byID[id], nil
}

func (s *memoryUserStore) FindUserByID(_ context.Context, id string) (authcore.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.byID[id]
	if !ok {
		return authcore.User{}, authcore.ErrUserNotFound
	}
	return user, nil
}

func (s *memoryUserStore) CreateUser(_ context.Context, user authcore.User) (authcore.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[user.Email]; exists {
		return authcore.User{}, authcore.ErrDuplicateUser
	}
	s.byID[user.ID] = user
	s.byEmail[user.Email] = user.ID
	return user, nil
}

func (s *memoryUserStore) UpdateUser(_ context.Context, user authcore.User) (authcore.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[user.ID]; !ok {
		return authcore.User{}, authcore.ErrUserNotFound
	}
	s.byID[user.ID] = user
	return user, nil
}
