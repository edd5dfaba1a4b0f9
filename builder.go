package authcore

import (
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/authcore-io/authcore/internal/audit"
	"github.com/authcore-io/authcore/internal/limiters"
	"github.com/authcore-io/authcore/internal/stores"
	"github.com/authcore-io/authcore/password"
	"github.com/authcore-io/authcore/session"
	"github.com/authcore-io/authcore/token"
)

// Builder assembles an Engine. Collaborators are supplied through With*
// methods and validated once in Build.
type Builder struct {
	config    Config
	redis     redis.UniversalClient
	users     UserStore
	mailer    Mailer
	auditSink AuditSink
	now       func() time.Time
}

// New returns a Builder preloaded with default configuration. At minimum,
// WithRedis, WithUserStore, and the two JWT secrets must be provided before
// Build.
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithSecrets sets the access and refresh signing secrets.
func (b *Builder) WithSecrets(accessSecret, refreshSecret []byte) *Builder {
	b.config.JWT.AccessSecret = accessSecret
	b.config.JWT.RefreshSecret = refreshSecret
	return b
}

// WithRedis sets the Redis client backing sessions, verification codes, and
// the reset limiter.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserStore sets the caller's credential store.
func (b *Builder) WithUserStore(users UserStore) *Builder {
	b.users = users
	return b
}

// WithMailer sets the outbound mail collaborator. Without one, registration
// still succeeds but verification emails are skipped and password reset
// requests fail with ErrEmailDispatch.
func (b *Builder) WithMailer(m Mailer) *Builder {
	b.mailer = m
	return b
}

// WithClock overrides the engine clock. Intended for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithAuditSink enables auditing into sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithMetrics toggles the in-process counters.
func (b *Builder) WithMetrics(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and wires the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.redis == nil {
		return nil, errors.New("redis client is required")
	}
	if b.users == nil {
		return nil, errors.New("user store is required")
	}
	if err := validateConfig(b.config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	codec, err := token.NewCodec(token.Config{
		AccessSecret:  b.config.JWT.AccessSecret,
		RefreshSecret: b.config.JWT.RefreshSecret,
		AccessTTL:     b.config.JWT.AccessTTL,
		RefreshTTL:    b.config.JWT.RefreshTTL,
		Issuer:        b.config.JWT.Issuer,
		Audience:      b.config.JWT.Audience,
		Now:           now,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(password.Config{
		Memory:      b.config.Password.Memory,
		Time:        b.config.Password.Time,
		Parallelism: b.config.Password.Parallelism,
		SaltLength:  b.config.Password.SaltLength,
		KeyLength:   b.config.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	return &Engine{
		config:   b.config,
		users:    b.users,
		sessions: session.NewStore(b.redis, b.config.Session.RedisPrefix),
		codes:    stores.NewVerificationStore(b.redis, b.config.Verification.RedisPrefix),
		resetLimiter: limiters.NewResetLimiter(
			b.redis,
			b.config.PasswordReset.RedisPrefix,
			b.config.PasswordReset.MaxRequests,
			b.config.PasswordReset.Window,
		),
		codec:  codec,
		hasher: hasher,
		totp:   newTOTPManager(b.config.TOTP),
		mailer: b.mailer,
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    b.config.Audit.Enabled,
			BufferSize: b.config.Audit.BufferSize,
			DropIfFull: b.config.Audit.DropIfFull,
		}, b.auditSink),
		metrics: NewMetrics(b.config.Metrics),
		now:     now,
	}, nil
}
