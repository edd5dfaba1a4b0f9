package authcore

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"
)

// Config carries every tunable of the engine. [New] starts from
// [DefaultConfig]; WithConfig replaces the whole struct. Configs are treated
// as immutable after Build.
type Config struct {
	JWT           JWTConfig
	Session       SessionConfig
	Verification  VerificationConfig
	PasswordReset PasswordResetConfig
	Password      PasswordConfig
	TOTP          TOTPConfig
	Mail          MailConfig
	Cookie        CookieConfig
	Audit         AuditConfig
	Metrics       MetricsConfig
	Validation    ValidationMode
}

// JWTConfig controls token signing. Access and refresh tokens are signed
// with independent secrets so compromise of one cannot mint the other.
type JWTConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Audience      string
}

// SessionConfig controls session persistence and refresh rotation.
// RenewThreshold is the remaining-lifetime floor below which Refresh
// extends the session by the full refresh TTL and rotates the token.
type SessionConfig struct {
	RedisPrefix    string
	RenewThreshold time.Duration
}

// VerificationConfig controls single-use verification codes.
type VerificationConfig struct {
	RedisPrefix string
	EmailTTL    time.Duration
	ResetTTL    time.Duration
}

// PasswordResetConfig bounds how often an account may request a reset code:
// MaxRequests per Window, enforced with a fixed-window counter.
type PasswordResetConfig struct {
	RedisPrefix string
	MaxRequests int
	Window      time.Duration
}

// PasswordConfig carries the argon2id parameters plus the engine-level
// minimum password length applied during registration and reset.
type PasswordConfig struct {
	Memory         uint32 // in KB
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	MinLength      int
	UpgradeOnLogin bool
}

// TOTPConfig controls the second factor. Skew is the number of adjacent
// time steps accepted on either side of the current one.
type TOTPConfig struct {
	Issuer    string
	Digits    int
	Period    int
	Skew      int
	Algorithm string // "SHA1" (default), "SHA256", "SHA512"
}

// MailConfig controls outbound message construction. BaseURL is the client
// application origin used to build verification and reset links.
type MailConfig struct {
	BaseURL string
}

// CookieConfig describes how the transport carrier should deliver tokens.
// The refresh cookie is scoped to BasePath + "/auth/refresh" so it is only
// presented to the refresh endpoint.
type CookieConfig struct {
	BasePath string
	Secure   bool
	SameSite http.SameSite
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// ValidationMode selects how ValidateAccess treats the session row.
type ValidationMode uint8

const (
	// ModeSessionCheck cross-checks access-token claims against the session
	// store, so revocation takes effect immediately. Default.
	ModeSessionCheck ValidationMode = iota
	// ModeStateless trusts the signature and expiry alone. A revoked
	// session's access token stays usable until it expires.
	ModeStateless
)

// DefaultConfig returns the configuration [New] starts from. Callers tweak
// individual fields and pass the result to [Builder.WithConfig].
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 30 * 24 * time.Hour,
			Issuer:     "authcore",
			Audience:   "user",
		},
		Session: SessionConfig{
			RedisPrefix:    "acs",
			RenewThreshold: 24 * time.Hour,
		},
		Verification: VerificationConfig{
			RedisPrefix: "acv",
			EmailTTL:    45 * time.Minute,
			ResetTTL:    time.Hour,
		},
		PasswordReset: PasswordResetConfig{
			RedisPrefix: "acrl",
			MaxRequests: 2,
			Window:      3 * time.Minute,
		},
		Password: PasswordConfig{
			Memory:         65536,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			MinLength:      8,
			UpgradeOnLogin: true,
		},
		TOTP: TOTPConfig{
			Issuer:    "authcore",
			Digits:    6,
			Period:    30,
			Skew:      1,
			Algorithm: "SHA1",
		},
		Cookie: CookieConfig{
			BasePath: "/api/v1",
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
		Validation: ModeSessionCheck,
	}
}

func validateConfig(cfg Config) error {
	if len(cfg.JWT.AccessSecret) == 0 || len(cfg.JWT.RefreshSecret) == 0 {
		return errors.New("access and refresh secrets are required")
	}
	if len(cfg.JWT.AccessSecret) == len(cfg.JWT.RefreshSecret) &&
		subtle.ConstantTimeCompare(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret) == 1 {
		return errors.New("access and refresh secrets must differ")
	}
	if cfg.JWT.AccessTTL <= 0 || cfg.JWT.RefreshTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if cfg.JWT.AccessTTL >= cfg.JWT.RefreshTTL {
		return errors.New("access TTL must be shorter than refresh TTL")
	}
	if cfg.Session.RenewThreshold <= 0 || cfg.Session.RenewThreshold >= cfg.JWT.RefreshTTL {
		return errors.New("renew threshold must be positive and below the refresh TTL")
	}
	if cfg.Verification.EmailTTL <= 0 || cfg.Verification.ResetTTL <= 0 {
		return errors.New("verification code TTLs must be positive")
	}
	if cfg.PasswordReset.MaxRequests <= 0 || cfg.PasswordReset.Window <= 0 {
		return errors.New("password reset limit requires a positive quota and window")
	}
	if cfg.Password.MinLength < 6 {
		return errors.New("minimum password length must be at least 6")
	}
	if cfg.TOTP.Digits < 6 || cfg.TOTP.Digits > 8 {
		return errors.New("totp digits must be between 6 and 8")
	}
	if cfg.TOTP.Period <= 0 || cfg.TOTP.Skew < 0 {
		return errors.New("invalid totp period or skew")
	}
	return nil
}
