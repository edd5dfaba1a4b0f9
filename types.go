package authcore

import (
	"context"
	"time"

	"github.com/authcore-io/authcore/mail"
)

// User is the credential record managed by the engine. The password hash and
// TOTP secret are never serialized outward.
type User struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	PasswordHash  string          `json:"-"`
	EmailVerified bool            `json:"isEmailVerified"`
	Preferences   UserPreferences `json:"userPreferences"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// UserPreferences carries per-account MFA state and notification settings.
//
// The TOTP secret is an opaque base32 string. A non-empty secret with
// MFAEnabled false means setup is pending: the secret was provisioned but
// not yet proven with a valid code.
type UserPreferences struct {
	MFAEnabled        bool   `json:"enable2FA"`
	TOTPSecret        string `json:"-"`
	EmailNotification bool   `json:"emailNotification"`
}

// UserStore is the credential persistence interface the caller must
// implement. Lookups return ErrUserNotFound when no record matches;
// CreateUser returns ErrDuplicateUser when the email is already taken.
// Implementations must provide strongly consistent per-record reads and
// writes; the engine performs no cross-record transactions.
type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (User, error)
	FindUserByID(ctx context.Context, id string) (User, error)
	CreateUser(ctx context.Context, user User) (User, error)
	UpdateUser(ctx context.Context, user User) (User, error)
}

// Mailer dispatches outbound email. Send returns a provider message id;
// an empty id without an error is treated as a dispatch failure by flows
// that require delivery confirmation.
type Mailer interface {
	Send(ctx context.Context, msg mail.Message) (string, error)
}

// RegisterInput is the input for [Engine.Register].
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput is the input for [Engine.Login]. UserAgent is an optional
// client label stored on the created session.
type LoginInput struct {
	Email     string
	Password  string
	UserAgent string
}

// ResetInput is the input for [Engine.ResetPassword].
type ResetInput struct {
	Code     string
	Password string
}

// LoginResult is returned by [Engine.Login] and [Engine.VerifyMFAForLogin].
// When MFARequired is true, no session was created and both tokens are
// empty: the client must complete VerifyMFAForLogin to obtain them.
type LoginResult struct {
	User         User
	SessionID    string
	AccessToken  string
	RefreshToken string
	MFARequired  bool
}

// RefreshResult is returned by [Engine.Refresh]. RefreshToken is empty
// unless the session's remaining lifetime fell below the renewal threshold
// and a rotation was performed.
type RefreshResult struct {
	SessionID    string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// MFASetup is returned by [Engine.GenerateMFASetup]. URI is an otpauth://
// provisioning URI suitable for rendering as a QR code.
type MFASetup struct {
	Secret string
	URI    string
}

// SessionInfo is a read-only view of an active session, returned by
// [Engine.Sessions].
type SessionInfo struct {
	ID        string    `json:"id"`
	UserAgent string    `json:"userAgent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	Current   bool      `json:"isCurrent,omitempty"`
}

// AuthResult carries the identity claims of a validated access token.
type AuthResult struct {
	UserID    string
	SessionID string
}
