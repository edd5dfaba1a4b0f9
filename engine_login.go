package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/authcore-io/authcore/session"
)

// Login verifies credentials and, unless the account requires a second
// factor, creates a session and issues both tokens. Unknown email and wrong
// password return the identical ErrInvalidCredentials.
//
// When MFA is enabled the result carries MFARequired with no session; the
// client must complete [Engine.VerifyMFAForLogin].
func (e *Engine) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	if err := e.ready(); err != nil {
		return LoginResult{}, err
	}

	user, err := e.users.FindUserByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLogin, false, "", "", ErrInvalidCredentials, nil)
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	ok, err := e.hasher.Verify(in.Password, user.PasswordHash)
	if err != nil {
		return LoginResult{}, err
	}
	if !ok {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLogin, false, user.ID, "", ErrInvalidCredentials, nil)
		return LoginResult{}, ErrInvalidCredentials
	}

	if e.config.Password.UpgradeOnLogin {
		if upgrade, err := e.hasher.NeedsUpgrade(user.PasswordHash); err == nil && upgrade {
			if rehash, err := e.hasher.Hash(in.Password); err == nil {
				user.PasswordHash = rehash
				user.UpdatedAt = e.now()
				if updated, err := e.users.UpdateUser(ctx, user); err == nil {
					user = updated
				}
			}
		}
	}

	if user.Preferences.MFAEnabled {
		e.metricInc(MetricLoginMFARequired)
		e.emitAudit(ctx, auditEventLogin, true, user.ID, "", nil, func() map[string]string {
			return map[string]string{"mfaRequired": "true"}
		})
		return LoginResult{User: user, MFARequired: true}, nil
	}

	result, err := e.issueSession(ctx, user, in.UserAgent)
	if err != nil {
		e.emitAudit(ctx, auditEventLogin, false, user.ID, "", err, nil)
		return LoginResult{}, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLogin, true, user.ID, result.SessionID, nil, nil)
	return result, nil
}

// issueSession creates a session record and mints both tokens for it.
func (e *Engine) issueSession(ctx context.Context, user User, userAgent string) (LoginResult, error) {
	now := e.now()
	sess := &session.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		UserAgent: userAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(e.config.JWT.RefreshTTL),
	}
	if err := e.sessions.Save(ctx, sess, e.config.JWT.RefreshTTL); err != nil {
		return LoginResult{}, storeErr(err)
	}

	accessToken, err := e.codec.SignAccess(user.ID, sess.ID)
	if err != nil {
		return LoginResult{}, err
	}
	refreshToken, err := e.codec.SignRefresh(sess.ID)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{
		User:         user,
		SessionID:    sess.ID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// sessionRemaining reports how long the session has left on e's clock.
func (e *Engine) sessionRemaining(sess *session.Session) time.Duration {
	return sess.ExpiresAt.Sub(e.now())
}
