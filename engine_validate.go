package authcore

import (
	"context"
	"errors"

	"github.com/authcore-io/authcore/session"
	"github.com/authcore-io/authcore/token"
)

// ValidateAccess verifies an access token and returns its identity claims.
// In ModeSessionCheck (the default) the claims are cross-checked against the
// live session record, so revocation and logout take effect immediately. In
// ModeStateless the signature and expiry alone are trusted.
//
// Every failure returns ErrUnauthorized.
func (e *Engine) ValidateAccess(ctx context.Context, accessToken string) (AuthResult, error) {
	if err := e.ready(); err != nil {
		return AuthResult{}, err
	}

	result, err := e.validateAccess(ctx, accessToken)
	if err != nil {
		e.metricInc(MetricValidateFailure)
		return AuthResult{}, err
	}
	e.metricInc(MetricValidateSuccess)
	return result, nil
}

func (e *Engine) validateAccess(ctx context.Context, accessToken string) (AuthResult, error) {
	if accessToken == "" {
		return AuthResult{}, ErrUnauthorized
	}

	claims, err := e.codec.ParseAccess(accessToken)
	if err != nil {
		if errors.Is(err, token.ErrTokenInvalid) {
			return AuthResult{}, ErrUnauthorized
		}
		return AuthResult{}, err
	}

	if e.config.Validation == ModeSessionCheck {
		sess, err := e.sessions.Get(ctx, claims.SessionID)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				return AuthResult{}, ErrUnauthorized
			}
			return AuthResult{}, storeErr(err)
		}
		if sess.UserID != claims.UserID || !sess.ExpiresAt.After(e.now()) {
			return AuthResult{}, ErrUnauthorized
		}
	}

	return AuthResult{
		UserID:    claims.UserID,
		SessionID: claims.SessionID,
	}, nil
}
