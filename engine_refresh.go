package authcore

import (
	"context"
	"errors"

	"github.com/authcore-io/authcore/session"
	"github.com/authcore-io/authcore/token"
)

// Refresh validates a refresh token against its live session and mints a new
// access token. When the session's remaining lifetime has dropped below the
// renew threshold, the session is extended by the full refresh TTL and a
// rotated refresh token is returned; otherwise RefreshToken stays empty and
// the client keeps its current one.
//
// Every failure mode returns ErrUnauthorized so callers cannot distinguish a
// forged token from a revoked session.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (RefreshResult, error) {
	if err := e.ready(); err != nil {
		return RefreshResult{}, err
	}

	result, err := e.refresh(ctx, refreshToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefresh, false, "", "", err, nil)
		return RefreshResult{}, err
	}

	e.metricInc(MetricRefreshSuccess)
	if result.RefreshToken != "" {
		e.metricInc(MetricRefreshRotated)
	}
	e.emitAudit(ctx, auditEventRefresh, true, "", result.SessionID, nil, nil)
	return result, nil
}

func (e *Engine) refresh(ctx context.Context, refreshToken string) (RefreshResult, error) {
	if refreshToken == "" {
		return RefreshResult{}, ErrUnauthorized
	}

	claims, err := e.codec.ParseRefresh(refreshToken)
	if err != nil {
		if errors.Is(err, token.ErrTokenInvalid) {
			return RefreshResult{}, ErrUnauthorized
		}
		return RefreshResult{}, err
	}

	sess, err := e.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return RefreshResult{}, ErrUnauthorized
		}
		return RefreshResult{}, storeErr(err)
	}

	now := e.now()
	if !sess.ExpiresAt.After(now) {
		return RefreshResult{}, ErrUnauthorized
	}

	result := RefreshResult{
		SessionID: sess.ID,
		ExpiresAt: sess.ExpiresAt,
	}

	if e.sessionRemaining(sess) < e.config.Session.RenewThreshold {
		newExpiry := now.Add(e.config.JWT.RefreshTTL)
		if err := e.sessions.ExtendExpiry(ctx, sess.ID, newExpiry, e.config.JWT.RefreshTTL); err != nil {
			if errors.Is(err, session.ErrNotFound) {
				return RefreshResult{}, ErrUnauthorized
			}
			return RefreshResult{}, storeErr(err)
		}

		rotated, err := e.codec.SignRefresh(sess.ID)
		if err != nil {
			return RefreshResult{}, err
		}
		result.RefreshToken = rotated
		result.ExpiresAt = newExpiry
	}

	access, err := e.codec.SignAccess(sess.UserID, sess.ID)
	if err != nil {
		return RefreshResult{}, err
	}
	result.AccessToken = access
	return result, nil
}
