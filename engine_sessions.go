package authcore

import (
	"context"
	"errors"
	"sort"

	"github.com/authcore-io/authcore/session"
)

// Sessions lists the user's live sessions, newest first. currentSessionID
// marks the caller's own session in the result; pass "" when unknown.
func (e *Engine) Sessions(ctx context.Context, userID, currentSessionID string) ([]SessionInfo, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	all, err := e.sessions.ListForUser(ctx, userID)
	if err != nil {
		return nil, storeErr(err)
	}

	now := e.now()
	infos := make([]SessionInfo, 0, len(all))
	for _, sess := range all {
		if !sess.ExpiresAt.After(now) {
			continue
		}
		infos = append(infos, SessionInfo{
			ID:        sess.ID,
			UserAgent: sess.UserAgent,
			CreatedAt: sess.CreatedAt,
			ExpiresAt: sess.ExpiresAt,
			Current:   sess.ID == currentSessionID,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
	return infos, nil
}

// DeleteSession revokes one of the user's sessions. The delete is scoped to
// the owner: a session id belonging to another user returns
// ErrSessionNotFound rather than revealing its existence.
func (e *Engine) DeleteSession(ctx context.Context, userID, sessionID string) error {
	if err := e.ready(); err != nil {
		return err
	}

	sess, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return ErrSessionNotFound
		}
		return storeErr(err)
	}
	if sess.UserID != userID {
		return ErrSessionNotFound
	}

	if err := e.sessions.Delete(ctx, sessionID); err != nil {
		return storeErr(err)
	}

	e.metricInc(MetricSessionRevoked)
	e.emitAudit(ctx, auditEventSessionRevoke, true, userID, sessionID, nil, nil)
	return nil
}

// SessionWithUser resolves a session and its owning user, for rendering the
// caller's current-session view. Expired sessions report ErrSessionNotFound.
func (e *Engine) SessionWithUser(ctx context.Context, sessionID string) (SessionInfo, User, error) {
	if err := e.ready(); err != nil {
		return SessionInfo{}, User{}, err
	}

	sess, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return SessionInfo{}, User{}, ErrSessionNotFound
		}
		return SessionInfo{}, User{}, storeErr(err)
	}
	if !sess.ExpiresAt.After(e.now()) {
		return SessionInfo{}, User{}, ErrSessionNotFound
	}

	user, err := e.users.FindUserByID(ctx, sess.UserID)
	if err != nil {
		return SessionInfo{}, User{}, err
	}

	return SessionInfo{
		ID:        sess.ID,
		UserAgent: sess.UserAgent,
		CreatedAt: sess.CreatedAt,
		ExpiresAt: sess.ExpiresAt,
		Current:   true,
	}, user, nil
}

// UserByID resolves a user record, for callers building profile responses
// from an AuthResult.
func (e *Engine) UserByID(ctx context.Context, userID string) (User, error) {
	if err := e.ready(); err != nil {
		return User{}, err
	}
	return e.users.FindUserByID(ctx, userID)
}
