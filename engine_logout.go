package authcore

import "context"

// Logout deletes the session. Logging out an already-absent session is not
// an error, so repeated logouts and races with expiry stay idempotent.
func (e *Engine) Logout(ctx context.Context, sessionID string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if sessionID == "" {
		return ErrUnauthorized
	}

	if err := e.sessions.Delete(ctx, sessionID); err != nil {
		e.emitAudit(ctx, auditEventLogout, false, "", sessionID, err, nil)
		return storeErr(err)
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, "", sessionID, nil, nil)
	return nil
}
