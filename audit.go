package authcore

import (
	"context"
	"io"

	"github.com/authcore-io/authcore/internal/audit"
)

// AuditEvent is a structured record of one engine operation.
type AuditEvent = audit.Event

// AuditSink receives [AuditEvent] values from the engine's dispatcher.
type AuditSink = audit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = audit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = audit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON lines to a writer.
type JSONWriterSink = audit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

const (
	auditEventRegister             = "register"
	auditEventEmailVerify          = "email_verify"
	auditEventEmailDispatch        = "email_dispatch"
	auditEventLogin                = "login"
	auditEventMFALogin             = "mfa_login"
	auditEventRefresh              = "refresh"
	auditEventLogout               = "logout"
	auditEventPasswordResetRequest = "password_reset_request"
	auditEventPasswordReset        = "password_reset"
	auditEventSessionRevoke        = "session_revoke"
	auditEventMFASetup             = "mfa_setup"
	auditEventMFAEnable            = "mfa_enable"
	auditEventMFARevoke            = "mfa_revoke"
)

// emitAudit builds and dispatches one event. fields is lazily evaluated so
// disabled auditing costs nothing beyond the nil check.
func (e *Engine) emitAudit(ctx context.Context, operation string, success bool, userID, sessionID string, opErr error, fields func() map[string]string) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: e.now(),
		Operation: operation,
		UserID:    userID,
		SessionID: sessionID,
		Success:   success,
	}
	if opErr != nil {
		event.Error = opErr.Error()
	}
	if fields != nil {
		event.Metadata = fields()
	}
	e.audit.Emit(ctx, event)
}
