package authcore

import (
	"errors"
	"fmt"
	"time"

	"github.com/authcore-io/authcore/internal/audit"
	"github.com/authcore-io/authcore/internal/limiters"
	"github.com/authcore-io/authcore/internal/stores"
	"github.com/authcore-io/authcore/password"
	"github.com/authcore-io/authcore/session"
	"github.com/authcore-io/authcore/token"
)

// Engine is the authentication core. It is safe for concurrent use once
// built; all mutable state lives in Redis and the caller's UserStore.
type Engine struct {
	config Config

	users        UserStore
	sessions     *session.Store
	codes        *stores.VerificationStore
	resetLimiter *limiters.ResetLimiter
	codec        *token.Codec
	hasher       *password.Hasher
	totp         *totpManager
	mailer       Mailer

	audit   *audit.Dispatcher
	metrics *Metrics

	now func() time.Time
}

// Close drains and stops the audit dispatcher. Further Emit calls no-op.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// Metrics returns a point-in-time snapshot of the engine's counters.
func (e *Engine) Metrics() MetricsSnapshot {
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	return e.audit.Dropped()
}

func (e *Engine) metricInc(id MetricID) {
	e.metrics.Inc(id)
}

// ready guards against an Engine that was not assembled through
// [Builder.Build].
func (e *Engine) ready() error {
	if e == nil || e.users == nil || e.sessions == nil || e.codec == nil {
		return ErrEngineNotReady
	}
	return nil
}

// storeErr maps store-level transport failures onto ErrStoreUnavailable and
// passes everything else through unchanged.
func storeErr(err error) error {
	switch {
	case errors.Is(err, session.ErrRedisUnavailable),
		errors.Is(err, stores.ErrRedisUnavailable),
		errors.Is(err, limiters.ErrRedisUnavailable):
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	default:
		return err
	}
}
