package authcore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/authcore-io/authcore/internal/limiters"
	"github.com/authcore-io/authcore/internal/stores"
	"github.com/authcore-io/authcore/mail"
)

// ForgotPassword issues a single-use reset code and emails it to the
// account. An unknown email returns ErrUserNotFound. Issuance is
// rate-limited per account; the flow requires delivery confirmation, so a
// mail failure returns ErrEmailDispatch even though the code was stored.
func (e *Engine) ForgotPassword(ctx context.Context, email string) error {
	if err := e.ready(); err != nil {
		return err
	}

	user, err := e.users.FindUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}

	// Without a mailer the request can never succeed, so fail before the
	// limiter slot and the code are consumed.
	if e.mailer == nil {
		e.emitAudit(ctx, auditEventPasswordResetRequest, false, user.ID, "", ErrEmailDispatch, nil)
		return ErrEmailDispatch
	}

	if err := e.resetLimiter.Allow(ctx, user.ID); err != nil {
		if errors.Is(err, limiters.ErrRateLimited) {
			e.metricInc(MetricPasswordResetRateLimited)
			e.emitAudit(ctx, auditEventPasswordResetRequest, false, user.ID, "", ErrResetRateLimited, nil)
			return ErrResetRateLimited
		}
		return storeErr(err)
	}

	now := e.now()
	expiresAt := now.Add(e.config.Verification.ResetTTL)
	code, err := e.issueCode(ctx, user.ID, stores.TypePasswordReset, now, expiresAt)
	if err != nil {
		e.emitAudit(ctx, auditEventPasswordResetRequest, false, user.ID, "", err, nil)
		return storeErr(err)
	}

	link := fmt.Sprintf("%s/reset-password?code=%s&exp=%d", e.config.Mail.BaseURL, code, expiresAt.Unix())
	id, err := e.mailer.Send(ctx, mail.PasswordResetMessage(user.Email, user.Name, link, expiresAt))
	if err != nil || id == "" {
		e.emitAudit(ctx, auditEventPasswordResetRequest, false, user.ID, "", ErrEmailDispatch, nil)
		return ErrEmailDispatch
	}

	e.metricInc(MetricPasswordResetRequest)
	e.emitAudit(ctx, auditEventPasswordResetRequest, true, user.ID, "", nil, func() map[string]string {
		return map[string]string{"messageId": id}
	})
	return nil
}

// ResetPassword consumes a reset code, replaces the account password, and
// revokes every session the user has. The code is single use; a replay
// returns ErrCodeNotFound.
func (e *Engine) ResetPassword(ctx context.Context, in ResetInput) error {
	if err := e.ready(); err != nil {
		return err
	}

	user, revoked, err := e.resetPassword(ctx, in)
	if err != nil {
		e.metricInc(MetricPasswordResetFailure)
		e.emitAudit(ctx, auditEventPasswordReset, false, user.ID, "", err, nil)
		return err
	}

	e.metricInc(MetricPasswordResetSuccess)
	e.emitAudit(ctx, auditEventPasswordReset, true, user.ID, "", nil, func() map[string]string {
		return map[string]string{"sessionsRevoked": strconv.Itoa(revoked)}
	})
	return nil
}

func (e *Engine) resetPassword(ctx context.Context, in ResetInput) (User, int, error) {
	if err := e.validatePassword(in.Password); err != nil {
		return User{}, 0, err
	}
	if in.Code == "" {
		return User{}, 0, ErrCodeNotFound
	}

	rec, err := e.codes.Consume(ctx, in.Code, stores.TypePasswordReset, e.now().Unix())
	if err != nil {
		if errors.Is(err, stores.ErrCodeNotFound) {
			return User{}, 0, ErrCodeNotFound
		}
		return User{}, 0, storeErr(err)
	}

	user, err := e.users.FindUserByID(ctx, rec.UserID)
	if err != nil {
		return User{}, 0, err
	}

	hash, err := e.hasher.Hash(in.Password)
	if err != nil {
		return user, 0, err
	}
	user.PasswordHash = hash
	user.UpdatedAt = e.now()

	user, err = e.users.UpdateUser(ctx, user)
	if err != nil {
		return user, 0, err
	}

	revoked, err := e.sessions.DeleteAllForUser(ctx, user.ID)
	if err != nil {
		return user, revoked, storeErr(err)
	}
	return user, revoked, nil
}
