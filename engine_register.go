package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/authcore-io/authcore/internal/stores"
	"github.com/authcore-io/authcore/mail"
)

// Register creates a new unverified user and dispatches a verification
// email. The email is best effort: a mail failure is audited but does not
// roll back the account.
func (e *Engine) Register(ctx context.Context, in RegisterInput) (User, error) {
	if err := e.ready(); err != nil {
		return User{}, err
	}
	if err := e.validateRegistration(in); err != nil {
		return User{}, err
	}
	email := normalizeEmail(in.Email)

	if _, err := e.users.FindUserByEmail(ctx, email); err == nil {
		e.metricInc(MetricRegisterDuplicate)
		e.emitAudit(ctx, auditEventRegister, false, "", "", ErrDuplicateUser, nil)
		return User{}, ErrDuplicateUser
	} else if !errors.Is(err, ErrUserNotFound) {
		return User{}, err
	}

	hash, err := e.hasher.Hash(in.Password)
	if err != nil {
		return User{}, err
	}

	now := e.now()
	user, err := e.users.CreateUser(ctx, User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        email,
		PasswordHash: hash,
		Preferences: UserPreferences{
			EmailNotification: true,
		},
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateUser) {
			e.metricInc(MetricRegisterDuplicate)
		}
		e.emitAudit(ctx, auditEventRegister, false, "", "", err, nil)
		return User{}, err
	}

	expiresAt := now.Add(e.config.Verification.EmailTTL)
	code, err := e.issueCode(ctx, user.ID, stores.TypeEmailVerification, now, expiresAt)
	if err != nil {
		e.emitAudit(ctx, auditEventRegister, false, user.ID, "", err, nil)
		return User{}, storeErr(err)
	}

	e.sendVerificationMail(ctx, user, code, expiresAt)

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegister, true, user.ID, "", nil, nil)
	return user, nil
}

// VerifyEmail consumes a verification code and marks the account verified.
// Codes are single use; a replay returns ErrCodeNotFound.
func (e *Engine) VerifyEmail(ctx context.Context, code string) (User, error) {
	if err := e.ready(); err != nil {
		return User{}, err
	}

	user, err := e.verifyEmailCode(ctx, code)
	if err != nil {
		e.metricInc(MetricEmailVerifyFailure)
		e.emitAudit(ctx, auditEventEmailVerify, false, "", "", err, nil)
		return User{}, err
	}

	e.metricInc(MetricEmailVerifySuccess)
	e.emitAudit(ctx, auditEventEmailVerify, true, user.ID, "", nil, nil)
	return user, nil
}

func (e *Engine) verifyEmailCode(ctx context.Context, code string) (User, error) {
	if code == "" {
		return User{}, ErrCodeNotFound
	}

	rec, err := e.codes.Consume(ctx, code, stores.TypeEmailVerification, e.now().Unix())
	if err != nil {
		if errors.Is(err, stores.ErrCodeNotFound) {
			return User{}, ErrCodeNotFound
		}
		return User{}, storeErr(err)
	}

	user, err := e.users.FindUserByID(ctx, rec.UserID)
	if err != nil {
		return User{}, err
	}
	if user.EmailVerified {
		return user, nil
	}

	user.EmailVerified = true
	user.UpdatedAt = e.now()
	return e.users.UpdateUser(ctx, user)
}

// issueCode mints a fresh single-use code of the given type for userID.
func (e *Engine) issueCode(ctx context.Context, userID string, typ uint8, now, expiresAt time.Time) (string, error) {
	code := uuid.NewString()
	err := e.codes.Save(ctx, code, &stores.Record{
		UserID:    userID,
		Type:      typ,
		CreatedAt: now.Unix(),
		ExpiresAt: expiresAt.Unix(),
	}, expiresAt.Sub(now))
	if err != nil {
		return "", err
	}
	return code, nil
}

func (e *Engine) sendVerificationMail(ctx context.Context, user User, code string, expiresAt time.Time) {
	if e.mailer == nil {
		return
	}

	link := fmt.Sprintf("%s/confirm-account?code=%s", e.config.Mail.BaseURL, code)
	msg := mail.VerificationMessage(user.Email, user.Name, link, expiresAt)

	id, err := e.mailer.Send(ctx, msg)
	if err != nil || id == "" {
		if err == nil {
			err = ErrEmailDispatch
		}
		e.emitAudit(ctx, auditEventEmailDispatch, false, user.ID, "", err, nil)
		return
	}
	e.emitAudit(ctx, auditEventEmailDispatch, true, user.ID, "", nil, func() map[string]string {
		return map[string]string{"messageId": id}
	})
}
