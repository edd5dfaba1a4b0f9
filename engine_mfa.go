package authcore

import "context"

// GenerateMFASetup provisions a TOTP secret for the account and returns it
// with the otpauth URI. MFA stays disabled until [Engine.VerifyMFASetup]
// proves the authenticator with a valid code. Calling again before that
// reuses the pending secret, so a re-rendered QR code still matches the
// authenticator entry.
func (e *Engine) GenerateMFASetup(ctx context.Context, userID string) (MFASetup, error) {
	if err := e.ready(); err != nil {
		return MFASetup{}, err
	}

	user, err := e.users.FindUserByID(ctx, userID)
	if err != nil {
		return MFASetup{}, err
	}
	if user.Preferences.MFAEnabled {
		return MFASetup{}, ErrMFAAlreadyEnabled
	}

	secret := user.Preferences.TOTPSecret
	if secret == "" {
		secret, err = e.totp.GenerateSecret()
		if err != nil {
			return MFASetup{}, err
		}
		user.Preferences.TOTPSecret = secret
		user.UpdatedAt = e.now()
		if user, err = e.users.UpdateUser(ctx, user); err != nil {
			return MFASetup{}, err
		}
	}

	e.metricInc(MetricMFASetupGenerated)
	e.emitAudit(ctx, auditEventMFASetup, true, user.ID, "", nil, nil)
	return MFASetup{
		Secret: secret,
		URI:    e.totp.ProvisionURI(secret, user.Email),
	}, nil
}

// VerifyMFASetup proves the pending secret with a code from the
// authenticator and enables MFA on the account.
func (e *Engine) VerifyMFASetup(ctx context.Context, userID, code string) (User, error) {
	if err := e.ready(); err != nil {
		return User{}, err
	}

	user, err := e.users.FindUserByID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	if user.Preferences.MFAEnabled {
		return User{}, ErrMFAAlreadyEnabled
	}
	if user.Preferences.TOTPSecret == "" {
		return User{}, ErrMFANotEnabled
	}

	ok, err := e.totp.Verify(user.Preferences.TOTPSecret, code, e.now())
	if err != nil {
		return User{}, err
	}
	if !ok {
		e.emitAudit(ctx, auditEventMFAEnable, false, user.ID, "", ErrTOTPInvalid, nil)
		return User{}, ErrTOTPInvalid
	}

	user.Preferences.MFAEnabled = true
	user.UpdatedAt = e.now()
	user, err = e.users.UpdateUser(ctx, user)
	if err != nil {
		return User{}, err
	}

	e.metricInc(MetricMFAEnabled)
	e.emitAudit(ctx, auditEventMFAEnable, true, user.ID, "", nil, nil)
	return user, nil
}

// RevokeMFA disables the second factor and discards the secret, so a later
// re-enable provisions a fresh one.
func (e *Engine) RevokeMFA(ctx context.Context, userID string) (User, error) {
	if err := e.ready(); err != nil {
		return User{}, err
	}

	user, err := e.users.FindUserByID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	if !user.Preferences.MFAEnabled {
		return User{}, ErrMFANotEnabled
	}

	user.Preferences.MFAEnabled = false
	user.Preferences.TOTPSecret = ""
	user.UpdatedAt = e.now()
	user, err = e.users.UpdateUser(ctx, user)
	if err != nil {
		return User{}, err
	}

	e.metricInc(MetricMFARevoked)
	e.emitAudit(ctx, auditEventMFARevoke, true, user.ID, "", nil, nil)
	return user, nil
}

// VerifyMFAForLogin completes a login that was answered with MFARequired.
// On a valid code it creates the session and issues both tokens, exactly as
// a non-MFA login would have.
func (e *Engine) VerifyMFAForLogin(ctx context.Context, email, code, userAgent string) (LoginResult, error) {
	if err := e.ready(); err != nil {
		return LoginResult{}, err
	}

	user, err := e.users.FindUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return LoginResult{}, err
	}
	if !user.Preferences.MFAEnabled || user.Preferences.TOTPSecret == "" {
		return LoginResult{}, ErrMFANotEnabled
	}

	ok, err := e.totp.Verify(user.Preferences.TOTPSecret, code, e.now())
	if err != nil {
		return LoginResult{}, err
	}
	if !ok {
		e.metricInc(MetricMFALoginFailure)
		e.emitAudit(ctx, auditEventMFALogin, false, user.ID, "", ErrTOTPInvalid, nil)
		return LoginResult{}, ErrTOTPInvalid
	}

	result, err := e.issueSession(ctx, user, userAgent)
	if err != nil {
		e.emitAudit(ctx, auditEventMFALogin, false, user.ID, "", err, nil)
		return LoginResult{}, err
	}

	e.metricInc(MetricMFALoginSuccess)
	e.emitAudit(ctx, auditEventMFALogin, true, user.ID, result.SessionID, nil, nil)
	return result, nil
}
