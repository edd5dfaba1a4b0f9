package authcore

import "errors"

var (
	// ErrValidation reports malformed input to Register or ResetPassword.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateUser reports a registration attempt with an email that is
	// already taken.
	ErrDuplicateUser = errors.New("user already exists with this email")
	// ErrInvalidCredentials reports a failed login. Unknown email and wrong
	// password return the same error so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUnauthorized reports a missing, malformed, or expired token, or a
	// refresh attempt against a session that no longer exists.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUserNotFound reports a lookup for an unknown user.
	ErrUserNotFound = errors.New("user not found")
	// ErrSessionNotFound reports a lookup or targeted delete of a session
	// that does not exist or is not owned by the caller.
	ErrSessionNotFound = errors.New("session not found")
	// ErrCodeNotFound reports a verification code that is unknown, expired,
	// or already consumed.
	ErrCodeNotFound = errors.New("verification code invalid or expired")
	// ErrMFAAlreadyEnabled reports an MFA setup attempt on an account that
	// already has MFA enabled.
	ErrMFAAlreadyEnabled = errors.New("mfa is already enabled")
	// ErrMFANotEnabled reports an MFA operation on an account without MFA.
	ErrMFANotEnabled = errors.New("mfa is not enabled for this user")
	// ErrTOTPInvalid reports a TOTP code that failed verification.
	ErrTOTPInvalid = errors.New("invalid mfa code")
	// ErrResetRateLimited reports that the password-reset request quota for
	// the account was exceeded.
	ErrResetRateLimited = errors.New("too many password reset requests")
	// ErrEmailDispatch reports that the mail collaborator did not confirm
	// delivery of a message the flow requires.
	ErrEmailDispatch = errors.New("email dispatch failed")
	// ErrStoreUnavailable wraps backend failures from the session store or
	// verification registry.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrEngineNotReady is returned when an Engine was not constructed
	// through Builder.Build.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// Kind classifies an engine error for the transport boundary. The engine
// itself never maps errors to HTTP status codes; callers switch on KindOf.
type Kind uint8

const (
	KindInternal Kind = iota
	KindValidation
	KindDuplicate
	KindInvalidCredentials
	KindUnauthorized
	KindNotFound
	KindBadRequest
	KindTooManyRequests
)

// KindOf reports the error kind for any error returned by an Engine method.
// Unknown errors classify as KindInternal.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrDuplicateUser):
		return KindDuplicate
	case errors.Is(err, ErrInvalidCredentials):
		return KindInvalidCredentials
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrCodeNotFound):
		return KindNotFound
	case errors.Is(err, ErrMFAAlreadyEnabled),
		errors.Is(err, ErrMFANotEnabled),
		errors.Is(err, ErrTOTPInvalid):
		return KindBadRequest
	case errors.Is(err, ErrResetRateLimited):
		return KindTooManyRequests
	default:
		return KindInternal
	}
}
