package mail

import (
	"fmt"
	"html"
	"time"
)

// VerificationMessage builds the email sent after registration. link points
// at the client application's confirm-account page with the code attached.
func VerificationMessage(to, name, link string, expiresAt time.Time) Message {
	expiry := expiresAt.UTC().Format(time.RFC1123)
	return Message{
		To:      to,
		Subject: "Confirm your email address",
		Text: fmt.Sprintf(
			"Hi %s,\n\nConfirm your email address by opening the link below. The link expires %s.\n\n%s\n\nIf you did not create this account, ignore this message.\n",
			name, expiry, link),
		HTML: fmt.Sprintf(
			`<p>Hi %s,</p><p>Confirm your email address by clicking the button below. The link expires %s.</p><p><a href="%s">Confirm email</a></p><p>If you did not create this account, ignore this message.</p>`,
			html.EscapeString(name), expiry, link),
	}
}

// PasswordResetMessage builds the email sent for a password-reset request.
func PasswordResetMessage(to, name, link string, expiresAt time.Time) Message {
	expiry := expiresAt.UTC().Format(time.RFC1123)
	return Message{
		To:      to,
		Subject: "Reset your password",
		Text: fmt.Sprintf(
			"Hi %s,\n\nA password reset was requested for your account. Open the link below to choose a new password. The link expires %s.\n\n%s\n\nIf you did not request this, you can safely ignore it.\n",
			name, expiry, link),
		HTML: fmt.Sprintf(
			`<p>Hi %s,</p><p>A password reset was requested for your account. Click the button below to choose a new password. The link expires %s.</p><p><a href="%s">Reset password</a></p><p>If you did not request this, you can safely ignore it.</p>`,
			html.EscapeString(name), expiry, link),
	}
}
