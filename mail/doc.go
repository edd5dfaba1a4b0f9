// Package mail defines the outbound message model, the content builders
// for verification and reset emails, and an SMTP sender implementation.
package mail
