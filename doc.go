// Package authcore implements a credential and session lifecycle engine:
// registration with email verification, password login, TOTP-based
// multi-factor authentication, JWT access tokens, rotating refresh tokens
// backed by revocable server-side sessions, and rate-limited password reset.
//
// The package is the public surface. It exposes [Engine], [Builder],
// [Config], sentinel errors, and value types. Internal coordination such as
// verification-code storage, rate limiting, and audit dispatch lives under
// internal/ and is never exported. Token signing, password hashing, and
// session persistence live in the token, password, and session packages.
//
// # Architecture boundaries
//
// authcore owns the lifecycle state machines only. HTTP routing, request
// schema decoding, cookie transport, and outbound email delivery are the
// caller's collaborators: the engine consumes a [UserStore], a [Mailer],
// a Redis client for sessions and verification codes, and an injectable
// clock, and hands back tokens plus ready-made http.Cookie values for the
// transport layer to attach.
//
// # Concurrency
//
// Engine methods are safe for concurrent use after [Builder.Build]. Each
// call is an independent unit of work against the shared stores; the engine
// holds no per-request state and relies on the stores' per-record atomicity
// rather than in-process locking.
package authcore
