// Package token signs and verifies the two JWT kinds the engine issues:
// short-lived access tokens bound to {user, session} and long-lived refresh
// tokens bound to a session alone. Both use HS256 with independent secrets.
package token
