// Package session stores server-side sessions in Redis using a compact
// versioned binary record. Record TTLs mirror session expiry so the store
// garbage-collects itself; the engine still checks ExpiresAt against its
// own clock for correctness under injected time.
package session
