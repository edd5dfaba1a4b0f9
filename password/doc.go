// Package password hashes and verifies user passwords with argon2id.
// Hashes are stored in PHC string format; plaintext never leaves the
// function that received it.
package password
