// Package stores holds the Redis-backed verification code registry used by
// email confirmation and password reset.
package stores
