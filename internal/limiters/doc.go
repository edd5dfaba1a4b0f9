// Package limiters implements fixed-window request throttling on Redis
// counters.
package limiters
