// Package audit defines the engine's structured audit events and the
// asynchronous dispatcher that forwards them to a caller-supplied sink.
package audit
