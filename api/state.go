// File: api/state.go
// Package api defines the shared vocabulary of the live-ws engine.
// License: Apache-2.0

package api

// State is the lifecycle state of one accepted connection.
//
// Transitions: Open -> Closing on receipt of a close frame or a local
// close; Closing -> Closed once the socket is closed; Open -> Closed
// directly on an I/O error. Closed is terminal.
type State int32

const (
	StateOpen State = iota
	StateClosing
	StateClosed
)

// String returns a human-readable state name for logs and metrics.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
