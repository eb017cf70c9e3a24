// File: api/errors.go
// Package api defines the shared vocabulary of the live-ws engine.
// License: Apache-2.0

package api

import "errors"

// Common errors used across the library.
var (
	// ErrEngineClosed is returned by operations on an engine after Close.
	ErrEngineClosed = errors.New("engine is closed")
	// ErrConnNotOpen is returned when a write is attempted on a
	// connection that is no longer in StateOpen.
	ErrConnNotOpen = errors.New("connection is not open")
	// ErrNotHijackable is returned when the host HTTP server's
	// ResponseWriter cannot surrender the underlying TCP connection.
	ErrNotHijackable = errors.New("response writer does not support hijacking")
)

// Handshake validation errors. A request failing with one of these never
// produces a connection; the socket stays with the host HTTP layer.
var (
	ErrNotWebSocket    = errors.New("not a WebSocket upgrade request")
	ErrMissingKey      = errors.New("missing Sec-WebSocket-Key header")
	ErrBadVersion      = errors.New("unsupported WebSocket version; only '13' is supported")
	ErrHeadersTooLarge = errors.New("handshake headers too large")
)

// Wire protocol errors. Any of these closes the offending connection with
// close code 1002 (protocol error) or 1009 (message too big).
var (
	ErrReservedBits  = errors.New("non-zero reserved bits")
	ErrUnknownOpcode = errors.New("unknown opcode")
	ErrFrameTooLarge = errors.New("frame payload exceeds maximum allowed size")
	ErrFragmented    = errors.New("continuation frames are not supported")
	ErrBufferLimit   = errors.New("pending buffer limit exceeded")
)
