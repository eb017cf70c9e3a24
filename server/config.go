// File: server/config.go
// Package server defines engine configuration.
// License: Apache-2.0

package server

import (
	"time"

	"github.com/patternforge/live-ws/protocol"
)

// Config holds engine-wide parameters, immutable after New.
type Config struct {
	// MaxFramePayload bounds the declared payload length of a single
	// inbound frame. A frame claiming more closes the connection with
	// close code 1009.
	MaxFramePayload int64
	// MaxPending bounds the buffered-but-undecoded bytes one connection
	// may accumulate. Exceeding it closes the connection with 1009,
	// which keeps a slow or adversarial peer from growing the buffer
	// without bound.
	MaxPending int
	// ReadBufferSize is the per-read chunk size of the read loop.
	ReadBufferSize int
	// WriteTimeout is the deadline applied to each outbound socket
	// write. Zero disables the deadline.
	WriteTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxFramePayload: protocol.DefaultMaxFramePayload,
		MaxPending:      1 << 20, // 1 MiB of undecoded input
		ReadBufferSize:  4096,
		WriteTimeout:    10 * time.Second,
	}
}
