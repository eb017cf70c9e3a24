// File: protocol/frame.go
// Package protocol implements WebSocket frame types per RFC 6455 Section 5.2.
// License: Apache-2.0

package protocol

// Opcode identifies the purpose of one frame.
type Opcode byte

const (
	OpcodeContinuation Opcode = 0x0
	OpcodeText         Opcode = 0x1
	OpcodeBinary       Opcode = 0x2
	OpcodeClose        Opcode = 0x8
	OpcodePing         Opcode = 0x9
	OpcodePong         Opcode = 0xA
)

// IsControl reports whether the opcode tags a control frame.
func (o Opcode) IsControl() bool {
	return o == OpcodeClose || o == OpcodePing || o == OpcodePong
}

// IsData reports whether the opcode tags a data frame.
func (o Opcode) IsData() bool {
	return o == OpcodeText || o == OpcodeBinary || o == OpcodeContinuation
}

// IsValid reports whether the opcode is defined by RFC 6455.
func (o Opcode) IsValid() bool {
	return o.IsControl() || o == OpcodeText || o == OpcodeBinary || o == OpcodeContinuation
}

// String returns the opcode name for logs.
func (o Opcode) String() string {
	switch o {
	case OpcodeContinuation:
		return "continuation"
	case OpcodeText:
		return "text"
	case OpcodeBinary:
		return "binary"
	case OpcodeClose:
		return "close"
	case OpcodePing:
		return "ping"
	case OpcodePong:
		return "pong"
	default:
		return "unknown"
	}
}

// Close codes per RFC 6455 Section 7.4.1.
const (
	CloseNormal        uint16 = 1000
	CloseGoingAway     uint16 = 1001
	CloseProtocolError uint16 = 1002
	CloseTooLarge      uint16 = 1009
)

// Header bit layout of the first two frame bytes.
const (
	finBit     = 0x80
	rsvMask    = 0x70
	opcodeMask = 0x0F
	maskBit    = 0x80
	lengthMask = 0x7F
)

// DefaultMaxFramePayload bounds the declared payload length of a single
// inbound frame. A frame claiming more is a 1009 condition, not an
// allocation request.
const DefaultMaxFramePayload = 1 << 20 // 1 MiB

// Frame is one decoded protocol unit.
type Frame struct {
	Fin     bool // final fragment of a message
	Opcode  Opcode
	Masked  bool
	MaskKey [4]byte // meaningful only when Masked
	Payload []byte
}
