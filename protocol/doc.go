// File: protocol/doc.go
// License: Apache-2.0

// Package protocol implements the RFC 6455 wire format: frame
// encoding/decoding with masking, and the opening handshake.
//
// The codec is pure. Decoding consumes a byte buffer and returns complete
// frames plus the unconsumed remainder; it performs no I/O and keeps no
// state between calls, so the caller owns reassembly across stream reads.
package protocol
