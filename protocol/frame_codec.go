// File: protocol/frame_codec.go
// Package protocol implements the WebSocket frame codec.
// License: Apache-2.0
//
// Encoding always produces final, unmasked server frames with the minimal
// length form. Decoding drains a byte buffer frame by frame and hands back
// whatever trailing bytes do not yet form a complete frame, so a caller can
// prefix them onto the next read from the stream.

package protocol

import (
	"encoding/binary"

	"github.com/patternforge/live-ws/api"
)

// EncodeFrame serializes one server-to-client frame. Server frames are
// always final and never masked per RFC 6455 Section 5.1.
func EncodeFrame(op Opcode, payload []byte) []byte {
	n := len(payload)
	var hdr [10]byte
	hdr[0] = finBit | byte(op)&opcodeMask

	var hlen int
	switch {
	case n <= 125:
		hdr[1] = byte(n)
		hlen = 2
	case n <= 0xFFFF:
		hdr[1] = 126
		binary.BigEndian.PutUint16(hdr[2:], uint16(n))
		hlen = 4
	default:
		hdr[1] = 127
		binary.BigEndian.PutUint64(hdr[2:], uint64(n))
		hlen = 10
	}

	out := make([]byte, 0, hlen+n)
	out = append(out, hdr[:hlen]...)
	return append(out, payload...)
}

// DecodeFrames parses as many complete frames as buf holds. It returns the
// decoded frames and the unconsumed remainder. A frame whose header or
// payload is not fully present is never partially consumed: decoding stops
// and everything from that frame on is the remainder.
//
// maxPayload bounds a single frame's declared length; zero or negative
// selects DefaultMaxFramePayload. On a protocol error the frames decoded
// before the offending one are still returned alongside the error.
func DecodeFrames(buf []byte, maxPayload int64) ([]Frame, []byte, error) {
	if maxPayload <= 0 {
		maxPayload = DefaultMaxFramePayload
	}

	var frames []Frame
	rest := buf
	for {
		frame, consumed, err := decodeOne(rest, maxPayload)
		if err != nil {
			return frames, rest, err
		}
		if consumed == 0 {
			return frames, rest, nil
		}
		frames = append(frames, frame)
		rest = rest[consumed:]
	}
}

// decodeOne parses a single frame from the head of raw. It returns the
// number of bytes consumed; zero means the frame is incomplete.
func decodeOne(raw []byte, maxPayload int64) (Frame, int, error) {
	var f Frame
	if len(raw) < 2 {
		return f, 0, nil
	}

	if raw[0]&rsvMask != 0 {
		return f, 0, api.ErrReservedBits
	}
	f.Fin = raw[0]&finBit != 0
	f.Opcode = Opcode(raw[0] & opcodeMask)
	if !f.Opcode.IsValid() {
		return f, 0, api.ErrUnknownOpcode
	}

	f.Masked = raw[1]&maskBit != 0
	length := int64(raw[1] & lengthMask)
	offset := 2

	switch length {
	case 126:
		if len(raw) < offset+2 {
			return f, 0, nil
		}
		length = int64(binary.BigEndian.Uint16(raw[offset:]))
		offset += 2
	case 127:
		if len(raw) < offset+8 {
			return f, 0, nil
		}
		length = int64(binary.BigEndian.Uint64(raw[offset:]))
		offset += 8
	}

	if length < 0 || length > maxPayload {
		return f, 0, api.ErrFrameTooLarge
	}

	if f.Masked {
		if len(raw) < offset+4 {
			return f, 0, nil
		}
		copy(f.MaskKey[:], raw[offset:offset+4])
		offset += 4
	}

	total := offset + int(length)
	if len(raw) < total {
		return f, 0, nil
	}

	f.Payload = make([]byte, length)
	copy(f.Payload, raw[offset:total])
	if f.Masked {
		unmaskInPlace(f.Payload, f.MaskKey)
	}
	return f, total, nil
}

// unmaskInPlace XORs buf with the 4-byte mask key.
func unmaskInPlace(buf []byte, key [4]byte) {
	for i := range buf {
		buf[i] ^= key[i%4]
	}
}

// EncodeClosePayload builds a close frame payload: a big-endian status code
// followed by an optional UTF-8 reason.
func EncodeClosePayload(code uint16, reason string) []byte {
	p := make([]byte, 2+len(reason))
	binary.BigEndian.PutUint16(p, code)
	copy(p[2:], reason)
	return p
}

// DecodeClosePayload extracts the status code and reason from a close frame
// payload. An empty payload is legal and maps to CloseNormal.
func DecodeClosePayload(p []byte) (uint16, string) {
	if len(p) < 2 {
		return CloseNormal, ""
	}
	return binary.BigEndian.Uint16(p), string(p[2:])
}
