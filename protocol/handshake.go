// File: protocol/handshake.go
// Package protocol implements the HTTP to WebSocket opening handshake with
// strict validation.
// License: Apache-2.0

package protocol

import (
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/patternforge/live-ws/api"
)

// WebSocketGUID is the fixed GUID from RFC 6455 Section 1.3 that the accept
// token is derived from.
const WebSocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// MaxHandshakeHeadersSize caps the combined length of handshake headers.
const MaxHandshakeHeadersSize = 8192

// RequiredWebSocketVersion is the only protocol version served.
const RequiredWebSocketVersion = "13"

// ComputeAcceptKey derives the Sec-WebSocket-Accept value from the client's
// Sec-WebSocket-Key per RFC 6455 Section 1.3.
func ComputeAcceptKey(clientKey string) string {
	sum := sha1.Sum([]byte(clientKey + WebSocketGUID))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// IsUpgradeRequest reports whether the request declares a WebSocket upgrade
// at all. A request for which this is false is an ordinary HTTP request and
// belongs to the host HTTP layer, not to the engine.
func IsUpgradeRequest(r *http.Request) bool {
	return headerContainsToken(r.Header, "Upgrade", "websocket")
}

// ValidateUpgrade checks the headers of an attempted upgrade and returns the
// client key on success. The caller answers a failed validation with a plain
// HTTP error; no connection is created.
func ValidateUpgrade(r *http.Request) (string, error) {
	total := 0
	for k, vs := range r.Header {
		total += len(k)
		for _, v := range vs {
			total += len(v)
		}
		if total > MaxHandshakeHeadersSize {
			return "", api.ErrHeadersTooLarge
		}
	}

	if r.Method != http.MethodGet {
		return "", api.ErrNotWebSocket
	}
	if !headerContainsToken(r.Header, "Connection", "Upgrade") ||
		!headerContainsToken(r.Header, "Upgrade", "websocket") {
		return "", api.ErrNotWebSocket
	}
	if r.Header.Get("Sec-WebSocket-Version") != RequiredWebSocketVersion {
		return "", api.ErrBadVersion
	}
	key := r.Header.Get("Sec-WebSocket-Key")
	if key == "" {
		return "", api.ErrMissingKey
	}
	return key, nil
}

// headerContainsToken checks whether the named header carries token in its
// comma-separated value list, case-insensitive.
func headerContainsToken(h http.Header, headerName, token string) bool {
	token = strings.ToLower(token)
	for _, v := range h[http.CanonicalHeaderKey(headerName)] {
		for _, p := range strings.Split(v, ",") {
			if strings.ToLower(strings.TrimSpace(p)) == token {
				return true
			}
		}
	}
	return false
}
