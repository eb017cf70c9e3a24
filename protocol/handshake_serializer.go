// File: protocol/handshake_serializer.go
// Package protocol serializes the 101 Switching Protocols response.
// License: Apache-2.0

package protocol

import (
	"fmt"
	"io"
)

// WriteUpgradeResponse writes the literal handshake response for the given
// accept token onto the raw connection. It is written exactly once per
// successful upgrade, before any frame.
func WriteUpgradeResponse(w io.Writer, accept string) error {
	_, err := fmt.Fprintf(w,
		"HTTP/1.1 101 Switching Protocols\r\n"+
			"Upgrade: websocket\r\n"+
			"Connection: Upgrade\r\n"+
			"Sec-WebSocket-Accept: %s\r\n\r\n", accept)
	return err
}
