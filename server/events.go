// File: server/events.go
// Package server defines the event contract between engine and host.
// License: Apache-2.0

package server

// EventHandler receives engine events. One method per event; the engine
// never keeps an open-ended listener list. Callbacks for a given connection
// run synchronously on that connection's read loop, so a slow handler stalls
// only its own peer.
type EventHandler interface {
	// OnConnection fires once per successful handshake.
	OnConnection(c *Conn)
	// OnMessage fires for every decoded text or binary data frame. The
	// payload belongs to the handler after the call; the engine does not
	// reuse it. Payload content is entirely the host's concern: the
	// engine hands over raw bytes and never parses them.
	OnMessage(c *Conn, payload []byte)
	// OnClose fires exactly once per connection, on every path into the
	// closed state.
	OnClose(c *Conn)
	// OnError fires when a connection dies from an I/O fault, carrying
	// the underlying cause. It always precedes the matching OnClose.
	OnError(c *Conn, err error)
}

// HandlerFuncs adapts plain functions to EventHandler. Nil fields are
// no-ops, so hosts implement only the events they care about.
type HandlerFuncs struct {
	Connection func(c *Conn)
	Message    func(c *Conn, payload []byte)
	Close      func(c *Conn)
	Error      func(c *Conn, err error)
}

// OnConnection implements EventHandler.
func (h HandlerFuncs) OnConnection(c *Conn) {
	if h.Connection != nil {
		h.Connection(c)
	}
}

// OnMessage implements EventHandler.
func (h HandlerFuncs) OnMessage(c *Conn, payload []byte) {
	if h.Message != nil {
		h.Message(c, payload)
	}
}

// OnClose implements EventHandler.
func (h HandlerFuncs) OnClose(c *Conn) {
	if h.Close != nil {
		h.Close(c)
	}
}

// OnError implements EventHandler.
func (h HandlerFuncs) OnError(c *Conn, err error) {
	if h.Error != nil {
		h.Error(c, err)
	}
}
