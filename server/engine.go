// File: server/engine.go
// Package server implements the upgrade interceptor and dispatcher.
// License: Apache-2.0

package server

import (
	"fmt"
	"net"
	"net/http"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/patternforge/live-ws/api"
	"github.com/patternforge/live-ws/protocol"
)

const tracerName = "live-ws"

// Engine intercepts HTTP upgrade requests, performs the opening handshake,
// and dispatches decoded messages and lifecycle transitions to the host.
// Each Engine owns its registry; independent engines never interfere.
type Engine struct {
	cfg      *Config
	log      *zap.Logger
	handler  EventHandler
	fallback http.Handler
	registry *registry
	metrics  *metrics
	tracer   trace.Tracer

	closed  atomic.Bool
	connSeq atomic.Uint64
}

// New constructs an Engine. A nil cfg selects DefaultConfig.
func New(cfg *Config, opts ...Option) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	e := &Engine{
		cfg:      cfg,
		log:      zap.NewNop(),
		registry: newRegistry(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Attach mounts the engine on mux at pattern.
func (e *Engine) Attach(mux *http.ServeMux, pattern string) {
	mux.Handle(pattern, e)
}

// ServeHTTP implements the upgrade interceptor. Requests that do not
// declare a WebSocket upgrade belong to the host HTTP layer and go to the
// fallback handler; an attempted but invalid upgrade is refused with a
// plain HTTP error and no connection is created.
func (e *Engine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !protocol.IsUpgradeRequest(r) {
		if e.fallback != nil {
			e.fallback.ServeHTTP(w, r)
			return
		}
		http.Error(w, "upgrade required", http.StatusUpgradeRequired)
		return
	}

	_, span := e.tracer.Start(r.Context(), "livews.upgrade",
		trace.WithAttributes(attribute.String("net.peer", r.RemoteAddr)))
	defer span.End()

	if e.closed.Load() {
		span.SetStatus(codes.Error, "engine closed")
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	key, err := protocol.ValidateUpgrade(r)
	if err != nil {
		e.metrics.handshakeFailure()
		e.log.Debug("handshake refused",
			zap.String("remote", r.RemoteAddr),
			zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "handshake refused")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	hj, ok := w.(http.Hijacker)
	if !ok {
		span.SetStatus(codes.Error, "not hijackable")
		e.emitError(nil, api.ErrNotHijackable)
		http.Error(w, "websocket unsupported", http.StatusInternalServerError)
		return
	}
	netConn, rw, err := hj.Hijack()
	if err != nil {
		span.RecordError(err)
		http.Error(w, "hijack failed", http.StatusInternalServerError)
		return
	}

	if err := protocol.WriteUpgradeResponse(netConn, protocol.ComputeAcceptKey(key)); err != nil {
		_ = netConn.Close()
		span.RecordError(err)
		e.emitError(nil, fmt.Errorf("write 101: %w", err))
		return
	}

	// Frames the client pipelined behind the handshake may already sit
	// in the server's read buffer; hand them to the connection first.
	var initial []byte
	if n := rw.Reader.Buffered(); n > 0 {
		peeked, _ := rw.Reader.Peek(n)
		initial = append([]byte(nil), peeked...)
	}

	e.accept(netConn, initial)
}

// accept registers a freshly upgraded socket and starts its loops. Close
// may have snapshotted the registry between the closed check and the add
// here; such a connection gets its shutdown close frame from the re-check.
func (e *Engine) accept(netConn net.Conn, initial []byte) *Conn {
	c := newConn(e, netConn, e.nextID(netConn))
	e.registry.add(c)
	e.metrics.connOpened()
	e.log.Debug("connection open",
		zap.String("conn", c.ID()),
		zap.String("remote", netConn.RemoteAddr().String()))
	e.emitConnection(c)
	c.start(initial)
	if e.closed.Load() {
		c.beginClose(protocol.CloseGoingAway, "server shutting down")
	}
	return c
}

func (e *Engine) nextID(nc net.Conn) string {
	return fmt.Sprintf("%s#%d", nc.RemoteAddr(), e.connSeq.Add(1))
}

// Send writes one text message to c. Sending to a connection that is no
// longer open is a no-op, not an error.
func (e *Engine) Send(c *Conn, text string) error {
	if e.closed.Load() {
		return api.ErrEngineClosed
	}
	c.sendText(protocol.EncodeFrame(protocol.OpcodeText, []byte(text)))
	return nil
}

// Broadcast sends text to every connection in a snapshot of the registry.
// The snapshot is taken before iterating, so a send-triggered close of one
// peer cannot corrupt or skip the loop over the others.
func (e *Engine) Broadcast(text string) {
	if e.closed.Load() {
		return
	}
	frame := protocol.EncodeFrame(protocol.OpcodeText, []byte(text))
	e.metrics.broadcast()
	for _, c := range e.registry.snapshot() {
		c.sendText(frame)
	}
}

// Clients returns the number of connections currently in the registry.
func (e *Engine) Clients() int {
	return e.registry.size()
}

// Close shuts the engine down: every connection gets a going-away close
// frame, every socket is closed once that frame is flushed, and the
// registry drains. Further upgrades are refused. The flush is bounded by
// Config.WriteTimeout, so a stuck peer cannot stall shutdown forever.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return api.ErrEngineClosed
	}
	for _, c := range e.registry.snapshot() {
		c.beginClose(protocol.CloseGoingAway, "server shutting down")
	}
	return nil
}

func (e *Engine) emitConnection(c *Conn) {
	if e.handler != nil {
		e.handler.OnConnection(c)
	}
}

func (e *Engine) emitMessage(c *Conn, payload []byte) {
	if e.handler != nil {
		e.handler.OnMessage(c, payload)
	}
}

func (e *Engine) emitClose(c *Conn) {
	if e.handler != nil {
		e.handler.OnClose(c)
	}
}

func (e *Engine) emitError(c *Conn, err error) {
	if e.handler != nil {
		e.handler.OnError(c, err)
	}
}
