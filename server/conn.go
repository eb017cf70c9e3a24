// File: server/conn.go
// Package server implements the per-connection state machine.
// License: Apache-2.0
//
// A Conn wraps one hijacked socket with its pending-bytes buffer and
// lifecycle state. The read loop feeds raw chunks through the protocol
// codec; the write loop drains an outbound FIFO so dispatch never blocks
// on a slow peer.

package server

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"
	"go.uber.org/zap"

	"github.com/patternforge/live-ws/api"
	"github.com/patternforge/live-ws/protocol"
)

// Conn is one accepted peer. It is created only by a successful handshake
// and is freed once the socket closes, errors, or the closing handshake
// completes.
type Conn struct {
	id      string
	netConn net.Conn
	engine  *Engine

	// pending holds unconsumed inbound bytes between reads. It is owned
	// by the read loop; feed must not be called concurrently.
	pending []byte

	state atomic.Int32

	outMu           sync.Mutex
	out             *queue.Queue // outbound frames, []byte each
	closeAfterFlush bool

	wakeup    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func newConn(e *Engine, nc net.Conn, id string) *Conn {
	c := &Conn{
		id:      id,
		netConn: nc,
		engine:  e,
		out:     queue.New(),
		wakeup:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	c.state.Store(int32(api.StateOpen))
	return c
}

// ID returns the registry identity of this connection.
func (c *Conn) ID() string { return c.id }

// RemoteAddr returns the peer's network address.
func (c *Conn) RemoteAddr() net.Addr { return c.netConn.RemoteAddr() }

// State returns the current lifecycle state.
func (c *Conn) State() api.State { return api.State(c.state.Load()) }

// Close starts a graceful local close: a close frame is flushed to the
// peer and the socket is then torn down.
func (c *Conn) Close() {
	c.beginClose(protocol.CloseNormal, "")
}

// start launches the read and write loops. initial carries any bytes the
// client pipelined behind the handshake request.
func (c *Conn) start(initial []byte) {
	go c.writeLoop()
	go c.readLoop(initial)
}

// feed appends p to the pending buffer and drains every complete frame
// from it. Incomplete trailing bytes stay buffered for the next read.
// It runs on the read loop; tests call it directly to exercise chunking.
func (c *Conn) feed(p []byte) {
	if c.State() == api.StateClosed {
		return
	}

	c.pending = append(c.pending, p...)
	if len(c.pending) > c.engine.cfg.MaxPending {
		c.engine.log.Warn("pending buffer limit exceeded",
			zap.String("conn", c.id),
			zap.Int("pending", len(c.pending)))
		c.engine.metrics.protocolError()
		c.beginClose(protocol.CloseTooLarge, api.ErrBufferLimit.Error())
		return
	}

	frames, rest, err := protocol.DecodeFrames(c.pending, c.engine.cfg.MaxFramePayload)
	c.pending = append(c.pending[:0], rest...)

	for i := range frames {
		if c.State() == api.StateClosed {
			return
		}
		c.handleFrame(&frames[i])
	}

	if err != nil {
		code := protocol.CloseProtocolError
		if errors.Is(err, api.ErrFrameTooLarge) {
			code = protocol.CloseTooLarge
		}
		c.engine.log.Warn("protocol error",
			zap.String("conn", c.id),
			zap.Error(err))
		c.engine.metrics.protocolError()
		c.beginClose(code, err.Error())
	}
}

func (c *Conn) handleFrame(f *protocol.Frame) {
	switch f.Opcode {
	case protocol.OpcodeText, protocol.OpcodeBinary:
		if !f.Fin {
			c.rejectFragmentation()
			return
		}
		if c.State() != api.StateOpen {
			return
		}
		c.engine.metrics.message()
		c.engine.emitMessage(c, f.Payload)

	case protocol.OpcodeContinuation:
		c.rejectFragmentation()

	case protocol.OpcodePing:
		// Reply in kind with the same payload.
		c.enqueueFrame(protocol.EncodeFrame(protocol.OpcodePong, f.Payload))

	case protocol.OpcodePong:
		// Unsolicited or answering pong; nothing to do.

	case protocol.OpcodeClose:
		c.handleCloseFrame(f)
	}
}

// rejectFragmentation closes the connection with 1002. Message
// fragmentation is deliberately unsupported; rejecting it loudly beats
// silently reassembling it wrong.
func (c *Conn) rejectFragmentation() {
	c.engine.log.Warn("fragmented message rejected", zap.String("conn", c.id))
	c.engine.metrics.protocolError()
	c.beginClose(protocol.CloseProtocolError, api.ErrFragmented.Error())
}

func (c *Conn) handleCloseFrame(f *protocol.Frame) {
	if c.state.CompareAndSwap(int32(api.StateOpen), int32(api.StateClosing)) {
		// Peer-initiated close: echo the status code, then tear down
		// once the echo is flushed.
		code, _ := protocol.DecodeClosePayload(f.Payload)
		c.enqueueCloseFrame(code, "")
		return
	}
	// We initiated the closing handshake and this is the peer's echo.
	c.terminate(nil)
}

// beginClose moves an open connection into the closing handshake with the
// given status code. Calls on a connection already past StateOpen are
// no-ops.
func (c *Conn) beginClose(code uint16, reason string) {
	if !c.state.CompareAndSwap(int32(api.StateOpen), int32(api.StateClosing)) {
		return
	}
	c.enqueueCloseFrame(code, reason)
}

func (c *Conn) enqueueCloseFrame(code uint16, reason string) {
	frame := protocol.EncodeFrame(protocol.OpcodeClose, protocol.EncodeClosePayload(code, reason))
	c.outMu.Lock()
	c.out.Add(frame)
	c.closeAfterFlush = true
	c.outMu.Unlock()
	c.wake()
}

// enqueueFrame queues an already-encoded frame for the write loop. Frames
// queued after a close frame are dropped; nothing may follow a close on
// the wire.
func (c *Conn) enqueueFrame(frame []byte) {
	c.outMu.Lock()
	if c.closeAfterFlush {
		c.outMu.Unlock()
		return
	}
	c.out.Add(frame)
	c.outMu.Unlock()
	c.wake()
}

// sendText queues an encoded data frame if the connection is still open.
// It reports whether the frame was queued.
func (c *Conn) sendText(frame []byte) bool {
	if c.State() != api.StateOpen {
		return false
	}
	c.enqueueFrame(frame)
	return true
}

func (c *Conn) wake() {
	select {
	case c.wakeup <- struct{}{}:
	default:
	}
}

// readLoop pulls raw bytes off the socket and feeds the codec. An I/O
// error while the connection is open is abrupt: no close frame is
// exchanged and the error surfaces through the error event.
func (c *Conn) readLoop(initial []byte) {
	if len(initial) > 0 {
		c.feed(initial)
	}
	buf := make([]byte, c.engine.cfg.ReadBufferSize)
	for {
		n, err := c.netConn.Read(buf)
		if n > 0 {
			c.feed(buf[:n])
		}
		if err != nil {
			if c.State() == api.StateOpen {
				c.terminate(fmt.Errorf("read: %w", err))
			} else {
				c.terminate(nil)
			}
			return
		}
	}
}

// writeLoop drains the outbound FIFO. Once a close frame has been flushed
// the loop tears the connection down.
func (c *Conn) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case <-c.wakeup:
		}

		for {
			c.outMu.Lock()
			if c.out.Length() == 0 {
				flush := c.closeAfterFlush
				c.outMu.Unlock()
				if flush {
					c.terminate(nil)
					return
				}
				break
			}
			frame := c.out.Remove().([]byte)
			c.outMu.Unlock()

			if t := c.engine.cfg.WriteTimeout; t > 0 {
				_ = c.netConn.SetWriteDeadline(time.Now().Add(t))
			}
			if _, err := c.netConn.Write(frame); err != nil {
				c.terminate(fmt.Errorf("write: %w", err))
				return
			}
			c.engine.metrics.frameSent()
		}
	}
}

// terminate moves the connection into its terminal state exactly once:
// socket closed, registry membership dropped, error (when abrupt) and
// close events emitted.
func (c *Conn) terminate(cause error) {
	c.closeOnce.Do(func() {
		c.state.Store(int32(api.StateClosed))
		close(c.done)
		_ = c.netConn.Close()
		c.engine.registry.remove(c)
		c.engine.metrics.connClosed()
		if cause != nil {
			c.engine.log.Debug("connection error",
				zap.String("conn", c.id),
				zap.Error(cause))
			c.engine.emitError(c, cause)
		} else {
			c.engine.log.Debug("connection closed", zap.String("conn", c.id))
		}
		c.engine.emitClose(c)
	})
}
