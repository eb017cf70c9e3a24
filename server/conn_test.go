// File: server/conn_test.go
// License: Apache-2.0

package server

import (
	"bytes"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/patternforge/live-ws/api"
	"github.com/patternforge/live-ws/protocol"
)

// recorder collects engine events for assertions.
type recorder struct {
	mu     sync.Mutex
	conns  []*Conn
	msgs   []string
	closes int
	errs   []error
}

func (r *recorder) OnConnection(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns = append(r.conns, c)
}

func (r *recorder) OnMessage(c *Conn, payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, string(payload))
}

func (r *recorder) OnClose(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closes++
}

func (r *recorder) OnError(c *Conn, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

func (r *recorder) closeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closes
}

func (r *recorder) errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

// newTestConn wires a Conn to one end of an in-memory pipe without going
// through HTTP, so tests can drive feed directly. The peer end is returned
// for reading what the connection writes.
func newTestConn(t *testing.T, cfg *Config, rec *recorder) (*Conn, net.Conn, *Engine) {
	t.Helper()
	e := New(cfg, WithHandler(rec))
	local, peer := net.Pipe()
	c := newConn(e, local, "test#1")
	e.registry.add(c)
	t.Cleanup(func() {
		_ = local.Close()
		_ = peer.Close()
	})
	return c, peer, e
}

// readFrame reads exactly one frame off the peer end.
func readFrame(t *testing.T, peer net.Conn) protocol.Frame {
	t.Helper()
	_ = peer.SetReadDeadline(time.Now().Add(2 * time.Second))
	var pending []byte
	buf := make([]byte, 4096)
	for {
		n, err := peer.Read(buf)
		require.NoError(t, err)
		pending = append(pending, buf[:n]...)
		frames, rest, err := protocol.DecodeFrames(pending, 0)
		require.NoError(t, err)
		if len(frames) > 0 {
			require.Empty(t, rest)
			require.Len(t, frames, 1)
			return frames[0]
		}
	}
}

func waitState(t *testing.T, c *Conn, want api.State) {
	t.Helper()
	require.Eventually(t, func() bool { return c.State() == want },
		2*time.Second, 5*time.Millisecond)
}

func TestFeedPartialFrameHoldback(t *testing.T) {
	rec := &recorder{}
	c, _, _ := newTestConn(t, nil, rec)

	full := protocol.EncodeFrame(protocol.OpcodeText, bytes.Repeat([]byte{'a'}, 100))
	c.feed(full[:5])

	require.Empty(t, rec.messages())
	require.Equal(t, full[:5], c.pending)
	require.Equal(t, api.StateOpen, c.State())
}

func TestFeedChunkedDeliveryMatchesWhole(t *testing.T) {
	payload := "healing.progress 42%"
	raw := protocol.EncodeFrame(protocol.OpcodeText, []byte(payload))

	for cut := 1; cut < len(raw); cut++ {
		rec := &recorder{}
		c, _, _ := newTestConn(t, nil, rec)
		c.feed(raw[:cut])
		c.feed(raw[cut:])
		require.Equal(t, []string{payload}, rec.messages(), "split at %d", cut)
		require.Empty(t, c.pending)
	}
}

func TestFeedCoalescedFrames(t *testing.T) {
	rec := &recorder{}
	c, _, _ := newTestConn(t, nil, rec)

	var buf []byte
	buf = append(buf, protocol.EncodeFrame(protocol.OpcodeText, []byte("one"))...)
	buf = append(buf, protocol.EncodeFrame(protocol.OpcodeText, []byte("two"))...)
	c.feed(buf)

	require.Equal(t, []string{"one", "two"}, rec.messages())
}

func TestFeedBinaryFrameDispatched(t *testing.T) {
	rec := &recorder{}
	c, _, _ := newTestConn(t, nil, rec)

	payload := []byte{0x00, 0xFF, 0x10, 0x7F}
	c.feed(protocol.EncodeFrame(protocol.OpcodeBinary, payload))

	require.Equal(t, []string{string(payload)}, rec.messages())
	require.Equal(t, api.StateOpen, c.State())
}

func TestPingRepliesPongInKind(t *testing.T) {
	rec := &recorder{}
	c, peer, _ := newTestConn(t, nil, rec)
	go c.writeLoop()

	c.feed(protocol.EncodeFrame(protocol.OpcodePing, []byte("beat")))

	pong := readFrame(t, peer)
	require.Equal(t, protocol.OpcodePong, pong.Opcode)
	require.Equal(t, "beat", string(pong.Payload))
	require.Empty(t, rec.messages(), "ping must not surface as a message")
	require.Equal(t, api.StateOpen, c.State())
}

func TestCloseFrameEchoedThenClosed(t *testing.T) {
	rec := &recorder{}
	c, peer, e := newTestConn(t, nil, rec)
	go c.writeLoop()

	payload := protocol.EncodeClosePayload(protocol.CloseNormal, "bye")
	c.feed(protocol.EncodeFrame(protocol.OpcodeClose, payload))

	echo := readFrame(t, peer)
	require.Equal(t, protocol.OpcodeClose, echo.Opcode)
	code, _ := protocol.DecodeClosePayload(echo.Payload)
	require.Equal(t, protocol.CloseNormal, code)

	waitState(t, c, api.StateClosed)
	require.Equal(t, 1, rec.closeCount())
	require.Empty(t, rec.errors(), "graceful close is not an error")
	require.Zero(t, e.Clients())
}

func TestProtocolErrorClosesWith1002(t *testing.T) {
	rec := &recorder{}
	c, peer, _ := newTestConn(t, nil, rec)
	go c.writeLoop()

	bad := protocol.EncodeFrame(protocol.OpcodeText, []byte("x"))
	bad[0] |= 0x40 // RSV1
	c.feed(bad)

	closeFrame := readFrame(t, peer)
	require.Equal(t, protocol.OpcodeClose, closeFrame.Opcode)
	code, _ := protocol.DecodeClosePayload(closeFrame.Payload)
	require.Equal(t, protocol.CloseProtocolError, code)

	waitState(t, c, api.StateClosed)
	require.Equal(t, 1, rec.closeCount())
}

func TestFragmentedMessageRejected(t *testing.T) {
	rec := &recorder{}
	c, peer, _ := newTestConn(t, nil, rec)
	go c.writeLoop()

	// A text frame with FIN clear opens a fragmented message.
	frag := protocol.EncodeFrame(protocol.OpcodeText, []byte("part"))
	frag[0] &^= 0x80
	c.feed(frag)

	closeFrame := readFrame(t, peer)
	code, _ := protocol.DecodeClosePayload(closeFrame.Payload)
	require.Equal(t, protocol.CloseProtocolError, code)
	require.Empty(t, rec.messages())
}

func TestOversizeFrameClosesWith1009(t *testing.T) {
	rec := &recorder{}
	cfg := DefaultConfig()
	cfg.MaxFramePayload = 64
	c, peer, _ := newTestConn(t, cfg, rec)
	go c.writeLoop()

	c.feed(protocol.EncodeFrame(protocol.OpcodeText, bytes.Repeat([]byte{'z'}, 200)))

	closeFrame := readFrame(t, peer)
	code, _ := protocol.DecodeClosePayload(closeFrame.Payload)
	require.Equal(t, protocol.CloseTooLarge, code)
	waitState(t, c, api.StateClosed)
}

func TestPendingBufferLimitClosesWith1009(t *testing.T) {
	rec := &recorder{}
	cfg := DefaultConfig()
	cfg.MaxPending = 16
	c, peer, _ := newTestConn(t, cfg, rec)
	go c.writeLoop()

	// An incomplete frame whose bytes keep accumulating past the cap.
	header := protocol.EncodeFrame(protocol.OpcodeText, bytes.Repeat([]byte{'q'}, 200))
	c.feed(header[:24])

	closeFrame := readFrame(t, peer)
	code, _ := protocol.DecodeClosePayload(closeFrame.Payload)
	require.Equal(t, protocol.CloseTooLarge, code)
	waitState(t, c, api.StateClosed)
}

func TestAbruptPeerDisconnect(t *testing.T) {
	rec := &recorder{}
	c, peer, e := newTestConn(t, nil, rec)
	c.start(nil)

	_ = peer.Close()

	waitState(t, c, api.StateClosed)
	require.Equal(t, 1, rec.closeCount())
	require.Len(t, rec.errors(), 1, "abrupt teardown carries the cause")
	require.Zero(t, e.Clients())
}

func TestSendIsNoopWhenNotOpen(t *testing.T) {
	rec := &recorder{}
	c, _, e := newTestConn(t, nil, rec)
	c.terminate(nil)

	require.NoError(t, e.Send(c, "late"))
	c.outMu.Lock()
	defer c.outMu.Unlock()
	require.Zero(t, c.out.Length())
}

func TestTerminateIsIdempotent(t *testing.T) {
	rec := &recorder{}
	c, _, e := newTestConn(t, nil, rec)

	c.terminate(nil)
	c.terminate(nil)
	c.terminate(nil)

	require.Equal(t, 1, rec.closeCount())
	require.Zero(t, e.Clients())
}
