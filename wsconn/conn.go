// Package wsconn implements the per-connection state machine: parse the
// upgrade request, negotiate the handshake, then run the frame loop of
// spec.md §4.5, dispatching decoded frames to an application Handler.
//
// Grounded on the teacher's protocol/connection.go (WSConnection):
// the recvLoop/handleControl/GetStats shape survives here as
// runFrameLoop/dispatch/metrics recording, generalized from the
// teacher's channel-based recvLoop/sendLoop pair (two goroutines moving
// frames through inbox/outbox channels) to the single-goroutine
// cooperative loop spec.md §5 mandates — there is exactly one logical
// task per connection, so the teacher's inbox/outbox channels collapse
// into the synchronous dispatch calls below and an outbound FIFO that
// drains before the next blocking read.
package wsconn

import (
	"io"
	"sync/atomic"

	"github.com/momentics/wscore/bview"
	"github.com/momentics/wscore/control"
	"github.com/momentics/wscore/handshake"
	"github.com/momentics/wscore/httpreq"
	"github.com/momentics/wscore/internal/protoerr"
	"github.com/momentics/wscore/pool"
	"github.com/momentics/wscore/wsframe"
)

// OutputSink is the flushable byte sink a Conn writes the handshake
// response and outbound frames to. transport/tcp's connection wrapper
// is the concrete implementation; tests use an in-memory one.
type OutputSink interface {
	io.Writer
	Flush() error
}

// Conn is the per-connection state machine. It owns no mutable state
// shared with any other connection — the one exception, per spec.md
// §5, is the process-wide immutable header table and GUID, which live
// in httpreq and handshake, not here.
type Conn struct {
	ID      string
	src     *bview.Source
	sink    OutputSink
	handler Handler
	metrics *control.MetricsRegistry
	pool    *pool.BufferPool

	// trace, if non-nil, is called at the handshake-complete and
	// frame-dispatched lifecycle transitions; server.Server supplies a
	// closure gated on its own debug flag. wsconn cannot import server
	// (server already imports wsconn), so this stays a plain func field.
	trace func(connID, event, detail string)

	outbound *outboundQueue

	Host        string
	Origin      string
	Protocol    string
	RequestLine string
	Variant     handshake.Variant

	framesReceived int64
	framesSent     int64
	bytesReceived  int64
	bytesSent      int64
}

// Options bundles the per-connection construction parameters. The
// handshake options themselves are passed separately to Serve, since
// they're negotiated once per connection rather than stored.
type Options struct {
	OutboundCapacity int
	Metrics          *control.MetricsRegistry
	Pool             *pool.BufferPool
	Trace            func(connID, event, detail string)
}

// NewConn builds a Conn ready to Serve a single accepted connection.
// id is an opaque label (e.g. the remote address) used to key metrics.
func NewConn(id string, src *bview.Source, sink OutputSink, handler Handler, opts Options) *Conn {
	if handler == nil {
		handler = NopHandler{}
	}
	bufPool := opts.Pool
	if bufPool == nil {
		bufPool = pool.NewBufferPool()
	}
	return &Conn{
		ID:       id,
		src:      src,
		sink:     sink,
		handler:  handler,
		metrics:  opts.Metrics,
		pool:     bufPool,
		trace:    opts.Trace,
		outbound: newOutboundQueue(opts.OutboundCapacity),
	}
}

// Serve runs the connection to completion: parses the upgrade request,
// negotiates the handshake, and — on success — runs the frame loop.
// It always returns after the connection's work is done (successfully
// or not) and has torn the connection down before returning.
func (c *Conn) Serve(opts handshake.Options) error {
	req, err := httpreq.NewParser().Parse(c.src)
	if err != nil {
		c.teardown()
		return err
	}

	result, err := handshake.Negotiate(req, opts)
	if err != nil {
		c.recordMetric("handshakes_failed", 1)
		c.teardown()
		return err
	}

	if !c.handler.OnAuthenticate(c) {
		c.recordMetric("handshakes_failed", 1)
		c.teardown()
		return protoerr.New(protoerr.KindAuthRefused, "application rejected the connection")
	}

	c.Host = result.Host
	c.Origin = result.Origin
	c.Protocol = result.Protocol
	c.RequestLine = result.RequestLine
	c.Variant = result.Variant

	if err := handshake.WriteResponse(c.sink, result); err != nil {
		c.teardown()
		return err
	}
	if err := c.sink.Flush(); err != nil {
		c.teardown()
		return err
	}
	c.recordMetric("handshakes_ok", 1)
	c.emitTrace("handshake-complete", result.RequestLine)

	c.handler.OnHandshakeComplete(c)

	err = c.runFrameLoop()
	c.teardown()
	return err
}

// runFrameLoop implements spec.md §4.5 verbatim: read a view, try to
// decode a frame, validate and dispatch it, then mark the header and
// payload consumed together (the pseudocode's two-step consume — header
// first, then the payload slice — has the same net effect as consuming
// both at once, since nothing observes the view between the two steps).
func (c *Conn) runFrameLoop() error {
	for {
		// Drain frames queued by the previous dispatch (auto Pong, or a
		// handler's Send*) before blocking for more input.
		if err := c.flushOutbound(); err != nil {
			return err
		}
		v, err := c.src.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		frame, hdrLen, decodeErr := wsframe.TryReadFrame(v)
		if decodeErr == wsframe.ErrNeedMore {
			c.src.Consumed(0)
			continue
		}
		if decodeErr == wsframe.ErrPayloadTooLarge {
			return protoerr.New(protoerr.KindPayloadTooLarge, "frame payload exceeds the 2^31-1 limit")
		}
		if decodeErr != nil {
			return decodeErr
		}

		if err := validateFrame(frame); err != nil {
			return err
		}

		payload := v.SliceFrom(bview.Cursor(hdrLen)).Truncate(int(frame.PayloadLength))

		atomic.AddInt64(&c.framesReceived, 1)
		atomic.AddInt64(&c.bytesReceived, frame.PayloadLength)
		c.recordMetric("frames_received", atomic.LoadInt64(&c.framesReceived))
		c.recordMetric("bytes_received", atomic.LoadInt64(&c.bytesReceived))

		opcode := frame.Opcode()
		if err := c.dispatch(frame, payload); err != nil {
			return err
		}
		c.emitTrace("frame-dispatched", opcode.String())

		c.src.Consumed(bview.Cursor(hdrLen) + bview.Cursor(frame.PayloadLength))

		if opcode == wsframe.OpClose {
			return nil
		}
	}
}

// validateFrame implements spec.md §4.2's dispatch-time validation,
// plus the reserved-opcode rejection this module's open-question
// resolution places here rather than in wsframe.TryReadFrame.
func validateFrame(f wsframe.Frame) error {
	if !f.Masked {
		return protoerr.New(protoerr.KindUnmaskedClientFrame, "client-to-server frame must be masked")
	}
	if f.IsControlFrame() && !f.IsFinal() {
		return protoerr.New(protoerr.KindFragmentedControlFrame, "control frames must not be fragmented")
	}
	if f.IsReservedOpcode() {
		return protoerr.New(protoerr.KindReservedOpcode, "reserved opcode")
	}
	return nil
}

// GetStats returns a snapshot of this connection's counters, mirroring
// the teacher's WSConnection.GetStats().
func (c *Conn) GetStats() map[string]int64 {
	return map[string]int64{
		"frames_received": atomic.LoadInt64(&c.framesReceived),
		"frames_sent":     atomic.LoadInt64(&c.framesSent),
		"bytes_received":  atomic.LoadInt64(&c.bytesReceived),
		"bytes_sent":      atomic.LoadInt64(&c.bytesSent),
	}
}

// emitTrace calls the injected trace hook, if any. It is a no-op when
// no hook was supplied (the default for tests and any Options literal
// that doesn't set Trace).
func (c *Conn) emitTrace(event, detail string) {
	if c.trace != nil {
		c.trace(c.ID, event, detail)
	}
}

func (c *Conn) recordMetric(name string, delta int64) {
	if c.metrics == nil {
		return
	}
	c.metrics.Set(c.ID+"."+name, delta)
}

// teardown completes the output half first, then the input half,
// swallowing any error from either — spec.md §4.5 "Teardown". Closing
// the sink also terminates the underlying transport's read side in the
// concrete net.Conn-backed implementation, standing in for a separate
// "complete the input channel" step.
func (c *Conn) teardown() {
	_ = c.flushOutbound()
	if closer, ok := c.sink.(io.Closer); ok {
		_ = closer.Close()
	}
}
