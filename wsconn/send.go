package wsconn

import (
	"sync/atomic"

	"github.com/momentics/wscore/wsframe"
)

// SendText enqueues a final Text frame. Server-to-client frames are
// never masked (RFC 6455 masking applies client-to-server only).
func (c *Conn) SendText(s string) error {
	return c.sendFrame(wsframe.OpText, []byte(s))
}

// SendBinary enqueues a final Binary frame.
func (c *Conn) SendBinary(payload []byte) error {
	return c.sendFrame(wsframe.OpBinary, payload)
}

// SendPing enqueues a Ping frame. payload is truncated to
// wsframe.MaxControlPayloadLen if longer.
func (c *Conn) SendPing(payload []byte) error {
	return c.sendControlFrame(wsframe.OpPing, payload)
}

// SendClose enqueues a Close frame. Calling this from an OnClose hook
// does not suppress the automatic close echo (dispatch.go) — a
// connection that wants a single Close frame on the wire should rely
// on the automatic echo rather than also calling SendClose.
func (c *Conn) SendClose(payload []byte) error {
	return c.sendControlFrame(wsframe.OpClose, payload)
}

func (c *Conn) sendControlFrame(opcode wsframe.Opcode, payload []byte) error {
	if len(payload) > wsframe.MaxControlPayloadLen {
		payload = payload[:wsframe.MaxControlPayloadLen]
	}
	return c.sendFrame(opcode, payload)
}

func (c *Conn) sendFrame(opcode wsframe.Opcode, payload []byte) error {
	hdrLen := wsframe.HeaderLen(int64(len(payload)), false)
	total := hdrLen + len(payload)

	var frame []byte
	buf := c.pool.Get(total)
	if len(buf.Bytes()) >= total {
		n := wsframe.WriteFrameHeader(buf.Bytes(), true, opcode, int64(len(payload)), 0)
		copy(buf.Bytes()[n:], payload)
		frame = buf.CommitBytes(total)
	} else {
		// Larger than the pool's largest size class: build the frame in
		// an unpooled slice instead.
		buf.Release()
		buf = nil
		frame = make([]byte, total)
		n := wsframe.WriteFrameHeader(frame, true, opcode, int64(len(payload)), 0)
		copy(frame[n:], payload)
	}

	c.outbound.push(outboundFrame{bytes: frame, buf: buf})
	atomic.AddInt64(&c.framesSent, 1)
	atomic.AddInt64(&c.bytesSent, int64(len(payload)))
	c.recordMetric("frames_sent", atomic.LoadInt64(&c.framesSent))
	c.recordMetric("bytes_sent", atomic.LoadInt64(&c.bytesSent))

	if c.outbound.atCapacity() {
		return c.flushOutbound()
	}
	return nil
}

func (c *Conn) flushOutbound() error {
	for {
		f, ok := c.outbound.pop()
		if !ok {
			break
		}
		_, err := c.sink.Write(f.bytes)
		if f.buf != nil {
			f.buf.Release()
		}
		if err != nil {
			return err
		}
	}
	return c.sink.Flush()
}
