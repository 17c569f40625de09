// Package tcp provides the TCP listener and per-connection transport
// wrapper wsconn.Conn runs against: a net.Listener with SO_REUSEADDR set
// via golang.org/x/sys/unix and TCP_NODELAY set on each accepted
// connection through net.TCPConn.SetNoDelay, and a connection
// wrapper exposing the bview.Source and wsconn.OutputSink a Conn needs.
//
// Grounded on the teacher's transport/tcp/listener.go (StartTCPListener
// accept-loop shape, one goroutine per accepted connection) — the
// handshake logic that file inlined is no longer needed here, since
// httpreq/handshake/wsconn now own it; what survives is the accept
// loop and the socket-option tuning idiom, the latter adapted from
// rawConn.Control-style socket tuning (seen across the example pack)
// to golang.org/x/sys/unix per SPEC_FULL.md's domain stack.
package tcp

import (
	"bufio"
	"context"
	"net"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/wscore/bview"
)

// ListenerConfig configures the bound socket and the per-connection
// read buffer size used to construct each connection's bview.Source.
type ListenerConfig struct {
	Addr         string
	IOBufferSize int
	ReuseAddr    bool
	TCPNoDelay   bool
}

// Listener wraps a net.Listener tuned per ListenerConfig.
type Listener struct {
	ln  net.Listener
	cfg ListenerConfig
}

// Listen binds Addr, setting SO_REUSEADDR (when ReuseAddr is set) via a
// net.ListenConfig.Control hook, which runs on the raw file descriptor
// before the socket is handed back wrapped in a net.Listener.
// TCPNoDelay is applied later, to each connection, by Accept.
func Listen(cfg ListenerConfig) (*Listener, error) {
	if cfg.IOBufferSize <= 0 {
		cfg.IOBufferSize = 64 * 1024
	}
	lc := net.ListenConfig{
		Control: func(network, address string, rawConn syscall.RawConn) error {
			var ctrlErr error
			err := rawConn.Control(func(fd uintptr) {
				if cfg.ReuseAddr {
					if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
						ctrlErr = err
						return
					}
				}
			})
			if err != nil {
				return err
			}
			return ctrlErr
		},
	}
	ln, err := lc.Listen(context.Background(), "tcp", cfg.Addr)
	if err != nil {
		return nil, err
	}
	return &Listener{ln: ln, cfg: cfg}, nil
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Close stops accepting new connections.
func (l *Listener) Close() error { return l.ln.Close() }

// Accept blocks for the next inbound connection and returns it wrapped
// with its bview.Source and OutputSink, socket-option tuned.
//
// ioBufferSize, readTimeout, and writeTimeout are threaded in fresh at
// every call rather than baked into ListenerConfig at bind time, so a
// caller that re-reads them from a hot-reloadable config overlay (see
// server.Server's runtime config snapshot) applies the current value
// to each newly accepted connection without rebinding the listener.
// ioBufferSize <= 0 falls back to the value Listen was called with.
// readTimeout/writeTimeout of 0 disable the corresponding deadline.
func (l *Listener) Accept(ioBufferSize int, readTimeout, writeTimeout time.Duration) (*Connection, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return nil, err
	}
	if l.cfg.TCPNoDelay {
		if tc, ok := conn.(*net.TCPConn); ok {
			_ = tc.SetNoDelay(true)
		}
	}
	if ioBufferSize <= 0 {
		ioBufferSize = l.cfg.IOBufferSize
	}
	return newConnection(conn, ioBufferSize, readTimeout, writeTimeout), nil
}

// Connection bundles a net.Conn with the bview.Source a wsconn.Conn
// reads from and the bufio.Writer it writes through. It implements
// wsconn.OutputSink (Write/Flush) and io.Closer.
type Connection struct {
	conn   net.Conn
	Source *bview.Source
	bw     *bufio.Writer
}

func newConnection(conn net.Conn, ioBufferSize int, readTimeout, writeTimeout time.Duration) *Connection {
	return &Connection{
		conn:   conn,
		Source: bview.NewSource(&deadlineReader{conn: conn, timeout: readTimeout}, ioBufferSize),
		bw:     bufio.NewWriterSize(&deadlineWriter{conn: conn, timeout: writeTimeout}, ioBufferSize),
	}
}

// deadlineReader applies a fresh read deadline before every Read, the
// continuous-operation generalization of the teacher's one-shot
// conn.SetDeadline(time.Now().Add(...)) called once around the
// handshake. A zero timeout leaves no deadline set.
type deadlineReader struct {
	conn    net.Conn
	timeout time.Duration
}

func (r *deadlineReader) Read(p []byte) (int, error) {
	if r.timeout > 0 {
		if err := r.conn.SetReadDeadline(time.Now().Add(r.timeout)); err != nil {
			return 0, err
		}
	}
	return r.conn.Read(p)
}

// deadlineWriter is deadlineReader's write-side counterpart.
type deadlineWriter struct {
	conn    net.Conn
	timeout time.Duration
}

func (w *deadlineWriter) Write(p []byte) (int, error) {
	if w.timeout > 0 {
		if err := w.conn.SetWriteDeadline(time.Now().Add(w.timeout)); err != nil {
			return 0, err
		}
	}
	return w.conn.Write(p)
}

// RemoteAddr identifies the connection for metrics keys and logging.
func (c *Connection) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

func (c *Connection) Write(p []byte) (int, error) { return c.bw.Write(p) }

func (c *Connection) Flush() error { return c.bw.Flush() }

func (c *Connection) Close() error { return c.conn.Close() }
