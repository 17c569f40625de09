// File: server/server.go
// The Server facade: binds a tcp.Listener, and for each accepted
// connection constructs a wsconn.Conn backed by a shared pool.BufferPool
// and control.MetricsRegistry, then runs it to completion in its own
// goroutine — one logical task per connection, per spec.md §5.
//
// Grounded on the teacher's server/server.go (NewServer/Serve/Shutdown
// shape) and server/run.go (accept loop + graceful-shutdown-with-
// timeout pattern), adapted from the teacher's reactor/poller-driven
// event loop to wsconn's single-goroutine-per-connection model.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/momentics/wscore/control"
	"github.com/momentics/wscore/handshake"
	"github.com/momentics/wscore/pool"
	"github.com/momentics/wscore/transport/tcp"
	"github.com/momentics/wscore/wsconn"
)

// ErrAlreadyRunning is returned by Serve if called more than once.
var ErrAlreadyRunning = errors.New("server already running")

// runtimeConfig is the subset of Config that can be retuned after
// Serve has already started, via UpdateConfig/configStore's reload
// listener. Every accept and every new connection reads from this
// snapshot rather than from the static cfg fields.
type runtimeConfig struct {
	IOBufferSize    int
	ChannelCapacity int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	NUMANode        int
}

// Server is the high-level facade encapsulating the listener, buffer
// pool, and control surfaces.
type Server struct {
	cfg *Config

	pool        *pool.BufferPool
	metrics     *control.MetricsRegistry
	debugProbes *control.DebugProbes
	configStore *control.ConfigStore

	runtimeMu sync.RWMutex
	runtime   runtimeConfig

	ln          *tcp.Listener
	shutdown    chan struct{}
	ready       chan struct{}
	wg          sync.WaitGroup
	activeConns int64

	mu      sync.Mutex
	running bool
	connSeq int64
}

// NewServer builds the Server facade without binding a socket yet;
// the socket is opened by Serve.
func NewServer(cfg *Config, opts ...Option) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := &Server{
		cfg:         cfg,
		pool:        pool.NewBufferPool(),
		metrics:     control.NewMetricsRegistry(),
		debugProbes: control.NewDebugProbes(),
		configStore: control.NewConfigStore(),
		shutdown:    make(chan struct{}),
		ready:       make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}

	// Seed runtime/configStore from cfg only after opts have had a chance
	// to mutate it, so a WithNUMANode/WithIOBufferSize-style option is
	// reflected in the first runtime snapshot rather than overwritten by
	// stale pre-option defaults.
	s.runtime = runtimeConfig{
		IOBufferSize:    cfg.IOBufferSize,
		ChannelCapacity: cfg.ChannelCapacity,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		NUMANode:        cfg.NUMANode,
	}
	s.debugProbes.RegisterProbe("runtime_config", func() any { return s.runtimeSnapshot() })
	s.debugProbes.RegisterProbe("active_connections", func() any { return atomic.LoadInt64(&s.activeConns) })
	s.configStore.OnReload(s.applyConfigOverlay)
	s.configStore.SetConfig(cfg.Overlay())
	return s
}

// UpdateConfig merges overlay into the hot-reloadable config store,
// which immediately (SetConfig's listeners run synchronously) applies
// any recognized keys to the runtime config snapshot future accepts
// and connections read from — no restart required.
func (s *Server) UpdateConfig(overlay map[string]any) {
	s.configStore.SetConfig(overlay)
}

func (s *Server) runtimeSnapshot() runtimeConfig {
	s.runtimeMu.RLock()
	defer s.runtimeMu.RUnlock()
	return s.runtime
}

// applyConfigOverlay folds the config store's current overlay onto the
// runtime snapshot. It is registered as a ConfigStore reload listener
// in NewServer, so every SetConfig call (including the one NewServer
// itself makes to seed the overlay) runs it.
func (s *Server) applyConfigOverlay() {
	snap := s.configStore.GetSnapshot()
	s.runtimeMu.Lock()
	defer s.runtimeMu.Unlock()
	if v, ok := snap["io_buffer_size"].(int); ok {
		s.runtime.IOBufferSize = v
	}
	if v, ok := snap["channel_capacity"].(int); ok {
		s.runtime.ChannelCapacity = v
	}
	if v, ok := snap["read_timeout"].(time.Duration); ok {
		s.runtime.ReadTimeout = v
	}
	if v, ok := snap["write_timeout"].(time.Duration); ok {
		s.runtime.WriteTimeout = v
	}
	if v, ok := snap["numa_node"].(int); ok {
		s.runtime.NUMANode = v
	}
}

// Serve binds the configured address and accepts connections until
// Shutdown is called, dispatching each to handler on its own
// goroutine. It blocks until shutdown completes.
func (s *Server) Serve(handler wsconn.Handler) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.running = true
	s.mu.Unlock()

	addr := fmt.Sprintf("%s:%d", s.cfg.BindAddress, s.cfg.Port)
	ln, err := tcp.Listen(tcp.ListenerConfig{
		Addr:         addr,
		IOBufferSize: s.cfg.IOBufferSize,
		ReuseAddr:    true,
		TCPNoDelay:   true,
	})
	if err != nil {
		return err
	}
	s.ln = ln
	close(s.ready)
	s.trace("listening on %s", addr)

	acceptDone := make(chan struct{})
	go func() {
		defer close(acceptDone)
		for {
			snap := s.runtimeSnapshot()
			conn, err := s.ln.Accept(snap.IOBufferSize, snap.ReadTimeout, snap.WriteTimeout)
			if err != nil {
				select {
				case <-s.shutdown:
					return
				default:
					continue
				}
			}
			s.mu.Lock()
			s.connSeq++
			id := fmt.Sprintf("conn-%d", s.connSeq)
			s.mu.Unlock()

			s.wg.Add(1)
			go s.serveConn(id, conn, handler)
		}
	}()

	<-s.shutdown
	s.ln.Close()
	<-acceptDone

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.trace("shutdown timed out waiting for connections to finish")
	}
	return nil
}

func (s *Server) serveConn(id string, conn *tcp.Connection, handler wsconn.Handler) {
	defer s.wg.Done()
	defer conn.Close()

	atomic.AddInt64(&s.activeConns, 1)
	defer atomic.AddInt64(&s.activeConns, -1)

	s.trace("accepted %s from %s", id, conn.RemoteAddr())

	snap := s.runtimeSnapshot()
	c := wsconn.NewConn(id, conn.Source, conn, handler, wsconn.Options{
		OutboundCapacity: snap.ChannelCapacity,
		Metrics:          s.metrics,
		Pool:             s.pool,
		Trace: func(connID, event, detail string) {
			s.trace("%s %s: %s", connID, event, detail)
		},
	})
	opts := handshake.Options{AllowClientsMissingConnectionHeaders: s.cfg.LenientConnectionHeader}
	if err := c.Serve(opts); err != nil {
		s.trace("%s closed: %v", id, err)
		return
	}
	s.trace("%s closed", id)
}

// Shutdown signals Serve to stop accepting new connections and wait
// for in-flight connections to finish, up to Config.ShutdownTimeout.
func (s *Server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.trace("shutting down: metrics=%v probes=%v", s.metrics.GetSnapshot(), s.debugProbes.DumpState())
	select {
	case <-s.shutdown:
	default:
		close(s.shutdown)
	}
}

// Ready is closed once the listener is bound and Addr is safe to call.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Addr returns the bound listener address. Only valid after Ready is
// closed.
func (s *Server) Addr() net.Addr { return s.ln.Addr() }

// Metrics exposes the server's shared metrics registry.
func (s *Server) Metrics() *control.MetricsRegistry { return s.metrics }

// DebugProbes exposes the server's debug probe registry.
func (s *Server) DebugProbes() *control.DebugProbes { return s.debugProbes }

// ConfigStore exposes the hot-reloadable configuration overlay.
func (s *Server) ConfigStore() *control.ConfigStore { return s.configStore }

// BufferPool exposes the server's shared output buffer pool.
func (s *Server) BufferPool() *pool.BufferPool { return s.pool }
