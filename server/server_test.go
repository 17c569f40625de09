package server

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/momentics/wscore/wsconn"
)

type echoHandler struct {
	wsconn.NopHandler
}

func (echoHandler) OnText(c *wsconn.Conn, text string) {
	_ = c.SendText(text)
}

func TestServeUpgradeAndEcho(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BindAddress = "127.0.0.1"
	cfg.Port = 0
	cfg.ShutdownTimeout = 2 * time.Second

	s := NewServer(cfg)

	done := make(chan error, 1)
	go func() { done <- s.Serve(echoHandler{}) }()

	select {
	case <-s.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("server never became ready")
	}

	conn, err := net.Dial("tcp", s.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	_, err = conn.Write([]byte("GET /chat HTTP/1.1\r\n" +
		"Host: server\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n" +
		"Sec-WebSocket-Version: 13\r\n" +
		"\r\n"))
	if err != nil {
		t.Fatalf("write upgrade request: %v", err)
	}

	// Masked "Hi" text frame.
	frame := []byte{0x81, 0x82, 0x00, 0x00, 0x00, 0x00, 'H', 'i'}
	if _, err := conn.Write(frame); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	br := bufio.NewReader(conn)
	statusLine, err := br.ReadString('\n')
	if err != nil {
		t.Fatalf("read status line: %v", err)
	}
	if statusLine != "HTTP/1.1 101 Switching Protocols\r\n" {
		t.Fatalf("status line = %q", statusLine)
	}
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			t.Fatalf("read headers: %v", err)
		}
		if line == "\r\n" {
			break
		}
	}

	echoHdr := make([]byte, 2)
	if _, err := br.Read(echoHdr); err != nil {
		t.Fatalf("read echoed frame header: %v", err)
	}
	if echoHdr[0] != 0x81 || echoHdr[1] != 0x02 {
		t.Fatalf("echoed frame header = % x, want 81 02", echoHdr)
	}
	payload := make([]byte, 2)
	if _, err := br.Read(payload); err != nil {
		t.Fatalf("read echoed payload: %v", err)
	}
	if string(payload) != "Hi" {
		t.Fatalf("echoed payload = %q, want Hi", payload)
	}

	conn.Close()
	s.Shutdown()
	s.Shutdown() // must not panic or block when called twice

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Shutdown")
	}
}

func TestServerUpdateConfigAppliesToRuntimeSnapshot(t *testing.T) {
	s := NewServer(DefaultConfig())

	s.UpdateConfig(map[string]any{"channel_capacity": 7, "numa_node": 3})

	snap := s.runtimeSnapshot()
	if snap.ChannelCapacity != 7 {
		t.Fatalf("ChannelCapacity = %d, want 7", snap.ChannelCapacity)
	}
	if snap.NUMANode != 3 {
		t.Fatalf("NUMANode = %d, want 3", snap.NUMANode)
	}

	probes := s.DebugProbes().DumpState()
	rc, ok := probes["runtime_config"].(runtimeConfig)
	if !ok || rc.ChannelCapacity != 7 {
		t.Fatalf("runtime_config probe = %v, want ChannelCapacity 7", probes["runtime_config"])
	}
}

func TestServerMetricsExercisedAfterEcho(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BindAddress = "127.0.0.1"
	cfg.Port = 0
	cfg.ShutdownTimeout = 2 * time.Second

	s := NewServer(cfg)
	done := make(chan error, 1)
	go func() { done <- s.Serve(echoHandler{}) }()

	select {
	case <-s.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("server never became ready")
	}

	conn, err := net.Dial("tcp", s.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	_, err = conn.Write([]byte("GET /chat HTTP/1.1\r\n" +
		"Host: server\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n" +
		"Sec-WebSocket-Version: 13\r\n" +
		"\r\n"))
	if err != nil {
		t.Fatalf("write upgrade request: %v", err)
	}
	frame := []byte{0x81, 0x82, 0x00, 0x00, 0x00, 0x00, 'H', 'i'}
	if _, err := conn.Write(frame); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	br := bufio.NewReader(conn)
	if _, err := br.ReadBytes('\n'); err != nil {
		t.Fatalf("read status line: %v", err)
	}
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			t.Fatalf("read headers: %v", err)
		}
		if line == "\r\n" {
			break
		}
	}
	echoed := make([]byte, 4)
	if _, err := br.Read(echoed); err != nil {
		t.Fatalf("read echoed frame: %v", err)
	}

	if len(s.Metrics().GetSnapshot()) == 0 {
		t.Fatal("Metrics().GetSnapshot() is empty after handshake and echo activity")
	}

	conn.Close()
	s.Shutdown()
	<-done
}

func TestServerTraceGatedByEnableDebug(t *testing.T) {
	var fired bool
	orig := Trace
	Trace = func(msg string, args ...any) { fired = true }
	defer func() { Trace = orig }()

	cfg := DefaultConfig()
	cfg.EnableDebug = false
	s := NewServer(cfg)
	s.trace("should not fire")
	if fired {
		t.Fatal("Trace fired despite EnableDebug=false")
	}

	s.cfg.EnableDebug = true
	s.trace("should fire")
	if !fired {
		t.Fatal("Trace did not fire despite EnableDebug=true")
	}
}
