package tcp

import (
	"io"
	"net"
	"testing"
	"time"
)

func TestListenAndEcho(t *testing.T) {
	ln, err := Listen(ListenerConfig{Addr: "127.0.0.1:0", ReuseAddr: true, TCPNoDelay: true})
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		c, err := ln.Accept(0, 0, 0)
		if err != nil {
			return
		}
		defer c.Close()
		v, err := c.Source.Next()
		if err != nil {
			return
		}
		_, _ = c.Write(v.Clone())
		_ = c.Flush()
	}()

	cliConn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer cliConn.Close()

	if _, err := cliConn.Write([]byte("ping")); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf := make([]byte, 4)
	if _, err := io.ReadFull(cliConn, buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(buf) != "ping" {
		t.Fatalf("got %q, want ping", buf)
	}
	<-done
}

func TestAcceptReadTimeoutFires(t *testing.T) {
	ln, err := Listen(ListenerConfig{Addr: "127.0.0.1:0", ReuseAddr: true})
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	serverErr := make(chan error, 1)
	go func() {
		c, err := ln.Accept(0, 20*time.Millisecond, 0)
		if err != nil {
			serverErr <- err
			return
		}
		defer c.Close()
		_, err = c.Source.Next()
		serverErr <- err
	}()

	cliConn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer cliConn.Close()

	select {
	case err := <-serverErr:
		if err == nil {
			t.Fatal("expected a read deadline error, got nil")
		}
		ne, ok := err.(net.Error)
		if !ok || !ne.Timeout() {
			t.Fatalf("expected a net.Error timeout, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("read deadline never fired")
	}
}
