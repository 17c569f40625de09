package wsconn

// Handler receives the application-level events the frame loop emits,
// matching spec.md §6 "Events" 1:1. All methods may block the
// connection's goroutine (the loop awaits each call in turn before
// reading the next frame, per spec.md §5's ordering guarantee) — an
// application that needs to hand work off to another goroutine must do
// so itself and return promptly.
type Handler interface {
	// OnAuthenticate is called once, after the handshake negotiates
	// successfully but before the 101 response is written. Returning
	// false rejects the connection with AuthRefused.
	OnAuthenticate(c *Conn) bool
	OnHandshakeComplete(c *Conn)
	OnText(c *Conn, text string)
	OnBinary(c *Conn, payload []byte)
	OnPing(c *Conn, payload []byte)
	OnPong(c *Conn, payload []byte)
	OnClose(c *Conn, payload []byte)
}

// NopHandler is a Handler whose methods all do nothing and whose
// OnAuthenticate always returns true (spec.md §6's documented default).
// Embed it in an application's handler type to override only the
// events it cares about.
type NopHandler struct{}

func (NopHandler) OnAuthenticate(*Conn) bool { return true }
func (NopHandler) OnHandshakeComplete(*Conn) {}
func (NopHandler) OnText(*Conn, string)      {}
func (NopHandler) OnBinary(*Conn, []byte)    {}
func (NopHandler) OnPing(*Conn, []byte)      {}
func (NopHandler) OnPong(*Conn, []byte)      {}
func (NopHandler) OnClose(*Conn, []byte)     {}
