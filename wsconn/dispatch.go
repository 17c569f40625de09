package wsconn

import (
	"github.com/momentics/wscore/bview"
	"github.com/momentics/wscore/wsframe"
)

// dispatch routes a validated frame to its hook. Every hook receives an
// unmasked payload: Text is unmasked in place in the input view and
// interpreted as UTF-8; other opcodes get the payload cloned into owned
// storage (the handler may retain it past the next Source.Next() call
// that would otherwise invalidate the view) and unmasked there. No hook
// receives the masked bytes or the mask key.
func (c *Conn) dispatch(f wsframe.Frame, payload bview.View) error {
	switch f.Opcode() {
	case wsframe.OpText:
		wsframe.ApplyMask(f.Mask, payload)
		text, _ := payload.UTF8String()
		c.handler.OnText(c, text)

	case wsframe.OpBinary, wsframe.OpContinuation:
		plain := payload.Clone()
		wsframe.ApplyMask(f.Mask, bview.New(plain))
		c.handler.OnBinary(c, plain)

	case wsframe.OpPing:
		plain := payload.Clone()
		wsframe.ApplyMask(f.Mask, bview.New(plain))
		// RFC 6455 conformance: a Ping is always answered with a Pong
		// carrying the same payload, before the application observes
		// it (teacher: protocol/connection.go handleControl).
		if err := c.sendControlFrame(wsframe.OpPong, plain); err != nil {
			return err
		}
		c.handler.OnPing(c, plain)

	case wsframe.OpPong:
		plain := payload.Clone()
		wsframe.ApplyMask(f.Mask, bview.New(plain))
		c.handler.OnPong(c, plain)

	case wsframe.OpClose:
		plain := payload.Clone()
		wsframe.ApplyMask(f.Mask, bview.New(plain))
		c.handler.OnClose(c, plain)
		return c.sendControlFrame(wsframe.OpClose, plain)
	}
	return nil
}
