package wsframe

import (
	"testing"

	"github.com/momentics/wscore/bview"
)

// Property 1 — round trip: writing a header then reading it back yields
// the same values and the header length matches the §4.2 table.
func TestFrameHeaderRoundTrip(t *testing.T) {
	cases := []struct {
		name       string
		fin        bool
		opcode     Opcode
		payloadLen int64
		mask       uint32
		wantHdrLen int
	}{
		{"small-unmasked", true, OpText, 5, 0, 2},
		{"small-masked", true, OpBinary, 125, 0xAABBCCDD, 6},
		{"ext16-unmasked", true, OpBinary, 126, 0, 4},
		{"ext16-masked", true, OpBinary, 65535, 0x01020304, 8},
		{"ext64-unmasked", false, OpBinary, 70000, 0, 10},
		{"ext64-masked", true, OpBinary, 1 << 20, 0xDEADBEEF, 14},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf := make([]byte, MaxHeaderLen+8)
			n := WriteFrameHeader(buf, tc.fin, tc.opcode, tc.payloadLen, tc.mask)
			if n != tc.wantHdrLen {
				t.Fatalf("WriteFrameHeader wrote %d bytes, want %d", n, tc.wantHdrLen)
			}
			// Append a dummy payload so TryReadFrame sees a complete frame.
			payload := make([]byte, tc.payloadLen)
			full := append(buf[:n], payload...)

			frame, hdrLen, err := TryReadFrame(bview.New(full))
			if err != nil {
				t.Fatalf("TryReadFrame: %v", err)
			}
			if hdrLen != tc.wantHdrLen {
				t.Fatalf("TryReadFrame header len = %d, want %d", hdrLen, tc.wantHdrLen)
			}
			if frame.IsFinal() != tc.fin {
				t.Fatalf("IsFinal = %v, want %v", frame.IsFinal(), tc.fin)
			}
			if frame.Opcode() != tc.opcode {
				t.Fatalf("Opcode = %v, want %v", frame.Opcode(), tc.opcode)
			}
			if frame.PayloadLength != tc.payloadLen {
				t.Fatalf("PayloadLength = %d, want %d", frame.PayloadLength, tc.payloadLen)
			}
			wantMasked := tc.mask != 0
			if frame.Masked != wantMasked {
				t.Fatalf("Masked = %v, want %v", frame.Masked, wantMasked)
			}
			if wantMasked && frame.Mask != tc.mask {
				t.Fatalf("Mask = %08x, want %08x", frame.Mask, tc.mask)
			}
		})
	}
}

func TestTryReadFrameNeedMore(t *testing.T) {
	// Just the first byte: can't even read the base header.
	if _, _, err := TryReadFrame(bview.New([]byte{0x81})); err != ErrNeedMore {
		t.Fatalf("err = %v, want ErrNeedMore", err)
	}

	// Masked small frame, header present but payload not fully buffered.
	hdr := make([]byte, 6)
	n := WriteFrameHeader(hdr, true, OpText, 5, 0x11223344)
	if _, _, err := TryReadFrame(bview.New(hdr[:n], []byte("Hel"))); err != ErrNeedMore {
		t.Fatalf("err = %v, want ErrNeedMore (partial payload)", err)
	}

	// Extended 16-bit length field itself incomplete.
	if _, _, err := TryReadFrame(bview.New([]byte{0x82, 0x7E, 0x01})); err != ErrNeedMore {
		t.Fatalf("err = %v, want ErrNeedMore (partial ext16 header)", err)
	}
}

func TestTryReadFramePayloadTooLarge(t *testing.T) {
	hdr := []byte{
		0x82, 0xFF, // FIN+Binary, masked, len=127
		0x00, 0x00, 0x00, 0x01, // high word non-zero -> overflow
		0x00, 0x00, 0x00, 0x00,
		0x11, 0x22, 0x33, 0x44, // mask
	}
	if _, _, err := TryReadFrame(bview.New(hdr)); err != ErrPayloadTooLarge {
		t.Fatalf("err = %v, want ErrPayloadTooLarge", err)
	}
}

// Scenario 3 from spec.md §8: masked "Hello" text frame.
func TestMaskedTextFrameScenario(t *testing.T) {
	raw := []byte{0x81, 0x85, 0x37, 0xfa, 0x21, 0x3d, 0x7f, 0x9f, 0x4d, 0x51, 0x58}
	frame, hdrLen, err := TryReadFrame(bview.New(raw))
	if err != nil {
		t.Fatalf("TryReadFrame: %v", err)
	}
	if !frame.IsFinal() || frame.Opcode() != OpText || !frame.Masked {
		t.Fatalf("unexpected frame: %+v", frame)
	}
	if frame.PayloadLength != 5 {
		t.Fatalf("PayloadLength = %d, want 5", frame.PayloadLength)
	}
	payload := bview.New(raw[hdrLen:])
	ApplyMask(frame.Mask, payload)
	if got := payload.ASCIIString(); got != "Hello" {
		t.Fatalf("unmasked payload = %q, want %q", got, "Hello")
	}
}

// Scenario 4: masked empty ping.
func TestEmptyPingScenario(t *testing.T) {
	raw := []byte{0x89, 0x80, 0x01, 0x02, 0x03, 0x04}
	frame, hdrLen, err := TryReadFrame(bview.New(raw))
	if err != nil {
		t.Fatalf("TryReadFrame: %v", err)
	}
	if frame.Opcode() != OpPing || !frame.IsFinal() || frame.PayloadLength != 0 {
		t.Fatalf("unexpected frame: %+v", frame)
	}
	if hdrLen != 6 {
		t.Fatalf("hdrLen = %d, want 6", hdrLen)
	}
}

func TestIsControlFrameAndReservedOpcode(t *testing.T) {
	f := Frame{Header0: 0x8B} // FIN + opcode 0xB (11, reserved control)
	if !f.IsControlFrame() {
		t.Fatal("expected IsControlFrame true for opcode 11")
	}
	if !f.IsReservedOpcode() {
		t.Fatal("expected IsReservedOpcode true for opcode 11")
	}
	f = Frame{Header0: 0x89} // Ping
	if f.IsReservedOpcode() {
		t.Fatal("Ping must not be reserved")
	}
	f = Frame{Header0: 0x83} // opcode 3, reserved data
	if f.IsReservedOpcode() != true {
		t.Fatal("opcode 3 must be reserved")
	}
	if f.IsControlFrame() {
		t.Fatal("opcode 3 is not a control frame (high bit of nibble unset)")
	}
}

func TestHeaderLenTable(t *testing.T) {
	cases := []struct {
		payloadLen int64
		masked     bool
		want       int
	}{
		{5, false, 2}, {5, true, 6},
		{126, false, 4}, {126, true, 8},
		{70000, false, 10}, {70000, true, 14},
	}
	for _, c := range cases {
		if got := HeaderLen(c.payloadLen, c.masked); got != c.want {
			t.Fatalf("HeaderLen(%d,%v) = %d, want %d", c.payloadLen, c.masked, got, c.want)
		}
	}
}
