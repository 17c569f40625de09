package wsframe

import "github.com/momentics/wscore/bview"

// ApplyMask XORs the 32-bit mask key over payload, which may span several
// non-contiguous byte slices, in place. The key is logically infinite:
// byte i of the overall (cross-span) payload is XORed with byte (i%4) of
// mask, in the little-endian order Frame.Mask was read in.
//
// Applying ApplyMask twice with the same non-zero mask restores the
// original bytes (it is its own inverse), and the result does not depend
// on how payload happens to be split into spans — the per-span "phase"
// (byte position mod 4) carries across span boundaries so a span that
// starts mid-cycle still masks correctly.
//
// The 8-byte stride is a throughput optimization for large binary
// frames; correctness does not depend on it — see the head loop (which
// realigns a span that starts mid-cycle) and the tail loop, the two
// places per span doing single-byte XOR, and phase, the only state
// threaded across spans. This intentionally avoids the teacher's
// "offset by total buffer length" bug for multi-span tails (spec.md's
// open question): the destination index used here is always relative to
// the current span, never to the whole payload.
func ApplyMask(mask uint32, payload bview.View) {
	if mask == 0 {
		return
	}
	word := uint64(mask) | uint64(mask)<<32
	phase := 0

	for _, span := range payload.Spans() {
		i := 0
		n := len(span)

		for phase != 0 && i < n {
			span[i] ^= byte(mask >> uint(8*phase))
			phase = (phase + 1) & 3
			i++
		}

		for i+8 <= n {
			c := span[i : i+8 : i+8]
			v := uint64(c[0]) | uint64(c[1])<<8 | uint64(c[2])<<16 | uint64(c[3])<<24 |
				uint64(c[4])<<32 | uint64(c[5])<<40 | uint64(c[6])<<48 | uint64(c[7])<<56
			v ^= word
			c[0] = byte(v)
			c[1] = byte(v >> 8)
			c[2] = byte(v >> 16)
			c[3] = byte(v >> 24)
			c[4] = byte(v >> 32)
			c[5] = byte(v >> 40)
			c[6] = byte(v >> 48)
			c[7] = byte(v >> 56)
			i += 8
		}

		for i < n {
			span[i] ^= byte(mask >> uint(8*phase))
			phase = (phase + 1) & 3
			i++
		}
	}
}

// ApplyMaskBytes is the single-slice convenience form used by callers
// that already hold a contiguous payload (e.g. after Clone).
func ApplyMaskBytes(mask uint32, payload []byte) {
	ApplyMask(mask, bview.New(payload))
}
