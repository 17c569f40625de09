package wsframe

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/momentics/wscore/bview"
)

func randomBytes(n int, seed int64) []byte {
	r := rand.New(rand.NewSource(seed))
	b := make([]byte, n)
	r.Read(b)
	return b
}

// Property 2 — mask involution: ApplyMask(K, ApplyMask(K, B)) == B.
func TestApplyMaskInvolution(t *testing.T) {
	for _, size := range []int{0, 1, 3, 4, 7, 8, 9, 16, 17, 1000, 4097} {
		original := randomBytes(size, int64(size)+1)
		buf := append([]byte(nil), original...)

		mask := uint32(0x9E3779B9)
		ApplyMaskBytes(mask, buf)
		ApplyMaskBytes(mask, buf)

		if !bytes.Equal(buf, original) {
			t.Fatalf("size %d: involution failed", size)
		}
	}
}

func maskReference(mask uint32, b []byte) []byte {
	out := append([]byte(nil), b...)
	for i := range out {
		out[i] ^= byte(mask >> uint(8*(i%4)))
	}
	return out
}

// Property 3 — mask cross-span correctness: splitting B at every possible
// position must yield the same masked bytes as masking it whole.
func TestApplyMaskCrossSpanCorrectness(t *testing.T) {
	mask := uint32(0x12345678)
	original := randomBytes(37, 99)
	want := maskReference(mask, original)

	for p := 0; p <= len(original); p++ {
		a := append([]byte(nil), original[:p]...)
		b := append([]byte(nil), original[p:]...)
		view := bview.New(a, b)
		ApplyMask(mask, view)

		got := view.Clone()
		if !bytes.Equal(got, want) {
			t.Fatalf("split at %d: got %x, want %x", p, got, want)
		}
	}
}

// Splitting into many small spans (not just two) must still agree.
func TestApplyMaskManySpans(t *testing.T) {
	mask := uint32(0xCAFEBABE)
	original := randomBytes(23, 7)
	want := maskReference(mask, original)

	var spans [][]byte
	for i := 0; i < len(original); i++ {
		spans = append(spans, append([]byte(nil), original[i]))
	}
	view := bview.New(spans...)
	ApplyMask(mask, view)
	if got := view.Clone(); !bytes.Equal(got, want) {
		t.Fatalf("per-byte spans: got %x, want %x", got, want)
	}
}

func TestApplyMaskZeroIsNoop(t *testing.T) {
	original := randomBytes(10, 3)
	buf := append([]byte(nil), original...)
	ApplyMaskBytes(0, buf)
	if !bytes.Equal(buf, original) {
		t.Fatal("mask 0 must be a no-op")
	}
}
