package asciiutil

import (
	"testing"

	"github.com/momentics/wscore/bview"
)

func TestEqualFoldAcrossSpans(t *testing.T) {
	v := bview.New([]byte("Sec-"), []byte("WebSocket-"), []byte("KEY"))
	if !EqualFold(v, "sec-websocket-key") {
		t.Fatal("expected case-insensitive match across spans")
	}
	if EqualFold(v, "sec-websocket-keys") {
		t.Fatal("length mismatch must not match")
	}
}

func TestContainsTokenCommaSplit(t *testing.T) {
	if !ContainsToken("keep-alive, Upgrade", "upgrade") {
		t.Fatal("expected Upgrade token to be found")
	}
	if ContainsToken("keep-alive", "upgrade") {
		t.Fatal("did not expect a match")
	}
	if !ContainsToken("Upgrade", "upgrade") {
		t.Fatal("single-token exact match should succeed")
	}
}

func TestIsBase64Byte(t *testing.T) {
	for _, b := range []byte("Ab9+/=") {
		if !IsBase64Byte(b) {
			t.Fatalf("%q should be a base64 byte", b)
		}
	}
	if IsBase64Byte(' ') || IsBase64Byte('\n') {
		t.Fatal("whitespace must not be a base64 byte")
	}
}
