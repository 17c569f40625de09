package handshake

import (
	"fmt"
	"io"
)

// WriteResponse writes the literal 101 Switching Protocols response
// bytes for result, matching spec.md §4.4 bit-for-bit: header casing,
// colon spacing, and line terminators are all fixed, not
// hdr.Set/http.Header-serialized — grounded on the teacher's
// protocol/handshake_serializer.go WriteHandshakeResponse, which writes
// the status line then each header with fmt.Fprintf; this version pins
// the exact header set and order §4.4 mandates instead of iterating an
// arbitrary http.Header map (whose iteration order the wire format
// cannot depend on).
func WriteResponse(w io.Writer, result *Result) error {
	_, err := fmt.Fprintf(w,
		"HTTP/1.1 101 Switching Protocols\r\nUpgrade: websocket\r\nConnection: Upgrade\r\nSec-WebSocket-Accept: %s\r\n\r\n",
		result.AcceptToken,
	)
	return err
}
