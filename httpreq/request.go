// Package httpreq parses the single HTTP/1.1 request line and header
// block that precedes a WebSocket upgrade, incrementally, over whatever
// fragments of the connection happen to have arrived.
//
// It deliberately does not use net/http: net/http's Request parser
// reads from an io.Reader to completion (or an error) in one call and
// has no way to suspend mid-buffer and resume later when more bytes
// arrive, which is exactly what a streaming upgrade parse requires.
// Parser instead holds its own small state machine (start line, then
// headers) so a caller can feed it one buffered chunk at a time via
// bview.Source; Step reports done == false until the block is complete.
package httpreq

import "github.com/momentics/wscore/bview"

// Request is the parsed request line plus header block. Method, Path,
// and Version are cloned into owned storage (detached from whatever
// bview.Source produced them) since the caller may reuse or discard the
// source's internal buffer once parsing returns.
type Request struct {
	Method  []byte
	Path    []byte
	Version []byte
	Headers *Headers
}

// lastByte returns the final byte of v, or 0 if v is empty. It walks
// spans back-to-front rather than materializing v, since callers only
// need this to check for a trailing CR.
func lastByte(v bview.View) byte {
	spans := v.Spans()
	for i := len(spans) - 1; i >= 0; i-- {
		if len(spans[i]) > 0 {
			return spans[i][len(spans[i])-1]
		}
	}
	return 0
}

// requireTrailingCR checks that v ends in a CR and returns v with that
// byte dropped. Every line handed to the parser is already stripped of
// its trailing LF, so the wire's CRLF terminator shows up here as a
// single trailing CR.
func requireTrailingCR(v bview.View) (bview.View, error) {
	if v.Length() == 0 || lastByte(v) != '\r' {
		return bview.View{}, malformed("missing CR before line feed")
	}
	return v.Truncate(v.Length() - 1), nil
}
