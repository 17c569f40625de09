package httpreq

import (
	"sync"

	"github.com/momentics/wscore/bview"
	"github.com/momentics/wscore/internal/asciiutil"
)

// Headers holds the header block of a request, keyed by canonical name.
// Canonicalization only rewrites names the server recognizes (the
// Sec-WebSocket-* family, Connection, Upgrade, Host, Origin, and a
// handful of common ones); anything else is stored exactly as received,
// so lookups on unknown header names are case-sensitive against the
// bytes the client sent — grounded on the canonicalization tables in
// other_examples/freekieb7-gravel__http.go and
// other_examples/valyala-fasthttp__header.go, both of which special-case
// a fixed set of well-known names and fall back to the raw form.
type Headers struct {
	m map[string]string
}

func newHeaders() *Headers {
	return &Headers{m: make(map[string]string)}
}

// Set stores value under the canonical form of rawName, overwriting any
// previous value for the same canonical name (last header wins). Both
// views are compared/cloned without requiring the caller to have
// materialized them first.
func (h *Headers) Set(rawName, value bview.View) {
	h.m[canonicalize(rawName)] = value.ASCIIString()
}

// Get returns the header's value and whether it was present. name is
// matched as given — pass a canonical constant (HeaderHost, ...) for
// recognized headers, or the exact case the client sent for others.
func (h *Headers) Get(name string) (string, bool) {
	v, ok := h.m[name]
	return v, ok
}

// Canonical header name constants, mirroring the table recognized by
// canonicalize.
const (
	HeaderHost                   = "Host"
	HeaderOrigin                 = "Origin"
	HeaderConnection             = "Connection"
	HeaderUpgrade                = "Upgrade"
	HeaderUserAgent              = "User-Agent"
	HeaderAccept                 = "Accept"
	HeaderContentType            = "Content-Type"
	HeaderContentLength          = "Content-Length"
	HeaderCookie                 = "Cookie"
	HeaderSecWebSocketKey        = "Sec-WebSocket-Key"
	HeaderSecWebSocketVersion    = "Sec-WebSocket-Version"
	HeaderSecWebSocketAccept     = "Sec-WebSocket-Accept"
	HeaderSecWebSocketProtocol   = "Sec-WebSocket-Protocol"
	HeaderSecWebSocketExtensions = "Sec-WebSocket-Extensions"
	HeaderSecWebSocketOrigin     = "Sec-WebSocket-Origin"
	HeaderSecWebSocketKey1       = "Sec-WebSocket-Key1"
	HeaderSecWebSocketKey2       = "Sec-WebSocket-Key2"
)

var knownHeaders = sync.OnceValue(func() []string {
	return []string{
		HeaderHost, HeaderOrigin, HeaderConnection, HeaderUpgrade,
		HeaderUserAgent, HeaderAccept, HeaderContentType, HeaderContentLength,
		HeaderCookie, HeaderSecWebSocketKey, HeaderSecWebSocketVersion,
		HeaderSecWebSocketAccept, HeaderSecWebSocketProtocol,
		HeaderSecWebSocketExtensions, HeaderSecWebSocketOrigin,
		HeaderSecWebSocketKey1, HeaderSecWebSocketKey2,
	}
})

// canonicalize scans the known-header table for a case-insensitive match
// against rawName, comparing span-by-span via asciiutil so the header
// name never needs to be materialized just to canonicalize it. A miss
// returns the raw bytes, materialized once, as the stored key.
func canonicalize(rawName bview.View) string {
	for _, canon := range knownHeaders() {
		if asciiutil.EqualFold(rawName, canon) {
			return canon
		}
	}
	return rawName.ASCIIString()
}
