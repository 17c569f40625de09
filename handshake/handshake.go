// Package handshake negotiates the RFC 6455 WebSocket upgrade: it
// validates the Connection/Upgrade headers (with a lenient fallback for
// browsers that omit or reorder them), selects a protocol variant,
// computes the Sec-WebSocket-Accept token, and serializes the 101
// response.
//
// Grounded on the teacher's protocol/handshake.go (header-token
// validation shape) and protocol/native_handshake.go (ComputeAcceptKey,
// the dependency-free SHA-1+GUID path this package generalizes — the
// teacher's version skips the trim-to-24-base64-chars step this
// implementation adds).
package handshake

import (
	"crypto/sha1"
	"encoding/base64"

	"github.com/momentics/wscore/httpreq"
	"github.com/momentics/wscore/internal/asciiutil"
	"github.com/momentics/wscore/internal/protoerr"
)

// GUID is the literal RFC 6455 handshake GUID, concatenated onto a
// trimmed client key before hashing.
const GUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// Variant distinguishes the two protocol generations a client's
// Sec-WebSocket-* headers might indicate.
type Variant int

const (
	VariantRFC6455 Variant = iota
	VariantHixie76_00
)

func (v Variant) String() string {
	if v == VariantHixie76_00 {
		return "Hixie76_00"
	}
	return "RFC6455"
}

// Options configures the negotiator.
type Options struct {
	// AllowClientsMissingConnectionHeaders enables the lenient fallback
	// path (spec step 3) for browsers whose Connection/Upgrade headers
	// don't strictly satisfy step 2.
	AllowClientsMissingConnectionHeaders bool
}

// DefaultOptions matches the configuration surface's documented
// default: lenient mode on.
func DefaultOptions() Options {
	return Options{AllowClientsMissingConnectionHeaders: true}
}

// Result is the negotiated connection metadata plus the computed accept
// token, ready for WriteResponse.
type Result struct {
	Host        string
	Origin      string
	Protocol    string
	RequestLine string
	Variant     Variant
	AcceptToken string
}

var rfc6455Versions = map[string]bool{
	"4": true, "5": true, "6": true, "7": true, "8": true, "13": true,
}

// Negotiate validates req as a WebSocket upgrade and computes the
// accept token. It never writes anything; call WriteResponse with the
// result to emit the 101 response.
func Negotiate(req *httpreq.Request, opts Options) (*Result, error) {
	host, hasHost := req.Headers.Get(httpreq.HeaderHost)
	if !hasHost || host == "" {
		return nil, protoerr.New(protoerr.KindMissingHost, "request has no Host header")
	}

	connection, hasConn := req.Headers.Get(httpreq.HeaderConnection)
	upgrade, hasUpgrade := req.Headers.Get(httpreq.HeaderUpgrade)
	strictUpgrade := hasConn && hasUpgrade &&
		asciiutil.ContainsToken(connection, "upgrade") &&
		asciiutil.EqualFoldStrings(upgrade, "websocket")

	version, hasVersion := req.Headers.Get(httpreq.HeaderSecWebSocketVersion)
	key, hasKey := req.Headers.Get(httpreq.HeaderSecWebSocketKey)
	_, hasKey1 := req.Headers.Get(httpreq.HeaderSecWebSocketKey1)
	_, hasKey2 := req.Headers.Get(httpreq.HeaderSecWebSocketKey2)

	if !strictUpgrade {
		lenientOK := opts.AllowClientsMissingConnectionHeaders &&
			((hasVersion && hasKey) || (hasKey1 && hasKey2))
		if !lenientOK {
			return nil, protoerr.New(protoerr.KindNotAnUpgrade, "missing or invalid Connection/Upgrade headers")
		}
	}

	var variant Variant
	switch {
	case !hasVersion && hasKey1 && hasKey2:
		variant = VariantHixie76_00
	case hasVersion && rfc6455Versions[version]:
		variant = VariantRFC6455
	case hasVersion:
		return nil, protoerr.New(protoerr.KindUnsupportedVersion, "unsupported Sec-WebSocket-Version: "+version)
	default:
		return nil, protoerr.New(protoerr.KindNotAnUpgrade, "no recognizable protocol version markers")
	}

	origin, hasOrigin := req.Headers.Get(httpreq.HeaderOrigin)
	if !hasOrigin {
		origin, _ = req.Headers.Get(httpreq.HeaderSecWebSocketOrigin)
	}
	protocol, _ := req.Headers.Get(httpreq.HeaderSecWebSocketProtocol)

	result := &Result{
		Host:        host,
		Origin:      origin,
		Protocol:    protocol,
		RequestLine: string(req.Path),
		Variant:     variant,
	}

	if variant == VariantHixie76_00 {
		return nil, protoerr.New(protoerr.KindUnsupportedVariant, "Hixie-76/hybi-00 handshake is detection-only").
			WithContext("host", host)
	}

	accept, err := computeAcceptToken(key)
	if err != nil {
		return nil, err
	}
	result.AcceptToken = accept
	return result, nil
}

// computeAcceptToken implements the RFC 6455 §1.3 accept-key algorithm,
// including the lenient trim step spec.md adds for keys arriving with
// incidental leading/trailing whitespace or stray bytes.
func computeAcceptToken(key string) (string, error) {
	trimmed := trimToBase64Alphabet(key)
	if len(trimmed) != 24 {
		return "", protoerr.New(protoerr.KindMalformedKey, "Sec-WebSocket-Key did not trim to 24 base64 characters").
			WithContext("trimmed_length", len(trimmed))
	}

	h := sha1.New()
	h.Write([]byte(trimmed))
	h.Write([]byte(GUID))
	digest := h.Sum(nil)

	return base64.StdEncoding.EncodeToString(digest), nil
}

func trimToBase64Alphabet(s string) string {
	start, end := 0, len(s)
	for start < end && !asciiutil.IsBase64Byte(s[start]) {
		start++
	}
	for end > start && !asciiutil.IsBase64Byte(s[end-1]) {
		end--
	}
	return s[start:end]
}
