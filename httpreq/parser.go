package httpreq

import (
	"io"

	"github.com/momentics/wscore/bview"
	"github.com/momentics/wscore/internal/protoerr"
)

type parseState int

const (
	stateStartLine parseState = iota
	stateHeaders
)

func malformed(msg string) error {
	return protoerr.New(protoerr.KindMalformed, msg)
}

// Parser incrementally decodes one HTTP/1.1 request line plus header
// block. It is explicitly a two-state machine (start line, then
// headers) rather than a single pass over a complete buffer, so it can
// be driven a chunk at a time as bytes arrive off the wire.
//
// A Parser is single-use: construct a new one per connection/request
// with NewParser.
type Parser struct {
	state   parseState
	headers *Headers
	method  []byte
	path    []byte
	version []byte
}

// NewParser returns a Parser ready to decode a request from the start.
func NewParser() *Parser {
	return &Parser{state: stateStartLine, headers: newHeaders()}
}

// Parse drives the parser against src, pulling more buffered data as
// needed, until a complete request line and header block (terminated by
// a blank CRLF line) have been decoded, or a fatal error occurs.
//
// Unlike Step, Parse blocks the calling goroutine across reads — which
// is the idiomatic Go equivalent of "suspend mid-buffer and resume
// later": the goroutine parks in src.Next's blocking read rather than
// returning control to a scheduler. Step is exposed separately for
// callers (tests, or a caller multiplexing several connections without
// one goroutine each) that want to drive the state machine off
// already-available buffers without blocking.
func (p *Parser) Parse(src *bview.Source) (*Request, error) {
	pending := -1
	for {
		v, err := src.Next()
		if err != nil {
			if err == io.EOF {
				return nil, protoerr.New(protoerr.KindUnexpectedEOF, "connection closed mid-request")
			}
			return nil, err
		}
		// No new bytes since the last step: the source is exhausted with
		// an incomplete request still buffered.
		if v.Length() == pending {
			return nil, protoerr.New(protoerr.KindUnexpectedEOF, "connection closed mid-request")
		}

		req, consumed, done, stepErr := p.Step(v)
		src.Consumed(consumed)
		if stepErr != nil {
			return nil, stepErr
		}
		if done {
			return req, nil
		}
		pending = v.Length() - int(consumed)
	}
}

// Step advances the parser as far as possible using only the bytes
// already present in v, without blocking for more. v must start at the
// first byte not yet consumed. It returns the cursor up to which v was
// consumed (always pass this to the source's Consumed), whether the
// request is now complete, and the completed Request when done is true.
//
// When Step returns done == false and err == nil, the caller must call
// Step again with a view that starts at the returned cursor and has more
// bytes appended (what Source.Next returns after Consumed). Bytes beyond
// the returned cursor may have been scanned but were not consumed; they
// are scanned again on the next call.
func (p *Parser) Step(v bview.View) (req *Request, consumed bview.Cursor, done bool, err error) {
	cursor := bview.Cursor(0)

	for {
		switch p.state {
		case stateStartLine:
			rest := v.SliceFrom(cursor)
			lf := rest.IndexOf('\n')
			if lf == bview.CursorEnd {
				return nil, cursor, false, nil
			}
			line := rest.Truncate(int(lf))
			if err := p.parseStartLine(line); err != nil {
				return nil, cursor, false, err
			}
			cursor += lf + 1
			p.state = stateHeaders

		case stateHeaders:
			rest := v.SliceFrom(cursor)

			if rest.Peek() == '\r' {
				if rest.Length() < 2 {
					return nil, cursor, false, nil
				}
				if rest.Slice(1).Peek() != '\n' {
					return nil, cursor, false, malformed("expected CRLF terminating header block")
				}
				cursor += 2
				return &Request{
					Method:  p.method,
					Path:    p.path,
					Version: p.version,
					Headers: p.headers,
				}, cursor, true, nil
			}

			lf := rest.IndexOf('\n')
			if lf == bview.CursorEnd {
				return nil, cursor, false, nil
			}
			line := rest.Truncate(int(lf))
			if err := p.parseHeaderLine(line); err != nil {
				return nil, cursor, false, err
			}
			cursor += lf + 1
		}
	}
}

// parseStartLine splits "METHOD PATH VERSION\r" (line excludes the
// trailing \n already) at the first two spaces. Any absent delimiter,
// or a version field missing its trailing CR, is Malformed.
func (p *Parser) parseStartLine(line bview.View) error {
	sp1 := line.IndexOf(' ')
	if sp1 == bview.CursorEnd {
		return malformed("request line missing method/path delimiter")
	}
	method := line.Truncate(int(sp1))

	afterMethod := line.SliceFrom(sp1 + 1)
	sp2 := afterMethod.IndexOf(' ')
	if sp2 == bview.CursorEnd {
		return malformed("request line missing path/version delimiter")
	}
	path := afterMethod.Truncate(int(sp2))

	versionPart := afterMethod.SliceFrom(sp2 + 1)
	version, err := requireTrailingCR(versionPart)
	if err != nil {
		return err
	}

	p.method = method.Clone()
	p.path = path.Clone()
	p.version = version.Clone()
	return nil
}

// parseHeaderLine splits "Name: value\r" at the first colon, trims
// leading whitespace from both sides, and requires the trailing CR
// before any whitespace trimming — otherwise a value consisting only of
// whitespace before the CR (e.g. "Foo: \r") would have its structural
// CR mistaken for trimmable whitespace and rejected as Malformed.
func (p *Parser) parseHeaderLine(line bview.View) error {
	colon := line.IndexOf(':')
	if colon == bview.CursorEnd {
		return malformed("header line missing ':'")
	}
	name := line.Truncate(int(colon)).TrimStart()

	rawValue := line.SliceFrom(colon + 1)
	value, err := requireTrailingCR(rawValue)
	if err != nil {
		return err
	}
	value = value.TrimStart()

	p.headers.Set(name, value)
	return nil
}
