// Package bview implements a read-only view over a possibly non-contiguous
// sequence of byte spans, with O(1) sub-slicing and a cursor abstraction
// for the incremental parsers built on top of it (httpreq, wsframe).
//
// A View never copies bytes on construction or on Slice/Truncate — the
// underlying spans are Go slices, so re-slicing them is already O(1) and
// aliases the original memory. Materializing owned bytes (ASCIIString,
// UTF8String, Clone) is the one place copies happen, and that is exactly
// where spec.md requires cloning into task-owned storage.
package bview

import (
	"bytes"
	"unicode/utf8"
)

// Cursor addresses a byte position within a View, relative to that
// View's own start (not any absolute stream position). CursorEnd marks
// "not found" / "end of view".
type Cursor int

// CursorEnd is the sentinel cursor meaning end-of-view or not-found.
const CursorEnd Cursor = -1

// View is a read-only, zero-copy window over one or more byte spans.
type View struct {
	spans [][]byte
}

// New builds a View over the given spans. Empty spans are dropped so that
// Length/IsEmpty/FirstSpan stay simple and iteration never yields a
// zero-length span.
func New(spans ...[]byte) View {
	return View{spans: compact(spans)}
}

func compact(spans [][]byte) [][]byte {
	out := make([][]byte, 0, len(spans))
	for _, s := range spans {
		if len(s) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// Length returns the total byte count across all spans.
func (v View) Length() int {
	n := 0
	for _, s := range v.spans {
		n += len(s)
	}
	return n
}

// IsEmpty reports whether the view has zero bytes.
func (v View) IsEmpty() bool {
	return len(v.spans) == 0
}

// FirstSpan returns the first contiguous span, or nil if the view is empty.
func (v View) FirstSpan() []byte {
	if len(v.spans) == 0 {
		return nil
	}
	return v.spans[0]
}

// IsSingleSpan reports whether the view's bytes are held in one span.
func (v View) IsSingleSpan() bool {
	return len(v.spans) <= 1
}

// Spans returns the view's underlying spans in order. Callers must treat
// the returned slice (and its elements) as read-only.
func (v View) Spans() [][]byte {
	return v.spans
}

// Peek returns the value of the next byte (0-255), or -1 if the view is
// empty. It does not advance the view.
func (v View) Peek() int {
	for _, s := range v.spans {
		if len(s) > 0 {
			return int(s[0])
		}
	}
	return -1
}

// Slice advances the view by n bytes and returns the remainder. n is
// clamped to the view's length. This is O(number of spans consumed), not
// O(n) — no bytes are copied.
func (v View) Slice(n int) View {
	if n <= 0 {
		return v
	}
	spans := v.spans
	for n > 0 && len(spans) > 0 {
		s := spans[0]
		if n < len(s) {
			rest := make([][]byte, 0, len(spans))
			rest = append(rest, s[n:])
			rest = append(rest, spans[1:]...)
			return View{spans: rest}
		}
		n -= len(s)
		spans = spans[1:]
	}
	return View{spans: spans}
}

// Truncate returns a view of at most the first n bytes of v.
func (v View) Truncate(n int) View {
	if n <= 0 {
		return View{}
	}
	out := make([][]byte, 0, len(v.spans))
	remaining := n
	for _, s := range v.spans {
		if remaining <= 0 {
			break
		}
		if len(s) <= remaining {
			out = append(out, s)
			remaining -= len(s)
		} else {
			out = append(out, s[:remaining])
			remaining = 0
		}
	}
	return View{spans: out}
}

// SliceFrom returns the view starting at cursor c. CursorEnd yields an
// empty view.
func (v View) SliceFrom(c Cursor) View {
	if c == CursorEnd {
		return View{}
	}
	return v.Slice(int(c))
}

// SliceRange returns the view spanning [start,end). end == CursorEnd means
// "to the end of v".
func (v View) SliceRange(start, end Cursor) View {
	tail := v.SliceFrom(start)
	if end == CursorEnd {
		return tail
	}
	length := int(end) - int(start)
	return tail.Truncate(length)
}

// IndexOf scans for the first occurrence of b, returning a cursor relative
// to the start of v, or CursorEnd if absent. The scan crosses span
// boundaries transparently.
func (v View) IndexOf(b byte) Cursor {
	pos := 0
	for _, s := range v.spans {
		if idx := bytes.IndexByte(s, b); idx >= 0 {
			return Cursor(pos + idx)
		}
		pos += len(s)
	}
	return CursorEnd
}

// CopyTo copies min(len(dst), v.Length()) bytes into dst and returns the
// number of bytes copied.
func (v View) CopyTo(dst []byte) int {
	total := 0
	for _, s := range v.spans {
		if total >= len(dst) {
			break
		}
		n := copy(dst[total:], s)
		total += n
		if n < len(s) {
			break
		}
	}
	return total
}

// Clone materializes the view's bytes into a new, owned slice detached
// from whatever channel/source produced the spans.
func (v View) Clone() []byte {
	buf := make([]byte, v.Length())
	v.CopyTo(buf)
	return buf
}

// ASCIIString materializes the view as a string. It performs no encoding
// validation; callers that need UTF-8 validity should use UTF8String.
func (v View) ASCIIString() string {
	if len(v.spans) == 0 {
		return ""
	}
	if len(v.spans) == 1 {
		return string(v.spans[0])
	}
	return string(v.Clone())
}

// UTF8String materializes the view as a string and reports whether it is
// valid UTF-8.
func (v View) UTF8String() (string, bool) {
	s := v.ASCIIString()
	return s, utf8.ValidString(s)
}

func isASCIISpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

// TrimStart returns v with leading ASCII whitespace (space, tab, CR, LF)
// removed.
func (v View) TrimStart() View {
	cur := v
	for {
		p := cur.Peek()
		if p < 0 || !isASCIISpace(byte(p)) {
			return cur
		}
		cur = cur.Slice(1)
	}
}
