// Package asciiutil provides case-insensitive ASCII comparison over both
// plain strings and bview.Views that may be split across several
// non-contiguous spans — the small utility component spec.md carves out
// on its own, since header-name canonicalization and upgrade-token
// matching both need to compare bytes that haven't been materialized
// into a single contiguous buffer yet.
package asciiutil

import "github.com/momentics/wscore/bview"

func lowerByte(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

// EqualFold reports whether view, read span-by-span, is ASCII-case-
// -insensitively equal to s. It never materializes view's bytes.
func EqualFold(view bview.View, s string) bool {
	if view.Length() != len(s) {
		return false
	}
	pos := 0
	for _, span := range view.Spans() {
		for _, b := range span {
			if lowerByte(b) != lowerByte(s[pos]) {
				return false
			}
			pos++
		}
	}
	return true
}

// EqualFoldBytes is the plain-slice counterpart of EqualFold, for bytes
// already held in one contiguous slice.
func EqualFoldBytes(a []byte, s string) bool {
	if len(a) != len(s) {
		return false
	}
	for i, b := range a {
		if lowerByte(b) != lowerByte(s[i]) {
			return false
		}
	}
	return true
}

// EqualFoldStrings reports whether a and b are ASCII-case-insensitively
// equal.
func EqualFoldStrings(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if lowerByte(a[i]) != lowerByte(b[i]) {
			return false
		}
	}
	return true
}

// ContainsToken reports whether value, split on commas with each token
// trimmed of ASCII whitespace, contains token (case-insensitive). This
// is the comma-separated header-value token matching RFC 6455 requires
// for Connection and Upgrade.
func ContainsToken(value, token string) bool {
	start := 0
	for i := 0; i <= len(value); i++ {
		if i == len(value) || value[i] == ',' {
			if equalFoldTrimmed(value[start:i], token) {
				return true
			}
			start = i + 1
		}
	}
	return false
}

func equalFoldTrimmed(s, token string) bool {
	s = trimASCIISpace(s)
	if len(s) != len(token) {
		return false
	}
	for i := 0; i < len(s); i++ {
		if lowerByte(s[i]) != lowerByte(token[i]) {
			return false
		}
	}
	return true
}

func trimASCIISpace(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

// IsBase64Byte reports whether b belongs to the standard base64
// alphabet plus the '=' padding character — the set used to trim a raw
// Sec-WebSocket-Key of incidental whitespace before length-checking it.
func IsBase64Byte(b byte) bool {
	switch {
	case b >= '0' && b <= '9':
		return true
	case b >= 'A' && b <= 'Z':
		return true
	case b >= 'a' && b <= 'z':
		return true
	case b == '+' || b == '/' || b == '=':
		return true
	default:
		return false
	}
}
