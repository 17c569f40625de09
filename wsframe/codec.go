package wsframe

import (
	"errors"

	"github.com/momentics/wscore/bview"
)

// ErrNeedMore signals that the view does not yet contain a complete frame
// header (and payload). It is an internal control-flow signal only — per
// spec.md §7, the application never observes it.
var ErrNeedMore = errors.New("wsframe: need more data")

// ErrPayloadTooLarge is returned when a 127-length-field frame declares a
// payload that would overflow a signed 32-bit length.
var ErrPayloadTooLarge = errors.New("wsframe: payload length overflows int32")

// TryReadFrame attempts to decode one frame header (and confirm its
// payload is fully buffered) from v. On success it returns the decoded
// Frame and the number of header bytes consumed (2, 4, 6, 8, 10, or 14);
// the payload itself is left in the view at v.Slice(headerLen). If v does
// not yet hold a complete header+payload, it returns ErrNeedMore without
// having observed any side effect the caller must undo.
func TryReadFrame(v bview.View) (Frame, int, error) {
	if v.Length() < 2 {
		return Frame{}, 0, ErrNeedMore
	}

	// The header never exceeds MaxHeaderLen bytes, and may straddle
	// spans, so it is always copied into a stack buffer before parsing.
	var hdr [MaxHeaderLen]byte
	v.CopyTo(hdr[:])

	masked := hdr[1]&maskBit != 0
	lenField := hdr[1] & 0x7F

	var headerLen, maskOffset int
	switch {
	case lenField <= 125:
		maskOffset = 2
		if masked {
			headerLen = 6
		} else {
			headerLen = 2
		}
	case lenField == 126:
		maskOffset = 4
		if masked {
			headerLen = 8
		} else {
			headerLen = 4
		}
	default: // 127
		maskOffset = 10
		if masked {
			headerLen = 14
		} else {
			headerLen = 10
		}
	}

	if v.Length() < headerLen {
		return Frame{}, 0, ErrNeedMore
	}

	var payloadLen int64
	switch lenField {
	case 126:
		payloadLen = int64(hdr[2])<<8 | int64(hdr[3])
	case 127:
		hi := uint32(hdr[2])<<24 | uint32(hdr[3])<<16 | uint32(hdr[4])<<8 | uint32(hdr[5])
		lo := uint32(hdr[6])<<24 | uint32(hdr[7])<<16 | uint32(hdr[8])<<8 | uint32(hdr[9])
		if hi != 0 || lo > uint32(maxPayloadLen) {
			return Frame{}, 0, ErrPayloadTooLarge
		}
		payloadLen = int64(lo)
	default:
		payloadLen = int64(lenField)
	}

	var mask uint32
	if masked {
		mask = uint32(hdr[maskOffset]) |
			uint32(hdr[maskOffset+1])<<8 |
			uint32(hdr[maskOffset+2])<<16 |
			uint32(hdr[maskOffset+3])<<24
	}

	if int64(v.Length()) < int64(headerLen)+payloadLen {
		return Frame{}, 0, ErrNeedMore
	}

	return Frame{
		Header0:       hdr[0],
		Masked:        masked,
		Mask:          mask,
		PayloadLength: payloadLen,
	}, headerLen, nil
}

// WriteFrameHeader serializes a frame header (flags/opcode byte, length
// field(s), and mask key if non-zero) into dst at offset 0, returning the
// number of bytes written. dst must have at least MaxHeaderLen bytes of
// capacity.
func WriteFrameHeader(dst []byte, fin bool, opcode Opcode, payloadLen int64, mask uint32) int {
	b0 := byte(opcode) & 0x0F
	if fin {
		b0 |= finBit
	}
	dst[0] = b0

	masked := mask != 0
	var maskFlag byte
	if masked {
		maskFlag = maskBit
	}

	offset := 1
	switch {
	case payloadLen <= 125:
		dst[offset] = byte(payloadLen) | maskFlag
		offset++
	case payloadLen <= 0xFFFF:
		dst[offset] = 126 | maskFlag
		offset++
		dst[offset] = byte(payloadLen >> 8)
		dst[offset+1] = byte(payloadLen)
		offset += 2
	default:
		dst[offset] = 127 | maskFlag
		offset++
		dst[offset] = 0
		dst[offset+1] = 0
		dst[offset+2] = 0
		dst[offset+3] = 0
		dst[offset+4] = byte(payloadLen >> 24)
		dst[offset+5] = byte(payloadLen >> 16)
		dst[offset+6] = byte(payloadLen >> 8)
		dst[offset+7] = byte(payloadLen)
		offset += 8
	}

	if masked {
		dst[offset] = byte(mask)
		dst[offset+1] = byte(mask >> 8)
		dst[offset+2] = byte(mask >> 16)
		dst[offset+3] = byte(mask >> 24)
		offset += 4
	}

	return offset
}

// HeaderLen returns the header length WriteFrameHeader would produce for
// the given payload length and mask presence, without writing anything.
func HeaderLen(payloadLen int64, masked bool) int {
	var n int
	switch {
	case payloadLen <= 125:
		n = 2
	case payloadLen <= 0xFFFF:
		n = 4
	default:
		n = 10
	}
	if masked {
		n += 4
	}
	return n
}
