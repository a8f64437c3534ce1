package value

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/joshuapare/cellheap/internal/buf"
	"github.com/joshuapare/cellheap/internal/format"
)

// String cell layout: kind, encoded length in bytes, flags, inline bytes.
const (
	offStrLen   = 4
	offStrFlags = 8
	offStrData  = 12
)

// InlineStringBytes is the longest encoded string stored inside its cell.
const InlineStringBytes = int(format.CellSize) - offStrData

const (
	strWide     uint32 = 1 << 0 // UTF-16LE code units; Latin-1 otherwise
	strExternal uint32 = 1 << 1 // bytes live in Runtime.external
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

func isLatin1(s string) bool {
	for _, r := range s {
		if r > 0xFF {
			return false
		}
	}
	return true
}

func codec(flags uint32) encoding.Encoding {
	if flags&strWide != 0 {
		return utf16le
	}
	return charmap.ISO8859_1
}

// NewString allocates a string. Strings too long to store inline keep their
// bytes outside the heap and report them as extra memory cost.
func (r *Runtime) NewString(s string) (Value, error) {
	var flags uint32
	if !isLatin1(s) {
		flags |= strWide
	}
	data, err := codec(flags).NewEncoder().Bytes([]byte(s))
	if err != nil {
		return Null, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	if len(data) > InlineStringBytes {
		flags |= strExternal
	}

	cell, err := r.h.Allocate(offStrData)
	if err != nil {
		return Null, err
	}
	b := r.h.Bytes(cell)
	buf.PutU32LE(b[offKind:], uint32(KindString))
	buf.PutU32LE(b[offStrLen:], uint32(len(data)))
	buf.PutU32LE(b[offStrFlags:], flags)

	if flags&strExternal != 0 {
		r.external[cell] = data
		r.h.ReportExtraMemoryCost(len(data))
	} else {
		copy(b[offStrData:], data)
	}
	return Value(cell), nil
}

// String decodes a string value.
func (r *Runtime) String(v Value) (string, error) {
	b, _, err := r.payload(v, KindString)
	if err != nil {
		return "", err
	}
	n := int(buf.U32LE(b[offStrLen:]))
	flags := buf.U32LE(b[offStrFlags:])

	var data []byte
	if flags&strExternal != 0 {
		data = r.external[uintptr(v)]
	} else {
		var ok bool
		if data, ok = buf.Slice(b, offStrData, n); !ok {
			return "", fmt.Errorf("%w: inline length %d", ErrEncoding, n)
		}
	}
	if len(data) != n {
		return "", fmt.Errorf("%w: have %d bytes, want %d", ErrEncoding, len(data), n)
	}

	out, err := codec(flags).NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	return string(out), nil
}

// StringLen returns the length of a string in code units.
func (r *Runtime) StringLen(v Value) (int, error) {
	b, _, err := r.payload(v, KindString)
	if err != nil {
		return 0, err
	}
	n := int(buf.U32LE(b[offStrLen:]))
	if buf.U32LE(b[offStrFlags:])&strWide != 0 {
		n /= 2
	}
	return n, nil
}
