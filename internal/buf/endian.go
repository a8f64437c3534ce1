// Package buf contains helpers for reading and writing fixed-layout fields
// inside cell payloads. Fields are little-endian regardless of host order so
// a cell's layout is the same on every platform.
package buf

import (
	"encoding/binary"

	"github.com/joshuapare/cellheap/internal/format"
)

// U16LE reads a little-endian uint16 from b. Returns 0 when b is too short.
func U16LE(b []byte) uint16 {
	if len(b) < 2 {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

// U32LE reads a little-endian uint32 from b. Returns 0 when b is too short.
func U32LE(b []byte) uint32 {
	if len(b) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// U64LE reads a little-endian uint64 from b. Returns 0 when b is too short.
func U64LE(b []byte) uint64 {
	if len(b) < 8 {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// PutU32LE writes v to b in little-endian order. Short buffers are left untouched.
func PutU32LE(b []byte, v uint32) {
	if len(b) < 4 {
		return
	}
	binary.LittleEndian.PutUint32(b, v)
}

// PutU64LE writes v to b in little-endian order. Short buffers are left untouched.
func PutU64LE(b []byte, v uint64) {
	if len(b) < 8 {
		return
	}
	binary.LittleEndian.PutUint64(b, v)
}

// Word reads a pointer-width little-endian word from b.
func Word(b []byte) uintptr {
	if format.PointerSize == 8 {
		return uintptr(U64LE(b))
	}
	return uintptr(U32LE(b))
}

// PutWord writes a pointer-width little-endian word to b.
func PutWord(b []byte, v uintptr) {
	if format.PointerSize == 8 {
		PutU64LE(b, uint64(v))
		return
	}
	PutU32LE(b, uint32(v))
}
