package buf

import (
	"testing"

	"github.com/joshuapare/cellheap/internal/format"
)

func TestEndianHelpers(t *testing.T) {
	data := []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef}

	if got := U16LE(data); got != 0x2301 {
		t.Fatalf("U16LE = 0x%x, want 0x2301", got)
	}
	if got := U32LE(data); got != 0x67452301 {
		t.Fatalf("U32LE = 0x%x, want 0x67452301", got)
	}
	if got := U64LE(data); got != 0xefcdab8967452301 {
		t.Fatalf("U64LE = 0x%x, want 0xefcdab8967452301", got)
	}

	short := []byte{0xAA}
	if U16LE(short) != 0 || U32LE(short) != 0 || U64LE(short) != 0 {
		t.Fatalf("short reads should return 0")
	}
}

func TestPutHelpers(t *testing.T) {
	b := make([]byte, 8)
	PutU32LE(b, 0xdeadbeef)
	if got := U32LE(b); got != 0xdeadbeef {
		t.Fatalf("PutU32LE round trip = 0x%x", got)
	}
	PutU64LE(b, 0x0102030405060708)
	if b[0] != 0x08 || b[7] != 0x01 {
		t.Fatalf("PutU64LE wrote big-endian bytes: %x", b)
	}

	short := []byte{0xAA, 0xBB}
	PutU32LE(short, 1)
	PutU64LE(short, 1)
	if short[0] != 0xAA || short[1] != 0xBB {
		t.Fatalf("short buffers must be left untouched: %x", short)
	}
}

func TestWord(t *testing.T) {
	b := make([]byte, format.PointerSize)
	want := uintptr(0x7fff1234)
	PutWord(b, want)
	if got := Word(b); got != want {
		t.Fatalf("Word = 0x%x, want 0x%x", got, want)
	}
	if b[0] != 0x34 {
		t.Fatalf("PutWord must be little-endian, first byte 0x%x", b[0])
	}
}
