// Package bitmap provides the per-block mark bitmap used by the collector.
package bitmap

import (
	"math/bits"

	"github.com/joshuapare/cellheap/internal/format"
)

// Bits is the number of bits a Bitmap holds: one per cell of the densest
// block kind.
const Bits = format.BitmapWords * 32

// Bitmap holds one bit per cell. A set bit means the cell was reached in the
// current collection cycle.
//
// Bits live in a fixed array of uint32 words; bit n is word n>>5, position
// n&31. The zero value is a cleared bitmap, so a Bitmap is embedded directly
// in block metadata.
type Bitmap struct {
	words [format.BitmapWords]uint32
}

// Get reports whether bit n is set.
func (b *Bitmap) Get(n int) bool {
	return b.words[n>>5]&(1<<(uint(n)&0x1F)) != 0
}

// Set sets bit n.
func (b *Bitmap) Set(n int) {
	b.words[n>>5] |= 1 << (uint(n) & 0x1F)
}

// TestAndSet sets bit n and reports whether it was clear before the call.
func (b *Bitmap) TestAndSet(n int) bool {
	w := &b.words[n>>5]
	mask := uint32(1) << (uint(n) & 0x1F)
	if *w&mask != 0 {
		return false
	}
	*w |= mask
	return true
}

// Clear clears bit n.
func (b *Bitmap) Clear(n int) {
	b.words[n>>5] &^= 1 << (uint(n) & 0x1F)
}

// ClearAll clears every bit.
func (b *Bitmap) ClearAll() {
	clear(b.words[:])
}

// Count returns the number of set bits.
func (b *Bitmap) Count() int {
	total := 0
	for _, w := range b.words {
		total += bits.OnesCount32(w)
	}
	return total
}
