package alloc

import (
	"math"

	"github.com/joshuapare/cellheap/internal/bitmap"
	"github.com/joshuapare/cellheap/internal/format"
)

// noCell terminates a block free list.
const noCell = math.MaxUint16

// slot is the bookkeeping for one cell. A cell is either allocated, with its
// payload in the block page, or free, linking to the next free cell by index.
type slot struct {
	next      uint16
	allocated bool
}

// Block is one BlockSize page carved into equally sized cells, plus its free
// list and mark bitmap. The page is aligned to BlockSize, so the block owning
// any interior address is found by masking the address.
type Block struct {
	arena    *Arena
	data     []byte
	base     uintptr
	cellSize uintptr
	slots    []slot
	freeHead uint16
	used     int
	marks    bitmap.Bitmap
}

func newBlock(a *Arena, data []byte, base uintptr) *Block {
	n := int(format.BlockSize / a.cellSize)
	b := &Block{
		arena:    a,
		data:     data,
		base:     base,
		cellSize: a.cellSize,
		slots:    make([]slot, n),
	}
	for i := range b.slots {
		b.slots[i].next = uint16(i + 1)
	}
	b.slots[n-1].next = noCell
	return b
}

// Arena returns the arena owning the block, or nil once it has been released.
func (b *Block) Arena() *Arena { return b.arena }

// Base returns the block's aligned base address.
func (b *Block) Base() uintptr { return b.base }

// NumCells returns the block's cell capacity.
func (b *Block) NumCells() int { return len(b.slots) }

// Used returns the number of allocated cells.
func (b *Block) Used() int { return b.used }

// Full reports whether the free list is empty.
func (b *Block) Full() bool { return b.freeHead == noCell }

// CellAddr returns the address of cell i.
func (b *Block) CellAddr(i int) uintptr {
	return b.base + uintptr(i)*b.cellSize
}

// Cell returns the payload bytes of cell i.
func (b *Block) Cell(i int) []byte {
	off := uintptr(i) * b.cellSize
	return b.data[off : off+b.cellSize : off+b.cellSize]
}

// Allocated reports whether cell i is in use.
func (b *Block) Allocated(i int) bool { return b.slots[i].allocated }

// Marked reports whether cell i was reached in the current cycle.
func (b *Block) Marked(i int) bool { return b.marks.Get(i) }

// Mark sets the mark bit of cell i and reports whether it was clear before.
func (b *Block) Mark(i int) bool { return b.marks.TestAndSet(i) }

// ClearMarks clears every mark bit of the block.
func (b *Block) ClearMarks() { b.marks.ClearAll() }

// MarkedCount returns the number of set mark bits.
func (b *Block) MarkedCount() int { return b.marks.Count() }

// FreeHead returns the first cell of the free list. ok is false when the
// block is full.
func (b *Block) FreeHead() (i int, ok bool) {
	if b.freeHead == noCell {
		return 0, false
	}
	return int(b.freeHead), true
}

// Next returns the free cell linked after free cell i. ok is false at the
// end of the list. Next of an allocated cell is meaningless.
func (b *Block) Next(i int) (next int, ok bool) {
	n := b.slots[i].next
	if n == noCell {
		return 0, false
	}
	return int(n), true
}

// pop detaches the head of the free list. The caller checks Full first.
func (b *Block) pop() int {
	i := int(b.freeHead)
	b.freeHead = b.slots[i].next
	b.slots[i] = slot{allocated: true}
	b.used++
	return i
}

// release zeroes cell i and pushes it onto the free list.
func (b *Block) release(i int) {
	clear(b.Cell(i))
	b.slots[i] = slot{next: b.freeHead}
	b.freeHead = uint16(i)
	b.used--
}

// sweep reclaims every allocated, unmarked cell and returns how many it freed.
func (b *Block) sweep(finalize func(cell uintptr)) int {
	freed := 0
	for i := range b.slots {
		if !b.slots[i].allocated || b.marks.Get(i) {
			continue
		}
		if finalize != nil {
			finalize(b.CellAddr(i))
		}
		b.release(i)
		freed++
	}
	return freed
}

// freeCells walks the free list and returns its length.
func (b *Block) freeCells() int {
	n := 0
	for i := b.freeHead; i != noCell; i = b.slots[i].next {
		n++
	}
	return n
}
