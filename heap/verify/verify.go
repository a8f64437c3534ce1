package verify

import (
	"fmt"

	"github.com/joshuapare/cellheap/heap"
	"github.com/joshuapare/cellheap/heap/alloc"
	"github.com/joshuapare/cellheap/internal/format"
)

// ValidationError describes one violated invariant.
type ValidationError struct {
	Type    string  // Check that failed ("Block", "FreeList", ...)
	Arena   string  // Arena name
	Addr    uintptr // Block or cell address; 0 when not tied to one
	Message string
}

func (e *ValidationError) Error() string {
	if e.Addr != 0 {
		return fmt.Sprintf("%s: %s arena at %#x: %s", e.Type, e.Arena, e.Addr, e.Message)
	}
	return fmt.Sprintf("%s: %s arena: %s", e.Type, e.Arena, e.Message)
}

// Heap validates both arenas of h. Returns the first error encountered, or
// nil if all checks pass.
func Heap(h *heap.Heap) error {
	primary, numbers := h.Arenas()
	if err := Arena(primary); err != nil {
		return err
	}
	return Arena(numbers)
}

// Arena validates every block of a and its live counter.
func Arena(a *alloc.Arena) error {
	live := 0
	for _, b := range a.Blocks() {
		if err := Block(a, b); err != nil {
			return err
		}
		live += b.Used()
	}
	if live != a.Live() {
		return &ValidationError{
			Type:    "Arena",
			Arena:   a.Name(),
			Message: fmt.Sprintf("live counter %d, allocated cells %d", a.Live(), live),
		}
	}
	return nil
}

// Block validates one block of a.
func Block(a *alloc.Arena, b *alloc.Block) error {
	fail := func(typ string, addr uintptr, msg string, args ...any) error {
		return &ValidationError{Type: typ, Arena: a.Name(), Addr: addr, Message: fmt.Sprintf(msg, args...)}
	}

	base := b.Base()
	if b.Arena() != a {
		return fail("Block", base, "block belongs to another arena")
	}
	if base&format.BlockOffsetMask != 0 {
		return fail("Block", base, "block is not aligned to %d bytes", format.BlockSize)
	}
	if got, _, ok := a.Lookup(base); !ok || got != b {
		return fail("Block", base, "block is not reachable by address lookup")
	}
	if want := int(format.BlockSize / a.CellSize()); b.NumCells() != want {
		return fail("Block", base, "%d cells, want %d", b.NumCells(), want)
	}

	allocated := 0
	for i := range b.NumCells() {
		if b.Allocated(i) {
			allocated++
		}
	}
	if allocated != b.Used() {
		return fail("Block", base, "used count %d, allocated cells %d", b.Used(), allocated)
	}

	seen := make([]bool, b.NumCells())
	free := 0
	for i, ok := b.FreeHead(); ok; i, ok = b.Next(i) {
		if i < 0 || i >= b.NumCells() {
			return fail("FreeList", base, "link to cell %d out of range", i)
		}
		if seen[i] {
			return fail("FreeList", b.CellAddr(i), "free list cycles at cell %d", i)
		}
		seen[i] = true
		if b.Allocated(i) {
			return fail("FreeList", b.CellAddr(i), "allocated cell %d on free list", i)
		}
		for _, c := range b.Cell(i) {
			if c != 0 {
				return fail("FreeCell", b.CellAddr(i), "free cell %d is not zeroed", i)
			}
		}
		free++
	}
	if free+b.Used() != b.NumCells() {
		return fail("FreeList", base, "%d free + %d used != %d cells", free, b.Used(), b.NumCells())
	}
	return nil
}
