package alloc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/cellheap/internal/format"
	"github.com/joshuapare/cellheap/internal/pages"
)

// ============================================================================
// Arena Creation Utilities
// ============================================================================

// newTestArena creates an arena backed by a private HeapSource and closes it
// when the test ends.
func newTestArena(t testing.TB, cellSize uintptr, cfg Config) (*Arena, *pages.HeapSource) {
	t.Helper()
	src := pages.NewHeapSource()
	if cfg.Pages == nil {
		cfg.Pages = src
	}
	a, err := NewArena("test", cellSize, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a, src
}

// allocN allocates n cells and returns their addresses.
func allocN(t testing.TB, a *Arena, n int) []uintptr {
	t.Helper()
	cells := make([]uintptr, n)
	for i := range cells {
		c, err := a.Allocate(a.CellSize())
		require.NoError(t, err)
		cells[i] = c
	}
	return cells
}

// fillBlocks allocates exactly enough cells to fill n blocks.
func fillBlocks(t testing.TB, a *Arena, n int) []uintptr {
	t.Helper()
	return allocN(t, a, n*int(format.BlockSize/a.CellSize()))
}

// markCells sets the mark bit of each cell.
func markCells(t testing.TB, a *Arena, cells ...uintptr) {
	t.Helper()
	for _, c := range cells {
		b, idx, ok := a.Lookup(c)
		require.True(t, ok, "cell %#x not found", c)
		b.Mark(idx)
	}
}

// ============================================================================
// Failing Page Source
// ============================================================================

var errSourceExhausted = errors.New("test: source exhausted")

// limitedSource maps at most limit regions, then fails.
type limitedSource struct {
	*pages.HeapSource
	limit int
	maps  int
}

func (s *limitedSource) Map(size, align uintptr) ([]byte, error) {
	if s.maps >= s.limit {
		return nil, errSourceExhausted
	}
	s.maps++
	return s.HeapSource.Map(size, align)
}

// ============================================================================
// Invariants
// ============================================================================

// assertInvariants checks the structural invariants every arena must hold
// between operations.
func assertInvariants(t testing.TB, a *Arena) {
	t.Helper()

	used := 0
	for _, b := range a.Blocks() {
		require.Same(t, a, b.Arena(), "block must point back at its arena")
		require.Zero(t, b.Base()&format.BlockOffsetMask, "block must be aligned")
		require.Equal(t, b.NumCells(), b.Used()+b.freeCells(),
			"used + free must equal capacity for block %#x", b.Base())

		allocated := 0
		for i := 0; i < b.NumCells(); i++ {
			if b.Allocated(i) {
				allocated++
			}
		}
		require.Equal(t, b.Used(), allocated, "used count drifted for block %#x", b.Base())

		// Free list never holds an allocated cell.
		for i := b.freeHead; i != noCell; i = b.slots[i].next {
			require.False(t, b.slots[i].allocated, "allocated cell %d on free list", i)
		}
		used += b.Used()
	}
	require.Equal(t, a.Live(), used, "live counter must equal allocated cells")
}
