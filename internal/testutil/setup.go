package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/cellheap/heap"
	"github.com/joshuapare/cellheap/internal/pages"
)

// NewHeap creates a heap backed by a private HeapSource and closes it when
// the test ends. Zero fields of opts take the heap defaults, except Pages,
// which defaults to the private source.
//
// Example:
//
//	h := testutil.NewHeap(t, heap.Options{Model: g})
//	cell := testutil.Allocate(t, h)
func NewHeap(t testing.TB, opts heap.Options) *heap.Heap {
	t.Helper()
	if opts.Pages == nil {
		opts.Pages = pages.NewHeapSource()
	}
	if opts.StackWords == 0 && opts.Stack == nil {
		opts.StackWords = 4096
	}
	h, err := heap.New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

// Allocate allocates one primary cell and fails the test on error.
func Allocate(t testing.TB, h *heap.Heap) uintptr {
	t.Helper()
	c, err := h.Allocate(16)
	require.NoError(t, err)
	return c
}

// AllocateN allocates n primary cells.
func AllocateN(t testing.TB, h *heap.Heap, n int) []uintptr {
	t.Helper()
	cells := make([]uintptr, n)
	for i := range cells {
		cells[i] = Allocate(t, h)
	}
	return cells
}

// Root pushes cells onto the heap's main stack so conservative scanning keeps
// them alive. The returned function pops them again.
func Root(t testing.TB, h *heap.Heap, cells ...uintptr) func() {
	t.Helper()
	s := h.Stack()
	n := s.Len()
	for _, c := range cells {
		require.NoError(t, s.Push(c))
	}
	return func() { require.NoError(t, s.Truncate(n)) }
}
