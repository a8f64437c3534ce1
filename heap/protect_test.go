package heap_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/cellheap/heap"
	"github.com/joshuapare/cellheap/internal/testutil"
)

func TestProtect_Balance(t *testing.T) {
	const n = 5
	g := testutil.NewGraph()
	h := testutil.NewHeap(t, heap.Options{Model: g, AllocationsPerCollection: noAutoCollect})

	c := testutil.Allocate(t, h)
	for range n {
		h.Protect(c)
	}
	assert.Equal(t, 1, h.ProtectedObjectCount(), "entries are counted, not duplicated")

	for range n - 1 {
		h.Unprotect(c)
	}
	assert.False(t, h.Collect())
	assert.True(t, h.Owns(c))
	assert.Equal(t, 1, h.ProtectedObjectCount())

	h.Unprotect(c)
	assert.Zero(t, h.ProtectedObjectCount())
	assert.True(t, h.Collect())
	assert.Equal(t, 1, g.FinalizeCount(c))
}

func TestProtect_UnbalancedUnprotectIgnored(t *testing.T) {
	h := testutil.NewHeap(t, heap.Options{AllocationsPerCollection: noAutoCollect})

	c := testutil.Allocate(t, h)
	h.Unprotect(c)
	assert.Zero(t, h.ProtectedObjectCount())

	h.Protect(c)
	h.Unprotect(c)
	h.Unprotect(c)
	h.Protect(c)
	assert.Equal(t, 1, h.ProtectedObjectCount())
	assert.False(t, h.Collect())
}

func TestProtect_ImmediatesIgnored(t *testing.T) {
	h := testutil.NewHeap(t, heap.Options{})

	for _, v := range []uintptr{0, 1, 7<<1 | 1, 0x1003} {
		h.Protect(v)
	}
	assert.Zero(t, h.ProtectedObjectCount())
	h.Unprotect(1)
	assert.Zero(t, h.ProtectedObjectCount())
}

func TestProtect_Concurrent(t *testing.T) {
	const (
		workers = 8
		rounds  = 200
	)
	h := testutil.NewHeap(t, heap.Options{AllocationsPerCollection: noAutoCollect})
	cells := testutil.AllocateN(t, h, workers)

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range rounds {
				for _, c := range cells {
					h.Protect(c)
				}
				h.Unprotect(cells[w])
			}
		}()
	}
	wg.Wait()

	// Every cell was protected workers*rounds times and unprotected rounds times.
	assert.Equal(t, workers, h.ProtectedObjectCount())
	assert.False(t, h.Collect())
}

func TestProtectedObjectTypeCounts(t *testing.T) {
	g := testutil.NewGraph()
	h := testutil.NewHeap(t, heap.Options{Model: g, AllocationsPerCollection: noAutoCollect})

	str := testutil.Allocate(t, h)
	g.Names[str] = "string"
	obj := testutil.Allocate(t, h)
	num, err := h.AllocateNumber(8)
	require.NoError(t, err)
	unprotected := testutil.Allocate(t, h)
	g.Names[unprotected] = "string"

	for _, c := range []uintptr{str, obj, num, obj} {
		h.Protect(c)
	}

	assert.Equal(t, map[string]int{
		"string": 1,
		"object": 1,
		"number": 1,
	}, h.ProtectedObjectTypeCounts())
	assert.Equal(t, 3, h.Stats().Protected)
}

func TestGlobalObjectCounts(t *testing.T) {
	g := testutil.NewGraph()
	h := testutil.NewHeap(t, heap.Options{Model: g, AllocationsPerCollection: noAutoCollect})

	g1 := testutil.Allocate(t, h)
	g2 := testutil.Allocate(t, h)
	testutil.Allocate(t, h)
	g.Globals[g1] = true
	g.Globals[g2] = true
	h.Protect(g1)

	assert.Equal(t, 2, h.GlobalObjectCount())
	assert.Equal(t, 1, h.ProtectedGlobalObjectCount())

	h.Collect()
	assert.Equal(t, 1, h.GlobalObjectCount(), "unrooted global object was reclaimed")
}

func TestGlobalObjectCounts_WithoutReporter(t *testing.T) {
	h := testutil.NewHeap(t, heap.Options{})
	c := testutil.Allocate(t, h)
	h.Protect(c)

	assert.Zero(t, h.GlobalObjectCount())
	assert.Zero(t, h.ProtectedGlobalObjectCount())
	assert.Equal(t, map[string]int{"object": 1}, h.ProtectedObjectTypeCounts())
}
