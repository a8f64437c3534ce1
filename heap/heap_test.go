package heap_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/cellheap/heap"
	"github.com/joshuapare/cellheap/heap/alloc"
	"github.com/joshuapare/cellheap/heap/verify"
	"github.com/joshuapare/cellheap/internal/format"
	"github.com/joshuapare/cellheap/internal/testutil"
)

// noAutoCollect keeps allocation from collecting on its own, so a test can
// hold cells in Go locals without rooting them.
const noAutoCollect = 1 << 30

// ============================================================================
// Lifecycle
// ============================================================================

func TestNew_Empty(t *testing.T) {
	h := testutil.NewHeap(t, heap.Options{})

	st := h.Stats()
	assert.Equal(t, 0, st.Primary.Blocks)
	assert.Equal(t, 0, st.Numbers.Blocks)
	assert.Equal(t, format.CellSize, st.Primary.CellSize)
	assert.Equal(t, format.SmallCellSize, st.Numbers.CellSize)
	assert.Equal(t, heap.StateIdle, h.State())
	assert.False(t, h.IsBusy())
	assert.Zero(t, h.Size())
	require.NotNil(t, h.Stack())
}

func TestClose(t *testing.T) {
	h, err := heap.New(heap.Options{Pages: testutil.NewLimitedSource(8)})
	require.NoError(t, err)

	c, err := h.Allocate(8)
	require.NoError(t, err)
	require.True(t, h.Owns(c))

	require.NoError(t, h.Close())
	require.NoError(t, h.Close(), "second Close is a no-op")

	_, err = h.Allocate(8)
	require.ErrorIs(t, err, heap.ErrClosed)
	_, err = h.AllocateNumber(8)
	require.ErrorIs(t, err, heap.ErrClosed)
	assert.False(t, h.Collect())
	assert.False(t, h.Owns(c))
}

// ============================================================================
// Allocation
// ============================================================================

func TestAllocate_ZeroedCells(t *testing.T) {
	h := testutil.NewHeap(t, heap.Options{})

	c, err := h.Allocate(format.CellSize)
	require.NoError(t, err)
	assert.True(t, h.Owns(c))
	assert.False(t, h.IsNumberCell(c))
	assert.Zero(t, c%format.CellSize, "primary cells are cell aligned")

	b := h.Bytes(c)
	require.Len(t, b, int(format.CellSize))
	assert.Equal(t, make([]byte, format.CellSize), b)

	n, err := h.AllocateNumber(8)
	require.NoError(t, err)
	assert.True(t, h.Owns(n))
	assert.True(t, h.IsNumberCell(n))
	require.Len(t, h.Bytes(n), int(format.SmallCellSize))

	assert.Equal(t, format.CellSize+format.SmallCellSize, h.Size())
	assert.Nil(t, h.Bytes(c+8), "interior address has no payload")
}

func TestAllocate_SizeTooLarge(t *testing.T) {
	h := testutil.NewHeap(t, heap.Options{})

	_, err := h.Allocate(format.CellSize + 1)
	require.ErrorIs(t, err, alloc.ErrSizeTooLarge)

	_, err = h.AllocateNumber(format.SmallCellSize + 1)
	require.ErrorIs(t, err, alloc.ErrSizeTooLarge)

	assert.Equal(t, heap.StateIdle, h.State(), "failed allocation returns to idle")
}

func TestAllocate_OutOfMemory(t *testing.T) {
	// One region for the main stack, one for the first block.
	src := testutil.NewLimitedSource(2)
	h := testutil.NewHeap(t, heap.Options{Pages: src, StackWords: 512, AllocationsPerCollection: 64})

	perBlock := int(format.CellsPerBlock)
	for range perBlock {
		c := testutil.Allocate(t, h)
		h.Protect(c)
	}

	_, err := h.Allocate(8)
	require.Error(t, err)
	require.ErrorIs(t, err, alloc.ErrOutOfMemory)
	require.ErrorIs(t, err, testutil.ErrSourceExhausted)
	assert.Equal(t, heap.StateIdle, h.State())
	assert.Equal(t, 1, h.Stats().Collections, "a collection is tried before growing")
}

func TestReportExtraMemoryCost(t *testing.T) {
	h := testutil.NewHeap(t, heap.Options{})

	h.ReportExtraMemoryCost(100)
	h.ReportExtraMemoryCost(heap.DefaultMinExtraCost)
	assert.Zero(t, h.Stats().ExtraCost, "costs at or under the threshold are ignored")

	h.ReportExtraMemoryCost(10000)
	assert.Equal(t, 10000/int(2*format.CellSize), h.Stats().ExtraCost)

	h.Collect()
	assert.Zero(t, h.Stats().ExtraCost, "collection resets extra cost")
}

// ============================================================================
// Scenarios
// ============================================================================

func TestScenario_DroppedCellsAreReclaimedAndReused(t *testing.T) {
	g := testutil.NewGraph()
	h := testutil.NewHeap(t, heap.Options{Model: g})

	before := h.Size()
	cells := testutil.AllocateN(t, h, 10)
	assert.Equal(t, before+10*format.CellSize, h.Size())

	require.True(t, h.Collect())
	assert.Equal(t, before, h.Size())
	assert.Equal(t, 10, h.Stats().LastReclaimed)
	assert.Len(t, g.Finalized, 10)

	again := testutil.AllocateN(t, h, 10)
	assert.ElementsMatch(t, cells, again, "freed cells are handed out again")
	require.NoError(t, verify.Heap(h))
}

func TestScenario_ProtectedCellSurvivesUntilUnprotected(t *testing.T) {
	g := testutil.NewGraph()
	h := testutil.NewHeap(t, heap.Options{Model: g})

	c := testutil.Allocate(t, h)
	h.Protect(c)

	assert.False(t, h.Collect())
	assert.True(t, h.Owns(c))
	assert.Zero(t, g.FinalizeCount(c))

	h.Unprotect(c)
	assert.True(t, h.Collect())
	assert.False(t, h.Owns(c))
	assert.Equal(t, 1, g.FinalizeCount(c))
}

func TestScenario_ExtraCostCollectsSooner(t *testing.T) {
	opts := func() heap.Options {
		return heap.Options{AllocationsPerCollection: 64}
	}

	t.Run("without extra cost", func(t *testing.T) {
		h := testutil.NewHeap(t, opts())
		testutil.AllocateN(t, h, 10)
		testutil.Allocate(t, h)
		assert.Zero(t, h.Stats().Collections)
	})

	t.Run("with extra cost", func(t *testing.T) {
		h := testutil.NewHeap(t, opts())
		testutil.AllocateN(t, h, 10)
		h.ReportExtraMemoryCost(10000)
		testutil.Allocate(t, h)

		st := h.Stats()
		assert.Equal(t, 1, st.Collections)
		assert.Equal(t, 10, st.LastReclaimed)
		assert.Zero(t, st.ExtraCost)
		assert.Equal(t, 1, st.Primary.Live)
	})
}

// ============================================================================
// Policy
// ============================================================================

func TestPolicy_CollectsBeforeGrowing(t *testing.T) {
	h := testutil.NewHeap(t, heap.Options{AllocationsPerCollection: 64})

	testutil.AllocateN(t, h, int(format.CellsPerBlock))
	require.Equal(t, 1, h.Stats().Primary.Blocks)

	testutil.Allocate(t, h)
	st := h.Stats()
	assert.Equal(t, 1, st.Collections)
	assert.Equal(t, 1, st.Primary.Blocks, "reclaimed cells are used instead of a new block")
	assert.Equal(t, int(format.CellsPerBlock), st.LastReclaimed)
}

func TestPolicy_GrowsWhenNothingReclaimed(t *testing.T) {
	h := testutil.NewHeap(t, heap.Options{AllocationsPerCollection: 64})

	for _, c := range testutil.AllocateN(t, h, int(format.CellsPerBlock)) {
		h.Protect(c)
	}

	testutil.Allocate(t, h)
	st := h.Stats()
	assert.Equal(t, 1, st.Collections)
	assert.Equal(t, 2, st.Primary.Blocks)
	assert.Equal(t, int(format.CellsPerBlock)+1, st.Primary.Live)
	require.NoError(t, verify.Heap(h))
}

func TestPolicy_SmallHeapGrowsWithoutCollecting(t *testing.T) {
	h := testutil.NewHeap(t, heap.Options{})

	// A full block is under the default growth threshold.
	testutil.AllocateN(t, h, int(format.CellsPerBlock)+1)
	st := h.Stats()
	assert.Zero(t, st.Collections)
	assert.Equal(t, 2, st.Primary.Blocks)
}

func TestPolicy_NumberArena(t *testing.T) {
	h := testutil.NewHeap(t, heap.Options{AllocationsPerCollection: 64})

	for range format.SmallCellsPerBlock {
		_, err := h.AllocateNumber(8)
		require.NoError(t, err)
	}
	_, err := h.AllocateNumber(8)
	require.NoError(t, err)

	st := h.Stats()
	assert.Equal(t, 1, st.Collections)
	assert.Equal(t, 1, st.Numbers.Blocks)
	assert.Equal(t, 1, st.Numbers.Live)
}

// ============================================================================
// Reentrancy
// ============================================================================

// catchReentrancy runs fn and returns the ReentrancyError it panicked with.
func catchReentrancy(t *testing.T, fn func()) (re *heap.ReentrancyError) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		require.ErrorIs(t, err, heap.ErrReentrant)
		require.True(t, errors.As(err, &re))
	}()
	fn()
	return nil
}

func TestReentrancy_AllocateFromFinalizer(t *testing.T) {
	g := testutil.NewGraph()
	h := testutil.NewHeap(t, heap.Options{Model: g})
	g.OnFinalize = func(h *heap.Heap, _ uintptr) {
		_, _ = h.Allocate(8)
	}

	testutil.Allocate(t, h)
	re := catchReentrancy(t, func() { h.Collect() })
	assert.Equal(t, "allocate", re.Op)
	assert.Equal(t, heap.StateCollecting, re.State)
	assert.Equal(t, "heap: allocate while collecting", re.Error())
}

func TestReentrancy_CollectFromFinalizer(t *testing.T) {
	g := testutil.NewGraph()
	h := testutil.NewHeap(t, heap.Options{Model: g})
	g.OnFinalize = func(h *heap.Heap, _ uintptr) {
		h.Collect()
	}

	testutil.Allocate(t, h)
	re := catchReentrancy(t, func() { h.Collect() })
	assert.Equal(t, "collect", re.Op)
}

func TestReentrancy_FinalizerDuringAllocationCollect(t *testing.T) {
	g := testutil.NewGraph()
	h := testutil.NewHeap(t, heap.Options{Model: g, AllocationsPerCollection: 64})
	g.OnFinalize = func(h *heap.Heap, _ uintptr) {
		_, _ = h.AllocateNumber(8)
	}

	testutil.AllocateN(t, h, 10)
	h.ReportExtraMemoryCost(10000)
	re := catchReentrancy(t, func() { _, _ = h.Allocate(8) })
	assert.Equal(t, heap.StateCollecting, re.State)
}

// stateModel records the heap state seen while tracing.
type stateModel struct {
	states []heap.State
	busy   []bool
}

func (m *stateModel) Trace(h *heap.Heap, _ uintptr, _ heap.Tracer) {
	m.states = append(m.states, h.State())
	m.busy = append(m.busy, h.IsBusy())
}

func TestState_DuringCollection(t *testing.T) {
	m := &stateModel{}
	h := testutil.NewHeap(t, heap.Options{Model: m})

	c := testutil.Allocate(t, h)
	h.Protect(c)
	h.Collect()

	require.Len(t, m.states, 1)
	assert.Equal(t, heap.StateCollecting, m.states[0])
	assert.True(t, m.busy[0])
	assert.Equal(t, heap.StateIdle, h.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", heap.StateIdle.String())
	assert.Equal(t, "allocating", heap.StateAllocating.String())
	assert.Equal(t, "collecting", heap.StateCollecting.String())
	assert.Equal(t, "unknown", heap.State(9).String())
}
