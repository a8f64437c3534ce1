package heap

import (
	"time"

	"github.com/joshuapare/cellheap/internal/logger"
)

// Collect runs a full mark-and-sweep cycle and reports whether any cell was
// reclaimed. It panics with a ReentrancyError if an allocation or collection
// is already in flight. Collect on a closed heap does nothing.
func (h *Heap) Collect() bool {
	if h.closed {
		return false
	}
	h.enter(StateCollecting, "collect")
	defer func() { h.state = StateIdle }()
	return h.collect() > 0
}

// collect marks from every root source and sweeps both arenas. The caller
// has moved the heap into StateCollecting.
func (h *Heap) collect() int {
	start := time.Now()
	before := h.primary.Live() + h.numbers.Live()
	logger.Debug("collection started",
		"cycle", h.collections+1,
		"live", before,
		"extra_cost", h.extraCost)

	h.primary.ClearMarks()
	h.numbers.ClearMarks()

	h.markProtectedObjects()
	h.markCurrentThreadConservatively()
	h.markOtherThreadsConservatively()
	h.markListRoots()
	if rm, ok := h.opts.Model.(RootMarker); ok {
		rm.MarkRoots(h)
		h.drain()
	}

	var finalize func(cell uintptr)
	if f, ok := h.opts.Model.(Finalizer); ok {
		finalize = func(cell uintptr) { f.Finalize(h, cell) }
	}
	reclaimed := h.primary.Sweep(finalize)
	reclaimed += h.numbers.Sweep(finalize)

	h.extraCost = 0
	h.collections++
	h.lastReclaimed = reclaimed

	logger.Debug("collection finished",
		"cycle", h.collections,
		"live_before", before,
		"live_after", before-reclaimed,
		"reclaimed", reclaimed,
		"primary_blocks", h.primary.NumBlocks(),
		"number_blocks", h.numbers.NumBlocks(),
		"duration", time.Since(start))
	return reclaimed
}

// tracer adapts the heap to the Tracer handed to Model.Trace.
type tracer struct {
	h *Heap
}

func (t *tracer) Mark(cell uintptr) { t.h.mark(cell) }

// mark sets the mark bit of cell and queues it for tracing. Words that are
// not allocated cells, and cells already marked, are ignored.
func (h *Heap) mark(cell uintptr) {
	b, idx, ok := h.lookup(cell)
	if !ok || !b.Allocated(idx) {
		return
	}
	if b.Mark(idx) {
		h.gray = append(h.gray, cell)
	}
}

// drain traces queued cells until the queue is empty.
func (h *Heap) drain() {
	if h.opts.Model == nil {
		h.gray = h.gray[:0]
		return
	}
	for len(h.gray) > 0 {
		n := len(h.gray) - 1
		cell := h.gray[n]
		h.gray = h.gray[:n]
		h.opts.Model.Trace(h, cell, &h.tracer)
	}
}
