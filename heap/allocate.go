package heap

import (
	"github.com/joshuapare/cellheap/heap/alloc"
)

// Allocate returns a zeroed primary-arena cell able to hold size bytes.
//
// Allocation may run a full collection first: when reported extra memory
// makes the growth since the last collection large enough, or when every
// block is full and collecting is cheaper than mapping another block.
func (h *Heap) Allocate(size uintptr) (uintptr, error) {
	return h.allocate(h.primary, size)
}

// AllocateNumber returns a zeroed number-arena cell able to hold size bytes.
// Number cells are half the size of primary cells.
func (h *Heap) AllocateNumber(size uintptr) (uintptr, error) {
	return h.allocate(h.numbers, size)
}

func (h *Heap) allocate(a *alloc.Arena, size uintptr) (uintptr, error) {
	if h.closed {
		return 0, ErrClosed
	}
	h.enter(StateAllocating, "allocate")
	defer func() { h.state = StateIdle }()

	if err := a.CheckSize(size); err != nil {
		return 0, err
	}

	// Extra memory held outside the heap can justify a collection even
	// while free cells remain.
	if a == h.primary && h.extraCost > h.opts.AllocationsPerCollection && h.shouldCollect(a) {
		h.collectFromAllocation()
	}

	for {
		if cell, ok := a.TryAllocate(); ok {
			return cell, nil
		}
		if !h.shouldCollect(a) || h.collectFromAllocation() == 0 {
			break
		}
	}

	// Every block is full and collecting did not help: map another.
	return a.Allocate(size)
}

// newCost is the growth of a since its last collection, in cells. Extra
// memory cost is charged to the primary arena only.
func (h *Heap) newCost(a *alloc.Arena) int {
	cost := a.Live() - a.LiveAtLastCollect()
	if a == h.primary {
		cost += h.extraCost
	}
	return cost
}

// shouldCollect reports whether a has grown enough since its last collection
// that collecting is preferable to growing.
func (h *Heap) shouldCollect(a *alloc.Arena) bool {
	cost := h.newCost(a)
	return cost >= h.opts.AllocationsPerCollection && cost >= a.LiveAtLastCollect()
}

// collectFromAllocation runs a cycle on behalf of an in-flight allocation.
// The heap passes through Idle so the two operations never nest.
func (h *Heap) collectFromAllocation() int {
	h.state = StateIdle
	h.enter(StateCollecting, "collect")
	reclaimed := h.collect()
	h.state = StateAllocating
	return reclaimed
}

// ReportExtraMemoryCost tells the collector that a live value holds cost
// bytes outside the heap, such as a large string buffer. Small costs are
// ignored.
func (h *Heap) ReportExtraMemoryCost(cost int) {
	if cost <= h.opts.MinExtraCost {
		return
	}
	h.extraCost += cost / int(2*h.primary.CellSize())
}
