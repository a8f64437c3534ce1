// Package heap implements a conservative, non-moving mark-and-sweep garbage
// collector for a script runtime.
//
// # Overview
//
// A Heap owns two arenas of fixed-size cells: the primary arena for ordinary
// values and the number arena, with cells half the size, for boxed numbers.
// Cells never move. A cell's address is the value handle the runtime stores
// in registers, stacks and other cells.
//
// # Roots
//
// A collection marks from four root sources, in order:
//
//  1. the protected set (Protect / Unprotect, reference counted),
//  2. the owning thread's stack, scanned conservatively,
//  3. every stack registered with RegisterThread, scanned conservatively,
//  4. every MarkList registered with AddMarkList.
//
// Conservative scanning treats any word that lands exactly on an allocated
// cell as a reference. Interior pointers and misaligned words are rejected.
// Values reachable from a root are traced through the Model until no new
// cell is found; the walk uses a work queue, so cycles and deep graphs are
// safe.
//
// # Policy
//
// Allocation collects before mapping a new block when the growth since the
// last collection is at least Options.AllocationsPerCollection cells and at
// least the number of cells that survived it. External memory reported with
// ReportExtraMemoryCost counts toward that growth and can trigger a
// collection even while free cells remain.
//
// # Usage
//
//	h, err := heap.New(heap.Options{Model: rt})
//	if err != nil {
//	    return err
//	}
//	defer h.Close()
//
//	cell, err := h.Allocate(16)
//	if err != nil {
//	    return err
//	}
//	h.Stack().Push(cell) // keep it alive across collections
//
// # Thread Safety
//
// Allocate, Collect and Close must be serialized by the caller. Entering one
// while another is in flight panics with a *ReentrancyError. Protect,
// Unprotect, RegisterThread and UnregisterThread are safe from any goroutine.
package heap
