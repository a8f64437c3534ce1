// Package verify checks the structural invariants of a heap.
//
// The checks walk every block of both arenas and confirm the bookkeeping the
// allocator and the sweeper rely on:
//
//   - every block is BlockSize-aligned and reachable through the arena lookup
//   - each block's used count equals its allocated cells
//   - free lists are in range, acyclic, hold only free cells, and together
//     with the used cells cover the whole block
//   - free cells are zeroed
//   - the arena live counter equals the allocated cells
//
// A full walk touches every cell, so these checks belong in tests and in
// heapctl's --verify flag, not on an allocation path.
//
// Usage:
//
//	if err := verify.Heap(h); err != nil {
//	    t.Fatal(err)
//	}
package verify
