// Package alloc provides block and cell management for the collector heap.
//
// # Overview
//
// An Arena owns a table of fixed-size blocks. Every block is one
// format.BlockSize page aligned to its own size and carved into cells of a
// single size. A heap runs two arenas: a primary arena of format.CellSize
// cells for general objects, and a number arena of format.SmallCellSize cells
// for small boxed values.
//
// # Allocation
//
//	a, err := alloc.NewArena("primary", format.CellSize, alloc.Config{})
//	if err != nil {
//	    return err
//	}
//	cell, err := a.Allocate(format.CellSize)
//
// Allocation scans the block table from a cached "first block with possible
// space" index and pops the head of the first non-empty free list. When
// every block is full a new block is mapped from the configured pages.Source
// and appended to the table, whose capacity grows geometrically.
//
// # Cells
//
// A cell is either allocated, with its payload in the block page, or free,
// linking to the next free cell by index. That state lives in per-block
// bookkeeping next to the page; payload bytes are never reinterpreted as
// free-list links. Allocated cells always start zeroed.
//
// # Address lookup
//
// Because blocks are aligned to BlockSize, the block owning any address is
// addr &^ format.BlockOffsetMask. Lookup accepts an address only when that
// base is a mapped block and the offset is an exact multiple of the cell size.
// This is the test the conservative scanner applies to every stack word.
//
// # Sweeping
//
// The caller marks live cells through Block.Mark and then calls Sweep, which
// reclaims every allocated, unmarked cell, releases surplus empty blocks and
// shrinks the table when it falls below its low-water mark.
//
// # Thread Safety
//
// Arena instances are not thread-safe. The heap package serializes access.
package alloc
