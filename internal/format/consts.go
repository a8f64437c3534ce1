// Package format holds the memory layout of the collector: block and cell
// sizes, the masks used to recover a block from any address inside it, and
// the derived per-block capacities. Everything here is a compile-time
// constant so higher-level packages can do address arithmetic without
// consulting any runtime state.
package format

import "unsafe"

const (
	// PointerSize is the width of a native machine word in bytes. Conservative
	// scanning walks memory at this granularity.
	PointerSize = unsafe.Sizeof(uintptr(0))

	// PageSize is the allocation granule assumed for backing memory.
	PageSize = 4096

	// BlockSize is the size of one collector block. Blocks are always aligned
	// to their own size so the owning block of a cell is addr &^ BlockOffsetMask.
	BlockSize = 16 * PageSize // 64 KiB

	// BlockOffsetMask selects the offset of an address within its block.
	BlockOffsetMask = BlockSize - 1

	// BlockMask selects the block base of an address.
	BlockMask = ^uintptr(BlockOffsetMask)
)

const (
	// minimumCellSize is eight machine words: 32 bytes on 32-bit targets and
	// 64 bytes on 64-bit targets.
	minimumCellSize = 8 * PointerSize

	// cellArrayLength is the number of float64 slots a cell can hold. Cells
	// are always a whole number of float64 slots so a boxed number fits.
	cellArrayLength = minimumCellSize / 8

	// CellSize is the size of a primary-arena cell.
	CellSize = cellArrayLength * 8

	// SmallCellSize is the size of a number-arena cell.
	SmallCellSize = CellSize / 2

	// CellsPerBlock is the number of primary cells in a block. Block
	// bookkeeping lives outside the block so cells tile the whole page.
	CellsPerBlock = BlockSize / CellSize

	// SmallCellsPerBlock is the number of number-arena cells in a block.
	SmallCellsPerBlock = BlockSize / SmallCellSize

	// BitmapWords is the number of uint32 words needed to hold one mark bit
	// per cell for the densest block kind.
	BitmapWords = (SmallCellsPerBlock + 31) / 32

	// MaxCellIndex is the largest cell index representable in a free-list link.
	MaxCellIndex = 1<<16 - 2
)

// Compile-time layout checks. Each index is out of range when its check fails.
var (
	_ = [1]struct{}{}[CellSize&(CellSize-1)]               // cell size is a power of two
	_ = [1]struct{}{}[SmallCellSize&(SmallCellSize-1)]     // small cell size is a power of two
	_ = [1]struct{}{}[BlockSize%CellSize]                  // primary cells tile a block
	_ = [1]struct{}{}[BlockSize%SmallCellSize]             // small cells tile a block
	_ = [1]struct{}{}[SmallCellsPerBlock/(MaxCellIndex+1)] // cell indexes fit a uint16 link
)
