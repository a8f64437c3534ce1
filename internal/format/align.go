package format

// Address arithmetic for the collector layout.
// Blocks are BlockSize-aligned, so masking any interior address yields the block.

// BlockBase returns the base address of the block containing addr.
//
// Example:
//
//	BlockBase(0x7f0000012345) = 0x7f0000010000
func BlockBase(addr uintptr) uintptr {
	return addr & BlockMask
}

// BlockOffset returns the offset of addr within its block.
//
// Example:
//
//	BlockOffset(0x7f0000012345) = 0x2345
func BlockOffset(addr uintptr) uintptr {
	return addr & BlockOffsetMask
}

// CellIndex returns the index of the cell of size cellSize that starts exactly
// at addr. ok is false when addr is not on a cell boundary.
//
// Example (cellSize 64):
//
//	CellIndex(base+0x80, 64) = 2, true
//	CellIndex(base+0x88, 64) = 0, false
func CellIndex(addr, cellSize uintptr) (int, bool) {
	off := BlockOffset(addr)
	if off&(cellSize-1) != 0 {
		return 0, false
	}
	return int(off / cellSize), true
}

// AlignUp returns n rounded up to the next multiple of align.
// align must be a power of two.
//
// Example:
//
//	AlignUp(1, 8)    = 8
//	AlignUp(8, 8)    = 8
//	AlignUp(4097, 4096) = 8192
func AlignUp(n, align uintptr) uintptr {
	return (n + align - 1) &^ (align - 1)
}

// AlignWord rounds addr up to native pointer alignment.
func AlignWord(addr uintptr) uintptr {
	return AlignUp(addr, PointerSize)
}

// IsPowerOfTwo reports whether n is a non-zero power of two.
func IsPowerOfTwo(n uintptr) bool {
	return n != 0 && n&(n-1) == 0
}
