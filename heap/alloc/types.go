package alloc

import "github.com/joshuapare/cellheap/internal/pages"

const (
	// DefaultMinBlockTableSize is the smallest capacity of an arena's block table.
	DefaultMinBlockTableSize = 14

	// DefaultGrowthFactor multiplies the block table capacity when it fills up.
	DefaultGrowthFactor = 2

	// DefaultLowWaterFactor shrinks the block table once fewer than
	// capacity/DefaultLowWaterFactor blocks remain.
	DefaultLowWaterFactor = 4

	// DefaultSpareEmptyBlocks is how many empty blocks a sweep keeps mapped.
	DefaultSpareEmptyBlocks = 2
)

// Config tunes the block management of an Arena. Zero fields take the defaults.
type Config struct {
	// MinBlockTableSize is the minimum block table capacity.
	// Default: 14
	MinBlockTableSize int

	// GrowthFactor is the geometric growth (and shrink) factor of the block table.
	// Default: 2
	GrowthFactor int

	// LowWaterFactor controls when the table shrinks after blocks are released.
	// Default: 4
	LowWaterFactor int

	// SpareEmptyBlocks is the number of empty blocks kept after a sweep.
	// Negative keeps none. Default: 2
	SpareEmptyBlocks int

	// Pages supplies block memory. Default: pages.Default()
	Pages pages.Source
}

func (c Config) withDefaults() Config {
	if c.MinBlockTableSize <= 0 {
		c.MinBlockTableSize = DefaultMinBlockTableSize
	}
	if c.GrowthFactor < 2 {
		c.GrowthFactor = DefaultGrowthFactor
	}
	if c.LowWaterFactor <= 0 {
		c.LowWaterFactor = DefaultLowWaterFactor
	}
	switch {
	case c.SpareEmptyBlocks == 0:
		c.SpareEmptyBlocks = DefaultSpareEmptyBlocks
	case c.SpareEmptyBlocks < 0:
		c.SpareEmptyBlocks = 0
	}
	if c.Pages == nil {
		c.Pages = pages.Default()
	}
	return c
}

// Stats is a point-in-time view of an arena.
type Stats struct {
	Name              string  // Arena name ("primary", "number")
	CellSize          uintptr // Bytes per cell
	Blocks            int     // Blocks currently mapped
	TableCapacity     int     // Block table capacity
	Cells             int     // Total cells across all blocks
	UsedCells         int     // Cells currently allocated
	FreeCells         int     // Cells on free lists
	Live              int     // Live-object counter
	LiveAtLastCollect int     // Live objects right after the last sweep
}
