package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/cellheap/heap"
	"github.com/joshuapare/cellheap/heap/alloc"
	"github.com/joshuapare/cellheap/internal/format"
)

func init() {
	rootCmd.AddCommand(newLayoutCmd())
}

func newLayoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print block and cell geometry",
		Long: `The layout command prints the collector's compile-time memory layout
for this platform: block and cell sizes, cells per block, and the default
collection policy constants.

Example:
  heapctl layout
  heapctl layout --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLayout()
		},
	}
	return cmd
}

// Layout is the JSON form of the layout command's output.
type Layout struct {
	PointerSize        uintptr `json:"pointer_size"`
	PageSize           uintptr `json:"page_size"`
	BlockSize          uintptr `json:"block_size"`
	CellSize           uintptr `json:"cell_size"`
	SmallCellSize      uintptr `json:"small_cell_size"`
	CellsPerBlock      uintptr `json:"cells_per_block"`
	SmallCellsPerBlock uintptr `json:"small_cells_per_block"`
	BitmapWords        uintptr `json:"bitmap_words"`

	AllocationsPerCollection int `json:"allocations_per_collection"`
	MinExtraCost             int `json:"min_extra_cost"`
	MinBlockTableSize        int `json:"min_block_table_size"`
	GrowthFactor             int `json:"growth_factor"`
	LowWaterFactor           int `json:"low_water_factor"`
	SpareEmptyBlocks         int `json:"spare_empty_blocks"`
}

func currentLayout() Layout {
	return Layout{
		PointerSize:              format.PointerSize,
		PageSize:                 format.PageSize,
		BlockSize:                format.BlockSize,
		CellSize:                 format.CellSize,
		SmallCellSize:            format.SmallCellSize,
		CellsPerBlock:            format.CellsPerBlock,
		SmallCellsPerBlock:       format.SmallCellsPerBlock,
		BitmapWords:              format.BitmapWords,
		AllocationsPerCollection: heap.DefaultAllocationsPerCollection,
		MinExtraCost:             heap.DefaultMinExtraCost,
		MinBlockTableSize:        alloc.DefaultMinBlockTableSize,
		GrowthFactor:             alloc.DefaultGrowthFactor,
		LowWaterFactor:           alloc.DefaultLowWaterFactor,
		SpareEmptyBlocks:         alloc.DefaultSpareEmptyBlocks,
	}
}

func runLayout() error {
	l := currentLayout()
	if jsonOut {
		return printJSON(l)
	}

	printInfo("\nMemory Layout:\n")
	printInfo("  Pointer size:          %d bytes\n", l.PointerSize)
	printInfo("  Page size:             %d bytes\n", l.PageSize)
	printInfo("  Block size:            %d bytes\n", l.BlockSize)
	printInfo("  Cell size:             %d bytes\n", l.CellSize)
	printInfo("  Small cell size:       %d bytes\n", l.SmallCellSize)
	printInfo("  Cells per block:       %d\n", l.CellsPerBlock)
	printInfo("  Small cells per block: %d\n", l.SmallCellsPerBlock)
	printInfo("  Bitmap words:          %d\n", l.BitmapWords)

	printInfo("\nCollection Policy:\n")
	printInfo("  Allocations per collection: %d\n", l.AllocationsPerCollection)
	printInfo("  Min extra cost:             %d bytes\n", l.MinExtraCost)
	printInfo("  Min block table size:       %d\n", l.MinBlockTableSize)
	printInfo("  Growth factor:              %d\n", l.GrowthFactor)
	printInfo("  Low water factor:           %d\n", l.LowWaterFactor)
	printInfo("  Spare empty blocks:         %d\n", l.SpareEmptyBlocks)
	printInfo("\n")
	return nil
}
