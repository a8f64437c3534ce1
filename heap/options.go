package heap

import (
	"github.com/joshuapare/cellheap/heap/alloc"
	"github.com/joshuapare/cellheap/heap/stack"
	"github.com/joshuapare/cellheap/internal/pages"
)

const (
	// DefaultAllocationsPerCollection is the growth, in cells plus extra-cost
	// units, that makes a collection worthwhile.
	DefaultAllocationsPerCollection = 4000

	// DefaultMinExtraCost is the reported cost, in bytes, at or below which
	// ReportExtraMemoryCost ignores a report.
	DefaultMinExtraCost = 256
)

// Options configures a Heap.
//
// Use DefaultOptions() for production defaults. Zero fields of a hand-built
// Options take the same defaults.
type Options struct {
	// AllocationsPerCollection sets how much growth since the last collection
	// (new live cells plus extra cost) justifies collecting before an allocation.
	// Default: 4000
	AllocationsPerCollection int

	// MinExtraCost is the threshold below which extra memory reports are noise.
	// Default: 256 bytes
	MinExtraCost int

	// MinBlockTableSize, GrowthFactor, LowWaterFactor and SpareEmptyBlocks tune
	// both arenas' block tables. See alloc.Config.
	MinBlockTableSize int
	GrowthFactor      int
	LowWaterFactor    int
	SpareEmptyBlocks  int

	// Pages supplies block and stack memory.
	// Default: pages.Default()
	Pages pages.Source

	// Stack is the machine stack of the thread that owns the heap. It is
	// scanned conservatively on every collection. When nil, New maps a stack
	// of StackWords words and Close releases it.
	Stack *stack.Stack

	// StackWords sizes the stack New creates when Stack is nil.
	// Default: stack.DefaultWords
	StackWords int

	// Model gives meaning to cell payloads: it traces the cells a value
	// retains and, optionally, finalizes and names values. Nil means cells
	// retain nothing.
	Model Model
}

// DefaultOptions returns production-ready defaults.
func DefaultOptions() Options {
	return Options{
		AllocationsPerCollection: DefaultAllocationsPerCollection,
		MinExtraCost:             DefaultMinExtraCost,
		MinBlockTableSize:        alloc.DefaultMinBlockTableSize,
		GrowthFactor:             alloc.DefaultGrowthFactor,
		LowWaterFactor:           alloc.DefaultLowWaterFactor,
		SpareEmptyBlocks:         alloc.DefaultSpareEmptyBlocks,
		StackWords:               stack.DefaultWords,
	}
}

func (o Options) withDefaults() Options {
	if o.AllocationsPerCollection <= 0 {
		o.AllocationsPerCollection = DefaultAllocationsPerCollection
	}
	if o.MinExtraCost <= 0 {
		o.MinExtraCost = DefaultMinExtraCost
	}
	if o.Pages == nil {
		o.Pages = pages.Default()
	}
	if o.StackWords <= 0 {
		o.StackWords = stack.DefaultWords
	}
	return o
}

func (o Options) arenaConfig() alloc.Config {
	return alloc.Config{
		MinBlockTableSize: o.MinBlockTableSize,
		GrowthFactor:      o.GrowthFactor,
		LowWaterFactor:    o.LowWaterFactor,
		SpareEmptyBlocks:  o.SpareEmptyBlocks,
		Pages:             o.Pages,
	}
}
