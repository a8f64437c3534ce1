package alloc

import (
	"errors"
	"fmt"

	"github.com/joshuapare/cellheap/internal/format"
	"github.com/joshuapare/cellheap/internal/logger"
	"github.com/joshuapare/cellheap/internal/pages"
)

// Arena hands out cells of one fixed size from a growable table of blocks.
//
// An Arena knows nothing about roots or collection policy: it allocates,
// answers address lookups, and sweeps whatever the caller left unmarked.
//
// NOT thread-safe. The owning heap serializes every call.
type Arena struct {
	name     string
	cellSize uintptr
	cfg      Config

	// blocks holds every mapped block; cap(blocks) is the table capacity.
	blocks []*Block
	// index maps a block base address to its block for O(1) lookup.
	index map[uintptr]*Block
	// lo and hi bound every mapped block, [lo, hi).
	lo, hi uintptr

	// firstWithSpace is where the next free-list scan starts. Blocks before
	// it are known to be full.
	firstWithSpace int

	live              int
	liveAtLastCollect int

	closed bool
}

// NewArena creates an empty arena of cellSize cells. cellSize must be a power
// of two that divides format.BlockSize.
func NewArena(name string, cellSize uintptr, cfg Config) (*Arena, error) {
	if !format.IsPowerOfTwo(cellSize) || cellSize < format.PointerSize || format.BlockSize%cellSize != 0 {
		return nil, fmt.Errorf("alloc: invalid cell size %d for arena %q", cellSize, name)
	}
	if format.BlockSize/cellSize > format.MaxCellIndex+1 {
		return nil, fmt.Errorf("alloc: cell size %d gives too many cells per block", cellSize)
	}
	return &Arena{
		name:     name,
		cellSize: cellSize,
		cfg:      cfg.withDefaults(),
		index:    make(map[uintptr]*Block),
	}, nil
}

// Name returns the arena's name.
func (a *Arena) Name() string { return a.name }

// CellSize returns the size of every cell in the arena.
func (a *Arena) CellSize() uintptr { return a.cellSize }

// Live returns the number of allocated cells.
func (a *Arena) Live() int { return a.live }

// LiveAtLastCollect returns the live count snapshotted by the last Sweep.
func (a *Arena) LiveAtLastCollect() int { return a.liveAtLastCollect }

// NumBlocks returns the number of mapped blocks.
func (a *Arena) NumBlocks() int { return len(a.blocks) }

// Blocks returns the mapped blocks. The slice is owned by the arena.
func (a *Arena) Blocks() []*Block { return a.blocks }

// CheckSize validates a request against the arena's cell size.
func (a *Arena) CheckSize(size uintptr) error {
	if size > a.cellSize {
		return fmt.Errorf("%w: %d > %d (%s arena)", ErrSizeTooLarge, size, a.cellSize, a.name)
	}
	return nil
}

// Allocate returns a zeroed cell, mapping a new block when every existing
// block is full.
func (a *Arena) Allocate(size uintptr) (uintptr, error) {
	if err := a.CheckSize(size); err != nil {
		return 0, err
	}
	if cell, ok := a.TryAllocate(); ok {
		return cell, nil
	}
	if err := a.Grow(); err != nil {
		return 0, err
	}
	cell, ok := a.TryAllocate()
	if !ok {
		return 0, ErrOutOfMemory
	}
	return cell, nil
}

// TryAllocate pops a cell from the first block with a non-empty free list.
// It never maps memory; ok is false when every block is full.
func (a *Arena) TryAllocate() (cell uintptr, ok bool) {
	for i := a.firstWithSpace; i < len(a.blocks); i++ {
		b := a.blocks[i]
		if b.Full() {
			continue
		}
		a.firstWithSpace = i
		idx := b.pop()
		a.live++
		return b.CellAddr(idx), true
	}
	a.firstWithSpace = len(a.blocks)
	return 0, false
}

// Grow maps one new block, links all its cells onto its free list and appends
// it to the block table.
func (a *Arena) Grow() error {
	if a.closed {
		return ErrClosed
	}
	data, err := a.cfg.Pages.Map(format.BlockSize, format.BlockSize)
	if err != nil {
		return fmt.Errorf("%w: %s arena: %w", ErrOutOfMemory, a.name, err)
	}
	base := pages.Addr(data)
	if base&format.BlockOffsetMask != 0 {
		_ = a.cfg.Pages.Unmap(data)
		return fmt.Errorf("%w: %s arena: source returned unaligned block %#x", ErrOutOfMemory, a.name, base)
	}

	if len(a.blocks) == cap(a.blocks) {
		a.resizeTable(max(a.cfg.MinBlockTableSize, cap(a.blocks)*a.cfg.GrowthFactor))
	}
	b := newBlock(a, data, base)
	a.blocks = append(a.blocks, b)
	a.index[base] = b
	a.firstWithSpace = len(a.blocks) - 1
	a.recomputeBounds()

	logger.Debug("block mapped",
		"arena", a.name,
		"base", fmt.Sprintf("%#x", base),
		"blocks", len(a.blocks),
		"capacity", cap(a.blocks),
	)
	return nil
}

// Contains reports whether addr falls inside a mapped block.
func (a *Arena) Contains(addr uintptr) bool {
	if addr < a.lo || addr >= a.hi {
		return false
	}
	_, ok := a.index[format.BlockBase(addr)]
	return ok
}

// Lookup resolves addr to its block and cell index. ok is false unless addr
// lies in a mapped block and sits exactly on a cell boundary. The cell may be
// free; callers check Block.Allocated.
func (a *Arena) Lookup(addr uintptr) (b *Block, idx int, ok bool) {
	if addr < a.lo || addr >= a.hi {
		return nil, 0, false
	}
	b, ok = a.index[format.BlockBase(addr)]
	if !ok {
		return nil, 0, false
	}
	idx, ok = format.CellIndex(addr, a.cellSize)
	if !ok {
		return nil, 0, false
	}
	return b, idx, true
}

// Resolve is Lookup restricted to allocated cells.
func (a *Arena) Resolve(addr uintptr) (*Block, int, error) {
	b, idx, ok := a.Lookup(addr)
	if !ok || !b.Allocated(idx) {
		return nil, 0, fmt.Errorf("%w: %#x (%s arena)", ErrBadCell, addr, a.name)
	}
	return b, idx, nil
}

// ClearMarks clears the mark bitmap of every block.
func (a *Arena) ClearMarks() {
	for _, b := range a.blocks {
		b.ClearMarks()
	}
}

// ForEachAllocated calls fn for every allocated cell in block order.
func (a *Arena) ForEachAllocated(fn func(cell uintptr)) {
	for _, b := range a.blocks {
		for i := range b.slots {
			if b.slots[i].allocated {
				fn(b.CellAddr(i))
			}
		}
	}
}

// Sweep reclaims every allocated cell whose mark bit is clear. finalize, when
// non-nil, runs for each reclaimed cell while its payload is still intact.
//
// Blocks left empty beyond the configured spares are unmapped, and the block
// table shrinks when it drops under its low-water mark. Sweep snapshots the
// live count for the collection policy and returns the number of cells freed.
func (a *Arena) Sweep(finalize func(cell uintptr)) int {
	reclaimed := 0
	emptyBlocks := 0
	released := 0

	for i := 0; i < len(a.blocks); i++ {
		b := a.blocks[i]
		freed := b.sweep(finalize)
		reclaimed += freed
		if b.used > 0 {
			continue
		}
		emptyBlocks++
		if emptyBlocks <= a.cfg.SpareEmptyBlocks {
			if freed > 0 {
				_ = a.cfg.Pages.Discard(b.data)
			}
			continue
		}
		a.releaseBlock(i)
		released++
		// The last block was swapped into slot i; sweep it next.
		i--
	}

	a.live -= reclaimed
	a.liveAtLastCollect = a.live
	if reclaimed > 0 || released > 0 {
		a.firstWithSpace = 0
	}
	if released > 0 {
		a.recomputeBounds()
	}
	return reclaimed
}

// releaseBlock unmaps block i, moving the last block into its slot.
func (a *Arena) releaseBlock(i int) {
	b := a.blocks[i]
	last := len(a.blocks) - 1
	a.blocks[i] = a.blocks[last]
	a.blocks[last] = nil
	a.blocks = a.blocks[:last]
	delete(a.index, b.base)

	if err := a.cfg.Pages.Unmap(b.data); err != nil {
		logger.Warn("block unmap failed", "arena", a.name, "base", fmt.Sprintf("%#x", b.base), "err", err)
	}
	b.arena = nil
	b.data = nil

	if c := cap(a.blocks); c > a.cfg.MinBlockTableSize && len(a.blocks) < c/a.cfg.LowWaterFactor {
		a.resizeTable(max(a.cfg.MinBlockTableSize, c/a.cfg.GrowthFactor))
	}
	logger.Debug("block released", "arena", a.name, "blocks", len(a.blocks), "capacity", cap(a.blocks))
}

func (a *Arena) resizeTable(capacity int) {
	t := make([]*Block, len(a.blocks), capacity)
	copy(t, a.blocks)
	a.blocks = t
}

func (a *Arena) recomputeBounds() {
	a.lo, a.hi = 0, 0
	for _, b := range a.blocks {
		if a.hi == 0 || b.base < a.lo {
			a.lo = b.base
		}
		if end := b.base + format.BlockSize; end > a.hi {
			a.hi = end
		}
	}
}

// Stats returns a snapshot of the arena's block usage.
func (a *Arena) Stats() Stats {
	s := Stats{
		Name:              a.name,
		CellSize:          a.cellSize,
		Blocks:            len(a.blocks),
		TableCapacity:     cap(a.blocks),
		Live:              a.live,
		LiveAtLastCollect: a.liveAtLastCollect,
	}
	for _, b := range a.blocks {
		s.Cells += b.NumCells()
		s.UsedCells += b.used
		s.FreeCells += b.freeCells()
	}
	return s
}

// Close unmaps every block. The arena cannot be used afterwards.
func (a *Arena) Close() error {
	if a.closed {
		return nil
	}
	var errs []error
	for _, b := range a.blocks {
		if err := a.cfg.Pages.Unmap(b.data); err != nil {
			errs = append(errs, err)
		}
		b.arena = nil
		b.data = nil
	}
	a.blocks = nil
	clear(a.index)
	a.lo, a.hi = 0, 0
	a.live, a.liveAtLastCollect = 0, 0
	a.firstWithSpace = 0
	a.closed = true
	return errors.Join(errs...)
}
