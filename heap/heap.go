package heap

import (
	"errors"
	"fmt"
	"sync"

	"github.com/joshuapare/cellheap/heap/alloc"
	"github.com/joshuapare/cellheap/heap/stack"
	"github.com/joshuapare/cellheap/internal/format"
	"github.com/joshuapare/cellheap/internal/logger"
)

// Heap is the collector for one runtime instance. It composes the primary
// and number arenas, the root sources and the collection policy.
//
// A Heap is logically single-writer: Allocate, Collect and Close must be
// serialized by the embedding runtime. Protect, Unprotect, RegisterThread and
// UnregisterThread may be called from other goroutines.
type Heap struct {
	opts Options

	primary *alloc.Arena
	numbers *alloc.Arena

	state     State
	extraCost int

	// stack is the owning thread's machine stack.
	stack     *stack.Stack
	ownsStack bool

	threadsMu sync.Mutex
	threads   map[uint64]*stack.Stack

	protectMu sync.Mutex
	protected map[uintptr]int

	markLists map[*MarkList]struct{}

	// gray holds marked cells whose retained cells are not yet marked.
	gray   []uintptr
	tracer tracer

	collections   int
	lastReclaimed int
	closed        bool
}

// New creates a heap. Blocks are mapped lazily on first allocation.
func New(opts Options) (*Heap, error) {
	opts = opts.withDefaults()

	primary, err := alloc.NewArena("primary", format.CellSize, opts.arenaConfig())
	if err != nil {
		return nil, err
	}
	numbers, err := alloc.NewArena("number", format.SmallCellSize, opts.arenaConfig())
	if err != nil {
		return nil, err
	}

	h := &Heap{
		opts:      opts,
		primary:   primary,
		numbers:   numbers,
		threads:   make(map[uint64]*stack.Stack),
		protected: make(map[uintptr]int),
		markLists: make(map[*MarkList]struct{}),
	}
	h.tracer.h = h

	if opts.Stack != nil {
		h.stack = opts.Stack
	} else {
		s, err := stack.New(opts.Pages, opts.StackWords)
		if err != nil {
			return nil, fmt.Errorf("heap: main stack: %w", err)
		}
		h.stack = s
		h.ownsStack = true
	}
	return h, nil
}

// Stack returns the machine stack of the thread that owns the heap.
func (h *Heap) Stack() *stack.Stack { return h.stack }

// Arenas returns the primary and number arenas for diagnostics. Callers
// must not allocate from or sweep them directly.
func (h *Heap) Arenas() (primary, numbers *alloc.Arena) { return h.primary, h.numbers }

// State returns the current operation state.
func (h *Heap) State() State { return h.state }

// IsBusy reports whether an allocation or collection is in flight. Embedding
// code uses it to avoid triggering work from inside a finalizer.
func (h *Heap) IsBusy() bool { return h.state != StateIdle }

// Size returns the number of bytes held by live cells.
func (h *Heap) Size() uintptr {
	return uintptr(h.primary.Live())*format.CellSize + uintptr(h.numbers.Live())*format.SmallCellSize
}

// lookup resolves addr to a cell boundary in either arena. The cell may be free.
func (h *Heap) lookup(addr uintptr) (*alloc.Block, int, bool) {
	if b, idx, ok := h.primary.Lookup(addr); ok {
		return b, idx, true
	}
	return h.numbers.Lookup(addr)
}

// Owns reports whether cell is an allocated cell of this heap.
func (h *Heap) Owns(cell uintptr) bool {
	b, idx, ok := h.lookup(cell)
	return ok && b.Allocated(idx)
}

// Bytes returns the payload of an allocated cell, or nil when cell is not one.
// The slice aliases heap memory and is only valid while the cell is live.
func (h *Heap) Bytes(cell uintptr) []byte {
	b, idx, ok := h.lookup(cell)
	if !ok || !b.Allocated(idx) {
		return nil
	}
	return b.Cell(idx)
}

// IsNumberCell reports whether cell is an allocated cell of the number arena.
func (h *Heap) IsNumberCell(cell uintptr) bool {
	b, idx, ok := h.numbers.Lookup(cell)
	return ok && b.Allocated(idx)
}

// IsCellMarked reports whether cell's mark bit is set. Words that are not
// allocated cells report false.
func (h *Heap) IsCellMarked(cell uintptr) bool {
	b, idx, ok := h.lookup(cell)
	return ok && b.Allocated(idx) && b.Marked(idx)
}

// MarkCell sets cell's mark bit without tracing what it retains. Words that
// are not allocated cells are ignored.
func (h *Heap) MarkCell(cell uintptr) {
	if b, idx, ok := h.lookup(cell); ok && b.Allocated(idx) {
		b.Mark(idx)
	}
}

// Close releases every block and, when the heap created it, the main stack.
func (h *Heap) Close() error {
	if h.closed {
		return nil
	}
	h.enter(StateCollecting, "close")
	defer func() { h.state = StateIdle }()

	errs := []error{h.primary.Close(), h.numbers.Close()}
	if h.ownsStack {
		errs = append(errs, h.stack.Close())
	}

	h.threadsMu.Lock()
	clear(h.threads)
	h.threadsMu.Unlock()
	h.protectMu.Lock()
	clear(h.protected)
	h.protectMu.Unlock()
	clear(h.markLists)

	h.closed = true
	return errors.Join(errs...)
}

// enter moves the heap from Idle to s. Any other starting state is a contract
// violation and panics with a ReentrancyError.
func (h *Heap) enter(s State, op string) {
	if h.state != StateIdle {
		err := &ReentrancyError{Op: op, State: h.state}
		logger.Error("reentrant heap operation", "op", op, "state", h.state.String())
		panic(err)
	}
	h.state = s
}
