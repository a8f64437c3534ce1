// Package stack models the machine stack of one thread of execution in the
// embedding runtime.
//
// The collector finds stack roots conservatively: it treats every word
// between a stack's base and its current top as a potential cell address.
// A Stack lives in memory from internal/pages, so its words sit at fixed
// addresses. The collector reads them through Scan, which stays within the
// typed word slice whatever page source backs it.
package stack

import (
	"errors"
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/joshuapare/cellheap/internal/buf"
	"github.com/joshuapare/cellheap/internal/format"
	"github.com/joshuapare/cellheap/internal/pages"
)

var (
	// ErrOverflow indicates a push onto a full stack.
	ErrOverflow = errors.New("stack: overflow")

	// ErrUnderflow indicates a pop from an empty stack.
	ErrUnderflow = errors.New("stack: underflow")

	// ErrRange indicates a slot index outside the live part of the stack.
	ErrRange = errors.New("stack: index out of range")
)

// DefaultWords is the capacity used when New is given a non-positive size.
const DefaultWords = 64 * 1024

var nextID atomic.Uint64

// Stack is a growable-upwards word stack. The live extent is [base, top),
// where top advances with every push.
//
// A Stack is owned by one goroutine. Its top pointer and word stores are
// atomic so a collector on another goroutine may Scan it while the owner
// keeps pushing and popping.
type Stack struct {
	id    uint64
	src   pages.Source
	mem   []byte
	words []uintptr
	sp    atomic.Int64
}

// New maps a stack of n words from src. A nil src uses pages.Default().
func New(src pages.Source, n int) (*Stack, error) {
	if src == nil {
		src = pages.Default()
	}
	if n <= 0 {
		n = DefaultWords
	}
	size, ok := buf.MulOverflowSafe(n, int(format.PointerSize))
	if !ok {
		return nil, fmt.Errorf("stack: %d words overflows", n)
	}
	mem, err := src.Map(format.AlignUp(uintptr(size), format.PageSize), format.PageSize)
	if err != nil {
		return nil, fmt.Errorf("stack: map %d words: %w", n, err)
	}
	s := &Stack{
		id:    nextID.Add(1),
		src:   src,
		mem:   mem,
		words: unsafe.Slice((*uintptr)(unsafe.Pointer(unsafe.SliceData(mem))), n),
	}
	return s, nil
}

// ID returns the stack's process-unique identifier.
func (s *Stack) ID() uint64 { return s.id }

// Cap returns the stack capacity in words.
func (s *Stack) Cap() int { return len(s.words) }

// Len returns the number of live words.
func (s *Stack) Len() int { return int(s.sp.Load()) }

// Bounds returns the live extent [base, top) as raw addresses.
func (s *Stack) Bounds() (base, top uintptr) {
	if s.words == nil {
		return 0, 0
	}
	base = uintptr(unsafe.Pointer(unsafe.SliceData(s.words)))
	return base, base + uintptr(s.sp.Load())*format.PointerSize
}

// Scan calls fn with every live word, from the base up. The top is read
// once, so words pushed during the scan may be missed and words popped
// during it read as zero or as their replacement.
func (s *Stack) Scan(fn func(w uintptr)) {
	sp := int(s.sp.Load())
	for i := 0; i < sp && i < len(s.words); i++ {
		fn(atomic.LoadUintptr(&s.words[i]))
	}
}

// Push stores w on top of the stack.
func (s *Stack) Push(w uintptr) error {
	sp := s.sp.Load()
	if int(sp) >= len(s.words) {
		return ErrOverflow
	}
	atomic.StoreUintptr(&s.words[sp], w)
	s.sp.Store(sp + 1)
	return nil
}

// Pop removes and returns the top word. The vacated slot is zeroed.
func (s *Stack) Pop() (uintptr, error) {
	sp := s.sp.Load()
	if sp == 0 {
		return 0, ErrUnderflow
	}
	sp--
	s.sp.Store(sp)
	w := atomic.SwapUintptr(&s.words[sp], 0)
	return w, nil
}

// Peek returns the top word without removing it.
func (s *Stack) Peek() (uintptr, error) {
	sp := s.sp.Load()
	if sp == 0 {
		return 0, ErrUnderflow
	}
	return atomic.LoadUintptr(&s.words[sp-1]), nil
}

// Get returns the word at index i, counted from the base.
func (s *Stack) Get(i int) (uintptr, error) {
	if i < 0 || i >= s.Len() {
		return 0, ErrRange
	}
	return atomic.LoadUintptr(&s.words[i]), nil
}

// Set overwrites the word at index i, counted from the base.
func (s *Stack) Set(i int, w uintptr) error {
	if i < 0 || i >= s.Len() {
		return ErrRange
	}
	atomic.StoreUintptr(&s.words[i], w)
	return nil
}

// Truncate drops every word above index n, zeroing the vacated slots.
func (s *Stack) Truncate(n int) error {
	sp := s.Len()
	if n < 0 || n > sp {
		return ErrRange
	}
	s.sp.Store(int64(n))
	for i := n; i < sp; i++ {
		atomic.StoreUintptr(&s.words[i], 0)
	}
	return nil
}

// Close unmaps the stack memory.
func (s *Stack) Close() error {
	if s.mem == nil {
		return nil
	}
	err := s.src.Unmap(s.mem)
	s.mem, s.words = nil, nil
	s.sp.Store(0)
	return err
}
