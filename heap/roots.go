package heap

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/joshuapare/cellheap/heap/stack"
	"github.com/joshuapare/cellheap/internal/format"
	"github.com/joshuapare/cellheap/internal/logger"
)

// MarkConservatively treats every pointer-aligned word in [start, end) as a
// possible cell address. Words that name allocated cells are marked and
// traced. The range must be readable memory outside the Go heap that stays
// mapped for the call, such as an mmap'd region or a saved register context.
// Memory the Go heap owns is scanned with MarkWords instead.
func (h *Heap) MarkConservatively(start, end uintptr) {
	for p := format.AlignWord(start); p+format.PointerSize <= end; p += format.PointerSize {
		// Other goroutines may be storing into the range.
		w := atomic.LoadUintptr((*uintptr)(unsafe.Pointer(p))) //nolint:govet // p addresses mapped, non-Go memory
		h.mark(w)
	}
	h.drain()
}

// MarkWords is MarkConservatively over an in-memory word slice.
func (h *Heap) MarkWords(words []uintptr) {
	for _, w := range words {
		h.mark(w)
	}
	h.drain()
}

// markStack scans the live words of s.
func (h *Heap) markStack(s *stack.Stack) {
	s.Scan(h.mark)
	h.drain()
}

func (h *Heap) markCurrentThreadConservatively() {
	h.markStack(h.stack)
}

func (h *Heap) markOtherThreadsConservatively() {
	h.threadsMu.Lock()
	stacks := make([]*stack.Stack, 0, len(h.threads))
	for _, s := range h.threads {
		stacks = append(stacks, s)
	}
	h.threadsMu.Unlock()

	for _, s := range stacks {
		h.markStack(s)
	}
}

// RegisterThread adds s to the stacks scanned on every collection. A thread
// registers its stack once, before it holds any heap pointer.
func (h *Heap) RegisterThread(s *stack.Stack) error {
	if s == nil {
		return fmt.Errorf("heap: register thread: nil stack")
	}
	if s == h.stack {
		return fmt.Errorf("heap: register stack %d: %w", s.ID(), ErrAlreadyRegistered)
	}

	h.threadsMu.Lock()
	defer h.threadsMu.Unlock()
	if _, ok := h.threads[s.ID()]; ok {
		return fmt.Errorf("heap: register stack %d: %w", s.ID(), ErrAlreadyRegistered)
	}
	h.threads[s.ID()] = s
	logger.Debug("thread registered", "stack", s.ID(), "threads", len(h.threads))
	return nil
}

// UnregisterThread stops scanning s. Unknown stacks are ignored.
func (h *Heap) UnregisterThread(s *stack.Stack) {
	if s == nil {
		return
	}
	h.threadsMu.Lock()
	defer h.threadsMu.Unlock()
	if _, ok := h.threads[s.ID()]; ok {
		delete(h.threads, s.ID())
		logger.Debug("thread unregistered", "stack", s.ID(), "threads", len(h.threads))
	}
}

// RegisteredThreads returns the number of registered auxiliary stacks.
func (h *Heap) RegisteredThreads() int {
	h.threadsMu.Lock()
	defer h.threadsMu.Unlock()
	return len(h.threads)
}
