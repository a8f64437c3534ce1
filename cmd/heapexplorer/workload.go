package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/joshuapare/cellheap/heap/verify"
	"github.com/joshuapare/cellheap/internal/logger"
	"github.com/joshuapare/cellheap/pkg/value"
)

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

// allocateBatch builds a chain of batchSize objects, each holding a boxed
// number and a link to the previous object. The newest object occupies one
// main-stack slot while the chain grows, so a collection triggered mid-batch
// cannot reclaim it.
func (m *Model) allocateBatch() error {
	s := m.Heap().Stack()
	base := s.Len()
	defer func() { _ = s.Truncate(base) }()

	if err := s.Push(uintptr(value.Null)); err != nil {
		return err
	}

	before := m.Heap().Stats().Collections
	prev := value.Null
	for i := range batchSize {
		obj, err := m.rt.NewObject(2)
		if err != nil {
			return err
		}
		if err := m.rt.SetField(obj, 0, prev); err != nil {
			return err
		}
		if err := s.Set(base, uintptr(obj)); err != nil {
			return err
		}
		num, err := m.rt.NewNumber(float64(i) + 0.5)
		if err != nil {
			return err
		}
		if err := m.rt.SetField(obj, 1, num); err != nil {
			return err
		}
		prev = obj
	}

	m.unrootBatch()
	m.batch = prev
	m.batchCollections = m.Heap().Stats().Collections
	m.logEvent("allocated %d objects and %d numbers", batchSize, batchSize)
	if n := m.batchCollections - before; n > 0 {
		m.logEvent("allocation triggered %d collection(s), last reclaimed %d cells",
			n, m.Heap().Stats().LastReclaimed)
	}
	return nil
}

// allocateString creates an unrooted string large enough to live outside
// the heap, charging its size as extra cost.
func (m *Model) allocateString() error {
	v, err := m.rt.NewString(strings.Repeat("x", largeStringLen))
	if err != nil {
		return err
	}
	m.logEvent("allocated string %#x, extra cost now %d", uintptr(v), m.Heap().Stats().ExtraCost)
	return nil
}

// rootBatch pushes the last batch on the main stack.
func (m *Model) rootBatch() error {
	if !m.batchAlive() {
		return fmt.Errorf("no live batch to root")
	}
	if m.rooted {
		return nil
	}
	if err := m.Heap().Stack().Push(uintptr(m.batch)); err != nil {
		return err
	}
	m.rooted = true
	m.logEvent("rooted batch %#x on the stack (depth %d)", uintptr(m.batch), m.Heap().Stack().Len())
	return nil
}

// dropRoots empties the main stack.
func (m *Model) dropRoots() error {
	if err := m.Heap().Stack().Truncate(0); err != nil {
		return err
	}
	m.rooted = false
	m.logEvent("dropped all stack roots")
	return nil
}

func (m *Model) protectBatch() error {
	if !m.batchAlive() {
		return fmt.Errorf("no live batch to protect")
	}
	m.Heap().Protect(uintptr(m.batch))
	m.protected = true
	m.logEvent("protected %#x, %d protected cells", uintptr(m.batch), m.Heap().ProtectedObjectCount())
	return nil
}

func (m *Model) unprotectBatch() {
	if !m.protected {
		return
	}
	m.Heap().Unprotect(uintptr(m.batch))
	m.protected = false
	m.logEvent("unprotected %#x, %d protected cells", uintptr(m.batch), m.Heap().ProtectedObjectCount())
}

// unrootBatch releases whatever roots the previous batch before a new one
// replaces it.
func (m *Model) unrootBatch() {
	m.unprotectBatch()
	if m.rooted {
		_ = m.dropRoots()
	}
}

func (m *Model) collect() {
	h := m.Heap()
	before := h.Size()
	h.Collect()
	st := h.Stats()
	m.logEvent("collection %d reclaimed %d cells, size %d -> %d bytes",
		st.Collections, st.LastReclaimed, before, st.Size)
	logger.Debug("explorer collect", "collections", st.Collections, "reclaimed", st.LastReclaimed)
}

func (m *Model) verify() error {
	if err := verify.Heap(m.Heap()); err != nil {
		return err
	}
	m.logEvent("heap invariants hold")
	return nil
}

func (m *Model) copyStats() error {
	data, err := json.MarshalIndent(m.Heap().Stats(), "", "  ")
	if err != nil {
		return err
	}
	if err := writeClipboard(string(data)); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	m.logEvent("copied statistics to clipboard")
	return nil
}
