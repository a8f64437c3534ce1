package heap

import "github.com/joshuapare/cellheap/internal/format"

// isCellWord reports whether w could be a cell address at all. Immediates
// and null never are. Every cell is aligned to the smaller cell size.
func isCellWord(w uintptr) bool {
	return w != 0 && w&(format.SmallCellSize-1) == 0
}

// Protect roots cell until a matching Unprotect. Protection nests: each call
// must be balanced by one Unprotect. Immediates are ignored.
func (h *Heap) Protect(cell uintptr) {
	if !isCellWord(cell) {
		return
	}
	h.protectMu.Lock()
	h.protected[cell]++
	h.protectMu.Unlock()
}

// Unprotect releases one Protect of cell. Unprotecting a cell that is not
// protected does nothing.
func (h *Heap) Unprotect(cell uintptr) {
	if !isCellWord(cell) {
		return
	}
	h.protectMu.Lock()
	defer h.protectMu.Unlock()
	switch n := h.protected[cell]; {
	case n > 1:
		h.protected[cell] = n - 1
	case n == 1:
		delete(h.protected, cell)
	}
}

// protectedCells snapshots the protected set.
func (h *Heap) protectedCells() []uintptr {
	h.protectMu.Lock()
	defer h.protectMu.Unlock()
	cells := make([]uintptr, 0, len(h.protected))
	for c := range h.protected {
		cells = append(cells, c)
	}
	return cells
}

func (h *Heap) markProtectedObjects() {
	for _, c := range h.protectedCells() {
		h.mark(c)
	}
	h.drain()
}

// ProtectedObjectCount returns the number of distinct protected cells.
func (h *Heap) ProtectedObjectCount() int {
	h.protectMu.Lock()
	defer h.protectMu.Unlock()
	return len(h.protected)
}

// ProtectedGlobalObjectCount returns how many protected cells the model
// reports as global objects.
func (h *Heap) ProtectedGlobalObjectCount() int {
	g, ok := h.opts.Model.(GlobalObjectReporter)
	if !ok {
		return 0
	}
	n := 0
	for _, c := range h.protectedCells() {
		if h.Owns(c) && g.IsGlobalObject(h, c) {
			n++
		}
	}
	return n
}

// ProtectedObjectTypeCounts returns the number of protected cells per type
// name. Cells the model cannot name count as "number" or "object" by arena.
func (h *Heap) ProtectedObjectTypeCounts() map[string]int {
	counts := make(map[string]int)
	for _, c := range h.protectedCells() {
		if !h.Owns(c) {
			continue
		}
		counts[h.typeName(c)]++
	}
	return counts
}

// GlobalObjectCount returns how many live primary cells the model reports as
// global objects.
func (h *Heap) GlobalObjectCount() int {
	g, ok := h.opts.Model.(GlobalObjectReporter)
	if !ok {
		return 0
	}
	n := 0
	h.primary.ForEachAllocated(func(c uintptr) {
		if g.IsGlobalObject(h, c) {
			n++
		}
	})
	return n
}

func (h *Heap) typeName(cell uintptr) string {
	if tn, ok := h.opts.Model.(TypeNamer); ok {
		if name := tn.TypeName(h, cell); name != "" {
			return name
		}
	}
	if h.IsNumberCell(cell) {
		return "number"
	}
	return "object"
}
