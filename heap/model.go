package heap

// Tracer receives the cells a value retains while the value is traced.
type Tracer interface {
	// Mark reports a retained cell. Marking an already-marked cell, or a
	// word that is not a cell of this heap, is a no-op.
	Mark(cell uintptr)
}

// Model is the object model that gives meaning to cell payloads.
//
// The collector marks roots; the model carries marking through the object
// graph by reporting, for any cell, the cells its value retains. Trace must
// not allocate.
type Model interface {
	Trace(h *Heap, cell uintptr, t Tracer)
}

// Finalizer is implemented by models that release external resources when a
// cell is reclaimed. Finalize runs during sweep while the heap is collecting;
// allocating or collecting from it panics with a ReentrancyError. Other dead
// cells may already have been cleared when it runs.
type Finalizer interface {
	Finalize(h *Heap, cell uintptr)
}

// TypeNamer is implemented by models that can name a value's type for
// diagnostics.
type TypeNamer interface {
	TypeName(h *Heap, cell uintptr) string
}

// GlobalObjectReporter is implemented by models that distinguish global
// objects for diagnostics.
type GlobalObjectReporter interface {
	IsGlobalObject(h *Heap, cell uintptr) bool
}

// RootMarker is implemented by models that keep roots of their own, such as
// saved execution contexts. MarkRoots runs after the stacks and mark lists
// are scanned and may call MarkConservatively or MarkWords.
type RootMarker interface {
	MarkRoots(h *Heap)
}
