package testutil

import "github.com/joshuapare/cellheap/heap"

// Graph is an object model for tests. Cell payloads carry no meaning; the
// references between cells live in Edges.
type Graph struct {
	Edges   map[uintptr][]uintptr
	Names   map[uintptr]string
	Globals map[uintptr]bool

	// Finalized records reclaimed cells in finalization order.
	Finalized []uintptr

	// OnFinalize, when set, runs after a cell is recorded.
	OnFinalize func(h *heap.Heap, cell uintptr)

	// Extra are precise roots reported through MarkRoots.
	Extra []uintptr
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		Edges:   make(map[uintptr][]uintptr),
		Names:   make(map[uintptr]string),
		Globals: make(map[uintptr]bool),
	}
}

// Link records that from retains each of to.
func (g *Graph) Link(from uintptr, to ...uintptr) {
	g.Edges[from] = append(g.Edges[from], to...)
}

// Trace reports cell's outgoing edges.
func (g *Graph) Trace(_ *heap.Heap, cell uintptr, t heap.Tracer) {
	for _, c := range g.Edges[cell] {
		t.Mark(c)
	}
}

// Finalize records cell and forgets everything known about it, since its
// address may be handed out again.
func (g *Graph) Finalize(h *heap.Heap, cell uintptr) {
	g.Finalized = append(g.Finalized, cell)
	delete(g.Edges, cell)
	delete(g.Names, cell)
	delete(g.Globals, cell)
	if g.OnFinalize != nil {
		g.OnFinalize(h, cell)
	}
}

// TypeName returns the name given in Names, or "" to use the default.
func (g *Graph) TypeName(_ *heap.Heap, cell uintptr) string { return g.Names[cell] }

// IsGlobalObject reports whether cell is in Globals.
func (g *Graph) IsGlobalObject(_ *heap.Heap, cell uintptr) bool { return g.Globals[cell] }

// MarkRoots marks the Extra roots.
func (g *Graph) MarkRoots(h *heap.Heap) { h.MarkWords(g.Extra) }

// FinalizeCount returns how many times cell was finalized.
func (g *Graph) FinalizeCount(cell uintptr) int {
	n := 0
	for _, c := range g.Finalized {
		if c == cell {
			n++
		}
	}
	return n
}
