package value

import (
	"fmt"

	"github.com/joshuapare/cellheap/heap"
	"github.com/joshuapare/cellheap/internal/buf"
)

// Cell header: every cell starts with its kind.
const (
	offKind = 0
)

// Runtime owns a heap and the state that lives beside it.
type Runtime struct {
	h *heap.Heap

	// external holds the bytes of strings too long to store inline, keyed
	// by cell address.
	external map[uintptr][]byte
}

// New creates a runtime with its own heap. opts.Model is replaced by the
// runtime.
func New(opts heap.Options) (*Runtime, error) {
	r := &Runtime{external: make(map[uintptr][]byte)}
	opts.Model = r
	h, err := heap.New(opts)
	if err != nil {
		return nil, err
	}
	r.h = h
	return r, nil
}

// Heap returns the runtime's heap.
func (r *Runtime) Heap() *heap.Heap { return r.h }

// Close closes the heap and drops every external string.
func (r *Runtime) Close() error {
	clear(r.external)
	return r.h.Close()
}

// ExternalBytes returns the number of bytes held outside the heap.
func (r *Runtime) ExternalBytes() int {
	n := 0
	for _, b := range r.external {
		n += len(b)
	}
	return n
}

// Kind returns the kind of v. Words that are neither immediates nor live
// cells report KindInvalid.
func (r *Runtime) Kind(v Value) Kind {
	switch {
	case v.IsNull():
		return KindNull
	case v.IsInt():
		return KindInt
	}
	b := r.h.Bytes(uintptr(v))
	if b == nil {
		return KindInvalid
	}
	k := Kind(buf.U32LE(b[offKind:]))
	if !k.IsCell() {
		return KindInvalid
	}
	return k
}

// payload returns v's cell bytes after checking its kind against want.
func (r *Runtime) payload(v Value, want ...Kind) ([]byte, Kind, error) {
	b := r.h.Bytes(uintptr(v))
	if b == nil {
		return nil, KindInvalid, fmt.Errorf("%w: %#x", ErrNotCell, uintptr(v))
	}
	k := Kind(buf.U32LE(b[offKind:]))
	for _, w := range want {
		if k == w {
			return b, k, nil
		}
	}
	return nil, k, fmt.Errorf("%w: have %s, want %v", ErrKind, k, want)
}

// Trace reports the cells an object's fields hold. Other kinds retain nothing.
func (r *Runtime) Trace(_ *heap.Heap, cell uintptr, t heap.Tracer) {
	b := r.h.Bytes(cell)
	if b == nil {
		return
	}
	switch Kind(buf.U32LE(b[offKind:])) {
	case KindObject, KindGlobal:
		n := int(buf.U32LE(b[offFieldCount:]))
		for i := range n {
			if w := buf.Word(b[fieldOffset(i):]); w&1 == 0 {
				t.Mark(w)
			}
		}
	}
}

// Finalize releases the external bytes of a reclaimed string.
func (r *Runtime) Finalize(_ *heap.Heap, cell uintptr) {
	delete(r.external, cell)
}

// TypeName names the kind stored in cell.
func (r *Runtime) TypeName(_ *heap.Heap, cell uintptr) string {
	k := r.Kind(Value(cell))
	if k == KindInvalid {
		return ""
	}
	return k.String()
}

// IsGlobalObject reports whether cell holds a global object.
func (r *Runtime) IsGlobalObject(_ *heap.Heap, cell uintptr) bool {
	return r.Kind(Value(cell)) == KindGlobal
}
