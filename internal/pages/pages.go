// Package pages hands out aligned runs of raw memory for collector blocks and
// machine stacks.
//
// Blocks rely on being aligned to their own size so the owning block of any
// cell can be recovered by masking the cell address. The platform sources get
// that guarantee by over-mapping and handing out an aligned window of the
// mapping; the whole mapping is kept and released together on Unmap.
package pages

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/joshuapare/cellheap/internal/format"
)

var (
	// ErrBadSize indicates a size or alignment that is not a positive multiple
	// of the page size, or an alignment that is not a power of two.
	ErrBadSize = errors.New("pages: bad size or alignment")

	// ErrUnknownRegion indicates Unmap was called with memory this source did
	// not hand out.
	ErrUnknownRegion = errors.New("pages: unknown region")
)

// Source maps and unmaps aligned regions of memory.
type Source interface {
	// Map returns size bytes whose first byte is aligned to align. The memory
	// reads as zero.
	Map(size, align uintptr) ([]byte, error)

	// Unmap releases a region previously returned by Map.
	Unmap(b []byte) error

	// Discard drops the contents of b, a region previously returned by Map.
	// The region stays mapped and reads as zero afterwards.
	Discard(b []byte) error
}

func validate(size, align uintptr) error {
	if size == 0 || size%format.PageSize != 0 {
		return fmt.Errorf("%w: size %d", ErrBadSize, size)
	}
	if align < format.PageSize || !format.IsPowerOfTwo(align) {
		return fmt.Errorf("%w: alignment %d", ErrBadSize, align)
	}
	return nil
}

// Addr returns the address of the first byte of b.
func Addr(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}

// alignedWindow returns the offset into a region starting at base where the
// first align-aligned byte lives.
func alignedWindow(base, align uintptr) uintptr {
	return format.AlignUp(base, align) - base
}

// HeapSource serves regions out of the Go heap. The Go collector never moves
// heap objects, so an aligned window into an over-sized byte slice is stable
// for as long as the source keeps the slice reachable.
//
// It is the default on platforms without a mapping source and is handy in
// tests that must not touch the OS.
type HeapSource struct {
	mu   sync.Mutex
	live map[uintptr][]byte
}

// NewHeapSource returns an empty HeapSource.
func NewHeapSource() *HeapSource {
	return &HeapSource{live: make(map[uintptr][]byte)}
}

// Map implements Source.
func (s *HeapSource) Map(size, align uintptr) ([]byte, error) {
	if err := validate(size, align); err != nil {
		return nil, err
	}
	raw := make([]byte, size+align)
	off := alignedWindow(Addr(raw), align)
	b := raw[off : off+size : off+size]

	s.mu.Lock()
	s.live[Addr(b)] = raw
	s.mu.Unlock()
	return b, nil
}

// Unmap implements Source.
func (s *HeapSource) Unmap(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	addr := Addr(b)
	if _, ok := s.live[addr]; !ok {
		return ErrUnknownRegion
	}
	delete(s.live, addr)
	return nil
}

// Discard implements Source.
func (s *HeapSource) Discard(b []byte) error {
	clear(b)
	return nil
}

// Regions returns the number of regions currently mapped.
func (s *HeapSource) Regions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}
