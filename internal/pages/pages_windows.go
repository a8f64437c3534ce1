//go:build windows

package pages

import (
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

// virtualSource reserves and commits memory with VirtualAlloc.
type virtualSource struct {
	mu      sync.Mutex
	regions map[uintptr]uintptr // aligned window address -> allocation base
}

var defaultSource = &virtualSource{regions: make(map[uintptr]uintptr)}

// Default returns the platform source, backed by VirtualAlloc.
func Default() Source { return defaultSource }

// Map implements Source.
func (s *virtualSource) Map(size, align uintptr) ([]byte, error) {
	if err := validate(size, align); err != nil {
		return nil, err
	}
	base, err := windows.VirtualAlloc(0, size+align, windows.MEM_RESERVE|windows.MEM_COMMIT, windows.PAGE_READWRITE)
	if err != nil {
		return nil, err
	}
	start := base + alignedWindow(base, align)
	b := unsafe.Slice((*byte)(unsafe.Pointer(start)), size)

	s.mu.Lock()
	s.regions[start] = base
	s.mu.Unlock()
	return b, nil
}

// Unmap implements Source.
func (s *virtualSource) Unmap(b []byte) error {
	s.mu.Lock()
	base, ok := s.regions[Addr(b)]
	if ok {
		delete(s.regions, Addr(b))
	}
	s.mu.Unlock()
	if !ok {
		return ErrUnknownRegion
	}
	return windows.VirtualFree(base, 0, windows.MEM_RELEASE)
}

// Discard implements Source.
func (s *virtualSource) Discard(b []byte) error {
	clear(b)
	return nil
}
