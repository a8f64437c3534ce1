//go:build linux || darwin || freebsd || netbsd || openbsd

package pages

import (
	"errors"
	"runtime"
	"sync"

	"golang.org/x/sys/unix"
)

// mmapSource maps anonymous private memory.
type mmapSource struct {
	mu      sync.Mutex
	regions map[uintptr][]byte // aligned window address -> whole mapping
}

var defaultSource = &mmapSource{regions: make(map[uintptr][]byte)}

// Default returns the platform source, backed by anonymous mmap.
func Default() Source { return defaultSource }

// Map implements Source.
func (s *mmapSource) Map(size, align uintptr) ([]byte, error) {
	if err := validate(size, align); err != nil {
		return nil, err
	}
	total := size
	if align > pageSize() {
		total += align
	}
	m, err := unix.Mmap(-1, 0, int(total), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, err
	}
	off := alignedWindow(Addr(m), align)
	b := m[off : off+size : off+size]

	s.mu.Lock()
	s.regions[Addr(b)] = m
	s.mu.Unlock()
	return b, nil
}

// Unmap implements Source.
func (s *mmapSource) Unmap(b []byte) error {
	s.mu.Lock()
	m, ok := s.regions[Addr(b)]
	if ok {
		delete(s.regions, Addr(b))
	}
	s.mu.Unlock()
	if !ok {
		return ErrUnknownRegion
	}
	err := unix.Munmap(m)
	if errors.Is(err, unix.EINVAL) {
		// Treat double-unmap as no-op for callers.
		return nil
	}
	return err
}

// Discard implements Source.
func (s *mmapSource) Discard(b []byte) error {
	// Only Linux guarantees zero-fill after MADV_DONTNEED on private mappings.
	if runtime.GOOS != "linux" {
		clear(b)
	}
	return unix.Madvise(b, unix.MADV_DONTNEED)
}

func pageSize() uintptr {
	return uintptr(unix.Getpagesize())
}
