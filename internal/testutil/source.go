package testutil

import (
	"errors"

	"github.com/joshuapare/cellheap/internal/pages"
)

// ErrSourceExhausted is returned by a LimitedSource past its limit.
var ErrSourceExhausted = errors.New("testutil: page source exhausted")

// LimitedSource is a HeapSource that fails once Limit regions are mapped.
// Unmapping does not return budget.
type LimitedSource struct {
	*pages.HeapSource
	Limit int
	Maps  int
}

// NewLimitedSource returns a source that maps at most limit regions.
func NewLimitedSource(limit int) *LimitedSource {
	return &LimitedSource{HeapSource: pages.NewHeapSource(), Limit: limit}
}

// Map maps a region or returns ErrSourceExhausted.
func (s *LimitedSource) Map(size, align uintptr) ([]byte, error) {
	if s.Maps >= s.Limit {
		return nil, ErrSourceExhausted
	}
	s.Maps++
	return s.HeapSource.Map(size, align)
}
