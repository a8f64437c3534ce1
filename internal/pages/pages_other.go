//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !windows

package pages

var defaultSource = NewHeapSource()

// Default returns a HeapSource when no mapping source exists for the platform.
func Default() Source { return defaultSource }
