package heap

import (
	"errors"
	"fmt"
)

var (
	// ErrReentrant indicates allocation or collection was entered while
	// another allocation or collection was in flight on the same heap.
	ErrReentrant = errors.New("heap: reentrant operation")

	// ErrClosed indicates use of a heap after Close.
	ErrClosed = errors.New("heap: closed")

	// ErrAlreadyRegistered indicates a stack that is already a scan source.
	ErrAlreadyRegistered = errors.New("heap: stack already registered")
)

// ReentrancyError describes an operation that collided with the heap's
// operation state. It is raised with panic: block, bitmap and free-list state
// cannot be trusted once allocation and collection interleave.
type ReentrancyError struct {
	Op    string // Operation attempted ("allocate", "collect")
	State State  // State the heap was in
}

func (e *ReentrancyError) Error() string {
	return fmt.Sprintf("heap: %s while %s", e.Op, e.State)
}

// Unwrap returns ErrReentrant.
func (e *ReentrancyError) Unwrap() error { return ErrReentrant }
