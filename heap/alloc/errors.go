package alloc

import "errors"

var (
	// ErrOutOfMemory indicates the backing source could not supply a new block.
	ErrOutOfMemory = errors.New("alloc: backing memory exhausted")

	// ErrSizeTooLarge indicates a request larger than the arena's cell size.
	ErrSizeTooLarge = errors.New("alloc: request exceeds cell size")

	// ErrBadCell indicates an address that is not an allocated cell of the arena.
	ErrBadCell = errors.New("alloc: bad cell address")

	// ErrClosed indicates use of an arena after Close.
	ErrClosed = errors.New("alloc: arena closed")
)
