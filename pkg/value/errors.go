package value

import "errors"

var (
	// ErrNotCell indicates a value that is not a live cell of the runtime's heap.
	ErrNotCell = errors.New("value: not a live cell")

	// ErrKind indicates a value of the wrong kind for the operation.
	ErrKind = errors.New("value: wrong kind")

	// ErrFieldRange indicates a field index outside the object.
	ErrFieldRange = errors.New("value: field index out of range")

	// ErrTooManyFields indicates an object larger than a cell can hold.
	ErrTooManyFields = errors.New("value: too many fields")

	// ErrEncoding indicates a string that could not be encoded or decoded.
	ErrEncoding = errors.New("value: string encoding")
)
