package value

import (
	"fmt"

	"github.com/joshuapare/cellheap/internal/buf"
	"github.com/joshuapare/cellheap/internal/format"
)

// Object cell layout: kind, field count, then one word per field.
const (
	offFieldCount = 4
	offFields     = 8
)

// MaxFields is the largest object a primary cell can hold.
const MaxFields = int((format.CellSize - offFields) / format.PointerSize)

func fieldOffset(i int) int {
	return offFields + i*int(format.PointerSize)
}

// NewObject allocates an object with n fields, all Null.
func (r *Runtime) NewObject(n int) (Value, error) {
	return r.newObject(KindObject, n)
}

// NewGlobalObject allocates a global object with n fields.
func (r *Runtime) NewGlobalObject(n int) (Value, error) {
	return r.newObject(KindGlobal, n)
}

func (r *Runtime) newObject(k Kind, n int) (Value, error) {
	if n < 0 || n > MaxFields {
		return Null, fmt.Errorf("%w: %d (max %d)", ErrTooManyFields, n, MaxFields)
	}
	cell, err := r.h.Allocate(uintptr(fieldOffset(n)))
	if err != nil {
		return Null, err
	}
	b := r.h.Bytes(cell)
	buf.PutU32LE(b[offKind:], uint32(k))
	buf.PutU32LE(b[offFieldCount:], uint32(n))
	return Value(cell), nil
}

// NumFields returns the number of fields of an object.
func (r *Runtime) NumFields(obj Value) (int, error) {
	b, _, err := r.payload(obj, KindObject, KindGlobal)
	if err != nil {
		return 0, err
	}
	return int(buf.U32LE(b[offFieldCount:])), nil
}

// Field returns field i of obj.
func (r *Runtime) Field(obj Value, i int) (Value, error) {
	b, err := r.field(obj, i)
	if err != nil {
		return Null, err
	}
	return Value(buf.Word(b)), nil
}

// SetField stores v in field i of obj. The collector keeps v alive for as
// long as obj is reachable.
func (r *Runtime) SetField(obj Value, i int, v Value) error {
	b, err := r.field(obj, i)
	if err != nil {
		return err
	}
	buf.PutWord(b, uintptr(v))
	return nil
}

func (r *Runtime) field(obj Value, i int) ([]byte, error) {
	b, _, err := r.payload(obj, KindObject, KindGlobal)
	if err != nil {
		return nil, err
	}
	n := int(buf.U32LE(b[offFieldCount:]))
	if i < 0 || i >= n {
		return nil, fmt.Errorf("%w: %d of %d", ErrFieldRange, i, n)
	}
	f, ok := buf.Slice(b, fieldOffset(i), int(format.PointerSize))
	if !ok {
		return nil, fmt.Errorf("%w: %d of %d", ErrFieldRange, i, n)
	}
	return f, nil
}
