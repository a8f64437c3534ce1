package value

import (
	"math"

	"github.com/joshuapare/cellheap/internal/buf"
)

// Number cell layout.
const (
	offNumber  = 8
	numberSize = offNumber + 8
)

// NewNumber boxes f in a number-arena cell.
func (r *Runtime) NewNumber(f float64) (Value, error) {
	cell, err := r.h.AllocateNumber(numberSize)
	if err != nil {
		return Null, err
	}
	b := r.h.Bytes(cell)
	buf.PutU32LE(b[offKind:], uint32(KindNumber))
	buf.PutU64LE(b[offNumber:], math.Float64bits(f))
	return Value(cell), nil
}

// Number returns the numeric value of a boxed number or an immediate.
func (r *Runtime) Number(v Value) (float64, error) {
	if v.IsInt() {
		return float64(v.Int()), nil
	}
	b, _, err := r.payload(v, KindNumber)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(buf.U64LE(b[offNumber:])), nil
}
