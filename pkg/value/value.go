package value

// Value is a script value: an immediate integer or a cell address.
type Value uintptr

// Null is the null value. It is neither an immediate nor a cell.
const Null Value = 0

// Int returns the immediate encoding of n. n loses its top bit.
func Int(n int) Value {
	return Value(uintptr(n)<<1 | 1)
}

// IsInt reports whether v is an immediate integer.
func (v Value) IsInt() bool { return v&1 == 1 }

// Int returns the integer held by an immediate.
func (v Value) Int() int { return int(v) >> 1 }

// IsNull reports whether v is Null.
func (v Value) IsNull() bool { return v == Null }

// Kind identifies how a value is represented.
type Kind uint32

const (
	KindInvalid Kind = iota
	KindNull
	KindInt
	KindNumber
	KindString
	KindObject
	KindGlobal
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindGlobal:
		return "global"
	default:
		return "invalid"
	}
}

// IsCell reports whether k is stored in a heap cell.
func (k Kind) IsCell() bool {
	return k >= KindNumber && k <= KindGlobal
}
