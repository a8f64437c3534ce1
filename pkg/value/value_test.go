package value_test

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/cellheap/heap"
	"github.com/joshuapare/cellheap/internal/format"
	"github.com/joshuapare/cellheap/internal/pages"
	"github.com/joshuapare/cellheap/pkg/value"
)

func newRuntime(t *testing.T) *value.Runtime {
	t.Helper()
	rt, err := value.New(heap.Options{
		Pages:                    pages.NewHeapSource(),
		StackWords:               1024,
		AllocationsPerCollection: 1 << 30,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

// root keeps v alive across collections by pushing it on the main stack.
func root(t *testing.T, rt *value.Runtime, v value.Value) {
	t.Helper()
	require.NoError(t, rt.Heap().Stack().Push(uintptr(v)))
}

func TestImmediates(t *testing.T) {
	for _, n := range []int{0, 1, -1, 42, -4096, math.MaxInt >> 1, math.MinInt >> 1} {
		v := value.Int(n)
		assert.True(t, v.IsInt(), "%d", n)
		assert.Equal(t, n, v.Int())
	}
	assert.False(t, value.Null.IsInt())
	assert.True(t, value.Null.IsNull())
}

func TestKind(t *testing.T) {
	rt := newRuntime(t)

	num, err := rt.NewNumber(1.5)
	require.NoError(t, err)
	str, err := rt.NewString("x")
	require.NoError(t, err)
	obj, err := rt.NewObject(1)
	require.NoError(t, err)
	glob, err := rt.NewGlobalObject(0)
	require.NoError(t, err)

	tests := []struct {
		v    value.Value
		want value.Kind
	}{
		{value.Null, value.KindNull},
		{value.Int(3), value.KindInt},
		{num, value.KindNumber},
		{str, value.KindString},
		{obj, value.KindObject},
		{glob, value.KindGlobal},
		{obj + 8, value.KindInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, rt.Kind(tt.v))
		})
	}
	assert.True(t, rt.Heap().IsNumberCell(uintptr(num)))
}

func TestNumber(t *testing.T) {
	rt := newRuntime(t)

	for _, f := range []float64{0, -0.5, math.Pi, math.Inf(1), math.MaxFloat64} {
		v, err := rt.NewNumber(f)
		require.NoError(t, err)
		got, err := rt.Number(v)
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}

	got, err := rt.Number(value.Int(-7))
	require.NoError(t, err)
	assert.Equal(t, -7.0, got)

	s, err := rt.NewString("7")
	require.NoError(t, err)
	_, err = rt.Number(s)
	require.ErrorIs(t, err, value.ErrKind)

	_, err = rt.Number(value.Null)
	require.ErrorIs(t, err, value.ErrNotCell)
}

func TestString(t *testing.T) {
	rt := newRuntime(t)

	tests := []struct {
		name string
		in   string
		len  int
	}{
		{"empty", "", 0},
		{"ascii", "hello", 5},
		{"latin1", "café", 4},
		{"wide", "héllo 世界", 8},
		{"surrogates", "a😀b", 4},
		{"long latin1", strings.Repeat("x", value.InlineStringBytes+1), value.InlineStringBytes + 1},
		{"long wide", strings.Repeat("世", 100), 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := rt.NewString(tt.in)
			require.NoError(t, err)
			got, err := rt.String(v)
			require.NoError(t, err)
			assert.Equal(t, tt.in, got)

			n, err := rt.StringLen(v)
			require.NoError(t, err)
			assert.Equal(t, tt.len, n)
		})
	}
}

func TestString_ExternalBytes(t *testing.T) {
	rt := newRuntime(t)
	h := rt.Heap()

	short, err := rt.NewString("short")
	require.NoError(t, err)
	assert.Zero(t, rt.ExternalBytes())
	assert.Zero(t, h.Stats().ExtraCost)

	long := strings.Repeat("y", 10000)
	v, err := rt.NewString(long)
	require.NoError(t, err)
	assert.Equal(t, 10000, rt.ExternalBytes())
	assert.Equal(t, 10000/int(2*format.CellSize), h.Stats().ExtraCost)

	root(t, rt, short)
	require.True(t, h.Collect())
	assert.False(t, h.Owns(uintptr(v)))
	assert.Zero(t, rt.ExternalBytes(), "finalizer releases external bytes")

	got, err := rt.String(short)
	require.NoError(t, err)
	assert.Equal(t, "short", got)
}

func TestObject_Fields(t *testing.T) {
	rt := newRuntime(t)

	obj, err := rt.NewObject(3)
	require.NoError(t, err)
	n, err := rt.NumFields(obj)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	f, err := rt.Field(obj, 0)
	require.NoError(t, err)
	assert.Equal(t, value.Null, f, "fields start null")

	require.NoError(t, rt.SetField(obj, 2, value.Int(9)))
	f, err = rt.Field(obj, 2)
	require.NoError(t, err)
	assert.Equal(t, 9, f.Int())

	_, err = rt.Field(obj, 3)
	require.ErrorIs(t, err, value.ErrFieldRange)
	require.ErrorIs(t, rt.SetField(obj, -1, value.Null), value.ErrFieldRange)

	_, err = rt.NewObject(value.MaxFields + 1)
	require.ErrorIs(t, err, value.ErrTooManyFields)
	_, err = rt.NewObject(value.MaxFields)
	require.NoError(t, err)
}

func TestObject_TracesFields(t *testing.T) {
	rt := newRuntime(t)
	h := rt.Heap()

	obj, err := rt.NewObject(3)
	require.NoError(t, err)
	num, err := rt.NewNumber(2.5)
	require.NoError(t, err)
	str, err := rt.NewString(strings.Repeat("z", 1000))
	require.NoError(t, err)
	inner, err := rt.NewObject(1)
	require.NoError(t, err)
	garbage, err := rt.NewObject(0)
	require.NoError(t, err)

	require.NoError(t, rt.SetField(obj, 0, num))
	require.NoError(t, rt.SetField(obj, 1, str))
	require.NoError(t, rt.SetField(obj, 2, inner))
	require.NoError(t, rt.SetField(inner, 0, obj)) // cycle
	root(t, rt, obj)

	require.True(t, h.Collect())
	assert.False(t, h.Owns(uintptr(garbage)))
	for _, v := range []value.Value{obj, num, str, inner} {
		assert.True(t, h.Owns(uintptr(v)), "%#x", uintptr(v))
	}

	got, err := rt.String(str)
	require.NoError(t, err)
	assert.Len(t, got, 1000)
	f, err := rt.Number(num)
	require.NoError(t, err)
	assert.Equal(t, 2.5, f)
}

func TestTypeNames(t *testing.T) {
	rt := newRuntime(t)
	h := rt.Heap()

	num, err := rt.NewNumber(1)
	require.NoError(t, err)
	str, err := rt.NewString("s")
	require.NoError(t, err)
	obj, err := rt.NewObject(0)
	require.NoError(t, err)
	glob, err := rt.NewGlobalObject(0)
	require.NoError(t, err)

	for _, v := range []value.Value{num, str, obj, glob, value.Int(1)} {
		h.Protect(uintptr(v))
	}

	assert.Equal(t, map[string]int{
		"number": 1,
		"string": 1,
		"object": 1,
		"global": 1,
	}, h.ProtectedObjectTypeCounts())
	assert.Equal(t, 1, h.GlobalObjectCount())
	assert.Equal(t, 1, h.ProtectedGlobalObjectCount())
}
