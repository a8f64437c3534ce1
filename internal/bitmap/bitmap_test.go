package bitmap

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/cellheap/internal/format"
)

func TestBitmapSetGetClear(t *testing.T) {
	var b Bitmap
	require.Equal(t, 0, b.Count())

	for _, n := range []int{0, 31, 32, 63, 99} {
		require.False(t, b.Get(n), "bit %d should start clear", n)
		b.Set(n)
		require.True(t, b.Get(n), "bit %d should be set", n)
	}
	require.Equal(t, 5, b.Count())

	// Neighbours stay untouched.
	require.False(t, b.Get(1))
	require.False(t, b.Get(30))
	require.False(t, b.Get(33))

	b.Clear(31)
	require.False(t, b.Get(31))
	require.True(t, b.Get(32))
	require.Equal(t, 4, b.Count())
}

func TestBitmapTestAndSet(t *testing.T) {
	var b Bitmap
	require.True(t, b.TestAndSet(7), "first set should report newly set")
	require.False(t, b.TestAndSet(7), "second set must be a no-op")
	require.True(t, b.Get(7))
	require.Equal(t, 1, b.Count())
}

func TestBitmapClearAll(t *testing.T) {
	var b Bitmap
	for n := 0; n < Bits; n += 3 {
		b.Set(n)
	}
	require.NotZero(t, b.Count())
	b.ClearAll()
	require.Zero(t, b.Count())
	for n := 0; n < Bits; n++ {
		require.False(t, b.Get(n))
	}
}

func TestBitmapIsFixedSizeValue(t *testing.T) {
	require.GreaterOrEqual(t, Bits, format.SmallCellsPerBlock)
	require.Equal(t, uintptr(format.BitmapWords*4), unsafe.Sizeof(Bitmap{}))

	// Marking through an embedded bitmap never allocates.
	type holder struct{ marks Bitmap }
	h := new(holder)
	allocs := testing.AllocsPerRun(100, func() {
		h.marks.TestAndSet(format.SmallCellsPerBlock - 1)
		h.marks.ClearAll()
	})
	require.Zero(t, allocs)
}
