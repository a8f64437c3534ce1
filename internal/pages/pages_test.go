package pages

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/cellheap/internal/format"
)

func sources() map[string]Source {
	return map[string]Source{
		"heap":    NewHeapSource(),
		"default": Default(),
	}
}

func TestMapAligned(t *testing.T) {
	for name, src := range sources() {
		t.Run(name, func(t *testing.T) {
			b, err := src.Map(format.BlockSize, format.BlockSize)
			require.NoError(t, err)
			defer func() { require.NoError(t, src.Unmap(b)) }()

			require.Len(t, b, format.BlockSize)
			require.Equal(t, format.BlockSize, cap(b), "window must not expose the over-mapped tail")
			require.Zero(t, Addr(b)&format.BlockOffsetMask, "region must be block aligned")
			for i := range b {
				if b[i] != 0 {
					t.Fatalf("byte %d not zero: 0x%x", i, b[i])
				}
			}
		})
	}
}

func TestMapWritable(t *testing.T) {
	for name, src := range sources() {
		t.Run(name, func(t *testing.T) {
			b, err := src.Map(format.PageSize, format.PageSize)
			require.NoError(t, err)
			b[0], b[len(b)-1] = 0xde, 0xad
			require.Equal(t, byte(0xde), b[0])
			require.Equal(t, byte(0xad), b[len(b)-1])
			require.NoError(t, src.Unmap(b))
		})
	}
}

func TestDiscardZeroes(t *testing.T) {
	for name, src := range sources() {
		t.Run(name, func(t *testing.T) {
			b, err := src.Map(format.BlockSize, format.BlockSize)
			require.NoError(t, err)
			defer src.Unmap(b)

			for i := range b {
				b[i] = 0xAA
			}
			require.NoError(t, src.Discard(b))
			for i := range b {
				if b[i] != 0 {
					t.Fatalf("byte %d survived discard: 0x%x", i, b[i])
				}
			}
		})
	}
}

func TestMapRejectsBadSizes(t *testing.T) {
	tests := []struct {
		name        string
		size, align uintptr
	}{
		{"zero size", 0, format.PageSize},
		{"partial page", 100, format.PageSize},
		{"small alignment", format.PageSize, 8},
		{"non power of two alignment", format.PageSize, 3 * format.PageSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewHeapSource().Map(tt.size, tt.align)
			require.ErrorIs(t, err, ErrBadSize)
		})
	}
}

func TestUnmapUnknownRegion(t *testing.T) {
	src := NewHeapSource()
	require.ErrorIs(t, src.Unmap(make([]byte, format.PageSize)), ErrUnknownRegion)

	b, err := src.Map(format.PageSize, format.PageSize)
	require.NoError(t, err)
	require.Equal(t, 1, src.Regions())
	require.NoError(t, src.Unmap(b))
	require.Equal(t, 0, src.Regions())
	require.ErrorIs(t, src.Unmap(b), ErrUnknownRegion)
}
