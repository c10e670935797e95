package pngDecoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaethPredictor(t *testing.T) {
	cases := []struct{ a, b, c, want int }{
		{0, 0, 0, 0},
		{10, 20, 15, 15}, // p=15, pc=0
		{10, 20, 10, 20}, // p=20, pb=0
		{20, 10, 10, 20}, // p=20, pa=0
		{5, 5, 200, 5},   // ties go to a
		{100, 50, 60, 100},
		{0, 255, 255, 0},
		{255, 0, 255, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, paethPredictor(tc.a, tc.b, tc.c), "paeth(%d, %d, %d)", tc.a, tc.b, tc.c)
	}
}

func TestReconstruct(t *testing.T) {
	prev := []byte{10, 20, 30, 40, 250, 5}

	t.Run("none", func(t *testing.T) {
		line := []byte{1, 2, 3, 4, 5, 6}
		require.NoError(t, reconstruct(FilterNone, prev, line, 2))
		assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, line)
	})
	t.Run("sub", func(t *testing.T) {
		line := []byte{1, 2, 3, 4, 255, 6}
		require.NoError(t, reconstruct(FilterSub, prev, line, 2))
		assert.Equal(t, []byte{1, 2, 4, 6, 3, 12}, line)
	})
	t.Run("up", func(t *testing.T) {
		line := []byte{1, 2, 3, 4, 10, 6}
		require.NoError(t, reconstruct(FilterUp, prev, line, 2))
		assert.Equal(t, []byte{11, 22, 33, 44, 4, 11}, line)
	})
	t.Run("up on first row", func(t *testing.T) {
		line := []byte{1, 2, 3}
		require.NoError(t, reconstruct(FilterUp, nil, line, 1))
		assert.Equal(t, []byte{1, 2, 3}, line)
	})
	t.Run("average", func(t *testing.T) {
		line := []byte{1, 2, 3, 4, 5, 6}
		require.NoError(t, reconstruct(FilterAverage, prev, line, 2))
		// 1+10/2, 2+20/2, 3+(6+30)/2, 4+(12+40)/2, 5+(21+250)/2, 6+(30+5)/2
		assert.Equal(t, []byte{6, 12, 21, 30, 140, 23}, line)
	})
	t.Run("average on first row", func(t *testing.T) {
		line := []byte{8, 8, 8}
		require.NoError(t, reconstruct(FilterAverage, nil, line, 1))
		assert.Equal(t, []byte{8, 12, 14}, line)
	})
	t.Run("paeth", func(t *testing.T) {
		line := []byte{1, 2, 3, 4, 5, 6}
		require.NoError(t, reconstruct(FilterPaeth, prev, line, 2))
		// i=0: paeth(0,10,0)=10 -> 11; i=1: paeth(0,20,0)=20 -> 22
		// i=2: paeth(11,30,10)=30 -> 33; i=3: paeth(22,40,20)=40 -> 44
		// i=4: paeth(33,250,30)=250 -> 255; i=5: paeth(44,5,40)=5 -> 11
		assert.Equal(t, []byte{11, 22, 33, 44, 255, 11}, line)
	})
	t.Run("paeth on first row is sub", func(t *testing.T) {
		line := []byte{3, 4, 5}
		require.NoError(t, reconstruct(FilterPaeth, nil, line, 1))
		assert.Equal(t, []byte{3, 7, 12}, line)
	})
	t.Run("unknown filter", func(t *testing.T) {
		err := reconstruct(FilterType(5), prev, []byte{1}, 1)
		assert.ErrorIs(t, err, ErrFormat)
		assert.Contains(t, err.Error(), "unrecognized filter type: 5")
	})
}

func TestFilterRoundTrip(t *testing.T) {
	prev := []byte{0, 255, 128, 7, 99, 200, 1, 2, 3}
	raw := []byte{255, 0, 17, 200, 3, 128, 64, 32, 250}
	for _, ft := range allFilters {
		for _, bpp := range []int{1, 3} {
			for _, p := range [][]byte{nil, prev} {
				line := applyFilter(ft, raw, p, bpp)
				require.NoError(t, reconstruct(ft, p, line, bpp))
				assert.Equal(t, raw, line, "filter %v bpp %d first row %v", ft, bpp, p == nil)
			}
		}
	}
}
