package compression

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeflateInflate(t *testing.T) {
	data := bytes.Repeat([]byte("scanline\x01\x02\x03"), 500)
	for _, level := range []int{NoCompression, BestSpeed, DefaultCompression, BestCompression} {
		compressed, err := Deflate(data, level)
		require.NoError(t, err)

		inflated, err := InflateData(compressed)
		require.NoError(t, err)
		assert.Equal(t, data, inflated, "level %d", level)
	}
}

func TestInflaterSplitInput(t *testing.T) {
	data := bytes.Repeat([]byte{0, 1, 2, 3, 4, 5, 6, 7}, 1000)
	compressed, err := Deflate(data, BestCompression)
	require.NoError(t, err)

	z := NewInflater(int64(len(data)))
	for i := 0; i < len(compressed); i += 7 {
		end := i + 7
		if end > len(compressed) {
			end = len(compressed)
		}
		_, err := z.Write(compressed[i:end])
		require.NoError(t, err)
	}
	inflated, err := z.Flush()
	require.NoError(t, err)
	assert.Equal(t, data, inflated)
}

func TestInflaterLimit(t *testing.T) {
	data := make([]byte, 100)
	compressed, err := Deflate(data, DefaultCompression)
	require.NoError(t, err)

	z := NewInflater(99)
	z.Write(compressed)
	_, err = z.Flush()
	assert.ErrorIs(t, err, ErrTooMuchData)

	z = NewInflater(100)
	z.Write(compressed)
	inflated, err := z.Flush()
	require.NoError(t, err)
	assert.Len(t, inflated, 100)
}

func TestInflaterCorrupt(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := NewInflater(10).Flush()
		assert.Error(t, err)
	})
	t.Run("bad header", func(t *testing.T) {
		z := NewInflater(10)
		z.Write([]byte{0x00, 0x00, 0x00})
		_, err := z.Flush()
		assert.Error(t, err)
	})
	t.Run("truncated", func(t *testing.T) {
		compressed, err := Deflate(bytes.Repeat([]byte("abc"), 100), NoCompression)
		require.NoError(t, err)
		z := NewInflater(-1)
		z.Write(compressed[:len(compressed)/2])
		_, err = z.Flush()
		assert.Error(t, err)
	})
}

func allocatedBytes(f func()) uint64 {
	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	f()
	runtime.ReadMemStats(&after)
	return after.TotalAlloc - before.TotalAlloc
}

func TestInflaterHugeLimitSmallStream(t *testing.T) {
	compressed, err := Deflate([]byte{1, 2, 3, 4}, DefaultCompression)
	require.NoError(t, err)

	var inflated []byte
	allocated := allocatedBytes(func() {
		z := NewInflater(1 << 33)
		z.Write(compressed)
		inflated, err = z.Flush()
	})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, inflated)
	assert.Less(t, allocated, uint64(4<<20), "output buffer must not be sized from the limit")
}

func TestInflaterGrowsPastInitialSize(t *testing.T) {
	data := make([]byte, 1<<20)
	compressed, err := Deflate(data, BestCompression)
	require.NoError(t, err)
	require.Less(t, maxGrowRatio*len(compressed)+4096, len(data))

	z := NewInflater(int64(len(data)))
	z.Write(compressed)
	inflated, err := z.Flush()
	require.NoError(t, err)
	assert.Equal(t, data, inflated)
}
