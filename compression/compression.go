package compression

import (
	"bytes"
	"errors"
	"io"

	"github.com/klauspost/compress/zlib"
)

const (
	NoCompression      = zlib.NoCompression
	BestSpeed          = zlib.BestSpeed
	BestCompression    = zlib.BestCompression
	DefaultCompression = zlib.DefaultCompression
)

// ErrTooMuchData is returned by Flush when the stream inflates to more than
// the configured limit.
var ErrTooMuchData = errors.New("inflated data exceeds expected length")

// Inflater collects a zlib stream one chunk body at a time and inflates it
// in a single pass on Flush. Bodies are concatenated as they arrive since a
// zlib stream may be split at arbitrary byte boundaries across IDAT chunks.
type Inflater struct {
	compressed bytes.Buffer
	limit      int64
}

// NewInflater returns an Inflater whose output may not exceed limit bytes.
// A negative limit disables the check.
func NewInflater(limit int64) *Inflater {
	return &Inflater{limit: limit}
}

func (z *Inflater) Write(p []byte) (int, error) {
	return z.compressed.Write(p)
}

// Flush decompresses everything written so far and returns the output.
func (z *Inflater) Flush() ([]byte, error) {
	initialSize := z.initialSize()
	zlibReader, err := zlib.NewReader(&z.compressed)
	if err != nil {
		return nil, err
	}
	defer zlibReader.Close()

	var src io.Reader = zlibReader
	if z.limit >= 0 {
		src = io.LimitReader(zlibReader, z.limit+1)
	}
	// The limit comes from an untrusted header, so only pre-size for what
	// the compressed input could plausibly expand to.
	var decompressedData bytes.Buffer
	decompressedData.Grow(initialSize)
	if _, err := io.Copy(&decompressedData, src); err != nil {
		return nil, err
	}
	if z.limit >= 0 && int64(decompressedData.Len()) > z.limit {
		return nil, ErrTooMuchData
	}
	return decompressedData.Bytes(), nil
}

// maxGrowRatio bounds the initial output buffer relative to the compressed
// input. Streams that expand further grow the buffer as data arrives.
const maxGrowRatio = 4

func (z *Inflater) initialSize() int {
	size := int64(maxGrowRatio*z.compressed.Len() + 4096)
	if z.limit >= 0 && z.limit < size {
		size = z.limit
	}
	return int(size)
}

func InflateData(compressedData []byte) ([]byte, error) {
	z := NewInflater(-1)
	z.Write(compressedData)
	return z.Flush()
}

// Deflate compresses data into a single complete zlib stream.
func Deflate(data []byte, level int) ([]byte, error) {
	var compressed bytes.Buffer
	w, err := zlib.NewWriterLevel(&compressed, level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return compressed.Bytes(), nil
}
