package pngDecoder

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"simplepng/chunk"
	"simplepng/compression"
	"simplepng/imageBuffer"
)

// pngSpec describes a synthetic PNG built independently of the decoder's
// own pass planning and filter code.
type pngSpec struct {
	width, height int
	colorType     ColorType
	bitDepth      uint8
	interlace     byte
	// filters is cycled across scanlines in stream order.
	filters []FilterType
	// idatCount splits the zlib stream across this many IDAT chunks.
	idatCount int
	// paletteSize overrides the PLTE entry count for indexed images.
	paletteSize int
	// indexRange overrides the range of palette indices used by pixels.
	indexRange int
}

type rawChunk struct {
	typ  string
	data []byte
}

var allFilters = []FilterType{FilterNone, FilterSub, FilterUp, FilterAverage, FilterPaeth}

func (s pngSpec) channels() int {
	switch s.colorType {
	case TrueColor:
		return 3
	case GrayscaleAlpha:
		return 2
	case TrueColorAlpha:
		return 4
	}
	return 1
}

func (s pngSpec) maxSample() int {
	return 1<<s.bitDepth - 1
}

func (s pngSpec) numPaletteEntries() int {
	if s.paletteSize > 0 {
		return s.paletteSize
	}
	if s.bitDepth == 8 {
		return 200
	}
	return 1 << s.bitDepth
}

func (s pngSpec) palette() []byte {
	var plte []byte
	for i := 0; i < s.numPaletteEntries(); i++ {
		plte = append(plte, byte(i*17), byte(255-i), byte(i*5+3))
	}
	return plte
}

// sample is the raw value of channel c of pixel (x, y).
func (s pngSpec) sample(x, y, c int) int {
	if s.colorType == Indexed {
		n := s.numPaletteEntries()
		if s.indexRange > 0 {
			n = s.indexRange
		}
		return (x*3 + y*7) % n
	}
	if s.bitDepth == 16 {
		return (x*4099 + y*257 + c*8191 + x*y*31) & 0xffff
	}
	return (x*37 + y*101 + c*59 + x*y*13) & s.maxSample()
}

func (s pngSpec) to8(v int) uint8 {
	switch {
	case s.bitDepth == 16:
		return uint8(v >> 8)
	case s.bitDepth == 8:
		return uint8(v)
	}
	return uint8(v * 255 / s.maxSample())
}

// expected is the canonical buffer a correct decoder must produce.
func (s pngSpec) expected() []uint32 {
	plte := s.palette()
	out := make([]uint32, s.width*s.height)
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			var v uint32
			switch s.colorType {
			case Indexed:
				i := s.sample(x, y, 0)
				v = imageBuffer.Pack(plte[i*3], plte[i*3+1], plte[i*3+2], 0xff)
			case Grayscale:
				g := s.to8(s.sample(x, y, 0))
				v = imageBuffer.Pack(g, g, g, 0xff)
			case GrayscaleAlpha:
				g := s.to8(s.sample(x, y, 0))
				v = imageBuffer.Pack(g, g, g, s.to8(s.sample(x, y, 1)))
			case TrueColor:
				v = imageBuffer.Pack(s.to8(s.sample(x, y, 0)), s.to8(s.sample(x, y, 1)), s.to8(s.sample(x, y, 2)), 0xff)
			case TrueColorAlpha:
				v = imageBuffer.Pack(s.to8(s.sample(x, y, 0)), s.to8(s.sample(x, y, 1)), s.to8(s.sample(x, y, 2)), s.to8(s.sample(x, y, 3)))
			}
			out[y*s.width+x] = v
		}
	}
	return out
}

// rows lists, pass by pass, the full-image coordinates of each scanline.
func (s pngSpec) rows() [][][][2]int {
	type start struct{ x, y, dx, dy int }
	starts := []start{{0, 0, 1, 1}}
	if s.interlace == InterlaceAdam7 {
		starts = []start{{0, 0, 8, 8}, {4, 0, 8, 8}, {0, 4, 4, 8}, {2, 0, 4, 4}, {0, 2, 2, 4}, {1, 0, 2, 2}, {0, 1, 1, 2}}
	}
	var passes [][][][2]int
	for _, st := range starts {
		if st.x >= s.width {
			passes = append(passes, nil)
			continue
		}
		var lines [][][2]int
		for y := st.y; y < s.height; y += st.dy {
			var line [][2]int
			for x := st.x; x < s.width; x += st.dx {
				line = append(line, [2]int{x, y})
			}
			lines = append(lines, line)
		}
		passes = append(passes, lines)
	}
	return passes
}

func (s pngSpec) packLine(line [][2]int) []byte {
	var out []byte
	var acc, nbits int
	for _, p := range line {
		for c := 0; c < s.channels(); c++ {
			v := s.sample(p[0], p[1], c)
			switch {
			case s.bitDepth == 16:
				out = append(out, byte(v>>8), byte(v))
			case s.bitDepth == 8:
				out = append(out, byte(v))
			default:
				acc = acc<<s.bitDepth | v
				nbits += int(s.bitDepth)
				if nbits == 8 {
					out = append(out, byte(acc))
					acc, nbits = 0, 0
				}
			}
		}
	}
	if nbits > 0 {
		out = append(out, byte(acc<<(8-nbits)))
	}
	return out
}

func (s pngSpec) bytesPerPixel() int {
	bpp := s.channels() * int(s.bitDepth) / 8
	if bpp < 1 {
		return 1
	}
	return bpp
}

func applyFilter(ft FilterType, raw, prev []byte, bpp int) []byte {
	out := make([]byte, len(raw))
	at := func(b []byte, i int) int {
		if b == nil || i < 0 {
			return 0
		}
		return int(b[i])
	}
	for i := range raw {
		a, b, c := at(raw, i-bpp), at(prev, i), at(prev, i-bpp)
		var pred int
		switch ft {
		case FilterSub:
			pred = a
		case FilterUp:
			pred = b
		case FilterAverage:
			pred = (a + b) / 2
		case FilterPaeth:
			p := a + b - c
			pa, pb, pc := abs(p-a), abs(p-b), abs(p-c)
			if pa <= pb && pa <= pc {
				pred = a
			} else if pb <= pc {
				pred = b
			} else {
				pred = c
			}
		}
		out[i] = byte(int(raw[i]) - pred)
	}
	return out
}

// imageData is the uncompressed, filtered scanline stream.
func (s pngSpec) imageData() []byte {
	filters := s.filters
	if len(filters) == 0 {
		filters = allFilters
	}
	var data []byte
	n := 0
	for _, lines := range s.rows() {
		var prev []byte
		for _, line := range lines {
			raw := s.packLine(line)
			ft := filters[n%len(filters)]
			n++
			data = append(data, byte(ft))
			data = append(data, applyFilter(ft, raw, prev, s.bytesPerPixel())...)
			prev = raw
		}
	}
	return data
}

func (s pngSpec) ihdr() []byte {
	h := IHDR{
		Width:           uint32(s.width),
		Height:          uint32(s.height),
		BitDepth:        s.bitDepth,
		ColorType:       s.colorType,
		InterlaceMethod: s.interlace,
	}
	return h.Bytes()
}

func idatChunks(t *testing.T, data []byte, count int) []rawChunk {
	t.Helper()
	compressed, err := compression.Deflate(data, compression.BestCompression)
	require.NoError(t, err)
	if count < 1 {
		count = 1
	}
	size := (len(compressed) + count - 1) / count
	var chunks []rawChunk
	for len(compressed) > 0 {
		n := size
		if n > len(compressed) {
			n = len(compressed)
		}
		chunks = append(chunks, rawChunk{chunk.TypeIDAT, compressed[:n]})
		compressed = compressed[n:]
	}
	return chunks
}

func (s pngSpec) chunks(t *testing.T) []rawChunk {
	t.Helper()
	chunks := []rawChunk{{chunk.TypeIHDR, s.ihdr()}}
	if s.colorType == Indexed {
		chunks = append(chunks, rawChunk{chunk.TypePLTE, s.palette()})
	}
	chunks = append(chunks, idatChunks(t, s.imageData(), s.idatCount)...)
	return append(chunks, rawChunk{chunk.TypeIEND, nil})
}

func encodeChunks(t *testing.T, chunks []rawChunk) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString(chunk.Signature)
	for _, c := range chunks {
		require.NoError(t, chunk.Write(&buf, c.typ, c.data))
	}
	return buf.Bytes()
}

func (s pngSpec) encode(t *testing.T) []byte {
	t.Helper()
	return encodeChunks(t, s.chunks(t))
}
