// Package pngEncoder writes image buffers as 8-bit truecolor+alpha PNGs.
package pngEncoder

import (
	"io"

	"github.com/rs/zerolog"

	"simplepng/chunk"
	"simplepng/compression"
	"simplepng/imageBuffer"
	"simplepng/oops"
	"simplepng/pngDecoder"
	"simplepng/utils"
)

const bytesPerPixel = 4

type Option func(*encoder)

// WithLevel sets the deflate level, from compression.NoCompression to
// compression.BestCompression, or compression.DefaultCompression.
func WithLevel(level int) Option {
	return func(e *encoder) {
		e.level = level
	}
}

func WithLogger(logger *zerolog.Logger) Option {
	return func(e *encoder) {
		e.logger = logger
	}
}

type encoder struct {
	w      io.Writer
	img    *imageBuffer.ImageBuffer
	level  int
	logger *zerolog.Logger
}

// Encode writes img to w. The output always holds exactly one IHDR, one
// IDAT and one IEND chunk, and every scanline uses the Sub filter.
func Encode(w io.Writer, img *imageBuffer.ImageBuffer, opts ...Option) error {
	if img == nil || img.Width <= 0 || img.Height <= 0 || len(img.Data) != img.Width*img.Height {
		return oops.New(nil, "cannot encode an empty or malformed image buffer")
	}
	nop := zerolog.Nop()
	e := &encoder{
		w:      w,
		img:    img,
		level:  compression.DefaultCompression,
		logger: &nop,
	}
	for _, opt := range opts {
		opt(e)
	}

	if _, err := io.WriteString(w, chunk.Signature); err != nil {
		return oops.New(err, "failed to write PNG signature")
	}
	if err := e.writeIHDR(); err != nil {
		return err
	}
	if err := e.writeIDAT(); err != nil {
		return err
	}
	return chunk.Write(w, chunk.TypeIEND, nil)
}

func (e *encoder) writeIHDR() error {
	ihdr := pngDecoder.IHDR{
		Width:           uint32(e.img.Width),
		Height:          uint32(e.img.Height),
		BitDepth:        8,
		ColorType:       pngDecoder.TrueColorAlpha,
		InterlaceMethod: pngDecoder.InterlaceNone,
	}
	return chunk.Write(e.w, chunk.TypeIHDR, ihdr.Bytes())
}

func (e *encoder) writeIDAT() error {
	filtered := e.filterScanlines()
	compressed, err := compression.Deflate(filtered, e.level)
	if err != nil {
		return oops.New(err, "failed to compress image data")
	}
	e.logger.Debug().
		Int("width", e.img.Width).
		Int("height", e.img.Height).
		Int("raw", len(filtered)).
		Int("compressed", len(compressed)).
		Msg("encoded image data")
	return chunk.Write(e.w, chunk.TypeIDAT, compressed)
}

// filterScanlines serializes every row as a Sub filter byte followed by the
// per-lane difference of each pixel from the one to its left.
func (e *encoder) filterScanlines() []byte {
	out := make([]byte, 0, e.img.Height*(1+e.img.Width*bytesPerPixel))
	for y := 0; y < e.img.Height; y++ {
		out = append(out, byte(pngDecoder.FilterSub))
		previous := uint32(0)
		for _, value := range e.img.Data[y*e.img.Width : (y+1)*e.img.Width] {
			out = utils.PutUint32(out, subtractBytes(value, previous))
			previous = value
		}
	}
	return out
}

// subtractBytes computes a-b independently in each of the four byte lanes,
// wrapping modulo 256 without borrowing across lanes.
func subtractBytes(a, b uint32) uint32 {
	const high = 0x80808080
	return ((a | high) - (b &^ high)) ^ ((a ^ ^b) & high)
}
