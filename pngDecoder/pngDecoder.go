// Package pngDecoder decodes PNG streams of any legal color type, bit depth
// and interlace method into canonical RGBA image buffers.
package pngDecoder

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"simplepng/chunk"
	"simplepng/compression"
	"simplepng/imageBuffer"
	"simplepng/oops"
)

const maxPaletteEntries = 256

// Decoding stage.
const (
	dsStart = iota
	dsSeenIHDR
	dsSeenIDAT
	dsSeenIEND
)

type Option func(*PngDecoder)

// WithLogger sends diagnostics (header metadata, ignored chunks, filter
// statistics) to logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(pd *PngDecoder) {
		pd.logger = logger
	}
}

// WithVerifyCRC makes the decoder reject chunks whose CRC-32 trailer does not
// match their contents.
func WithVerifyCRC(verify bool) Option {
	return func(pd *PngDecoder) {
		pd.verifyCRC = verify
	}
}

type PngDecoder struct {
	r         io.Reader
	logger    *zerolog.Logger
	verifyCRC bool

	stage    int
	ihdr     *IHDR
	format   PixelFormat
	passes   []pass
	palette  []uint32
	inflater *compression.Inflater
}

// NewDecoder checks the signature of r and returns a decoder positioned at
// the first chunk.
func NewDecoder(r io.Reader, opts ...Option) (*PngDecoder, error) {
	if r == nil {
		return nil, UsageError("reader must not be nil")
	}
	nop := zerolog.Nop()
	pd := &PngDecoder{
		r:      r,
		logger: &nop,
	}
	for _, opt := range opts {
		opt(pd)
	}

	var header [len(chunk.Signature)]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, oops.New(err, "failed to read PNG signature")
		}
	}
	if !isPNG(header[:]) {
		return nil, FormatError("not a PNG image")
	}
	return pd, nil
}

// Decode reads a complete PNG image from r.
func Decode(r io.Reader, opts ...Option) (*imageBuffer.ImageBuffer, error) {
	pd, err := NewDecoder(r, opts...)
	if err != nil {
		return nil, err
	}
	return pd.Decode()
}

// DecodeConfig reads and validates only the signature and IHDR chunk.
func DecodeConfig(r io.Reader, opts ...Option) (IHDR, error) {
	pd, err := NewDecoder(r, opts...)
	if err != nil {
		return IHDR{}, err
	}
	if err := pd.readHeader(); err != nil {
		return IHDR{}, err
	}
	return *pd.ihdr, nil
}

func (pd *PngDecoder) nextChunk() (*chunk.Chunk, error) {
	c, err := chunk.Read(pd.r)
	if err != nil {
		if errors.Is(err, chunk.ErrTruncated) || errors.Is(err, chunk.ErrLength) {
			return nil, FormatError(err.Error())
		}
		return nil, err
	}
	if pd.verifyCRC {
		if err := c.Verify(); err != nil {
			return nil, FormatError(err.Error())
		}
	}
	return c, nil
}

func (pd *PngDecoder) readHeader() error {
	if pd.stage != dsStart {
		return nil
	}
	c, err := pd.nextChunk()
	if err != nil {
		return err
	}
	if c.Type != chunk.TypeIHDR {
		return FormatError(fmt.Sprintf("expected IHDR, got %q", c.Type))
	}
	ihdr, err := ParseIHDR(c.Data)
	if err != nil {
		return err
	}
	pd.logger.Debug().
		Uint32("width", ihdr.Width).
		Uint32("height", ihdr.Height).
		Uint8("bitDepth", ihdr.BitDepth).
		Uint8("colorType", uint8(ihdr.ColorType)).
		Uint8("compression", ihdr.CompressionMethod).
		Uint8("filterMethod", ihdr.FilterMethod).
		Uint8("interlace", ihdr.InterlaceMethod).
		Msg("png metadata")

	format, err := ihdr.Validate()
	if err != nil {
		return err
	}
	pd.ihdr = ihdr
	pd.format = format
	pd.stage = dsSeenIHDR
	return nil
}

// Decode reads the remaining chunks and returns the image.
func (pd *PngDecoder) Decode() (*imageBuffer.ImageBuffer, error) {
	if err := pd.readHeader(); err != nil {
		return nil, err
	}
	if pd.stage != dsSeenIHDR {
		return nil, UsageError("Decode called twice")
	}

	width, height := int(pd.ihdr.Width), int(pd.ihdr.Height)
	pd.passes = planPasses(width, height, pd.ihdr.InterlaceMethod, pd.format)
	expected := expectedDataLength(pd.passes)
	pd.inflater = compression.NewInflater(int64(expected))

	for pd.stage != dsSeenIEND {
		c, err := pd.nextChunk()
		if err != nil {
			return nil, err
		}
		if err := pd.parseChunk(c); err != nil {
			return nil, err
		}
	}
	if err := pd.expectEOF(); err != nil {
		return nil, err
	}

	data, err := pd.inflater.Flush()
	if err != nil {
		if errors.Is(err, compression.ErrTooMuchData) {
			return nil, FormatError(fmt.Sprintf("too much image data, expected %d bytes", expected))
		}
		return nil, FormatError("corrupt IDAT stream: " + err.Error())
	}
	if len(data) != expected {
		return nil, FormatError(fmt.Sprintf("expected %d bytes of image data, got %d", expected, len(data)))
	}

	img, err := imageBuffer.New(width, height)
	if err != nil {
		return nil, err
	}
	if err := pd.readPasses(data, img); err != nil {
		return nil, err
	}
	return img, nil
}

func (pd *PngDecoder) parseChunk(c *chunk.Chunk) error {
	switch c.Type {
	case chunk.TypeIHDR:
		return chunkOrderError("duplicate IHDR")
	case chunk.TypePLTE:
		return pd.parsePLTE(c)
	case chunk.TypeIDAT:
		if pd.format.Indexed() && pd.palette == nil {
			return FormatError("missing PLTE chunk")
		}
		pd.stage = dsSeenIDAT
		pd.inflater.Write(c.Data)
		return nil
	case chunk.TypeIEND:
		if pd.stage != dsSeenIDAT {
			return FormatError("missing IDAT chunk")
		}
		pd.stage = dsSeenIEND
		return nil
	}
	pd.logger.Warn().Str("chunk", fmt.Sprintf("%q", c.Type)).Bool("critical", c.Critical()).Msg("ignoring chunk")
	return nil
}

func (pd *PngDecoder) parsePLTE(c *chunk.Chunk) error {
	if !pd.format.Indexed() {
		pd.logger.Warn().
			Uint8("colorType", uint8(pd.ihdr.ColorType)).
			Msg("ignoring PLTE chunk, color type does not require a palette")
		return nil
	}
	if pd.stage == dsSeenIDAT {
		return chunkOrderError("PLTE after IDAT")
	}
	if pd.palette != nil {
		return chunkOrderError("duplicate PLTE")
	}
	n := len(c.Data) / 3
	if len(c.Data) == 0 || len(c.Data)%3 != 0 || n > maxPaletteEntries {
		return FormatError(fmt.Sprintf("bad PLTE length %d", len(c.Data)))
	}
	pd.palette = make([]uint32, n)
	for i := range pd.palette {
		rgb := c.Data[i*3 : i*3+3]
		pd.palette[i] = imageBuffer.Pack(rgb[0], rgb[1], rgb[2], imageBuffer.Opaque)
	}
	return nil
}

func (pd *PngDecoder) expectEOF() error {
	var extra [1]byte
	n, err := io.ReadFull(pd.r, extra[:])
	if n > 0 {
		return FormatError("expected EOF after IEND")
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return oops.New(err, "failed to read past IEND")
	}
	return nil
}

// readPasses reconstructs every scanline of data in place and scatters the
// decoded pixels into img. The filter pass is strictly sequential: each row
// reads the one before it in the same pass.
func (pd *PngDecoder) readPasses(data []byte, img *imageBuffer.ImageBuffer) error {
	var histogram [nFilter]int
	decode := pd.format.decoder()
	bitsPerPixel := pd.format.BitsPerPixel()
	delta := pd.format.LeftDelta()
	indexed := pd.format.Indexed()

	cursor := 0
	for _, p := range pd.passes {
		if p.empty() {
			continue
		}
		var previousLine []byte
		for y := 0; y < p.height; y++ {
			filter := FilterType(data[cursor])
			scanline := data[cursor+1 : cursor+1+p.lineBytes]
			if err := reconstruct(filter, previousLine, scanline, delta); err != nil {
				return err
			}
			histogram[filter]++

			row := img.Data[(y*p.yFactor+p.yOffset)*img.Width:]
			bit := 0
			for x := 0; x < p.width; x++ {
				value := decode(scanline, bit)
				if indexed {
					if int(value) >= len(pd.palette) {
						return FormatError(fmt.Sprintf("palette index %d out of range, palette has %d entries", value, len(pd.palette)))
					}
					value = pd.palette[value]
				}
				row[x*p.xFactor+p.xOffset] = value
				bit += bitsPerPixel
			}

			previousLine = scanline
			cursor += 1 + p.lineBytes
		}
	}

	pd.logger.Debug().
		Int(FilterNone.String(), histogram[FilterNone]).
		Int(FilterSub.String(), histogram[FilterSub]).
		Int(FilterUp.String(), histogram[FilterUp]).
		Int(FilterAverage.String(), histogram[FilterAverage]).
		Int(FilterPaeth.String(), histogram[FilterPaeth]).
		Msg("filter types used")
	return nil
}
