package pngDecoder

import (
	"simplepng/imageBuffer"
	"simplepng/utils"
)

// A PixelFormat is one of the 15 legal combinations of color type and bit
// depth.
type PixelFormat int

const (
	formatInvalid PixelFormat = iota
	FormatG1
	FormatG2
	FormatG4
	FormatG8
	FormatG16
	FormatTC8
	FormatTC16
	FormatP1
	FormatP2
	FormatP4
	FormatP8
	FormatGA8
	FormatGA16
	FormatTCA8
	FormatTCA16
)

// sampleDecoder reads the pixel starting at bitOffset in a reconstructed
// scanline. It returns a canonical 0xRRGGBBAA value or, for indexed formats,
// the palette index.
type sampleDecoder func(line []byte, bitOffset int) uint32

type formatSpec struct {
	name         string
	colorType    ColorType
	bitDepth     uint8
	bitsPerPixel int
	decode       sampleDecoder
}

var formats = [...]formatSpec{
	formatInvalid: {name: "invalid"},

	FormatG1:  {"G1", Grayscale, 1, 1, decodeGray(1, 0xff)},
	FormatG2:  {"G2", Grayscale, 2, 2, decodeGray(2, 0x55)},
	FormatG4:  {"G4", Grayscale, 4, 4, decodeGray(4, 0x11)},
	FormatG8:  {"G8", Grayscale, 8, 8, decodeGray(8, 0x01)},
	FormatG16: {"G16", Grayscale, 16, 16, decodeGray16},

	FormatTC8:  {"TC8", TrueColor, 8, 24, decodeTrueColor8},
	FormatTC16: {"TC16", TrueColor, 16, 48, decodeTrueColor16},

	FormatP1: {"P1", Indexed, 1, 1, decodeIndex(1)},
	FormatP2: {"P2", Indexed, 2, 2, decodeIndex(2)},
	FormatP4: {"P4", Indexed, 4, 4, decodeIndex(4)},
	FormatP8: {"P8", Indexed, 8, 8, decodeIndex(8)},

	FormatGA8:  {"GA8", GrayscaleAlpha, 8, 16, decodeGrayAlpha8},
	FormatGA16: {"GA16", GrayscaleAlpha, 16, 32, decodeGrayAlpha16},

	FormatTCA8:  {"TCA8", TrueColorAlpha, 8, 32, decodeTrueColorAlpha8},
	FormatTCA16: {"TCA16", TrueColorAlpha, 16, 64, decodeTrueColorAlpha16},
}

func lookupFormat(colorType ColorType, bitDepth uint8) (PixelFormat, bool) {
	for i := range formats {
		f := PixelFormat(i)
		if f != formatInvalid && formats[i].colorType == colorType && formats[i].bitDepth == bitDepth {
			return f, true
		}
	}
	return formatInvalid, false
}

// Formats lists every supported pixel format.
func Formats() []PixelFormat {
	all := make([]PixelFormat, 0, len(formats)-1)
	for i := 1; i < len(formats); i++ {
		all = append(all, PixelFormat(i))
	}
	return all
}

func (f PixelFormat) String() string { return formats[f].name }
func (f PixelFormat) ColorType() ColorType { return formats[f].colorType }
func (f PixelFormat) BitDepth() uint8 { return formats[f].bitDepth }
func (f PixelFormat) BitsPerPixel() int { return formats[f].bitsPerPixel }
func (f PixelFormat) Indexed() bool { return formats[f].colorType.Indexed() }

// LeftDelta is how many bytes back the filter predictors look for the "left"
// neighbor: one whole pixel, or one byte when pixels are packed smaller.
func (f PixelFormat) LeftDelta() int {
	bpp := formats[f].bitsPerPixel
	if bpp < 8 {
		return 1
	}
	return bpp / 8
}

// LineBytes is the content length of a scanline of width pixels, excluding
// the leading filter-type byte.
func (f PixelFormat) LineBytes(width int) int {
	return (width*formats[f].bitsPerPixel + 7) / 8
}

func (f PixelFormat) decoder() sampleDecoder {
	return formats[f].decode
}

func gray(v uint8, a uint8) uint32 {
	return imageBuffer.Pack(v, v, v, a)
}

// decodeGray expands depth-bit samples to 8 bits by multiplying with scale,
// which replicates the sample's bits across the byte.
func decodeGray(depth int, scale uint8) sampleDecoder {
	return func(line []byte, bitOffset int) uint32 {
		return gray(utils.BitsAt(line, bitOffset, depth)*scale, imageBuffer.Opaque)
	}
}

func decodeIndex(depth int) sampleDecoder {
	return func(line []byte, bitOffset int) uint32 {
		return uint32(utils.BitsAt(line, bitOffset, depth))
	}
}

// The 16-bit decoders keep the most significant byte of each sample.

func decodeGray16(line []byte, bitOffset int) uint32 {
	i := bitOffset >> 3
	return gray(line[i], imageBuffer.Opaque)
}

func decodeTrueColor8(line []byte, bitOffset int) uint32 {
	i := bitOffset >> 3
	return imageBuffer.Pack(line[i], line[i+1], line[i+2], imageBuffer.Opaque)
}

func decodeTrueColor16(line []byte, bitOffset int) uint32 {
	i := bitOffset >> 3
	return imageBuffer.Pack(line[i], line[i+2], line[i+4], imageBuffer.Opaque)
}

func decodeGrayAlpha8(line []byte, bitOffset int) uint32 {
	i := bitOffset >> 3
	return gray(line[i], line[i+1])
}

func decodeGrayAlpha16(line []byte, bitOffset int) uint32 {
	i := bitOffset >> 3
	return gray(line[i], line[i+2])
}

func decodeTrueColorAlpha8(line []byte, bitOffset int) uint32 {
	i := bitOffset >> 3
	return imageBuffer.Pack(line[i], line[i+1], line[i+2], line[i+3])
}

func decodeTrueColorAlpha16(line []byte, bitOffset int) uint32 {
	i := bitOffset >> 3
	return imageBuffer.Pack(line[i], line[i+2], line[i+4], line[i+6])
}
