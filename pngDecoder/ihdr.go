package pngDecoder

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

type ColorType byte

// Color type, as per the PNG spec. Each is a combination of the mask bits.
const (
	Grayscale      ColorType = 0
	TrueColor      ColorType = colorMask
	Indexed        ColorType = colorMask | indexedMask
	GrayscaleAlpha ColorType = alphaMask
	TrueColorAlpha ColorType = colorMask | alphaMask
)

const (
	indexedMask = 1
	colorMask   = 2
	alphaMask   = 4
)

func (ct ColorType) String() string {
	switch ct {
	case Grayscale:
		return "grayscale"
	case TrueColor:
		return "truecolor"
	case Indexed:
		return "indexed"
	case GrayscaleAlpha:
		return "grayscale+alpha"
	case TrueColorAlpha:
		return "truecolor+alpha"
	}
	return fmt.Sprintf("ColorType(%d)", byte(ct))
}

func (ct ColorType) Indexed() bool {
	return ct&indexedMask != 0
}

// Interlace method.
const (
	InterlaceNone  = 0
	InterlaceAdam7 = 1
)

const ihdrLength = 13

// maxDimension is the largest width or height PNG allows.
const maxDimension = 1<<31 - 1

// maxPixels bounds the buffer a header may make us allocate.
const maxPixels = 1 << 30

type IHDR struct {
	Width             uint32
	Height            uint32
	BitDepth          byte
	ColorType         ColorType
	CompressionMethod byte
	FilterMethod      byte
	InterlaceMethod   byte
}

func ParseIHDR(data []byte) (*IHDR, error) {
	if len(data) != ihdrLength {
		return nil, FormatError(fmt.Sprintf("bad IHDR length %d", len(data)))
	}
	var ihdr IHDR

	reader := bytes.NewReader(data)
	if err := binary.Read(reader, binary.BigEndian, &ihdr); err != nil {
		return nil, FormatError("malformed IHDR: " + err.Error())
	}
	return &ihdr, nil
}

// Bytes serializes the header into an IHDR chunk body.
func (ihdr *IHDR) Bytes() []byte {
	var buf bytes.Buffer
	buf.Grow(ihdrLength)
	binary.Write(&buf, binary.BigEndian, ihdr)
	return buf.Bytes()
}

// Validate checks every field and resolves the pixel format they select.
func (ihdr *IHDR) Validate() (PixelFormat, error) {
	if ihdr.Width == 0 || ihdr.Height == 0 {
		return formatInvalid, FormatError(fmt.Sprintf("image must have > 0 pixels, got %dx%d", ihdr.Width, ihdr.Height))
	}
	if ihdr.Width > maxDimension || ihdr.Height > maxDimension {
		return formatInvalid, FormatError(fmt.Sprintf("dimension overflow: %dx%d", ihdr.Width, ihdr.Height))
	}
	if uint64(ihdr.Width)*uint64(ihdr.Height) > maxPixels {
		return formatInvalid, UnsupportedError(fmt.Sprintf("image too large: %dx%d", ihdr.Width, ihdr.Height))
	}
	if ihdr.CompressionMethod != 0 {
		return formatInvalid, UnsupportedError(fmt.Sprintf("compression method: %d", ihdr.CompressionMethod))
	}
	if ihdr.FilterMethod != 0 {
		return formatInvalid, UnsupportedError(fmt.Sprintf("filter method: %d", ihdr.FilterMethod))
	}
	format, ok := lookupFormat(ihdr.ColorType, ihdr.BitDepth)
	if !ok {
		return formatInvalid, UnsupportedError(fmt.Sprintf("color type %d with bit depth %d", ihdr.ColorType, ihdr.BitDepth))
	}
	if ihdr.InterlaceMethod != InterlaceNone && ihdr.InterlaceMethod != InterlaceAdam7 {
		return formatInvalid, UnsupportedError(fmt.Sprintf("interlace method: %d", ihdr.InterlaceMethod))
	}
	return format, nil
}
