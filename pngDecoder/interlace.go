package pngDecoder

import "fmt"

// interlaceScan defines the placement and size of a pass: pass pixel (x, y)
// lands at (x*xFactor+xOffset, y*yFactor+yOffset) in the full image.
type interlaceScan struct {
	xFactor, yFactor, xOffset, yOffset int
}

var noInterlacing = []interlaceScan{
	{1, 1, 0, 0},
}

// adam7 defines Adam7 interlacing, with 7 passes of reduced images.
// See https://www.w3.org/TR/PNG/#8Interlace
var adam7 = []interlaceScan{
	{8, 8, 0, 0},
	{8, 8, 4, 0},
	{4, 8, 0, 4},
	{4, 4, 2, 0},
	{2, 4, 0, 2},
	{2, 2, 1, 0},
	{1, 2, 0, 1},
}

type pass struct {
	interlaceScan
	width, height int
	// lineBytes excludes the filter-type byte.
	lineBytes int
}

func (p pass) empty() bool {
	return p.width == 0 || p.height == 0
}

// scanlineBytes is the inflated size of the pass, filter bytes included.
func (p pass) scanlineBytes() int {
	if p.empty() {
		return 0
	}
	return p.height * (1 + p.lineBytes)
}

func passDimension(full, factor, offset int) int {
	return (full - offset + factor - 1) / factor
}

// planPasses lays out the passes of an image. Their pixels partition the
// image exactly.
func planPasses(width, height int, interlace byte, format PixelFormat) []pass {
	scans := noInterlacing
	if interlace == InterlaceAdam7 {
		scans = adam7
	}
	passes := make([]pass, len(scans))
	total := 0
	for i, s := range scans {
		p := pass{
			interlaceScan: s,
			width:         passDimension(width, s.xFactor, s.xOffset),
			height:        passDimension(height, s.yFactor, s.yOffset),
		}
		p.lineBytes = format.LineBytes(p.width)
		passes[i] = p
		total += p.width * p.height
	}
	if total != width*height {
		panic(fmt.Sprintf("pngDecoder: passes cover %d pixels of a %dx%d image", total, width, height))
	}
	return passes
}

func expectedDataLength(passes []pass) int {
	n := 0
	for _, p := range passes {
		n += p.scanlineBytes()
	}
	return n
}
