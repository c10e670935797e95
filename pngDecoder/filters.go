package pngDecoder

import "fmt"

type FilterType byte

const (
	FilterNone FilterType = iota
	FilterSub
	FilterUp
	FilterAverage
	FilterPaeth
	nFilter
)

func (ft FilterType) String() string {
	switch ft {
	case FilterNone:
		return "none"
	case FilterSub:
		return "sub"
	case FilterUp:
		return "up"
	case FilterAverage:
		return "average"
	case FilterPaeth:
		return "paeth"
	}
	return fmt.Sprintf("FilterType(%d)", byte(ft))
}

// reconstruct undoes filter on scanline in place. previousLine is the
// already reconstructed previous scanline of the same pass, or nil for a
// pass's first row, which then reads as all zeros. bytesPerPixel is the
// distance to the "left" byte.
//
// scanline and previousLine may be adjacent windows of one buffer; bytes are
// only ever read behind the write position.
func reconstruct(filter FilterType, previousLine, scanline []byte, bytesPerPixel int) error {
	switch filter {
	case FilterNone:
	case FilterSub:
		processLeftFilter(scanline, bytesPerPixel)
	case FilterUp:
		processUpFilter(previousLine, scanline)
	case FilterAverage:
		processAvgFilter(previousLine, scanline, bytesPerPixel)
	case FilterPaeth:
		processPaethFilter(previousLine, scanline, bytesPerPixel)
	default:
		return FormatError(fmt.Sprintf("unrecognized filter type: %d", filter))
	}
	return nil
}

func processLeftFilter(scanline []byte, bytesPerPixel int) {
	for i := bytesPerPixel; i < len(scanline); i++ {
		scanline[i] += scanline[i-bytesPerPixel]
	}
}

func processUpFilter(previousLine []byte, scanline []byte) {
	if previousLine == nil {
		return
	}
	for i := range scanline {
		scanline[i] += previousLine[i]
	}
}

func processAvgFilter(previousLine []byte, scanline []byte, bytesPerPixel int) {
	for i := range scanline {
		var left, above int
		if i >= bytesPerPixel {
			left = int(scanline[i-bytesPerPixel])
		}
		if previousLine != nil {
			above = int(previousLine[i])
		}
		scanline[i] += byte((left + above) / 2)
	}
}

func processPaethFilter(previousLine []byte, scanline []byte, bytesPerPixel int) {
	for i := range scanline {
		var left, above, upperLeft int
		if i >= bytesPerPixel {
			left = int(scanline[i-bytesPerPixel])
		}
		if previousLine != nil {
			above = int(previousLine[i])
			if i >= bytesPerPixel {
				upperLeft = int(previousLine[i-bytesPerPixel])
			}
		}
		scanline[i] += byte(paethPredictor(left, above, upperLeft))
	}
}
