package pngDecoder

import "simplepng/chunk"

func isPNG(data []byte) bool {
	n := len(chunk.Signature)
	if len(data) < n {
		return false
	}
	return string(data[:n]) == chunk.Signature
}

func paethPredictor(a, b, c int) int {
	p := a + b - c
	pa := abs(p - a)
	pb := abs(p - b)
	pc := abs(p - c)

	if pa <= pb && pa <= pc {
		return a
	} else if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
