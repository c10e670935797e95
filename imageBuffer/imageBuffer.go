// Package imageBuffer holds decoded pixels as a flat, row-major slice of
// packed 0xRRGGBBAA values.
package imageBuffer

import (
	"fmt"
	"image"
	"image/color"

	"simplepng/oops"
)

// Opaque is the alpha value of a fully opaque pixel.
const Opaque = 0xff

type ImageBuffer struct {
	Width  int
	Height int
	// Data is formatted 0xRRGGBBAA in row-major order.
	Data []uint32
}

// New allocates an all-zero (transparent black) buffer.
func New(width, height int) (*ImageBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, oops.New(nil, "image must have > 0 pixels, got %dx%d", width, height)
	}
	return &ImageBuffer{
		Width:  width,
		Height: height,
		Data:   make([]uint32, width*height),
	}, nil
}

func (img *ImageBuffer) Set(x, y int, value uint32) {
	img.Data[img.offset(x, y)] = value
}

func (img *ImageBuffer) Get(x, y int) uint32 {
	return img.Data[img.offset(x, y)]
}

func (img *ImageBuffer) offset(x, y int) int {
	if x < 0 || x >= img.Width || y < 0 || y >= img.Height {
		panic(fmt.Sprintf("imageBuffer: (%d, %d) out of bounds for %dx%d image", x, y, img.Width, img.Height))
	}
	return y*img.Width + x
}

func (img *ImageBuffer) ColorModel() color.Model {
	return color.NRGBAModel
}

func (img *ImageBuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, img.Width, img.Height)
}

func (img *ImageBuffer) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(img.Bounds())) {
		return color.NRGBA{}
	}
	return ToNRGBA(img.Get(x, y))
}

func Pack(r, g, b, a uint8) uint32 {
	return uint32(r)<<24 | uint32(g)<<16 | uint32(b)<<8 | uint32(a)
}

func ToNRGBA(value uint32) color.NRGBA {
	return color.NRGBA{
		R: uint8(value >> 24),
		G: uint8(value >> 16),
		B: uint8(value >> 8),
		A: uint8(value),
	}
}

// FromImage converts any image.Image into a buffer, going through
// non-premultiplied 8-bit color.
func FromImage(m image.Image) (*ImageBuffer, error) {
	bounds := m.Bounds()
	img, err := New(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			c := color.NRGBAModel.Convert(m.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			img.Set(x, y, Pack(c.R, c.G, c.B, c.A))
		}
	}
	return img, nil
}

// Equal reports whether both buffers have the same size and pixels.
func (img *ImageBuffer) Equal(other *ImageBuffer) bool {
	if img.Width != other.Width || img.Height != other.Height {
		return false
	}
	for i, v := range img.Data {
		if other.Data[i] != v {
			return false
		}
	}
	return true
}
