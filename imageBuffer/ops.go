package imageBuffer

import "fmt"

// Copy returns a new buffer holding the width x height region at (sx, sy).
// A zero width or height means "to the edge of the image".
func (img *ImageBuffer) Copy(sx, sy, width, height int) *ImageBuffer {
	if width == 0 {
		width = img.Width - sx
	}
	if height == 0 {
		height = img.Height - sy
	}
	if sx < 0 || sy < 0 || sx+width > img.Width || sy+height > img.Height {
		panic(fmt.Sprintf("imageBuffer: region %dx%d at (%d, %d) out of bounds for %dx%d image", width, height, sx, sy, img.Width, img.Height))
	}
	other, err := New(width, height)
	if err != nil {
		panic(err)
	}
	for y := 0; y < height; y++ {
		row := img.Data[(sy+y)*img.Width+sx:]
		copy(other.Data[y*width:(y+1)*width], row[:width])
	}
	return other
}

// FlipH mirrors the buffer across its vertical axis.
func (img *ImageBuffer) FlipH() {
	for y := 0; y < img.Height; y++ {
		row := img.Data[y*img.Width : (y+1)*img.Width]
		for x := 0; x < img.Width/2; x++ {
			x2 := img.Width - 1 - x
			row[x], row[x2] = row[x2], row[x]
		}
	}
}

// Rotate turns the buffer by quarterTurns * 90 degrees; positive is
// clockwise. Non-square buffers swap their width and height.
func (img *ImageBuffer) Rotate(quarterTurns int) {
	turns := ((quarterTurns % 4) + 4) % 4
	switch turns {
	case 0:
		return
	case 2:
		for i, j := 0, len(img.Data)-1; i < j; i, j = i+1, j-1 {
			img.Data[i], img.Data[j] = img.Data[j], img.Data[i]
		}
		return
	}
	if img.Width == img.Height {
		img.rotateSquare(turns == 1)
		return
	}

	w, h := img.Width, img.Height
	rotated := make([]uint32, len(img.Data))
	// The rotated image is h wide and w tall.
	for y := 0; y < w; y++ {
		for x := 0; x < h; x++ {
			var src int
			if turns == 1 {
				src = (h-1-x)*w + y
			} else {
				src = x*w + (w - 1 - y)
			}
			rotated[y*h+x] = img.Data[src]
		}
	}
	img.Width, img.Height = h, w
	img.Data = rotated
}

// rotateSquare cycles each group of four pixels in place.
func (img *ImageBuffer) rotateSquare(clockwise bool) {
	n := img.Width
	for y := 0; y < n/2; y++ {
		y2 := n - 1 - y
		for x := 0; x < (n+1)/2; x++ {
			x2 := n - 1 - x
			tmp := img.Get(x, y)
			if clockwise {
				img.Set(x, y, img.Get(y, x2))
				img.Set(y, x2, img.Get(x2, y2))
				img.Set(x2, y2, img.Get(y2, x))
				img.Set(y2, x, tmp)
			} else {
				img.Set(x, y, img.Get(y2, x))
				img.Set(y2, x, img.Get(x2, y2))
				img.Set(x2, y2, img.Get(y, x2))
				img.Set(y, x2, tmp)
			}
		}
	}
}

type PasteOptions struct {
	SrcX, SrcY int
	DstX, DstY int
	// Width and Height default to the largest region both buffers cover.
	Width, Height int
	FlipH         bool
	Rotate        int
}

// Paste composites a region of src onto img. Fully transparent source pixels
// are skipped, opaque ones overwrite, the rest are blended with AlphaBlend.
// Flipping and rotation apply to the copied region before compositing.
func (img *ImageBuffer) Paste(src *ImageBuffer, opts PasteOptions) {
	sx, sy := opts.SrcX, opts.SrcY
	width, height := opts.Width, opts.Height
	if width == 0 {
		width = min(img.Width-opts.DstX, src.Width-sx)
	}
	if height == 0 {
		height = min(img.Height-opts.DstY, src.Height-sy)
	}
	if width <= 0 || height <= 0 {
		return
	}
	if opts.FlipH || opts.Rotate%4 != 0 {
		src = src.Copy(sx, sy, width, height)
		sx, sy = 0, 0
		if opts.FlipH {
			src.FlipH()
		}
		if opts.Rotate%4 != 0 {
			// A quarter turn swaps the region's sides, which may no longer fit.
			src.Rotate(opts.Rotate)
			width = min(src.Width, img.Width-opts.DstX)
			height = min(src.Height, img.Height-opts.DstY)
		}
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			value := src.Get(sx+x, sy+y)
			alpha := value & 0xff
			if alpha == 0 {
				continue
			}
			if alpha < Opaque {
				value = AlphaBlend(value, img.Get(opts.DstX+x, opts.DstY+y))
			}
			img.Set(opts.DstX+x, opts.DstY+y, value)
		}
	}
}

// AlphaBlend composites foreground over background with the "over" operator.
// Every division truncates, in this exact order; decoded round trips rely on
// reproducing the same values.
func AlphaBlend(foreground, background uint32) uint32 {
	backA := background & 0xff
	if backA == 0 {
		return foreground
	}
	foreA := foreground & 0xff
	outA := foreA + backA*(0xff-foreA)/0xff

	channel := func(shift uint) uint32 {
		fore := (foreground >> shift) & 0xff
		back := (background >> shift) & 0xff
		return (fore*foreA/0xff + back*backA*(0xff-foreA)/0xff/0xff) * 0xff / outA
	}
	return channel(24)<<24 | channel(16)<<16 | channel(8)<<8 | outA
}
