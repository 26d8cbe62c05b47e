package imaging

import (
	"image"
	"image/color"
)

// PixelGrid is an 8-bit RGB raster stored row-major, three bytes per pixel.
type PixelGrid struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewPixelGrid copies img into an RGB grid, dropping alpha.
func NewPixelGrid(img image.Image) *PixelGrid {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	grid := &PixelGrid{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*3),
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			i := (y*width + x) * 3
			grid.Pix[i] = c.R
			grid.Pix[i+1] = c.G
			grid.Pix[i+2] = c.B
		}
	}

	return grid
}

func (g *PixelGrid) RGB(x, y int) (r, gr, b uint8) {
	i := (y*g.Width + x) * 3
	return g.Pix[i], g.Pix[i+1], g.Pix[i+2]
}

func (g *PixelGrid) Len() int {
	return g.Width * g.Height
}
