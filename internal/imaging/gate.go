package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/transform"
)

var ErrNoImage = errors.New("no image")

type GateParams struct {
	Size          int
	GreenRatio    float64
	MinGreen      uint8
	MinProportion float64
}

func DefaultGateParams() GateParams {
	return GateParams{
		Size:          224,
		GreenRatio:    1.2,
		MinGreen:      40,
		MinProportion: 0.05,
	}
}

// GateVerdict is the outcome of the leaf plausibility check. When Err is
// set the check could not be computed and Leaf is always true.
type GateVerdict struct {
	Leaf            bool
	GreenProportion float64
	Err             error
}

// Gate is a cheap pre-filter rejecting images with too few green-dominant
// pixels to plausibly be a leaf photo.
type Gate struct {
	params GateParams
}

func NewGate(params GateParams) *Gate {
	return &Gate{params: params}
}

func (g *Gate) Params() GateParams {
	return g.params
}

// Check never rejects on failure: any error computing the proportion
// yields a passing verdict with Err set.
func (g *Gate) Check(img image.Image) (verdict GateVerdict) {
	defer func() {
		if r := recover(); r != nil {
			verdict = GateVerdict{Leaf: true, Err: fmt.Errorf("gate panic: %v", r)}
		}
	}()

	proportion, err := g.greenProportion(img)
	if err != nil {
		return GateVerdict{Leaf: true, Err: err}
	}

	return GateVerdict{
		Leaf:            proportion >= g.params.MinProportion,
		GreenProportion: proportion,
	}
}

func (g *Gate) greenProportion(img image.Image) (float64, error) {
	if img == nil {
		return 0, ErrNoImage
	}
	if g.params.Size <= 0 {
		return 0, fmt.Errorf("invalid gate size %d", g.params.Size)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return 0, ErrEmptyImage
	}

	resized := transform.Resize(img, g.params.Size, g.params.Size, transform.Linear)
	rb := resized.Bounds()
	total := rb.Dx() * rb.Dy()
	if total == 0 {
		return 0, ErrEmptyImage
	}

	green := 0
	for y := rb.Min.Y; y < rb.Max.Y; y++ {
		for x := rb.Min.X; x < rb.Max.X; x++ {
			c := color.NRGBAModel.Convert(resized.RGBAAt(x, y)).(color.NRGBA)
			if g.isGreen(c.R, c.G, c.B) {
				green++
			}
		}
	}

	return float64(green) / float64(total), nil
}

func (g *Gate) isGreen(r, gr, b uint8) bool {
	gf := float64(gr)
	return gf > g.params.GreenRatio*float64(r) &&
		gf > g.params.GreenRatio*float64(b) &&
		gr > g.params.MinGreen
}
