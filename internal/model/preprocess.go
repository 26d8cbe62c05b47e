package model

import (
	"fmt"
	"strings"

	"github.com/Brownie44l1/riceleaf-api/internal/imaging"
)

const (
	// NormalizeMobileNetV2 scales pixels to [-1, 1], matching
	// keras.applications.mobilenet_v2.preprocess_input.
	NormalizeMobileNetV2 = "mobilenet_v2"
	NormalizeUnit        = "unit"
	NormalizeRaw         = "raw"

	LayoutNHWC = "nhwc"
	LayoutNCHW = "nchw"
)

func normalizer(name string) (func(uint8) float32, error) {
	switch name {
	case NormalizeMobileNetV2, "":
		return func(v uint8) float32 { return float32(v)/127.5 - 1 }, nil
	case NormalizeUnit:
		return func(v uint8) float32 { return float32(v) / 255 }, nil
	case NormalizeRaw:
		return func(v uint8) float32 { return float32(v) }, nil
	default:
		return nil, fmt.Errorf("unknown normalization %q", name)
	}
}

// CheckRecipe reports an unknown normalization or layout name. Empty names
// are accepted and mean the defaults.
func CheckRecipe(normalization, layout string) error {
	if _, err := normalizer(normalization); err != nil {
		return err
	}

	switch strings.ToLower(layout) {
	case "", LayoutNHWC, LayoutNCHW:
		return nil
	default:
		return fmt.Errorf("unknown tensor layout %q", layout)
	}
}

// Preprocess converts a grid to the float tensor the model was trained on.
// A mismatched recipe degrades accuracy silently, so both the scaling and
// the memory layout are explicit.
func Preprocess(grid *imaging.PixelGrid, normalization, layout string) ([]float32, error) {
	norm, err := normalizer(normalization)
	if err != nil {
		return nil, err
	}

	width, height := grid.Width, grid.Height
	plane := width * height
	if len(grid.Pix) != plane*3 {
		return nil, fmt.Errorf("pixel grid holds %d bytes, want %d", len(grid.Pix), plane*3)
	}

	inputData := make([]float32, 3*plane)

	switch layout {
	case LayoutNHWC, "":
		for i, v := range grid.Pix {
			inputData[i] = norm(v)
		}
	case LayoutNCHW:
		for pixelIndex := 0; pixelIndex < plane; pixelIndex++ {
			inputData[pixelIndex] = norm(grid.Pix[pixelIndex*3])
			inputData[plane+pixelIndex] = norm(grid.Pix[pixelIndex*3+1])
			inputData[2*plane+pixelIndex] = norm(grid.Pix[pixelIndex*3+2])
		}
	default:
		return nil, fmt.Errorf("unknown tensor layout %q", layout)
	}

	return inputData, nil
}
