package model

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/Brownie44l1/riceleaf-api/internal/imaging"
)

var (
	ErrEmptyOutput     = errors.New("model returned no probabilities")
	ErrNonFiniteOutput = errors.New("model returned a non-finite probability")
)

// Classifier turns a preprocessed-size pixel grid into one probability per
// class label, in label order.
type Classifier interface {
	Predict(ctx context.Context, grid *imaging.PixelGrid) ([]float32, error)
}

// Argmax returns the index and value of the largest probability. Ties keep
// the first index. NaN or infinite values are an error.
func Argmax(probs []float32) (int, float32, error) {
	if len(probs) == 0 {
		return 0, 0, ErrEmptyOutput
	}

	maxIdx := 0
	maxVal := probs[0]
	for i, val := range probs {
		if f := float64(val); math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, 0, fmt.Errorf("%w at index %d: %v", ErrNonFiniteOutput, i, val)
		}
		if val > maxVal {
			maxVal = val
			maxIdx = i
		}
	}

	return maxIdx, maxVal, nil
}
