package model

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultClasses is the label order the bundled rice leaf model was trained
// with. The model emits one probability per position in this order.
var DefaultClasses = []string{
	"Brown Spot",
	"Healthy Rice Leaf",
	"Leaf Blast",
	"Sheath Blight",
}

type Metadata struct {
	InputShape    []int64  `json:"input_shape"`
	OutputShape   []int64  `json:"output_shape"`
	Classes       []string `json:"classes"`
	ImageSize     int      `json:"image_size"`
	InputName     string   `json:"input_name,omitempty"`
	OutputName    string   `json:"output_name,omitempty"`
	Normalization string   `json:"normalization,omitempty"`
	Layout        string   `json:"layout,omitempty"`
}

// LoadMetadata reads the JSON sidecar exported next to the ONNX model and
// fills in defaults for anything the export left out.
func LoadMetadata(path string) (Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}

	var metadata Metadata
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}

	metadata.applyDefaults()
	if err := metadata.validate(); err != nil {
		return Metadata{}, err
	}

	return metadata, nil
}

func (m *Metadata) applyDefaults() {
	if len(m.Classes) == 0 {
		m.Classes = append([]string(nil), DefaultClasses...)
	}
	if m.ImageSize == 0 {
		m.ImageSize = 224
	}
	if m.Layout == "" {
		m.Layout = LayoutNHWC
	}
	if len(m.InputShape) == 0 {
		if m.Layout == LayoutNCHW {
			m.InputShape = []int64{1, 3, int64(m.ImageSize), int64(m.ImageSize)}
		} else {
			m.InputShape = []int64{1, int64(m.ImageSize), int64(m.ImageSize), 3}
		}
	}
	if len(m.OutputShape) == 0 {
		m.OutputShape = []int64{1, int64(len(m.Classes))}
	}
	if m.InputName == "" {
		m.InputName = "input"
	}
	if m.OutputName == "" {
		m.OutputName = "output"
	}
}

func (m *Metadata) validate() error {
	if got, want := elements(m.InputShape), int64(3*m.ImageSize*m.ImageSize); got != want {
		return fmt.Errorf("input shape %v holds %d values, want %d for a %dx%d RGB image",
			m.InputShape, got, want, m.ImageSize, m.ImageSize)
	}
	if got := elements(m.OutputShape); got != int64(len(m.Classes)) {
		return fmt.Errorf("output shape %v holds %d values but %d classes are configured",
			m.OutputShape, got, len(m.Classes))
	}
	switch m.Layout {
	case LayoutNHWC, LayoutNCHW:
	default:
		return fmt.Errorf("unknown tensor layout %q", m.Layout)
	}
	return nil
}

func elements(shape []int64) int64 {
	if len(shape) == 0 {
		return 0
	}
	n := int64(1)
	for _, dim := range shape {
		n *= dim
	}
	return n
}
