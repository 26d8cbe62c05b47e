package pipeline

import "math"

const (
	LabelUnknownImage = "Unknown Image"
	LabelUnknown      = "Unknown"

	MessageNotLeaf       = "Uploaded image does not appear to be a rice leaf. Please upload a clear leaf image."
	MessageLowConfidence = "Prediction confidence below threshold; result is inconclusive."
)

// Result is the body returned for every successfully processed upload,
// including gate rejections and inconclusive predictions.
type Result struct {
	Label      string   `json:"label"`
	Confidence float64  `json:"confidence"`
	Treatment  string   `json:"treatment"`
	Schemes    []string `json:"govt_schemes"`
	Message    string   `json:"message,omitempty"`
}

// Stage records where a request left the pipeline.
type Stage string

const (
	StageGateRejected  Stage = "gate_rejected"
	StageLowConfidence Stage = "low_confidence"
	StageConfident     Stage = "confident"
)

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
