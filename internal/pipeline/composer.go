package pipeline

import "github.com/Brownie44l1/riceleaf-api/internal/model"

// Composer shapes the client-facing Result from a gate verdict or a
// classifier decision.
type Composer struct {
	threshold float64
	advisory  model.Advisory
}

func NewComposer(threshold float64, advisory model.Advisory) *Composer {
	return &Composer{threshold: threshold, advisory: advisory}
}

func (c *Composer) Threshold() float64 {
	return c.threshold
}

func (c *Composer) Rejected() *Result {
	return &Result{
		Label:      LabelUnknownImage,
		Confidence: 0,
		Treatment:  "",
		Schemes:    []string{},
		Message:    MessageNotLeaf,
	}
}

// Compose compares the unrounded confidence against the threshold; only
// the reported value is rounded.
func (c *Composer) Compose(label string, confidence float64) (*Result, Stage) {
	if confidence < c.threshold {
		return &Result{
			Label:      LabelUnknown,
			Confidence: round3(confidence),
			Treatment:  "",
			Schemes:    []string{},
			Message:    MessageLowConfidence,
		}, StageLowConfidence
	}

	info := c.advisory.Lookup(label)
	return &Result{
		Label:      label,
		Confidence: round3(confidence),
		Treatment:  info.Treatment,
		Schemes:    info.Schemes,
	}, StageConfident
}
