package evaluate

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

type Misclassified struct {
	Path       string
	Actual     string
	Predicted  string
	Confidence float64
}

// String renders the entry as a quoted tuple, the form the gallery
// command parses back out of a saved summary.
func (m Misclassified) String() string {
	return fmt.Sprintf("('%s', '%s', '%s', %s)",
		m.Path, m.Actual, m.Predicted, strconv.FormatFloat(m.Confidence, 'f', 4, 64))
}

type Report struct {
	Total         int
	Correct       int
	Skipped       []string
	Misclassified []Misclassified

	// Confusion[actual][predicted] counts, with rows and columns kept in
	// the order they were first seen.
	Confusion        map[string]map[string]int
	actualOrder      []string
	predictOrder     map[string][]string
	maxMisclassified int
}

func newReport(maxMisclassified int) *Report {
	return &Report{
		Confusion:        map[string]map[string]int{},
		predictOrder:     map[string][]string{},
		maxMisclassified: maxMisclassified,
	}
}

func (r *Report) add(sample Sample, predicted string, confidence float64) {
	r.Total++

	row, ok := r.Confusion[sample.Class]
	if !ok {
		row = map[string]int{}
		r.Confusion[sample.Class] = row
		r.actualOrder = append(r.actualOrder, sample.Class)
	}
	if _, ok := row[predicted]; !ok {
		r.predictOrder[sample.Class] = append(r.predictOrder[sample.Class], predicted)
	}
	row[predicted]++

	if predicted == sample.Class {
		r.Correct++
		return
	}
	if len(r.Misclassified) < r.maxMisclassified {
		r.Misclassified = append(r.Misclassified, Misclassified{
			Path:       sample.Path,
			Actual:     sample.Class,
			Predicted:  predicted,
			Confidence: confidence,
		})
	}
}

func (r *Report) Accuracy() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Correct) / float64(r.Total)
}

func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder

	b.WriteString("\nValidation results:\n")
	fmt.Fprintf(&b, "  Total images: %d\n", r.Total)
	fmt.Fprintf(&b, "  Correct: %d\n", r.Correct)
	fmt.Fprintf(&b, "  Accuracy: %.2f%%\n", r.Accuracy()*100)
	if len(r.Skipped) > 0 {
		fmt.Fprintf(&b, "  Skipped (unreadable): %d\n", len(r.Skipped))
	}

	b.WriteString("\nConfusion (actual -> predicted counts):\n")
	for _, actual := range r.actualOrder {
		fmt.Fprintf(&b, "   %s\n", actual)
		for _, predicted := range r.predictOrder[actual] {
			fmt.Fprintf(&b, "     -> %-20s: %d\n", predicted, r.Confusion[actual][predicted])
		}
	}

	if len(r.Misclassified) > 0 {
		b.WriteString("\nSample misclassified images:\n")
		for _, m := range r.Misclassified {
			fmt.Fprintf(&b, "  %s\n", m)
		}
	}

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}
