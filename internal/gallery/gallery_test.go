package gallery

import (
	"bytes"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Brownie44l1/riceleaf-api/internal/evaluate"
	"github.com/Brownie44l1/riceleaf-api/internal/imaging/imagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const summary = `
Validation results:
  Total images: 3
  Correct: 1
  Accuracy: 33.33%

Sample misclassified images:
  ('C:\data\val\Leaf Blast\IMG_1.jpg', 'Leaf Blast', 'Brown Spot', 0.5982)
  ('/data/val/Sheath Blight/2.png', 'Sheath Blight', 'Healthy Rice Leaf', 9.1e-01)
`

func TestParseMisclassified(t *testing.T) {
	items := ParseMisclassified(summary, 0)

	assert.Equal(t, []evaluate.Misclassified{
		{Path: `C:\data\val\Leaf Blast\IMG_1.jpg`, Actual: "Leaf Blast", Predicted: "Brown Spot", Confidence: 0.5982},
		{Path: "/data/val/Sheath Blight/2.png", Actual: "Sheath Blight", Predicted: "Healthy Rice Leaf", Confidence: 0.91},
	}, items)

	assert.Len(t, ParseMisclassified(summary, 1), 1)
	assert.Empty(t, ParseMisclassified("nothing here", 20))
}

func TestParseRoundTrip(t *testing.T) {
	want := evaluate.Misclassified{Path: "/v/Brown Spot/x.jpg", Actual: "Brown Spot", Predicted: "Leaf Blast", Confidence: 0.7311}

	items := ParseMisclassified("  "+want.String()+"\n", 20)
	require.Len(t, items, 1)
	assert.Equal(t, want, items[0])
}

func TestParseCapsAtMax(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 30; i++ {
		b.WriteString(evaluate.Misclassified{Path: "/p.jpg", Actual: "a", Predicted: "b", Confidence: 0.5}.String())
		b.WriteString("\n")
	}
	assert.Len(t, ParseMisclassified(b.String(), 0), DefaultMaxItems)
}

func TestThumbnail(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{"wide", 840, 320, 420, 160},
		{"tall", 100, 640, 50, 320},
		{"already small", 200, 100, 200, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thumb := Thumbnail(image.NewRGBA(image.Rect(0, 0, tt.w, tt.h)), ThumbWidth, ThumbHeight)
			assert.Equal(t, tt.wantW, thumb.Bounds().Dx())
			assert.Equal(t, tt.wantH, thumb.Bounds().Dy())
		})
	}
}

func TestRender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaf.png")
	require.NoError(t, os.WriteFile(path, imagetest.PNG(t, imagetest.Solid(600, 400, imagetest.LeafGreen)), 0o644))

	items := []evaluate.Misclassified{
		{Path: path, Actual: "Leaf Blast", Predicted: "Brown Spot", Confidence: 0.5982},
		{Path: filepath.Join(t.TempDir(), "gone.jpg"), Actual: "<b>x</b>", Predicted: "Brown Spot", Confidence: 0.7},
	}

	var out bytes.Buffer
	require.NoError(t, Render(&out, "eval_summary.txt", items))

	html := out.String()
	assert.Contains(t, html, "Misclassified Samples (from eval_summary.txt)")
	assert.Contains(t, html, `src="data:image/jpeg;base64,`)
	assert.Contains(t, html, "<strong>Conf:</strong> 0.598")
	assert.Contains(t, html, "(image not found)")
	assert.Contains(t, html, "&lt;b&gt;x&lt;/b&gt;")
	assert.Equal(t, 2, strings.Count(html, `<div class="card">`))
}
