// Package gallery renders misclassified evaluation samples as a single
// self-contained HTML page.
package gallery

import (
	"bytes"
	"encoding/base64"
	"html/template"
	"image"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/Brownie44l1/riceleaf-api/internal/evaluate"
	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
)

const (
	DefaultMaxItems = 20
	ThumbWidth      = 420
	ThumbHeight     = 320
	ThumbQuality    = 75
)

var tuplePattern = regexp.MustCompile(
	`\('(?P<path>[^']+)'\s*,\s*'(?P<actual>[^']+)'\s*,\s*'(?P<pred>[^']+)'\s*,\s*(?P<conf>[0-9.eE+-]+)\)`)

// ParseMisclassified pulls up to limit misclassified tuples out of an
// evaluation summary.
func ParseMisclassified(text string, limit int) []evaluate.Misclassified {
	if limit <= 0 {
		limit = DefaultMaxItems
	}

	var items []evaluate.Misclassified
	for _, m := range tuplePattern.FindAllStringSubmatch(text, -1) {
		conf, err := strconv.ParseFloat(m[4], 64)
		if err != nil {
			continue
		}
		items = append(items, evaluate.Misclassified{
			Path:       m[1],
			Actual:     m[2],
			Predicted:  m[3],
			Confidence: conf,
		})
		if len(items) >= limit {
			break
		}
	}
	return items
}

// Thumbnail shrinks img to fit within w×h keeping its aspect ratio. Images
// that already fit are returned unchanged.
func Thumbnail(img image.Image, w, h int) image.Image {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW <= w && srcH <= h {
		return img
	}

	scale := min(float64(w)/float64(srcW), float64(h)/float64(srcH))
	dstW := max(1, int(float64(srcW)*scale))
	dstH := max(1, int(float64(srcH)*scale))
	return transform.Resize(img, dstW, dstH, transform.Linear)
}

// ThumbnailDataURI returns a JPEG data URI for the image at path.
func ThumbnailDataURI(path string) (string, error) {
	img, err := imgio.Open(path)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := imgio.JPEGEncoder(ThumbQuality)(&buf, Thumbnail(img, ThumbWidth, ThumbHeight)); err != nil {
		return "", err
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

type card struct {
	evaluate.Misclassified
	Name   string
	Href   template.URL
	Source template.URL
}

func Render(w io.Writer, source string, items []evaluate.Misclassified) error {
	cards := make([]card, 0, len(items))
	for _, item := range items {
		c := card{Misclassified: item, Name: filepath.Base(item.Path)}
		if _, err := os.Stat(item.Path); err == nil {
			if uri, err := ThumbnailDataURI(item.Path); err == nil {
				c.Source = template.URL(uri)
				c.Href = template.URL("file://" + filepath.ToSlash(absPath(item.Path)))
			}
		}
		cards = append(cards, c)
	}

	return page.Execute(w, struct {
		Source string
		Cards  []card
	}{source, cards})
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

var page = template.Must(template.New("gallery").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>Misclassified Samples</title>
<style>body{font-family:sans-serif} .card{display:inline-block;margin:8px;border:1px solid #ddd;padding:6px;width:440px;vertical-align:top} img{max-width:100%;height:auto;border-bottom:1px solid #eee} .meta{padding:6px;font-size:14px} .missing{width:420px;height:320px;display:flex;align-items:center;justify-content:center;background:#f8f8f8;color:#666}</style>
</head><body>
<h2>Misclassified Samples (from {{.Source}})</h2>
<p>If images don't show, verify the paths exist on this machine.</p>
<div id="gallery">
{{- range .Cards}}
<div class="card">
{{- if .Source}}
<a href="{{.Href}}" target="_blank"><img src="{{.Source}}" alt="{{.Name}}"></a>
{{- else}}
<div class="missing">(image not found)</div>
{{- end}}
<div class="meta">
<strong>File:</strong> {{.Name}}<br>
<strong>Full path:</strong> {{.Path}}<br>
<strong>Actual:</strong> {{.Actual}} &nbsp;&nbsp; <strong>Pred:</strong> {{.Predicted}} &nbsp;&nbsp; <strong>Conf:</strong> {{printf "%.3f" .Confidence}}
</div></div>
{{- end}}
</div></body></html>
`))
