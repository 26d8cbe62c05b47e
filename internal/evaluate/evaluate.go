// Package evaluate scores the classifier against a directory of images
// sorted into one sub-directory per class.
package evaluate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Brownie44l1/riceleaf-api/internal/imaging"
	"github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"
	"go.uber.org/zap"
)

const DefaultMaxMisclassified = 20

var ErrNoImages = errors.New("no images found")

type Sample struct {
	Path  string
	Class string
}

// Classifier is the raw decision with no gate and no threshold applied.
type Classifier interface {
	Classify(ctx context.Context, grid *imaging.PixelGrid) (string, float64, error)
}

type Options struct {
	// ImageSize defaults to the classifier's own size when it reports one.
	ImageSize        int
	MaxMisclassified int
	// Progress receives a progress bar when non-nil.
	Progress io.Writer
	Logger   *zap.Logger
}

func IsImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// Collect walks root and labels every image by the first directory below
// root. Images directly inside root have no class and are skipped.
func Collect(root string) ([]Sample, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	var samples []Sample
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsImageFile(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) < 2 {
			return nil
		}

		samples = append(samples, Sample{Path: path, Class: parts[0]})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w under %s", ErrNoImages, root)
	}

	return samples, nil
}

func Run(ctx context.Context, classifier Classifier, samples []Sample, opts Options) (*Report, error) {
	if len(samples) == 0 {
		return nil, ErrNoImages
	}
	if opts.ImageSize <= 0 {
		opts.ImageSize = 224
		if sized, ok := classifier.(interface{ ImageSize() int }); ok && sized.ImageSize() > 0 {
			opts.ImageSize = sized.ImageSize()
		}
	}
	if opts.MaxMisclassified <= 0 {
		opts.MaxMisclassified = DefaultMaxMisclassified
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	report := newReport(opts.MaxMisclassified)

	var (
		progress *mpb.Progress
		bar      *mpb.Bar
	)
	if opts.Progress != nil {
		progress = mpb.New(
			mpb.WithOutput(opts.Progress),
			mpb.WithWidth(60),
			mpb.WithRefreshRate(180*time.Millisecond),
		)
		bar = progress.AddBar(int64(len(samples)),
			mpb.PrependDecorators(
				decor.Name("evaluating", decor.WC{W: 12, C: decor.DidentRight}),
				decor.CountersNoUnit("%d / %d"),
			),
			mpb.AppendDecorators(
				decor.Percentage(),
			),
		)
	}
	finish := func(ok bool) {
		if progress == nil {
			return
		}
		if !ok {
			bar.Abort(false)
		}
		progress.Wait()
	}

	for _, sample := range samples {
		if err := ctx.Err(); err != nil {
			finish(false)
			return nil, err
		}

		label, confidence, err := classifyFile(ctx, classifier, sample.Path, opts.ImageSize)
		if bar != nil {
			bar.Increment()
		}
		if err != nil {
			var decodeErr *imaging.DecodeError
			if errors.As(err, &decodeErr) || errors.Is(err, fs.ErrNotExist) {
				opts.Logger.Warn("skipping unreadable image", zap.String("path", sample.Path), zap.Error(err))
				report.Skipped = append(report.Skipped, sample.Path)
				continue
			}
			finish(false)
			return nil, fmt.Errorf("failed to classify %s: %w", sample.Path, err)
		}

		report.add(sample, label, confidence)
	}

	finish(true)
	return report, nil
}

func classifyFile(ctx context.Context, classifier Classifier, path string, size int) (string, float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", 0, err
	}

	decoded, err := imaging.Decode(data, size)
	if err != nil {
		return "", 0, err
	}

	return classifier.Classify(ctx, decoded.Grid)
}
