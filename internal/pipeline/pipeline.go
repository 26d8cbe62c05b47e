package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Brownie44l1/riceleaf-api/internal/imaging"
	"github.com/Brownie44l1/riceleaf-api/internal/metrics"
	"github.com/Brownie44l1/riceleaf-api/internal/model"
	"go.uber.org/zap"
)

type Options struct {
	// Classifier may be nil when the model failed to load; every Run then
	// returns ErrModelUnavailable.
	Classifier model.Classifier
	Labels     []string
	ImageSize  int
	// MaxPixels caps the declared size of an upload; zero uses
	// imaging.DefaultMaxPixels.
	MaxPixels  int
	Gate       *imaging.Gate
	Composer   *Composer
	CacheSize  int
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
}

// Outcome is a composed Result plus how it was reached.
type Outcome struct {
	Result *Result
	Stage  Stage
	Digest string
	Cached bool
	// Format is the decoded image format, empty for cached outcomes.
	Format string
}

// Pipeline runs decode, gate, classify and compose for one upload at a
// time. It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	classifier model.Classifier
	labels     []string
	imageSize  int
	maxPixels  int
	gate       *imaging.Gate
	composer   *Composer
	cache      *resultCache
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

func New(opts Options) (*Pipeline, error) {
	if opts.Composer == nil {
		return nil, errors.New("pipeline requires a composer")
	}
	if len(opts.Labels) == 0 {
		opts.Labels = model.DefaultClasses
	}
	if opts.ImageSize <= 0 {
		opts.ImageSize = 224
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = imaging.DefaultMaxPixels
	}
	if opts.Gate == nil {
		opts.Gate = imaging.NewGate(imaging.DefaultGateParams())
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	cache, err := newResultCache(opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}

	return &Pipeline{
		classifier: opts.Classifier,
		labels:     append([]string(nil), opts.Labels...),
		imageSize:  opts.ImageSize,
		maxPixels:  opts.MaxPixels,
		gate:       opts.Gate,
		composer:   opts.Composer,
		cache:      cache,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
	}, nil
}

func (p *Pipeline) Available() bool {
	return p.classifier != nil
}

func (p *Pipeline) Labels() []string {
	return append([]string(nil), p.labels...)
}

// ImageSize is the side of the square grid the classifier expects.
func (p *Pipeline) ImageSize() int {
	return p.imageSize
}

func (p *Pipeline) Threshold() float64 {
	return p.composer.Threshold()
}

func (p *Pipeline) Run(ctx context.Context, upload imaging.Upload) (*Outcome, error) {
	if p.classifier == nil {
		return nil, ErrModelUnavailable
	}

	digest := Digest(upload.Data)
	if result, stage, ok := p.cache.get(digest); ok {
		p.metrics.ObserveCacheHit()
		return &Outcome{Result: result, Stage: stage, Digest: digest, Cached: true}, nil
	}

	decoded, err := imaging.DecodeLimited(upload.Data, p.imageSize, p.maxPixels)
	if err != nil {
		return nil, err
	}
	if upload.ContentType != "" && upload.ContentType != decoded.MIME {
		p.logger.Debug("declared content type differs from sniffed type",
			zap.String("declared", upload.ContentType),
			zap.String("sniffed", decoded.MIME))
	}

	verdict := p.gate.Check(decoded.Image)
	if verdict.Err != nil {
		p.logger.Warn("leaf gate failed open", zap.Error(verdict.Err))
	}
	if !verdict.Leaf {
		p.logger.Debug("upload rejected by leaf gate",
			zap.Float64("green_proportion", verdict.GreenProportion))
		result := p.composer.Rejected()
		p.cache.add(digest, result, StageGateRejected)
		return &Outcome{Result: result, Stage: StageGateRejected, Digest: digest, Format: decoded.Format}, nil
	}

	label, confidence, err := p.classify(ctx, decoded.Grid)
	if err != nil {
		return nil, err
	}

	result, stage := p.composer.Compose(label, confidence)
	p.cache.add(digest, result, stage)

	return &Outcome{Result: result, Stage: stage, Digest: digest, Format: decoded.Format}, nil
}

// Classify runs the model on an already decoded grid with no gate and no
// threshold, returning the raw top label and confidence.
func (p *Pipeline) Classify(ctx context.Context, grid *imaging.PixelGrid) (string, float64, error) {
	if p.classifier == nil {
		return "", 0, ErrModelUnavailable
	}
	return p.classify(ctx, grid)
}

func (p *Pipeline) classify(ctx context.Context, grid *imaging.PixelGrid) (string, float64, error) {
	start := time.Now()
	probs, err := p.classifier.Predict(ctx, grid)
	p.metrics.ObserveInference(time.Since(start))
	if err != nil {
		return "", 0, fmt.Errorf("classifier failed: %w", err)
	}
	if len(probs) != len(p.labels) {
		return "", 0, fmt.Errorf("classifier returned %d probabilities for %d labels", len(probs), len(p.labels))
	}

	idx, confidence, err := model.Argmax(probs)
	if err != nil {
		return "", 0, err
	}

	return p.labels[idx], float64(confidence), nil
}
