package app

import (
	"errors"
	"fmt"

	"github.com/Brownie44l1/riceleaf-api/internal/archive"
	"github.com/Brownie44l1/riceleaf-api/internal/config"
	"github.com/Brownie44l1/riceleaf-api/internal/imaging"
	"github.com/Brownie44l1/riceleaf-api/internal/metrics"
	"github.com/Brownie44l1/riceleaf-api/internal/model"
	"github.com/Brownie44l1/riceleaf-api/internal/pipeline"
	"go.uber.org/zap"
)

// App holds everything built once at startup. Nothing in it changes after
// New returns.
type App struct {
	config   *config.Config
	model    *model.Server
	archiver *archive.Archiver

	classifier    model.Classifier
	labels        []string
	skipModelLoad bool
	withArchive   bool

	Advisory model.Advisory
	Pipeline *pipeline.Pipeline
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

type OptionFunc func(app *App) error

func WithLogger(logger *zap.Logger) OptionFunc {
	return func(app *App) error {
		app.Logger = logger
		return nil
	}
}

// WithClassifier skips loading the ONNX model and uses c instead.
func WithClassifier(c model.Classifier, labels []string) OptionFunc {
	return func(app *App) error {
		app.classifier = c
		app.labels = labels
		app.skipModelLoad = true
		return nil
	}
}

// WithArchive starts the upload archiver when archive.enabled is set.
func WithArchive() OptionFunc {
	return func(app *App) error {
		app.withArchive = true
		return nil
	}
}

// New loads the advisory table and model. A missing advisory table or a
// model that fails to load is logged and the service starts degraded:
// predictions then return ErrModelUnavailable.
func New(cfg *config.Config, options ...OptionFunc) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	app := &App{
		config:  cfg,
		Metrics: metrics.New(),
		Logger:  zap.NewNop(),
	}

	for _, option := range options {
		if err := option(app); err != nil {
			return nil, err
		}
	}

	if app.withArchive && cfg.Archive.Enabled {
		storage, err := archive.NewStorage(cfg.Archive)
		if err != nil {
			return nil, fmt.Errorf("failed to create archive storage: %w", err)
		}
		app.archiver = archive.NewArchiver(storage, cfg.Archive.Workers, app.Metrics, app.Logger)
	}

	if !app.skipModelLoad {
		app.labels = model.DefaultClasses

		server, err := app.loadModel()
		if err != nil {
			app.Logger.Error("model failed to load, /predict will return 503", zap.Error(err))
		} else {
			app.model = server
			app.classifier = server
			app.labels = server.Classes()
		}
	}

	if err := app.buildPipeline(); err != nil {
		app.Close()
		return nil, err
	}

	return app, nil
}

func (app *App) loadModel() (*model.Server, error) {
	server, err := model.NewServer(model.Options{
		ModelPath:     app.config.ModelPath,
		MetadataPath:  app.config.MetadataPath,
		LibraryPath:   app.config.OrtLibraryPath,
		Normalization: app.config.Normalization,
		Layout:        app.config.Layout,
	})
	if err != nil {
		return nil, err
	}

	if server.ImageSize() != app.config.ImageSize {
		app.Logger.Warn("model metadata overrides configured image size",
			zap.Int("configured", app.config.ImageSize),
			zap.Int("model", server.ImageSize()))
	}

	app.Logger.Info("model loaded",
		zap.String("path", app.config.ModelPath),
		zap.Strings("classes", server.Classes()))
	return server, nil
}

func (app *App) buildPipeline() error {
	advisory, err := model.LoadAdvisory(app.config.DiseaseInfoPath)
	if err != nil {
		app.Logger.Warn("disease info not loaded, treatments will be empty", zap.Error(err))
		advisory = model.Advisory{}
	}
	app.Advisory = advisory

	// A classifier that knows its input size wins over the configured one.
	imageSize := app.config.ImageSize
	if sized, ok := app.classifier.(interface{ ImageSize() int }); ok && sized.ImageSize() > 0 {
		imageSize = sized.ImageSize()
	}

	p, err := pipeline.New(pipeline.Options{
		Classifier: app.classifier,
		Labels:     app.labels,
		ImageSize:  imageSize,
		MaxPixels:  app.config.MaxImagePixels,
		Gate:       imaging.NewGate(gateParams(app.config.Gate)),
		Composer:   pipeline.NewComposer(app.config.ConfidenceThreshold, advisory),
		CacheSize:  app.config.CacheSize,
		Metrics:    app.Metrics,
		Logger:     app.Logger,
	})
	if err != nil {
		return err
	}

	app.Pipeline = p
	return nil
}

func gateParams(cfg config.GateConfig) imaging.GateParams {
	return imaging.GateParams{
		Size:          cfg.Size,
		GreenRatio:    cfg.GreenRatio,
		MinGreen:      uint8(cfg.MinGreen),
		MinProportion: cfg.MinProportion,
	}
}

func (app *App) Config() *config.Config {
	return app.config
}

func (app *App) Archiver() *archive.Archiver {
	return app.archiver
}

// ModelLoaded reports whether the ONNX session is live.
func (app *App) ModelLoaded() bool {
	return app.Pipeline != nil && app.Pipeline.Available()
}

func (app *App) Close() {
	app.archiver.Stop()
	if app.model != nil {
		app.model.Close()
	}
	if app.Logger != nil {
		_ = app.Logger.Sync()
	}
}
