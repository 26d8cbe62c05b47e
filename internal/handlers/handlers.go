package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Brownie44l1/riceleaf-api/internal/archive"
	"github.com/Brownie44l1/riceleaf-api/internal/imaging"
	"github.com/Brownie44l1/riceleaf-api/internal/metrics"
	"github.com/Brownie44l1/riceleaf-api/internal/pipeline"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// RequestIDKey is the gin context key holding the request ID.
	RequestIDKey = "request_id"

	imageField = "image"

	// DefaultMaxUploadBytes bounds a /predict request body.
	DefaultMaxUploadBytes int64 = 10 << 20

	msgMissingImage     = "No image file with key 'image' provided"
	msgUploadTooLarge   = "Uploaded file is too large"
	msgModelUnavailable = "Model not available on server. Check server logs and ensure model file exists."
	msgPredictionFailed = "Prediction failed"
)

var errUploadTooLarge = errors.New("upload exceeds the size limit")

type Handler struct {
	pipeline       *pipeline.Pipeline
	archiver       *archive.Archiver
	metrics        *metrics.Metrics
	logger         *zap.Logger
	maxUploadBytes int64
}

type Option func(h *Handler)

// WithMaxUploadBytes sets the largest accepted /predict body. Zero or less
// keeps DefaultMaxUploadBytes.
func WithMaxUploadBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

func NewHandler(p *pipeline.Pipeline, archiver *archive.Archiver, m *metrics.Metrics, logger *zap.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &Handler{
		pipeline:       p,
		archiver:       archiver,
		metrics:        m,
		logger:         logger,
		maxUploadBytes: DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) Classes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"classes":   h.pipeline.Labels(),
		"threshold": h.pipeline.Threshold(),
		"available": h.pipeline.Available(),
	})
}

func (h *Handler) Predict(c *gin.Context) {
	log := h.logger.With(zap.String("request_id", c.GetString(RequestIDKey)))

	if c.Request.ContentLength > h.maxUploadBytes {
		h.fail(c, log, errUploadTooLarge)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	fileHeader, err := c.FormFile(imageField)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.fail(c, log, errUploadTooLarge)
			return
		}
		h.fail(c, log, fmt.Errorf("%w: %v", pipeline.ErrMissingInput, err))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.fail(c, log, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.fail(c, log, err)
		return
	}

	log.Debug("received upload",
		zap.String("filename", fileHeader.Filename),
		zap.Int64("size", fileHeader.Size))

	outcome, err := h.pipeline.Run(c.Request.Context(), imaging.Upload{
		Data:        data,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Filename:    fileHeader.Filename,
	})
	if err != nil {
		h.fail(c, log, err)
		return
	}

	h.metrics.ObservePrediction(string(outcome.Stage), outcome.Result.Label)
	log.Info("prediction",
		zap.String("stage", string(outcome.Stage)),
		zap.String("label", outcome.Result.Label),
		zap.Float64("confidence", outcome.Result.Confidence),
		zap.Bool("cached", outcome.Cached))

	if !outcome.Cached && outcome.Stage != pipeline.StageGateRejected {
		h.archiver.Archive(outcome.Result.Label, outcome.Digest, data)
	}

	c.JSON(http.StatusOK, outcome.Result)
}

func (h *Handler) fail(c *gin.Context, log *zap.Logger, err error) {
	var decodeErr *imaging.DecodeError

	switch {
	case errors.Is(err, errUploadTooLarge):
		h.metrics.ObserveFailure("too_large")
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": msgUploadTooLarge})
	case errors.Is(err, pipeline.ErrMissingInput):
		h.metrics.ObserveFailure("missing_input")
		c.JSON(http.StatusBadRequest, gin.H{"error": msgMissingImage})
	case errors.Is(err, pipeline.ErrModelUnavailable):
		h.metrics.ObserveFailure("model_unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": msgModelUnavailable})
	case errors.As(err, &decodeErr):
		h.metrics.ObserveFailure("decode")
		log.Warn("failed to decode upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgPredictionFailed, "details": err.Error()})
	default:
		h.metrics.ObserveFailure("internal")
		log.Error("prediction failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgPredictionFailed, "details": err.Error()})
	}
}
