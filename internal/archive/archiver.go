package archive

import (
	"strings"

	"github.com/Brownie44l1/riceleaf-api/internal/metrics"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gammazero/workerpool"
	"go.uber.org/zap"
)

// Archiver stores accepted uploads in the background. Failures are logged
// and counted, never returned to the caller.
type Archiver struct {
	wp      *workerpool.WorkerPool
	storage Storage
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewArchiver(storage Storage, maxWorkers int, m *metrics.Metrics, logger *zap.Logger) *Archiver {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Archiver{
		wp:      workerpool.New(maxWorkers),
		storage: storage,
		metrics: m,
		logger:  logger,
	}
}

// Archive queues data for storage under <label>/<digest><ext>.
func (a *Archiver) Archive(label, digest string, data []byte) {
	if a == nil || a.storage == nil {
		return
	}

	file := FileInfo{
		Folder:    folderName(label),
		Name:      digest,
		Extension: mimetype.Detect(data).Extension(),
		Content:   data,
	}

	a.wp.Submit(func() {
		dest, err := a.storage.Upload(file)
		a.metrics.ObserveArchive(err)
		if err != nil {
			a.logger.Warn("failed to archive upload", zap.String("key", file.Key()), zap.Error(err))
			return
		}
		a.logger.Debug("archived upload", zap.String("dest", dest))
	})
}

// Stop waits for queued uploads to finish.
func (a *Archiver) Stop() {
	if a == nil {
		return
	}
	a.wp.StopWait()
}

func folderName(label string) string {
	if label == "" {
		return "unlabelled"
	}
	return strings.ReplaceAll(label, " ", "_")
}
