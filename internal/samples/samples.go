// Package samples posts one image per class to a running API and keeps the
// ones it gets wrong for review.
package samples

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Brownie44l1/riceleaf-api/internal/client"
	"github.com/Brownie44l1/riceleaf-api/internal/evaluate"
	"go.uber.org/zap"
)

var DefaultDataDirs = []string{
	filepath.Join("data", "test"),
	filepath.Join("data", "val"),
	filepath.Join("data", "train"),
}

const (
	DefaultResultsFile      = "sample_results.json"
	DefaultMisclassifiedDir = "misclassified_samples"
)

type Options struct {
	DataDirs         []string
	Classes          []string
	ResultsFile      string
	MisclassifiedDir string
	Logger           *zap.Logger
}

// Record is one posted sample. Status is nil when the request never got a
// response.
type Record struct {
	Class    string         `json:"class"`
	Path     string         `json:"path"`
	Status   *int           `json:"status"`
	Response map[string]any `json:"response"`
}

type Summary struct {
	Records []Record
	Missing []string
	Copied  []string
}

// FindSample returns the first image, in name order, under <dir>/<class>
// for the first data dir that has one.
func FindSample(dataDirs []string, class string) (string, bool) {
	for _, base := range dataDirs {
		entries, err := os.ReadDir(filepath.Join(base, class))
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() && evaluate.IsImageFile(entry.Name()) {
				return filepath.Join(base, class, entry.Name()), true
			}
		}
	}
	return "", false
}

func Run(ctx context.Context, c *client.Client, opts Options) (*Summary, error) {
	if len(opts.DataDirs) == 0 {
		opts.DataDirs = DefaultDataDirs
	}
	if opts.ResultsFile == "" {
		opts.ResultsFile = DefaultResultsFile
	}
	if opts.MisclassifiedDir == "" {
		opts.MisclassifiedDir = DefaultMisclassifiedDir
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	if err := os.MkdirAll(opts.MisclassifiedDir, os.ModePerm); err != nil {
		return nil, err
	}

	summary := &Summary{Records: []Record{}}
	for _, class := range opts.Classes {
		path, ok := FindSample(opts.DataDirs, class)
		if !ok {
			opts.Logger.Info("no sample found, skipping", zap.String("class", class))
			summary.Missing = append(summary.Missing, class)
			continue
		}

		opts.Logger.Info("posting sample", zap.String("class", class), zap.String("path", path))
		record := Record{Class: class, Path: path}

		resp, err := c.PredictFile(ctx, path)
		if err != nil {
			opts.Logger.Warn("request failed", zap.String("path", path), zap.Error(err))
			record.Response = map[string]any{"error": err.Error()}
			summary.Records = append(summary.Records, record)
			continue
		}

		record.Status = &resp.Status
		record.Response = resp.Body
		if resp.Body == nil {
			record.Response = map[string]any{"raw": resp.Raw}
		}
		summary.Records = append(summary.Records, record)

		if label := resp.Label(); label != "" && label != class {
			dest := filepath.Join(opts.MisclassifiedDir, fmt.Sprintf("%s__%s", class, filepath.Base(path)))
			if err := copyFile(path, dest); err != nil {
				opts.Logger.Warn("failed to copy misclassified sample", zap.String("dest", dest), zap.Error(err))
				continue
			}
			summary.Copied = append(summary.Copied, dest)
		}
	}

	if err := writeJSON(opts.ResultsFile, summary.Records); err != nil {
		return summary, err
	}

	return summary, nil
}

func writeJSON(path string, records []Record) error {
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dest, info.ModTime(), info.ModTime())
}
