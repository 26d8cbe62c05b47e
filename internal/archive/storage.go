package archive

import (
	"fmt"
	"strings"

	"github.com/Brownie44l1/riceleaf-api/internal/config"
)

type FileInfo struct {
	Folder    string
	Name      string
	Extension string
	Content   []byte
}

func (f FileInfo) Key() string {
	name := f.Name + f.Extension
	if f.Folder == "" {
		return name
	}
	return f.Folder + "/" + name
}

// Storage persists archived uploads and returns where each one landed.
type Storage interface {
	Upload(file FileInfo) (string, error)
}

func NewStorage(cfg config.ArchiveConfig) (Storage, error) {
	switch strings.ToLower(cfg.Filesystem) {
	case config.FilesystemLocal:
		return NewLocalStorage(cfg.Dir)
	case config.FilesystemS3:
		return NewS3Storage(cfg.S3)
	}

	return nil, fmt.Errorf("invalid filesystem type %s", cfg.Filesystem)
}
