package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

type LocalStorage struct {
	dir string
}

func NewLocalStorage(dir string) (*LocalStorage, error) {
	if dir == "" {
		return nil, errors.New("archive dir is not set")
	}
	return &LocalStorage{dir: dir}, nil
}

func (s *LocalStorage) Upload(file FileInfo) (string, error) {
	dest := filepath.Join(s.dir, filepath.FromSlash(file.Key()))

	if err := os.MkdirAll(filepath.Dir(dest), os.ModePerm); err != nil {
		return "", err
	}
	if err := os.WriteFile(dest, file.Content, os.FileMode(0644)); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", dest, err)
	}

	return dest, nil
}
