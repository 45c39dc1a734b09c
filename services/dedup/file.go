package dedup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	apperrors "sjsage522/pricewatcher/pkg/errors"
)

// FileBackend stores the seen set as a JSON array of strings
type FileBackend struct {
	path string
}

// NewFileBackend creates a backend writing to path
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Name returns the backend name
func (f *FileBackend) Name() string {
	return "file:" + f.path
}

// Load reads the JSON array; a missing file yields no keys
func (f *FileBackend) Load(_ context.Context) ([]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewPersistence(f.Name(), "failed to read seen file", err)
	}

	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, apperrors.NewPersistence(f.Name(), "seen file is corrupt", err)
	}
	return keys, nil
}

// Save replaces the file atomically through a temp file in the same directory
func (f *FileBackend) Save(_ context.Context, keys []string) error {
	if keys == nil {
		keys = []string{}
	}
	data, err := json.MarshalIndent(keys, "", "  ")
	if err != nil {
		return apperrors.NewPersistence(f.Name(), "failed to encode seen keys", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return apperrors.NewPersistence(f.Name(), "failed to create temp file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperrors.NewPersistence(f.Name(), "failed to write temp file", err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.NewPersistence(f.Name(), "failed to close temp file", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return apperrors.NewPersistence(f.Name(), fmt.Sprintf("failed to replace %s", f.path), err)
	}
	return nil
}

// Clear removes the file
func (f *FileBackend) Clear(_ context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return apperrors.NewPersistence(f.Name(), "failed to remove seen file", err)
	}
	return nil
}
