package photos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FSStore keeps photos as plain files under one directory.
type FSStore struct {
	basePath string
}

// NewFSStore creates the base directory if missing.
func NewFSStore(basePath string) (*FSStore, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("photo dir is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create photo dir: %w", err)
	}
	return &FSStore{basePath: basePath}, nil
}

func (f *FSStore) Put(_ context.Context, name string, data []byte, _ string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(f.basePath, name), data, 0o644); err != nil {
		return fmt.Errorf("write photo: %w", err)
	}
	return nil
}

func (f *FSStore) Open(_ context.Context, name string) (io.ReadCloser, string, error) {
	if err := checkName(name); err != nil {
		return nil, "", err
	}
	file, err := os.Open(filepath.Join(f.basePath, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, "", err
	}
	return file, MIMEOf(name), nil
}

func (f *FSStore) Delete(_ context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(f.basePath, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
