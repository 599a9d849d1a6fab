package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes images below a media root directory.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates the upload directory under root if needed.
func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(filepath.Join(root, UploadDir), 0o755); err != nil {
		return nil, fmt.Errorf("create media directory: %w", err)
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &LocalStore{root: root, baseURL: baseURL}, nil
}

func (s *LocalStore) Save(_ context.Context, filename string, content io.Reader) (string, error) {
	name := uploadName(filename)
	for {
		f, err := os.OpenFile(filepath.Join(s.root, filepath.FromSlash(name)), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			name = alternativeName(name)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("open %s: %w", name, err)
		}
		if _, err := io.Copy(f, content); err != nil {
			f.Close()
			os.Remove(f.Name())
			return "", fmt.Errorf("write %s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close %s: %w", name, err)
		}
		return name, nil
	}
}

func (s *LocalStore) URL(name string) string {
	if name == "" {
		return ""
	}
	return s.baseURL + name
}

// Root is the directory uploads are written below.
func (s *LocalStore) Root() string {
	return s.root
}
