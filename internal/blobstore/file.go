package blobstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ksred/purchase-orders-api/pkg/apperror"
)

// FileStore keeps objects as files under a base directory
type FileStore struct {
	baseDir string
}

// NewFileStore creates the base directory if needed
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

// path maps key to a file under baseDir. Keys are slash separated; a ".."
// segment is rejected, dots inside a segment ("quote..v2.pdf") are not.
func (s *FileStore) path(key string) (string, error) {
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", apperror.Validation("blob key", "invalid key %q", key)
		}
	}

	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", apperror.Validation("blob key", "invalid key %q", key)
	}

	p := filepath.Join(s.baseDir, filepath.FromSlash(clean))
	if rel, err := filepath.Rel(s.baseDir, p); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", apperror.Validation("blob key", "invalid key %q", key)
	}
	return p, nil
}

// Put writes body to key, replacing any previous object
func (s *FileStore) Put(ctx context.Context, key, contentType string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return apperror.Backend("put blob", err)
	}

	// Write then rename so readers never see a half-written export
	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return apperror.Backend("put blob", err)
	}
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return apperror.Backend("put blob", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return apperror.Backend("put blob", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return apperror.Backend("put blob", err)
	}
	return nil
}

// Get reads the object stored under key
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	body, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, apperror.NotFound("get blob", "object %q not found", key)
	}
	if err != nil {
		return nil, apperror.Backend("get blob", err)
	}
	return body, nil
}
