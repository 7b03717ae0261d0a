// Package storage persists extracted images and hands back the URLs the
// exam structure references.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ImageStore is the collaborator contract for persisting images. Both page
// images and inline base64 payloads from the LLM output go through it.
type ImageStore interface {
	// StoreFile persists the file at path and returns its public URL.
	StoreFile(ctx context.Context, path string) (string, error)

	// StoreBytes persists raw image bytes under a generated name with the
	// given extension (e.g. ".png") and returns its public URL.
	StoreBytes(ctx context.Context, data []byte, ext string) (string, error)
}

// LocalImageStore writes images to a directory served under a base URL.
type LocalImageStore struct {
	dir     string
	baseURL string
}

// NewLocalImageStore creates a store rooted at dir, serving under baseURL.
func NewLocalImageStore(dir, baseURL string) *LocalImageStore {
	return &LocalImageStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// StoreFile copies the file into the store directory under a unique name.
func (s *LocalImageStore) StoreFile(ctx context.Context, path string) (string, error) {
	const op = "StoreFile"

	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%s: failed to open %s: %w", op, path, err)
	}
	defer src.Close()

	name := s.uniqueName(filepath.Ext(path))
	if err := s.writeTo(name, src); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return s.baseURL + "/" + name, nil
}

// StoreBytes persists raw image bytes under a generated name.
func (s *LocalImageStore) StoreBytes(ctx context.Context, data []byte, ext string) (string, error) {
	const op = "StoreBytes"

	if ext == "" {
		ext = ".png"
	}
	name := s.uniqueName(ext)
	if err := s.writeTo(name, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return s.baseURL + "/" + name, nil
}

func (s *LocalImageStore) uniqueName(ext string) string {
	return fmt.Sprintf("%d-%s%s", time.Now().Unix(), uuid.NewString(), ext)
}

func (s *LocalImageStore) writeTo(name string, src io.Reader) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("create stored file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("write stored file: %w", err)
	}
	return nil
}
