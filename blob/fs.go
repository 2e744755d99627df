// Package blob provides ready-made [goAccount.AvatarStore] implementations:
// a local filesystem store for development and an S3-compatible store for
// production object storage.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FS stores avatar objects under a local directory and serves them from a
// caller-provided base URL. It is intended for development and tests; use
// [S3] against real object storage.
type FS struct {
	dir     string
	baseURL string
}

// NewFS describes the newfs operation and its observable behavior.
//
// NewFS may return an error when input validation, dependency calls, or security checks fail.
func NewFS(dir, baseURL string) (*FS, error) {
	if dir == "" {
		return nil, errors.New("blob: directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("blob: create directory: %w", err)
	}
	return &FS{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Put writes the object under dir and returns its public URL. Keys may
// contain slashes; path traversal outside dir is rejected.
func (f *FS) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("blob: invalid key %q", key)
	}

	path := filepath.Join(f.dir, clean)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("blob: create key directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("blob: create object: %w", err)
	}
	if _, err := io.Copy(file, body); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("blob: write object: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("blob: close object: %w", err)
	}

	return f.baseURL + "/" + filepath.ToSlash(clean), nil
}
