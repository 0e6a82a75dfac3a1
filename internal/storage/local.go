package storage

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

// Local stores objects on disk under root and serves them below baseURL.
type Local struct {
	root    string
	baseURL string
}

// NewLocal creates the upload directory if needed.
func NewLocal(root, baseURL string) (*Local, error) {
	if root == "" {
		return nil, errors.New("upload directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root returns the directory objects are written to.
func (l *Local) Root() string { return l.root }

func (l *Local) Put(ctx context.Context, key string, body io.Reader, _ int64, _ string) (string, error) {
	if !validKey(key) {
		return "", ErrInvalidKey
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	target := filepath.Join(l.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create object dir: %w", err)
	}

	file, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create object: %w", err)
	}
	tmp := file.Name()
	if _, err := io.Copy(file, body); err != nil {
		_ = file.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("close object: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("commit object: %w", err)
	}
	return l.baseURL + "/" + key, nil
}

func (l *Local) Owns(fileURL string) bool {
	_, ok := keyFromURL(l.baseURL, fileURL)
	return ok
}

func (l *Local) Delete(_ context.Context, fileURL string) error {
	key, ok := keyFromURL(l.baseURL, fileURL)
	if !ok {
		return nil
	}
	err := os.Remove(filepath.Join(l.root, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
