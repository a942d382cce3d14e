package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FS implements Sink backed by a local directory. Writes are atomic:
// tmp file, fsync, rename.
type FS struct {
	root string // absolute path to the uploads directory
}

// NewFS creates a sink rooted at the given directory, creating it when
// missing.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	return &FS{root: abs}, nil
}

// safePath validates that the handle is a plain name (no separators,
// no traversal) and returns its absolute path under the root.
func (f *FS) safePath(handle string) (string, error) {
	if handle == "" {
		return "", fmt.Errorf("storage: handle is required")
	}
	cleaned := filepath.Clean(handle)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("storage: invalid handle: %s", handle)
	}
	abs := filepath.Join(f.root, cleaned)
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: handle escapes uploads root: %s", handle)
	}
	return abs, nil
}

// Save writes content under a freshly minted handle.
func (f *FS) Save(content []byte, ext string) (string, error) {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	handle := uuid.NewString() + strings.ToLower(ext)
	abs, err := f.safePath(handle)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(f.root, ".ensemble-tmp-*")
	if err != nil {
		return "", fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return "", fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return "", fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return "", fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return handle, nil
}

// Read returns the stored bytes for a handle.
func (f *FS) Read(handle string) ([]byte, error) {
	abs, err := f.safePath(handle)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", handle, err)
	}
	return data, nil
}

// Delete removes the stored content; a missing handle is a no-op.
func (f *FS) Delete(handle string) error {
	abs, err := f.safePath(handle)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: delete %s: %w", handle, err)
	}
	return nil
}

// Verify FS satisfies Sink at compile time.
var _ Sink = (*FS)(nil)
