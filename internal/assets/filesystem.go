package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemStore resolves asset paths below a media root directory.
type FilesystemStore struct {
	root string
}

func NewFilesystemStore(root string) (*FilesystemStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("assets: media root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("assets: resolve media root: %w", err)
	}
	return &FilesystemStore{root: abs}, nil
}

// Root returns the absolute media root.
func (s *FilesystemStore) Root() string { return s.root }

func (s *FilesystemStore) Exists(_ context.Context, path string) (bool, error) {
	full, err := s.resolve(path)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("assets: stat %s: %w", path, err)
	}
	return !info.IsDir(), nil
}

func (s *FilesystemStore) Delete(_ context.Context, path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("assets: remove %s: %w", path, err)
	}
	return nil
}

// resolve joins path to the root and refuses anything escaping it.
func (s *FilesystemStore) resolve(path string) (string, error) {
	cleaned := filepath.Clean("/" + filepath.FromSlash(strings.TrimSpace(path)))
	if cleaned == string(filepath.Separator) {
		return "", fmt.Errorf("assets: empty path")
	}
	full := filepath.Join(s.root, cleaned)
	rel, err := filepath.Rel(s.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("assets: path %q escapes media root", path)
	}
	return full, nil
}
