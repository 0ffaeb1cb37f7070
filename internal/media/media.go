// Package media resolves stored file names against the media root.
package media

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned for names that resolve outside the media root.
var ErrOutsideRoot = errors.New("path escapes media root")

// Storage maps names relative to the media root onto the local filesystem.
type Storage struct {
	root string
}

// New returns a Storage rooted at root.
func New(root string) (*Storage, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving media root %q: %w", root, err)
	}

	return &Storage{root: abs}, nil
}

// Root returns the absolute media root.
func (s *Storage) Root() string {
	return s.root
}

// Path returns the absolute filesystem path of name.
func (s *Storage) Path(name string) (string, error) {
	if name == "" {
		return "", errors.New("empty file name")
	}

	path := filepath.Join(s.root, filepath.FromSlash(name))

	if path != s.root && !strings.HasPrefix(path, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, name)
	}

	return path, nil
}

// Name returns the slash-separated name of an absolute path under the root.
func (s *Storage) Name(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", path, err)
	}

	rel, err := filepath.Rel(s.root, abs)
	if err != nil {
		return "", fmt.Errorf("relating %q to media root: %w", path, err)
	}

	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, path)
	}

	return filepath.ToSlash(rel), nil
}
