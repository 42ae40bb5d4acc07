package card

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideDirectory is returned for card paths that escape the card directory.
var ErrOutsideDirectory = errors.New("path is outside the card directory")

// CardDirectory resolves card paths supplied by clients against one root
// directory and rejects paths, including symlinks, that leave it.
type CardDirectory struct {
	root string
}

// NewCardDirectory creates a resolver rooted at dir.
func NewCardDirectory(dir string) (*CardDirectory, error) {
	if dir == "" {
		return nil, errors.New("card directory cannot be empty")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve card directory: %w", err)
	}
	return &CardDirectory{root: abs}, nil
}

// Root returns the absolute card directory.
func (d *CardDirectory) Root() string {
	return d.root
}

// Resolve turns path into an absolute path inside the card directory.
// Relative paths are joined to the root. An empty path resolves to "".
func (d *CardDirectory) Resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", nil
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(d.root, path)
	}
	clean := filepath.Clean(path)

	if !d.contains(clean) {
		return "", fmt.Errorf("%w: %s", ErrOutsideDirectory, path)
	}

	// A symlink inside the directory must also point inside it
	if real, err := filepath.EvalSymlinks(clean); err == nil && !d.contains(real) {
		return "", fmt.Errorf("%w: %s", ErrOutsideDirectory, path)
	}

	return clean, nil
}

func (d *CardDirectory) contains(path string) bool {
	roots := []string{d.root}
	if real, err := filepath.EvalSymlinks(d.root); err == nil && real != d.root {
		roots = append(roots, real)
	}

	for _, root := range roots {
		if path == root {
			return true
		}
		prefix := root
		if !strings.HasSuffix(prefix, string(os.PathSeparator)) {
			prefix += string(os.PathSeparator)
		}
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
