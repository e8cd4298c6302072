package usecase

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"doc-retriever/domain"
)

// SourceRoot confines ingested paths to one directory tree.
// Relative paths are taken from the root, and symlinks are followed before the check.
type SourceRoot struct {
	dir string
}

func NewSourceRoot(dir string) (*SourceRoot, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	return &SourceRoot{dir: resolved}, nil
}

// Resolve returns path joined to the root, or an error wrapping
// domain.ErrPathOutsideRoot when it escapes the root lexically or through a symlink.
// The error names only the caller's path, never the root.
func (r *SourceRoot) Resolve(path string) (string, error) {
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(r.dir, full)
	}
	full = filepath.Clean(full)

	if !r.contains(realPath(full)) {
		return "", fmt.Errorf("%w: %s", domain.ErrPathOutsideRoot, path)
	}
	return full, nil
}

func (r *SourceRoot) contains(path string) bool {
	rel, err := filepath.Rel(r.dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// realPath follows symlinks in path. For a missing file it resolves the parent
// directory instead and leaves the missing name for the parser to report.
func realPath(path string) string {
	if real, err := filepath.EvalSymlinks(path); err == nil {
		return real
	}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(path)); err == nil {
		return filepath.Join(dir, filepath.Base(path))
	}
	return path
}
