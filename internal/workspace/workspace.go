// Package workspace provides file access scoped to a session workspace root.
//
// All paths are workspace-relative; traversal outside the root is rejected
// before any filesystem access.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Validation errors for workspace paths.
var (
	// ErrEmptyPath indicates an empty path was provided.
	ErrEmptyPath = errors.New("path cannot be empty")

	// ErrPathEscapesRoot indicates a path resolves outside the workspace root.
	ErrPathEscapesRoot = errors.New("path escapes workspace root")

	// ErrAbsolutePath indicates an absolute path where relative was expected.
	ErrAbsolutePath = errors.New("absolute path not allowed")
)

// Workspace reads and writes files under a fixed root directory.
type Workspace struct {
	root   string
	logger *zap.Logger
}

// New creates a workspace rooted at the given directory.
func New(root string, logger *zap.Logger) (*Workspace, error) {
	if root == "" {
		return nil, errors.New("workspace root is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace root: %w", err)
	}

	return &Workspace{root: abs, logger: logger}, nil
}

// Root returns the absolute workspace root.
func (w *Workspace) Root() string {
	return w.root
}

// resolve validates a workspace-relative path and returns its absolute form.
func (w *Workspace) resolve(rel string) (string, error) {
	if rel == "" {
		return "", ErrEmptyPath
	}
	if filepath.IsAbs(rel) {
		return "", ErrAbsolutePath
	}

	clean := filepath.Clean(rel)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapesRoot, rel)
	}

	abs := filepath.Join(w.root, clean)
	if abs != w.root && !strings.HasPrefix(abs, w.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapesRoot, rel)
	}
	return abs, nil
}

// Read returns the content of a file. A missing file is not an error; it
// reads as the empty string, which is what a mutation proposal against a
// new file needs.
func (w *Workspace) Read(rel string) (string, error) {
	abs, err := w.resolve(rel)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading %s: %w", rel, err)
	}
	return string(data), nil
}

// ReadStrict returns the content of a file, failing if it does not exist.
func (w *Workspace) ReadStrict(rel string) (string, error) {
	abs, err := w.resolve(rel)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", rel, err)
	}
	return string(data), nil
}

// Write replaces the full content of a file, creating parent directories
// as needed. Line endings are normalized to LF before writing.
func (w *Workspace) Write(rel, content string) error {
	abs, err := w.resolve(rel)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("creating parent directories for %s: %w", rel, err)
	}

	normalized := NormalizeLineBreaks(content)
	if err := os.WriteFile(abs, []byte(normalized), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", rel, err)
	}

	w.logger.Debug("wrote workspace file",
		zap.String("path", rel),
		zap.Int("bytes", len(normalized)),
	)
	return nil
}

// List returns the entries of a directory, sorted, with directories
// suffixed by a path separator. rel "" or "." lists the root.
func (w *Workspace) List(rel string) ([]string, error) {
	if rel == "" {
		rel = "."
	}
	abs, err := w.resolve(rel)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", rel, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += string(filepath.Separator)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// NormalizeLineBreaks converts CRLF and lone CR sequences to LF.
func NormalizeLineBreaks(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
