package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrymomot/honeytracks/pkg/tracking"
)

// LocalStore keeps the backlog snapshot in a single file below baseDir.
// Writes go to a temporary file in the same directory and are renamed into
// place, so a crash never leaves a half-written snapshot behind.
type LocalStore struct {
	baseDir string // Absolute path - the snapshot file lives within this directory
	path    string // Absolute path of the snapshot file
}

var _ tracking.Store = (*LocalStore)(nil)

// NewLocalStore returns a store for baseDir/name.
// baseDir is resolved to an absolute path and created if it doesn't exist.
func NewLocalStore(baseDir, name string) (*LocalStore, error) {
	if baseDir == "" || name == "" {
		return nil, ErrInvalidConfig
	}

	absBaseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to resolve base directory: %v", ErrFailedToGetAbsolutePath, err)
	}
	if err := os.MkdirAll(absBaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToCreateDirectory, err)
	}

	s := &LocalStore{baseDir: absBaseDir}
	s.path, err = s.resolvePath(name)
	if err != nil {
		return nil, err
	}
	if s.path == absBaseDir {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPath, name)
	}
	return s, nil
}

// Path returns the absolute path of the snapshot file.
func (s *LocalStore) Path() string { return s.path }

// Load returns "" when the file does not exist yet.
func (s *LocalStore) Load(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFailedToReadFile, err)
	}
	return string(data), nil
}

// Save replaces the file contents atomically.
func (s *LocalStore) Save(ctx context.Context, snapshot string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToCreateDirectory, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToWriteFile, err)
	}
	tmpName := tmp.Name()
	// Clean up partial file on failure
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.WriteString(snapshot); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %v", ErrFailedToWriteFile, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %v", ErrFailedToWriteFile, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToWriteFile, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToWriteFile, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToWriteFile, err)
	}
	committed = true
	return nil
}

// resolvePath validates and resolves a path within the base directory.
func (s *LocalStore) resolvePath(path string) (string, error) {
	path = filepath.Clean(path)
	absPath, err := filepath.Abs(filepath.Join(s.baseDir, path))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFailedToGetAbsolutePath, err)
	}

	// Ensure path stays within baseDir (prevents ../ attacks)
	if !strings.HasPrefix(absPath, s.baseDir+string(filepath.Separator)) && absPath != s.baseDir {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}
	return absPath, nil
}
