package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore is a HeaderStore backed by a file on disk. Replacements go to a
// temporary sibling first and are renamed over the target, so a failed write
// leaves the original untouched.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	return &Snapshot{Path: s.path, Content: content}, nil
}

func (s *FileStore) Replace(ctx context.Context, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return WriteAtomic(s.path, content)
}

// WriteAtomic writes content to path.tmp-* in the same directory and renames
// it to path. The existing file mode is kept.
func WriteAtomic(path string, content []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func(err error) error {
		tmp.Close()
		os.Remove(tmpName) // Clean up on error
		return err
	}

	if _, err := tmp.Write(content); err != nil {
		return cleanup(fmt.Errorf("failed to write %s: %w", tmpName, err))
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(fmt.Errorf("failed to sync %s: %w", tmpName, err))
	}
	if err := tmp.Chmod(mode); err != nil {
		return cleanup(fmt.Errorf("failed to chmod %s: %w", tmpName, err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}

	// Atomic rename
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
