package preserve

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/alnah/go-preserve/internal/fileutil"
)

// recordExt is the extension of files written by FileStore.
const recordExt = ".yaml"

// FileStore keeps one <key>.yaml file per key under a directory. Writes go
// through a temp file and a rename, so a crash never leaves a torn record.
type FileStore struct {
	dir string
}

// NewFileStore returns a FileStore rooted at dir. The directory is created
// on first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the directory holding the records.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	if err := fileutil.ValidateName(key); err != nil {
		return "", fmt.Errorf("invalid store key %q: %w", key, err)
	}
	return filepath.Join(s.dir, key+recordExt), nil
}

// Get reads the record for key.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	path, err := s.path(key)
	if err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(path) // #nosec G304 -- key validated as a single path element
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, true, nil
}

// Set atomically replaces the record for key.
func (s *FileStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(path, value, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Delete removes the record for key. A missing record is not an error.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}
