// Package fileutil provides file and path utility functions.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors for file utility operations.
var (
	ErrNameEmpty         = errors.New("name cannot be empty")
	ErrNamePathTraversal = errors.New("name contains path separator or null byte")
)

// WriteFileAtomic writes data to a temporary file next to path and renames it
// into place, so readers never observe a partial record.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tmpPath := tmpFile.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, writeErr := tmpFile.Write(data); writeErr != nil {
		_ = tmpFile.Close()
		cleanup()
		return fmt.Errorf("writing temp file: %w", writeErr)
	}

	if closeErr := tmpFile.Close(); closeErr != nil {
		cleanup()
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Chmod(tmpPath, perm); err != nil {
		cleanup()
		return fmt.Errorf("setting permissions: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// ValidateName checks that name is safe to use as a single path element.
func ValidateName(name string) error {
	if name == "" {
		return ErrNameEmpty
	}
	if strings.ContainsAny(name, "/\\\x00") || name == "." || name == ".." {
		return ErrNamePathTraversal
	}
	return nil
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// IsFilePath returns true if the string looks like a file path rather than a name.
// A string containing path separators (/, \) is treated as a path.
//
// Examples:
//   - "preserve" -> false (name)
//   - "./preserve.yaml" -> true (relative path)
//   - "/etc/preserve/preserve.yaml" -> true (absolute)
//   - "C:\config\preserve.yaml" -> true (Windows)
func IsFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// OutputPath returns the path for the rendered form of input: the same base
// name with its extension replaced by ext, placed in outDir when set, next
// to input otherwise.
func OutputPath(input, outDir, ext string) string {
	base := filepath.Base(input)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + ext
	if outDir != "" {
		return filepath.Join(outDir, name)
	}
	return filepath.Join(filepath.Dir(input), name)
}
