package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemLoader loads assets from a user directory.
type FilesystemLoader struct {
	basePath string // absolute, symlinks resolved
}

// NewFilesystemLoader creates a FilesystemLoader rooted at basePath.
// Returns ErrInvalidBasePath unless basePath is a readable directory.
func NewFilesystemLoader(basePath string) (*FilesystemLoader, error) {
	if basePath == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidBasePath)
	}

	root, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	if real, err := filepath.EvalSymlinks(root); err == nil {
		root = real
	}

	info, err := os.Stat(root)
	switch {
	case os.IsNotExist(err):
		return nil, fmt.Errorf("%w: directory does not exist: %s", ErrInvalidBasePath, root)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	case !info.IsDir():
		return nil, fmt.Errorf("%w: not a directory: %s", ErrInvalidBasePath, root)
	}
	if _, err := os.ReadDir(root); err != nil {
		return nil, fmt.Errorf("%w: cannot read directory: %v", ErrInvalidBasePath, err)
	}

	return &FilesystemLoader{basePath: root}, nil
}

// BasePath returns the resolved root directory.
func (f *FilesystemLoader) BasePath() string {
	return f.basePath
}

// LoadStyle loads a CSS style from the filesystem.
// Looks for {basePath}/styles/{name}.css
func (f *FilesystemLoader) LoadStyle(name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}
	return f.read(filepath.Join(f.basePath, "styles", name+".css"), ErrStyleNotFound, name)
}

// LoadTemplate loads an HTML template from the filesystem.
// Looks for {basePath}/templates/{name}.html
func (f *FilesystemLoader) LoadTemplate(name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}
	return f.read(filepath.Join(f.basePath, "templates", name+".html"), ErrTemplateNotFound, name)
}

// verifyPathContainment rejects filePath unless it resolves, symlinks
// included, to a location under basePath.
func (f *FilesystemLoader) verifyPathContainment(filePath string) error {
	target, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("%w: cannot resolve path", ErrPathTraversal)
	}
	// A missing file keeps its lexical path; opening it fails later.
	if real, err := filepath.EvalSymlinks(target); err == nil {
		target = real
	}

	if !strings.HasPrefix(target, f.basePath+string(filepath.Separator)) {
		return fmt.Errorf("%w: path escapes base directory", ErrPathTraversal)
	}
	return nil
}

// read loads filePath after checking it stays under basePath. A missing
// file is reported as notFound.
func (f *FilesystemLoader) read(filePath string, notFound error, name string) (string, error) {
	if err := f.verifyPathContainment(filePath); err != nil {
		return "", err
	}

	content, err := os.ReadFile(filePath) // #nosec G304 -- path validated above
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %q", notFound, name)
		}
		return "", fmt.Errorf("%w: %v", ErrAssetRead, err)
	}
	return string(content), nil
}

// Compile-time interface check.
var _ AssetLoader = (*FilesystemLoader)(nil)
