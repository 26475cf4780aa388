package assets

import "errors"

// AssetResolver looks assets up in a user directory first and falls back to
// the embedded ones when the directory does not have them.
type AssetResolver struct {
	custom   AssetLoader // nil without a user directory
	embedded AssetLoader
}

// NewAssetResolver creates an AssetResolver. An empty customBasePath means
// embedded assets only. A non-empty one must be a readable directory.
func NewAssetResolver(customBasePath string) (*AssetResolver, error) {
	r := &AssetResolver{embedded: NewEmbeddedLoader()}

	if customBasePath != "" {
		loader, err := NewFilesystemLoader(customBasePath)
		if err != nil {
			return nil, err
		}
		r.custom = loader
	}
	return r, nil
}

// LoadStyle loads a CSS style.
func (r *AssetResolver) LoadStyle(name string) (string, error) {
	return r.load(func(l AssetLoader) (string, error) { return l.LoadStyle(name) })
}

// LoadTemplate loads an HTML template.
func (r *AssetResolver) LoadTemplate(name string) (string, error) {
	return r.load(func(l AssetLoader) (string, error) { return l.LoadTemplate(name) })
}

// HasCustomLoader reports whether a user directory is configured.
func (r *AssetResolver) HasCustomLoader() bool {
	return r.custom != nil
}

func (r *AssetResolver) load(fn func(AssetLoader) (string, error)) (string, error) {
	if r.custom == nil {
		return fn(r.embedded)
	}

	content, err := fn(r.custom)
	if err == nil {
		return content, nil
	}
	// Validation and I/O errors are not masked by the fallback.
	if !isNotFoundError(err) {
		return "", err
	}
	return fn(r.embedded)
}

func isNotFoundError(err error) bool {
	return errors.Is(err, ErrStyleNotFound) || errors.Is(err, ErrTemplateNotFound)
}

// Compile-time interface check.
var _ AssetLoader = (*AssetResolver)(nil)
