package assets

import "errors"

// Errors returned by the loaders. Not-found errors let AssetResolver fall
// back to the embedded set; the others stop the lookup.
var (
	ErrStyleNotFound    = errors.New("page style not found")
	ErrTemplateNotFound = errors.New("page template not found")

	// ErrInvalidAssetName rejects names that are not a single path element.
	ErrInvalidAssetName = errors.New("invalid asset name")

	// ErrInvalidBasePath is returned when --assets is not a readable directory.
	ErrInvalidBasePath = errors.New("invalid base path")

	ErrAssetRead     = errors.New("reading asset")
	ErrPathTraversal = errors.New("asset resolves outside the assets directory")
)
