package assets

import (
	"fmt"
	"strings"
	"unicode"
)

// MaxAssetNameLength bounds asset names.
const MaxAssetNameLength = 64

// ValidateAssetName checks that an asset name is safe for use as a filename.
// Returns ErrInvalidAssetName if the name is empty, too long, or contains path
// separators, dots, or control characters.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if len(name) > MaxAssetNameLength {
		return fmt.Errorf("%w: %d chars, max %d", ErrInvalidAssetName, len(name), MaxAssetNameLength)
	}
	if strings.ContainsAny(name, "/\\.") || strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
