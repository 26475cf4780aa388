package pipeline

import "strings"

// DefaultBlockMarkers are substrings announcing that the host already
// protects code in this text (the block editor's code block comment).
var DefaultBlockMarkers = []string{"<!-- wp:code"}

// Extractor swaps preserve regions for placeholder tokens.
type Extractor struct {
	// BlockMarkers short-circuit extraction when any of them occurs in the text.
	BlockMarkers []string
	// NewNonce produces the per-extraction token nonce.
	NewNonce func() string
}

// NewExtractor returns an Extractor with the default block markers and
// random nonces.
func NewExtractor() *Extractor {
	return &Extractor{
		BlockMarkers: append([]string(nil), DefaultBlockMarkers...),
		NewNonce:     NewNonce,
	}
}

// Extract replaces every region of text for tags with a placeholder token
// and returns the new text with the map of tokens to rendered regions.
// Text outside regions is copied unchanged. On a matching error the input is
// returned untouched with an empty map alongside the error.
func (e *Extractor) Extract(text string, tags []string, rules Rules) (string, *Placeholders, error) {
	placeholders := NewPlaceholders(e.nonce())

	if e.HasBlockMarker(text) {
		return text, placeholders, nil
	}

	regions, err := FindRegions(text, tags)
	if err != nil {
		return text, placeholders, err
	}
	if len(regions) == 0 {
		return text, placeholders, nil
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, r := range regions {
		b.WriteString(text[last:r.Start])
		b.WriteString(placeholders.Add(RenderRegion(r, rules)))
		last = r.End
	}
	b.WriteString(text[last:])

	return b.String(), placeholders, nil
}

// HasBlockMarker reports whether text carries one of the block markers.
func (e *Extractor) HasBlockMarker(text string) bool {
	for _, marker := range e.BlockMarkers {
		if marker != "" && strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

func (e *Extractor) nonce() string {
	if e.NewNonce == nil {
		return NewNonce()
	}
	return e.NewNonce()
}
