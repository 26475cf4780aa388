package pipeline

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Placeholder tokens are bracketed by Unicode Private Use Area characters.
// These never occur in ordinary text and pass through Goldmark unchanged.
// A per-extraction nonce between the brackets keeps tokens from two
// extractions, or tokens typed into a document, from matching each other.
const (
	TokenStart = "\uE000" // U+E000: Private Use Area start
	TokenEnd   = "\uE001" // U+E001: Private Use Area end
)

// NewNonce returns a random 32 character hex string.
func NewNonce() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Placeholders maps placeholder tokens to replacement text, in insertion
// order. A nil *Placeholders is empty and safe to use.
type Placeholders struct {
	nonce  string
	tokens []string
	values map[string]string
}

// NewPlaceholders returns an empty map whose tokens embed nonce.
func NewPlaceholders(nonce string) *Placeholders {
	return &Placeholders{
		nonce:  nonce,
		values: make(map[string]string),
	}
}

// Add stores replacement and returns the token standing in for it.
func (p *Placeholders) Add(replacement string) string {
	token := TokenStart + p.nonce + ":" + strconv.Itoa(len(p.tokens)) + TokenEnd
	p.tokens = append(p.tokens, token)
	p.values[token] = replacement
	return token
}

// Len returns the number of stored tokens.
func (p *Placeholders) Len() int {
	if p == nil {
		return 0
	}
	return len(p.tokens)
}

// Tokens returns the tokens in the order they were added.
func (p *Placeholders) Tokens() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.tokens...)
}

// Lookup returns the replacement stored for token.
func (p *Placeholders) Lookup(token string) (string, bool) {
	if p == nil {
		return "", false
	}
	v, ok := p.values[token]
	return v, ok
}

// Restore replaces every stored token found in text with its replacement.
// Text that is not a stored token, including tokens from another
// extraction, is left as is. Replacement happens in a single pass, so
// restored content is never rescanned.
func (p *Placeholders) Restore(text string) string {
	if p.Len() == 0 {
		return text
	}
	pairs := make([]string, 0, 2*len(p.tokens))
	for _, token := range p.tokens {
		pairs = append(pairs, token, p.values[token])
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// Missing returns the tokens that do not occur in text. A formatter that
// drops or splits a token leaves its region unrestorable.
func (p *Placeholders) Missing(text string) []string {
	if p == nil {
		return nil
	}
	var missing []string
	for _, token := range p.tokens {
		if !strings.Contains(text, token) {
			missing = append(missing, token)
		}
	}
	return missing
}
