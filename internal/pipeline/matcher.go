package pipeline

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dlclark/regexp2"
)

// ErrRegionMatch indicates the region scanner gave up on the input.
var ErrRegionMatch = errors.New("region matching failed")

// matchTimeout bounds a single scan. Unterminated open tags make the lazy
// content group scan to the end of the text once per candidate.
const matchTimeout = 2 * time.Second

// Region is one <tag>...</tag> span found in a text.
type Region struct {
	Tag     string // lower-cased tag name
	Open    string // literal opening tag, attributes included
	Content string // raw inner content
	Close   string // literal closing tag
	Start   int    // byte offset of Open in the source text
	End     int    // byte offset just past Close
}

// maxCachedPatterns bounds the pattern cache. Tag sets beyond it are
// compiled on every call.
const maxCachedPatterns = 32

// patternCache holds compiled region patterns keyed by the sorted tag set.
type patternCache struct {
	mu sync.Mutex
	m  map[string]*regexp2.Regexp
}

var patterns = &patternCache{m: make(map[string]*regexp2.Regexp)}

func (c *patternCache) get(key string) (*regexp2.Regexp, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	re, ok := c.m[key]
	return re, ok
}

func (c *patternCache) put(key string, re *regexp2.Regexp) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.m) < maxCachedPatterns {
		c.m[key] = re
	}
}

func (c *patternCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

// regionPattern builds the matcher for a normalized tag set.
//
// Group 1 is the opening tag, group 2 the tag name, group 3 the content and
// group 4 the closing tag. The backreference in the closing tag pairs it
// with the opening tag's name; IgnoreCase makes the pairing case-insensitive.
// The content group is lazy, so the first closing tag of the same name ends
// the region and same-type nesting is not supported. Alternation order does
// not change what matches, so the set is sorted to share one cache entry.
func regionPattern(tags []string) (*regexp2.Regexp, error) {
	names, key := patternKey(tags)
	if re, ok := patterns.get(key); ok {
		return re, nil
	}

	for i, name := range names {
		names[i] = regexp2.Escape(name)
	}
	expr := `(<(` + strings.Join(names, "|") + `)(?:\s[^>]*)?>)(.*?)(</\2\s*>)`

	re, err := regexp2.Compile(expr, regexp2.IgnoreCase|regexp2.Singleline)
	if err != nil {
		return nil, fmt.Errorf("%w: compiling pattern: %v", ErrRegionMatch, err)
	}
	re.MatchTimeout = matchTimeout

	patterns.put(key, re)
	return re, nil
}

// patternKey returns the sorted tag names and the cache key they form.
func patternKey(tags []string) ([]string, string) {
	names := slices.Sorted(slices.Values(tags))
	return names, strings.Join(names, "|")
}

// NormalizeTags lower-cases and trims tag names, dropping empty entries and
// duplicates while keeping the first-seen order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// FindRegions returns the well-formed regions of text for the given tags, in
// source order and non-overlapping. Open tags without a matching close tag
// are not regions. A region containing another preserved tag of a different
// type is a single match; the inner tag is part of its content.
func FindRegions(text string, tags []string) ([]Region, error) {
	tags = NormalizeTags(tags)
	if len(tags) == 0 || text == "" {
		return nil, nil
	}

	re, err := regionPattern(tags)
	if err != nil {
		return nil, err
	}

	m, err := re.FindStringMatch(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRegionMatch, err)
	}

	offsets := runeOffsets(text)
	span := func(g regexp2.Group) string {
		return text[offsets[g.Index]:offsets[g.Index+g.Length]]
	}

	var regions []Region
	for m != nil {
		groups := m.Groups()
		regions = append(regions, Region{
			Tag:     strings.ToLower(span(groups[2])),
			Open:    span(groups[1]),
			Content: span(groups[3]),
			Close:   span(groups[4]),
			Start:   offsets[m.Index],
			End:     offsets[m.Index+m.Length],
		})

		m, err = re.FindNextMatch(m)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRegionMatch, err)
		}
	}

	return regions, nil
}

// runeOffsets maps the rune indexes regexp2 reports to byte offsets in
// text, with one extra entry for len(text). regexp2 scans []rune(text),
// where each invalid UTF-8 byte is a single rune; ranging over the string
// decodes the same way with a width of one byte.
func runeOffsets(text string) []int {
	offsets := make([]int, 0, len(text)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	return append(offsets, len(text))
}
