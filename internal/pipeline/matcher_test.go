package pipeline

import (
	"reflect"
	"strconv"
	"testing"

	"github.com/dlclark/regexp2"
)

func TestNormalizeTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "defaults", input: []string{"code", "pre"}, expected: []string{"code", "pre"}},
		{name: "case and spaces", input: []string{" Code ", "PRE"}, expected: []string{"code", "pre"}},
		{name: "duplicates dropped", input: []string{"code", "CODE", "pre", "code"}, expected: []string{"code", "pre"}},
		{name: "empty entries dropped", input: []string{"", " ", "pre"}, expected: []string{"pre"}},
		{name: "nil", input: nil, expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := NormalizeTags(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("NormalizeTags() = %q, want %q", got, tt.expected)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestFindRegions - Open/close pairing, case-insensitivity, non-nesting
// ---------------------------------------------------------------------------

func TestFindRegions(t *testing.T) {
	t.Parallel()

	defaultTags := []string{"code", "pre"}

	tests := []struct {
		name     string
		text     string
		tags     []string
		expected []Region
	}{
		{
			name:     "no regions",
			text:     "plain text with <strong>markup</strong>",
			tags:     defaultTags,
			expected: nil,
		},
		{
			name: "single code region",
			text: "Example <code>x</code> done",
			tags: defaultTags,
			expected: []Region{
				{Tag: "code", Open: "<code>", Content: "x", Close: "</code>", Start: 8, End: 22},
			},
		},
		{
			name: "case-insensitive pairing",
			text: "<CODE>x</code>",
			tags: defaultTags,
			expected: []Region{
				{Tag: "code", Open: "<CODE>", Content: "x", Close: "</code>", Start: 0, End: 14},
			},
		},
		{
			name: "attributes kept in open tag",
			text: `<pre class="lang-go" data-x='1'>a</pre>`,
			tags: defaultTags,
			expected: []Region{
				{Tag: "pre", Open: `<pre class="lang-go" data-x='1'>`, Content: "a", Close: "</pre>", Start: 0, End: 39},
			},
		},
		{
			name: "content spans newlines",
			text: "<pre>a\nb</pre>",
			tags: defaultTags,
			expected: []Region{
				{Tag: "pre", Open: "<pre>", Content: "a\nb", Close: "</pre>", Start: 0, End: 14},
			},
		},
		{
			name: "multiple regions in order",
			text: "<code>a</code> and <pre>b</pre>",
			tags: defaultTags,
			expected: []Region{
				{Tag: "code", Open: "<code>", Content: "a", Close: "</code>", Start: 0, End: 14},
				{Tag: "pre", Open: "<pre>", Content: "b", Close: "</pre>", Start: 19, End: 31},
			},
		},
		{
			name:     "unterminated open tag is not a region",
			text:     "<code>never closed",
			tags:     defaultTags,
			expected: nil,
		},
		{
			name:     "mismatched close tag is not a region",
			text:     "<code>x</pre>",
			tags:     defaultTags,
			expected: nil,
		},
		{
			name:     "longer tag name with same prefix is not a region",
			text:     "<codex>x</codex>",
			tags:     defaultTags,
			expected: nil,
		},
		{
			name:     "self-closing tag is not a region",
			text:     "<code/>x</code>",
			tags:     defaultTags,
			expected: nil,
		},
		{
			name:     "tag outside the set is ignored",
			text:     "<code>x</code>",
			tags:     []string{"pre"},
			expected: nil,
		},
		{
			name: "tag added to the set is matched",
			text: "<strong>x</strong>",
			tags: []string{"pre", "strong"},
			expected: []Region{
				{Tag: "strong", Open: "<strong>", Content: "x", Close: "</strong>", Start: 0, End: 18},
			},
		},
		{
			// Nested preserve tags of a different type are one outer region;
			// the inner tag is not matched separately.
			name: "nested different tag is a single outer region",
			text: "<pre><code>x</code></pre>",
			tags: defaultTags,
			expected: []Region{
				{Tag: "pre", Open: "<pre>", Content: "<code>x</code>", Close: "</pre>", Start: 0, End: 25},
			},
		},
		{
			name: "same tag nesting closes at first close tag",
			text: "<code>a<code>b</code>c</code>",
			tags: defaultTags,
			expected: []Region{
				{Tag: "code", Open: "<code>", Content: "a<code>b", Close: "</code>", Start: 0, End: 21},
			},
		},
		{
			name: "byte offsets account for multibyte runes",
			text: "日本 <code>é</code>",
			tags: defaultTags,
			expected: []Region{
				{Tag: "code", Open: "<code>", Content: "é", Close: "</code>", Start: 7, End: 22},
			},
		},
		{
			name:     "empty tag set",
			text:     "<code>x</code>",
			tags:     nil,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := FindRegions(tt.text, tt.tags)
			if err != nil {
				t.Fatalf("FindRegions() unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("FindRegions() = %+v, want %+v", got, tt.expected)
			}
			for _, r := range got {
				if span := tt.text[r.Start:r.End]; span != r.Open+r.Content+r.Close {
					t.Errorf("text[%d:%d] = %q, want %q", r.Start, r.End, span, r.Open+r.Content+r.Close)
				}
			}
		})
	}
}

func TestFindRegions_RegexMetacharactersInTags(t *testing.T) {
	t.Parallel()

	// A tag name with metacharacters must be matched literally.
	got, err := FindRegions("<a.b>x</a.b> <axb>y</axb>", []string{"a.b"})
	if err != nil {
		t.Fatalf("FindRegions() unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Content != "x" {
		t.Errorf("FindRegions() = %+v, want one region with content %q", got, "x")
	}
}

// ---------------------------------------------------------------------------
// TestFindRegions_ByteOffsets - Offsets index the original bytes
// ---------------------------------------------------------------------------

func TestFindRegions_ByteOffsets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		text    string
		content string
	}{
		{name: "multibyte text before", text: "héllo wörld <code>x</code> tail", content: "x"},
		{name: "invalid bytes before", text: "a\xff\xfe b <code>x</code> tail", content: "x"},
		{name: "invalid bytes at start", text: "\xff\xff\xff\xff<code>x</code>", content: "x"},
		{name: "invalid bytes inside", text: "<code>\xe9t\xe9</code>", content: "\xe9t\xe9"},
		{name: "truncated sequence before", text: "\xe2\x82 <pre>é</pre>", content: "é"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := FindRegions(tt.text, []string{"code", "pre"})
			if err != nil {
				t.Fatalf("FindRegions() unexpected error: %v", err)
			}
			if len(got) != 1 {
				t.Fatalf("FindRegions() = %d regions, want 1", len(got))
			}
			r := got[0]
			if r.Content != tt.content {
				t.Errorf("Content = %q, want %q", r.Content, tt.content)
			}
			if span := tt.text[r.Start:r.End]; span != r.Open+r.Content+r.Close {
				t.Errorf("text[Start:End] = %q, want %q", span, r.Open+r.Content+r.Close)
			}
		})
	}
}

func TestPatternKey_OrderInsensitive(t *testing.T) {
	t.Parallel()

	_, a := patternKey([]string{"pre", "code"})
	_, b := patternKey([]string{"code", "pre"})
	if a != b {
		t.Errorf("patternKey differs by order: %q vs %q", a, b)
	}
}

func TestPatternCache_Bounded(t *testing.T) {
	t.Parallel()

	c := &patternCache{m: make(map[string]*regexp2.Regexp)}
	for i := range maxCachedPatterns + 10 {
		tag := "t" + strconv.Itoa(i)
		re, err := regionPattern([]string{tag})
		if err != nil {
			t.Fatalf("regionPattern(%q) unexpected error: %v", tag, err)
		}
		c.put(tag, re)
	}
	if got := c.len(); got != maxCachedPatterns {
		t.Errorf("cache size = %d, want %d", got, maxCachedPatterns)
	}
	if patterns.len() > maxCachedPatterns {
		t.Errorf("shared cache size = %d, want at most %d", patterns.len(), maxCachedPatterns)
	}
}
