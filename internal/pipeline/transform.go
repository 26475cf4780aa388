package pipeline

import (
	"regexp"
	"strings"
)

// Markup emitted into transformed content.
const (
	nbsp           = "&nbsp;"
	tabReplacement = nbsp + nbsp
	lineBreak      = "<br />"

	// blockTag is the tag whose content is never re-wrapped.
	blockTag = "pre"
	// inlineTag is the tag whose multiline content may be wrapped in blockTag.
	inlineTag = "code"
)

// Precompiled regex patterns for performance.
var (
	// Line ending normalization
	crlfOrCR = regexp.MustCompile(`\r\n?`)

	// Compress more than two consecutive newlines to exactly two
	multipleNewlines = regexp.MustCompile(`\n{3,}`)

	// Two or more consecutive spaces
	spaceRun = regexp.MustCompile(` {2,}`)
)

// htmlEscaper mirrors the classic htmlspecialchars quote-style table:
// single quotes become &#039;, not the &#39; used by html.EscapeString.
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// Rules selects the optional steps of the region transform.
type Rules struct {
	WrapMultilineCode bool // wrap multiline <code> regions in <pre>
	NBSPForSpaces     bool // runs of 2+ spaces become &nbsp; runs
	NL2BR             bool // every newline gains a preceding <br />
}

// TransformContent applies the region transform to raw inner content.
// Order matters: escaping must run before tab and space expansion so the
// inserted entities are not escaped a second time.
func TransformContent(content string, rules Rules) string {
	content = normalizeLineEndings(content)
	content = compressBlankLines(content)
	content = escapeHTML(content)
	content = expandTabs(content)
	if rules.NBSPForSpaces {
		content = preserveSpaceRuns(content)
	}
	if rules.NL2BR {
		content = nl2br(content)
	}
	return content
}

// RenderRegion returns the replacement text for a region: its original tags
// around the transformed content, wrapped in <pre> when the region is a
// multiline inline code span and wrapping is enabled.
func RenderRegion(r Region, rules Rules) string {
	out := r.Open + TransformContent(r.Content, rules) + r.Close
	if shouldWrap(r, rules) {
		out = "<" + blockTag + ">" + out + "</" + blockTag + ">"
	}
	return out
}

func shouldWrap(r Region, rules Rules) bool {
	if !rules.WrapMultilineCode || r.Tag != inlineTag {
		return false
	}
	return strings.Contains(normalizeLineEndings(r.Content), "\n")
}

// normalizeLineEndings converts \r\n and \r to \n.
func normalizeLineEndings(content string) string {
	return crlfOrCR.ReplaceAllString(content, "\n")
}

// compressBlankLines limits consecutive newlines to 2 maximum.
func compressBlankLines(content string) string {
	return multipleNewlines.ReplaceAllString(content, "\n\n")
}

// escapeHTML escapes &, <, >, and both quote characters.
func escapeHTML(content string) string {
	return htmlEscaper.Replace(content)
}

// expandTabs renders each tab as two non-breaking spaces.
func expandTabs(content string) string {
	return strings.ReplaceAll(content, "\t", tabReplacement)
}

// preserveSpaceRuns replaces every space of a multi-space run with &nbsp;.
// Single spaces are left alone so word wrapping still works.
func preserveSpaceRuns(content string) string {
	return spaceRun.ReplaceAllStringFunc(content, func(run string) string {
		return strings.Repeat(nbsp, len(run))
	})
}

// nl2br inserts <br /> before every newline, keeping the newline itself.
func nl2br(content string) string {
	return strings.ReplaceAll(content, "\n", lineBreak+"\n")
}
