package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// ErrHTMLConversion indicates HTML conversion failed.
var ErrHTMLConversion = errors.New("HTML conversion failed")

// GoldmarkFormatter formats Markdown into an HTML fragment using goldmark
// (pure Go). It is the auto-formatter whose paragraph and line break markup
// preserve regions are protected from.
type GoldmarkFormatter struct {
	md goldmark.Markdown
}

// NewGoldmarkFormatter creates a GoldmarkFormatter with GFM extensions.
// With allowRawHTML false, inline HTML outside preserve regions is omitted
// from the output; preserve regions are unaffected either way because they
// are hidden behind placeholders while Goldmark runs.
func NewGoldmarkFormatter(allowRawHTML bool) *GoldmarkFormatter {
	rendererOpts := []renderer.Option{
		html.WithHardWraps(), // Treat newlines as <br>
		html.WithXHTML(),     // Self-closing tags
	}
	if allowRawHTML {
		rendererOpts = append(rendererOpts, html.WithUnsafe())
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,      // Tables, strikethrough, autolinks, task lists
			extension.Footnote, // [^1] footnotes
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(rendererOpts...),
	)
	return &GoldmarkFormatter{md: md}
}

// Format converts Markdown text to an HTML fragment.
// Supports context cancellation via goroutine + select pattern since
// Goldmark doesn't natively support context.
func (f *GoldmarkFormatter) Format(ctx context.Context, text string) (string, error) {
	// Fast path: check context before starting
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}

	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		if err := f.md.Convert([]byte(text), &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrHTMLConversion, err)}
			return
		}
		done <- result{html: buf.String()}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}
