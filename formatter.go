package preserve

import (
	"context"

	"github.com/alnah/go-preserve/internal/pipeline"
)

// Formatter is an auto-formatting pass run by Filter between extraction and
// restoration. Implementations must pass placeholder tokens through intact.
type Formatter interface {
	Format(ctx context.Context, text string) (string, error)
}

// FormatterFunc adapts a function to Formatter.
type FormatterFunc func(ctx context.Context, text string) (string, error)

// Format calls f.
func (f FormatterFunc) Format(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// NopFormatter returns its input.
type NopFormatter struct{}

// Format returns text unchanged.
func (NopFormatter) Format(_ context.Context, text string) (string, error) {
	return text, nil
}

// MarkdownOption configures the Markdown formatter.
type MarkdownOption func(*markdownConfig)

type markdownConfig struct {
	rawHTML bool
}

// WithRawHTML keeps inline HTML found outside preserved regions. Without it
// that HTML is replaced by a comment.
func WithRawHTML() MarkdownOption {
	return func(c *markdownConfig) {
		c.rawHTML = true
	}
}

// NewMarkdownFormatter returns a Goldmark formatter (GFM, footnotes, hard
// line breaks, XHTML) producing an HTML fragment.
func NewMarkdownFormatter(opts ...MarkdownOption) Formatter {
	var cfg markdownConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return pipeline.NewGoldmarkFormatter(cfg.rawHTML)
}

// NewLinkRebaser returns a formatter that rewrites relative img and link
// references in HTML written next to sourceDir so they resolve from
// targetDir instead (file:// URLs when targetDir is empty). Run it after a
// formatter that produces HTML. It re-serializes the HTML, which only ever
// touches text outside preserved regions.
func NewLinkRebaser(sourceDir, targetDir string) Formatter {
	return FormatterFunc(func(ctx context.Context, text string) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return pipeline.RewriteRelativePaths(text, sourceDir, targetDir)
	})
}
