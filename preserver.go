package preserve

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/alnah/go-preserve/internal/pipeline"
)

// Placeholders maps the tokens emitted by one Extract call to their
// rendered regions.
type Placeholders = pipeline.Placeholders

// Channel names the kind of text passing through Filter.
type Channel string

// Channels.
const (
	ChannelContent Channel = "content"
	ChannelExcerpt Channel = "excerpt"
	ChannelComment Channel = "comment"
)

// Channels lists every channel.
var Channels = []Channel{ChannelContent, ChannelExcerpt, ChannelComment}

// ParseChannel maps a name to a Channel, ignoring case and surrounding space.
func ParseChannel(name string) (Channel, error) {
	ch := Channel(strings.ToLower(strings.TrimSpace(name)))
	switch ch {
	case ChannelContent, ChannelExcerpt, ChannelComment:
		return ch, nil
	default:
		return "", fmt.Errorf("%w: %q (valid: content, excerpt, comment)", ErrUnknownChannel, name)
	}
}

// Preserver protects code regions from formatters. It is safe for
// concurrent use; every Extract call owns its Placeholders.
type Preserver struct {
	extractor *pipeline.Extractor
	logger    *zap.Logger
}

// Option configures a Preserver.
type Option func(*Preserver)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(p *Preserver) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithBlockMarkers replaces the markers that make Extract leave text alone.
// Calling it with no markers disables the short-circuit.
func WithBlockMarkers(markers ...string) Option {
	return func(p *Preserver) {
		p.extractor.BlockMarkers = append([]string(nil), markers...)
	}
}

// WithNonce sets the nonce source used in placeholder tokens.
// Panics if fn is nil (programmer error).
func WithNonce(fn func() string) Option {
	if fn == nil {
		panic("preserve: WithNonce function must not be nil")
	}
	return func(p *Preserver) {
		p.extractor.NewNonce = fn
	}
}

// NewPreserver returns a Preserver with the default block markers.
func NewPreserver(opts ...Option) *Preserver {
	p := &Preserver{
		extractor: pipeline.NewExtractor(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Extract swaps every region of text named by opts.PreserveTags for a
// placeholder token. Text holding a block marker is returned unchanged. If
// the region scanner fails the text is returned unchanged and the failure
// is logged; extraction itself never fails.
func (p *Preserver) Extract(text string, opts Options) (string, *Placeholders) {
	out, placeholders, err := p.extractor.Extract(text, opts.PreserveTags, opts.rules())
	if err != nil {
		p.logger.Warn("region scan failed, leaving text as is", zap.Error(err), zap.Int("bytes", len(text)))
	}
	return out, placeholders
}

// Restore replaces the tokens of placeholders found in text with their
// rendered regions. Tokens that are absent from text are ignored.
func (p *Preserver) Restore(text string, placeholders *Placeholders) string {
	return placeholders.Restore(text)
}

// Filter runs text through the formatters with preserved regions hidden
// behind placeholders. When opts disable the channel, the formatters run on
// the raw text.
func (p *Preserver) Filter(ctx context.Context, ch Channel, text string, opts Options, formatters ...Formatter) (string, error) {
	if _, err := ParseChannel(string(ch)); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	enabled := opts.Preserves(ch)
	var placeholders *Placeholders
	if enabled {
		text, placeholders = p.Extract(text, opts)
	}

	for i, f := range formatters {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		out, err := f.Format(ctx, text)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			return "", fmt.Errorf("%w: formatter %d: %v", ErrFormat, i, err)
		}
		text = out
	}

	if !enabled {
		return text, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if missing := placeholders.Missing(text); len(missing) > 0 {
		p.logger.Warn("formatter dropped preserved regions",
			zap.String("channel", string(ch)),
			zap.Int("missing", len(missing)),
			zap.Int("total", placeholders.Len()),
		)
	}
	return p.Restore(text, placeholders), nil
}
