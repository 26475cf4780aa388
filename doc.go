// Package preserve keeps the formatting of code in HTML-ish text intact
// while an auto-formatter (Markdown, paragraph wrapping) runs over it.
//
// # Quick Start
//
// Create a preserver and filter text through a formatter:
//
//	p := preserve.NewPreserver()
//
//	html, err := p.Filter(ctx, preserve.ChannelContent,
//	    "Example <code>if ( $a  &&  $b ) {}</code>",
//	    preserve.DefaultOptions(),
//	    preserve.NewMarkdownFormatter(),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// The code region comes back escaped, with its double spaces kept as
// &nbsp;, while the surrounding text is wrapped in a paragraph.
//
// # Filtering Pipeline
//
// Filter runs three stages:
//
//  1. Extract: every <tag>...</tag> region named by Options.PreserveTags is
//     transformed (line endings normalized, HTML escaped, tabs and space runs
//     kept visible) and swapped for an opaque placeholder token
//  2. Format: each Formatter runs over the text with the tokens in place
//  3. Restore: the tokens are replaced by the transformed regions
//
// Extract and Restore are also exported for hosts that run their own
// formatters between them:
//
//	text, placeholders := p.Extract(raw, opts)
//	text = myFormatter(text)
//	text = p.Restore(text, placeholders)
//
// Text carrying a block editor code marker (<!-- wp:code by default) is
// left alone; see WithBlockMarkers.
//
// # Options
//
// Options are persisted as one YAML record under SettingName. Settings
// caches the record and merges it onto DefaultOptions:
//
//	store := preserve.NewFileStore("/var/lib/preserve")
//	settings := preserve.NewSettings(store)
//
//	opts, err := settings.Load(ctx)
//	opts, err = settings.Update(ctx, map[string]any{"nl2br": true}, true)
//
// Three stores ship with the package: MemoryStore, FileStore and
// SQLiteStore.
package preserve
