// Package pipeline implements the preserve-region filtering pipeline.
//
// The package handles the three stages of a round trip:
//   - Region matching: locating <tag>...</tag> spans for the configured tags
//   - Extraction: transforming each region's content and swapping the region
//     for an opaque placeholder token
//   - Restoration: substituting placeholders back after formatting
//
// Between extraction and restoration the caller runs any number of
// formatters over the text. Two ship here: the Goldmark Markdown formatter
// and RewriteRelativePaths, which rebases img and link references and may
// re-serialize the HTML it is given. Both only ever see placeholder tokens
// in place of preserved regions.
//
// Page wraps a restored fragment into a standalone HTML document.
//
// Options storage and the public service live in the root preserve package.
package pipeline
