package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// storeFlags selects the options store. Empty values defer to the config.
type storeFlags struct {
	backend string
	path    string
}

// renderFlags holds all flags for the render command.
type renderFlags struct {
	common  commonFlags
	store   storeFlags
	output  string
	format  string
	channel string
	workers int
	rawHTML bool
	rebase  bool
	page    bool
	style   string
	assets  string
}

// configFlags holds all flags for the config command.
type configFlags struct {
	common commonFlags
	store  storeFlags
	dryRun bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs and timing")
}

// addStoreFlags adds options store flags to a FlagSet. Their names match
// the keys bound into the config loader.
func addStoreFlags(fs *flag.FlagSet, f *storeFlags) {
	fs.StringVar(&f.backend, "store", "", "options store: memory, file, sqlite")
	fs.StringVar(&f.path, "store-path", "", "store directory (file) or database (sqlite)")
}

func parseRenderFlags(args []string) (*renderFlags, *flag.FlagSet, []string, error) {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	f := &renderFlags{}
	addCommonFlags(fs, &f.common)
	addStoreFlags(fs, &f.store)
	fs.StringVarP(&f.output, "output", "o", "", "output directory (default: stdout)")
	fs.StringVarP(&f.format, "format", "f", "", "formatter: markdown, none")
	fs.StringVar(&f.channel, "channel", "", "channel: content, excerpt, comment")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.BoolVar(&f.rawHTML, "raw-html", false, "keep inline HTML outside preserved regions")
	fs.BoolVar(&f.rebase, "rebase-links", false, "rewrite relative image and link paths for the output directory")
	fs.BoolVar(&f.page, "page", false, "wrap output in a standalone HTML page")
	fs.StringVar(&f.style, "style", "", "page CSS style name")
	fs.StringVar(&f.assets, "assets", "", "directory with styles/ and templates/ overrides")

	if err := fs.Parse(args); err != nil {
		return nil, nil, nil, usageError(err)
	}
	return f, fs, fs.Args(), nil
}

func parseConfigFlags(args []string) (*configFlags, *flag.FlagSet, []string, error) {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	f := &configFlags{}
	addCommonFlags(fs, &f.common)
	addStoreFlags(fs, &f.store)
	fs.BoolVarP(&f.dryRun, "dry-run", "n", false, "show the result of set without saving it")

	if err := fs.Parse(args); err != nil {
		return nil, nil, nil, usageError(err)
	}
	return f, fs, fs.Args(), nil
}
