package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: preserve <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  render     Format text while keeping code regions intact")
	fmt.Fprintln(w, "  config     Show or change the persisted options")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'preserve help <command>' for details on a specific command.")
}

// printRenderUsage prints usage for the render command.
func printRenderUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: preserve render [files...] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run files (or stdin) through the formatter with <code> and <pre>")
	fmt.Fprintln(w, "regions protected. Output goes to stdout unless -o is given.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -o, --output <dir>        Write <name>.html files into dir")
	fmt.Fprintln(w, "  -f, --format <s>          Formatter: markdown, none")
	fmt.Fprintln(w, "      --channel <s>         Channel: content, excerpt, comment")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	fmt.Fprintln(w, "      --raw-html            Keep inline HTML outside preserved regions")
	fmt.Fprintln(w, "      --rebase-links        Rewrite relative image/link paths for the -o directory")
	fmt.Fprintln(w, "      --page                Wrap output in a standalone HTML page")
	fmt.Fprintln(w, "      --style <name>        Page style: default, plain, or one from --assets")
	fmt.Fprintln(w, "      --assets <dir>        Directory with styles/<name>.css or templates/page.html")
	printSharedFlags(w)
}

// printConfigUsage prints usage for the config command.
func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: preserve config <show|set|reset|uninstall> [key=value...] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Subcommands:")
	fmt.Fprintln(w, "  show                      Print the effective options")
	fmt.Fprintln(w, "  set key=value...          Change options and save them")
	fmt.Fprintln(w, "  reset                     Delete saved options (back to defaults)")
	fmt.Fprintln(w, "  uninstall                 Remove every saved trace of the options")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Keys:")
	fmt.Fprintln(w, "  preserve_tags             Tags to protect, e.g. \"code,pre\"")
	fmt.Fprintln(w, "  preserve_in_posts         Protect content and excerpts (true/false)")
	fmt.Fprintln(w, "  preserve_in_comments      Protect comments (true/false)")
	fmt.Fprintln(w, "  wrap_multiline_code_in_pre  Wrap multi-line <code> in <pre>")
	fmt.Fprintln(w, "  use_nbsp_for_spaces       Keep runs of spaces with &nbsp;")
	fmt.Fprintln(w, "  nl2br                     Add <br /> to line breaks in regions")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -n, --dry-run             With set: show the result without saving")
	printSharedFlags(w)
}

func printSharedFlags(w io.Writer) {
	fmt.Fprintln(w, "      --store <s>           Options store: memory, file, sqlite")
	fmt.Fprintln(w, "      --store-path <path>   Store directory (file) or database (sqlite)")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs and timing")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  PRESERVE_STORE_BACKEND, PRESERVE_STORE_PATH, PRESERVE_LOG_LEVEL,")
	fmt.Fprintln(w, "  PRESERVE_RENDER_FORMAT, PRESERVE_RENDER_CHANNEL, PRESERVE_RENDER_WORKERS,")
	fmt.Fprintln(w, "  PRESERVE_RENDER_PAGE, PRESERVE_RENDER_STYLE, PRESERVE_RENDER_ASSETS")
}
