// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"path/filepath"
	"strings"
)

// ForConfigNotFound returns a hint for a missing config file. It suggests
// --config and, when one of the searched directories is the user config
// dir, the file to create there.
func ForConfigNotFound(appDir, name string, searchedDirs []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, dir := range searchedDirs {
		if filepath.Base(dir) == appDir {
			hint += " or create " + filepath.Join(dir, name+".yaml")
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForOpenStore returns a hint for a store that cannot be opened.
func ForOpenStore(path string) string {
	if path == "" {
		return format("use --store memory to run without persisted options")
	}
	return format("check " + path + " is writable, or use --store memory")
}

// ForUnknownKey lists the option keys accepted by config set.
func ForUnknownKey(valid []string) string {
	if len(valid) == 0 {
		return ""
	}
	return format("valid keys: " + strings.Join(valid, ", "))
}

// ForStyleNotFound lists the built-in styles.
func ForStyleNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", ") + ", or add styles/<name>.css under --assets")
}

// ForChannel lists the accepted channel names.
func ForChannel(valid []string) string {
	if len(valid) == 0 {
		return ""
	}
	return format("available: " + strings.Join(valid, ", "))
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}
