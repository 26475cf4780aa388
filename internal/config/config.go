package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/alnah/go-preserve/internal/fileutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
	ErrFieldTooLong   = errors.New("field exceeds maximum length")
	ErrInvalidValue   = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength    = 4096
	MaxBackendLength = 16
	MaxLevelLength   = 16
	MaxFormatLength  = 16
	MaxChannelLength = 16
	MaxStyleLength   = 64
	MaxWorkers       = 256
)

const (
	// Name is the config file base name searched for when none is given.
	Name = "preserve"
	// AppDir is the directory under the user config dir holding our files.
	AppDir = "go-preserve"
	// EnvPrefix prefixes environment overrides (PRESERVE_STORE_BACKEND, ...).
	EnvPrefix = "PRESERVE"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Render formats.
const (
	FormatMarkdown = "markdown"
	FormatNone     = "none"
)

// Config holds the command line tool configuration.
type Config struct {
	Store  StoreConfig  `mapstructure:"store"`
	Log    LogConfig    `mapstructure:"log"`
	Render RenderConfig `mapstructure:"render"`
}

// StoreConfig selects where options are persisted.
type StoreConfig struct {
	Backend string `mapstructure:"backend"` // "memory", "file", "sqlite" (default: "file")
	Path    string `mapstructure:"path"`    // Directory for file, database file for sqlite
}

// LogConfig defines diagnostic output.
type LogConfig struct {
	Level string `mapstructure:"level"` // "debug", "info", "warn", "error" (default: "warn")
}

// RenderConfig defines defaults for the render command.
type RenderConfig struct {
	Format      string `mapstructure:"format"`       // "markdown" or "none" (default: "markdown")
	Channel     string `mapstructure:"channel"`      // "content", "excerpt", "comment" (default: "content")
	Workers     int    `mapstructure:"workers"`      // 0 = GOMAXPROCS
	RawHTML     bool   `mapstructure:"raw_html"`     // Let the Markdown formatter keep inline HTML
	RebaseLinks bool   `mapstructure:"rebase_links"` // Rewrite relative img/a paths for the output dir
	Page        bool   `mapstructure:"page"`         // Wrap output in a standalone HTML page
	Style       string `mapstructure:"style"`        // Page CSS style name (default: "default")
	Assets      string `mapstructure:"assets"`       // Directory overriding styles/ and templates/
}

// flagKeys maps command line flag names onto config keys.
var flagKeys = map[string]string{
	"store":        "store.backend",
	"store-path":   "store.path",
	"format":       "render.format",
	"channel":      "render.channel",
	"workers":      "render.workers",
	"raw-html":     "render.raw_html",
	"rebase-links": "render.rebase_links",
	"page":         "render.page",
	"style":        "render.style",
	"assets":       "render.assets",
}

// Validate checks enumerated values and field lengths.
func (c *Config) Validate() error {
	if err := validateFieldLength("store.backend", c.Store.Backend, MaxBackendLength); err != nil {
		return err
	}
	if err := validateFieldLength("store.path", c.Store.Path, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("log.level", c.Log.Level, MaxLevelLength); err != nil {
		return err
	}
	if err := validateFieldLength("render.format", c.Render.Format, MaxFormatLength); err != nil {
		return err
	}
	if err := validateFieldLength("render.channel", c.Render.Channel, MaxChannelLength); err != nil {
		return err
	}
	if err := validateFieldLength("render.style", c.Render.Style, MaxStyleLength); err != nil {
		return err
	}
	if err := validateFieldLength("render.assets", c.Render.Assets, MaxPathLength); err != nil {
		return err
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendFile, BackendSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("%w: store.path is required for the %s backend", ErrInvalidValue, c.Store.Backend)
		}
	default:
		return fmt.Errorf("%w: store.backend %q (valid: memory, file, sqlite)", ErrInvalidValue, c.Store.Backend)
	}

	switch c.Render.Format {
	case FormatMarkdown, FormatNone:
	default:
		return fmt.Errorf("%w: render.format %q (valid: markdown, none)", ErrInvalidValue, c.Render.Format)
	}

	if c.Render.Workers < 0 || c.Render.Workers > MaxWorkers {
		return fmt.Errorf("%w: render.workers %d (valid: 0-%d)", ErrInvalidValue, c.Render.Workers, MaxWorkers)
	}
	return nil
}

func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig() *Config {
	return &Config{
		Store:  StoreConfig{Backend: BackendFile, Path: DefaultStorePath()},
		Log:    LogConfig{Level: "warn"},
		Render: RenderConfig{Format: FormatMarkdown, Channel: "content", Style: "default"},
	}
}

// DefaultStorePath returns the directory holding persisted options.
func DefaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "."+AppDir)
	}
	return filepath.Join(dir, AppDir, "options")
}

// LoadConfig builds the configuration from defaults, an optional config
// file, PRESERVE_* environment variables and changed flags, in increasing
// precedence. An empty nameOrPath searches for preserve.yaml in the working
// directory and the user config dir, and a missing file is not an error.
// A name or path given explicitly must exist.
func LoadConfig(nameOrPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	if err := readConfig(v, nameOrPath); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("render.format", d.Render.Format)
	v.SetDefault("render.channel", d.Render.Channel)
	v.SetDefault("render.workers", d.Render.Workers)
	v.SetDefault("render.raw_html", d.Render.RawHTML)
	v.SetDefault("render.rebase_links", d.Render.RebaseLinks)
	v.SetDefault("render.page", d.Render.Page)
	v.SetDefault("render.style", d.Render.Style)
	v.SetDefault("render.assets", d.Render.Assets)
}

func readConfig(v *viper.Viper, nameOrPath string) error {
	v.SetConfigType("yaml")

	switch {
	case nameOrPath == "":
		v.SetConfigName(Name)
		addSearchPaths(v)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				return nil
			}
			return fmt.Errorf("%w: %v", ErrConfigParse, err)
		}
		return nil

	case fileutil.IsFilePath(nameOrPath):
		if !fileutil.FileExists(nameOrPath) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, nameOrPath)
		}
		v.SetConfigFile(nameOrPath)

	default:
		v.SetConfigName(nameOrPath)
		addSearchPaths(v)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, nameOrPath)
		}
		return fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	return nil
}

func addSearchPaths(v *viper.Viper) {
	for _, dir := range SearchDirs() {
		v.AddConfigPath(dir)
	}
}

// SearchDirs returns the directories searched for a named config file.
func SearchDirs() []string {
	dirs := []string{"."}
	if dir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(dir, AppDir))
	}
	return dirs
}
