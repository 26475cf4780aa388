package main

import (
	"context"
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	preserve "github.com/alnah/go-preserve"
	"github.com/alnah/go-preserve/internal/assets"
	"github.com/alnah/go-preserve/internal/config"
	"github.com/alnah/go-preserve/internal/hints"
	"github.com/alnah/go-preserve/internal/logger"
)

// Sentinel errors for command dispatch and setup.
var (
	ErrUsage          = errors.New("invalid usage")
	ErrUnknownCommand = errors.New("unknown command")
	ErrOpenStore      = errors.New("failed to open options store")
)

func usageError(err error) error {
	return fmt.Errorf("%w: %w", ErrUsage, err)
}

// runMain dispatches args[1:] and returns the process exit code.
func runMain(ctx context.Context, args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	cmd, rest := args[1], args[2:]
	var err error
	switch cmd {
	case "render":
		err = runRender(ctx, rest, env)
	case "config":
		err = runConfig(ctx, rest, env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "preserve %s\n", Version)
	case "help", "-h", "--help":
		err = runHelp(rest, env)
	default:
		err = fmt.Errorf("%w: %q (run 'preserve help')", ErrUnknownCommand, cmd)
	}

	if err != nil {
		fmt.Fprintf(env.Stderr, "preserve: %v%s\n", err, hintFor(err))
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error) string {
	switch {
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(config.AppDir, config.Name, config.SearchDirs())
	case errors.Is(err, ErrOpenStore):
		var se *storeError
		if errors.As(err, &se) {
			return hints.ForOpenStore(se.path)
		}
		return hints.ForOpenStore("")
	case errors.Is(err, ErrUnknownKey):
		return hints.ForUnknownKey(preserve.Keys)
	case errors.Is(err, preserve.ErrUnknownChannel):
		names := make([]string, len(preserve.Channels))
		for i, ch := range preserve.Channels {
			names[i] = string(ch)
		}
		return hints.ForChannel(names)
	case errors.Is(err, ErrCreateOutputDir):
		return hints.ForOutputDirectory()
	case errors.Is(err, assets.ErrStyleNotFound):
		return hints.ForStyleNotFound(assets.NewEmbeddedLoader().StyleNames())
	}
	return ""
}

// storeError records which store failed to open.
type storeError struct {
	path string
	err  error
}

func (e *storeError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrOpenStore, e.path, e.err)
}

func (e *storeError) Unwrap() []error { return []error{ErrOpenStore, e.err} }

func runHelp(args []string, env *Environment) error {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return nil
	}
	switch args[0] {
	case "render":
		printRenderUsage(env.Stdout)
	case "config":
		printConfigUsage(env.Stdout)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, args[0])
	}
	return nil
}

// session bundles what every command needs once flags are parsed.
type session struct {
	cfg      *config.Config
	log      *zap.Logger
	store    preserve.Store
	settings *preserve.Settings
	close    func() error
}

// openSession loads the config, builds the logger and opens the store.
// Callers must call close.
func openSession(ctx context.Context, common commonFlags, fs *flag.FlagSet, env *Environment) (*session, error) {
	cfg, err := config.LoadConfig(common.config, fs)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	level := cfg.Log.Level
	switch {
	case common.verbose:
		level = "debug"
	case common.quiet:
		level = "error"
	}
	log, err := logger.New(env.Stderr, level)
	if err != nil {
		return nil, err
	}

	store, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	log.Debug("options store opened", zap.String("backend", cfg.Store.Backend), zap.String("path", cfg.Store.Path))

	return &session{
		cfg:      cfg,
		log:      log,
		store:    store,
		settings: preserve.NewSettings(store, preserve.WithSettingsLogger(log)),
		close: func() error {
			_ = log.Sync()
			return closeStore()
		},
	}, nil
}

func openStore(ctx context.Context, sc config.StoreConfig) (preserve.Store, func() error, error) {
	noop := func() error { return nil }
	switch sc.Backend {
	case config.BackendMemory:
		return preserve.NewMemoryStore(), noop, nil
	case config.BackendFile:
		return preserve.NewFileStore(sc.Path), noop, nil
	case config.BackendSQLite:
		s, err := preserve.OpenSQLiteStore(ctx, sc.Path)
		if err != nil {
			return nil, nil, &storeError{path: sc.Path, err: err}
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: backend %q", config.ErrInvalidValue, sc.Backend)
	}
}
