package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	flag "github.com/spf13/pflag"

	preserve "github.com/alnah/go-preserve"
	"github.com/alnah/go-preserve/internal/yamlutil"
)

// Sentinel errors for the config command.
var (
	ErrUnknownKey  = errors.New("unknown option key")
	ErrInvalidPair = errors.New("expected key=value")
)

func runConfig(ctx context.Context, args []string, env *Environment) error {
	flags, fs, rest, err := parseConfigFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printConfigUsage(env.Stdout)
			return nil
		}
		return err
	}
	if len(rest) == 0 {
		return usageError(errors.New("config needs a subcommand: show, set, reset, uninstall"))
	}

	sub, rest := rest[0], rest[1:]
	if sub != "set" && len(rest) > 0 {
		return usageError(fmt.Errorf("config %s takes no arguments", sub))
	}

	s, err := openSession(ctx, flags.common, fs, env)
	if err != nil {
		return err
	}
	defer func() { _ = s.close() }()

	switch sub {
	case "show":
		opts, err := s.settings.Load(ctx)
		if err != nil {
			return err
		}
		return printOptions(opts, env)

	case "set":
		partial, err := parsePairs(rest)
		if err != nil {
			return err
		}
		opts, err := setOptions(ctx, s.settings, partial, !flags.dryRun)
		if err != nil {
			return err
		}
		if flags.dryRun && !flags.common.quiet {
			fmt.Fprintln(env.Stderr, "dry run: nothing saved")
		}
		if flags.common.quiet {
			return nil
		}
		return printOptions(opts, env)

	case "reset":
		if err := s.settings.Reset(ctx); err != nil {
			return err
		}
		if !flags.common.quiet {
			fmt.Fprintln(env.Stdout, "Options reset to defaults")
		}
		return nil

	case "uninstall":
		if err := s.settings.Uninstall(ctx); err != nil {
			return err
		}
		if !flags.common.quiet {
			fmt.Fprintf(env.Stdout, "Removed %s\n", preserve.SettingName)
		}
		return nil

	default:
		return fmt.Errorf("%w: config %q", ErrUnknownCommand, sub)
	}
}

// setOptions overlays partial on the effective options so that keys not
// named on the command line keep their current value.
func setOptions(ctx context.Context, settings *preserve.Settings, partial map[string]any, persist bool) (preserve.Options, error) {
	current, err := settings.Load(ctx)
	if err != nil {
		return preserve.Options{}, err
	}
	merged := current.AsMap()
	for k, v := range partial {
		merged[k] = v
	}
	return settings.Update(ctx, merged, persist)
}

// parsePairs turns key=value arguments into an option map. Keys must be
// recognized; values are left as strings for the option parser.
func parsePairs(args []string) (map[string]any, error) {
	if len(args) == 0 {
		return nil, usageError(errors.New("config set needs at least one key=value"))
	}

	partial := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPair, arg)
		}
		if !slices.Contains(preserve.Keys, key) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
		}
		partial[key] = value
	}
	return partial, nil
}

func printOptions(opts preserve.Options, env *Environment) error {
	data, err := yamlutil.Marshal(opts)
	if err != nil {
		return err
	}
	_, err = env.Stdout.Write(data)
	return err
}
