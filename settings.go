package preserve

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/alnah/go-preserve/internal/pipeline"
	"github.com/alnah/go-preserve/internal/yamlutil"
)

// Settings reads and writes the persisted Options record. The first Load
// merges the stored overrides onto DefaultOptions and caches the result;
// later reads come from the cache until Update, Save, Reset or Uninstall
// changes it. Settings is safe for concurrent use.
type Settings struct {
	store  Store
	logger *zap.Logger

	mu     sync.Mutex
	cached *Options
}

// SettingsOption configures Settings.
type SettingsOption func(*Settings)

// WithSettingsLogger sets the logger used for ignored keys and store writes.
func WithSettingsLogger(l *zap.Logger) SettingsOption {
	return func(s *Settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSettings returns Settings backed by store.
func NewSettings(store Store, opts ...SettingsOption) *Settings {
	s := &Settings{store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the effective options. It never writes to the store.
func (s *Settings) Load(ctx context.Context) (Options, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil {
		return s.cached.Clone(), nil
	}

	data, found, err := s.store.Get(ctx, SettingName)
	if err != nil {
		return Options{}, fmt.Errorf("loading %s: %w", SettingName, err)
	}

	opts := DefaultOptions()
	if found && len(data) > 0 {
		stored, err := yamlutil.UnmarshalMap(data)
		if err != nil {
			return Options{}, fmt.Errorf("%w: decoding %s: %v", ErrInvalidOption, SettingName, err)
		}
		merged, ignored, err := MergeOptions(opts, stored)
		if err != nil {
			return Options{}, fmt.Errorf("decoding %s: %w", SettingName, err)
		}
		s.logIgnored(ignored)
		opts = merged
	}

	s.cached = &opts
	return opts.Clone(), nil
}

// Update merges the recognized keys of partial onto DefaultOptions, caches
// the result and, when persist is set, writes it to the store. Unknown keys
// are dropped. Keys absent from partial take their default value, not the
// previously stored one.
func (s *Settings) Update(ctx context.Context, partial map[string]any, persist bool) (Options, error) {
	opts, ignored, err := MergeOptions(DefaultOptions(), partial)
	if err != nil {
		return Options{}, err
	}
	s.logIgnored(ignored)

	s.mu.Lock()
	defer s.mu.Unlock()

	if persist {
		if err := s.write(ctx, opts); err != nil {
			return Options{}, err
		}
	}
	s.cached = &opts
	return opts.Clone(), nil
}

// Save validates and persists a complete record.
func (s *Settings) Save(ctx context.Context, opts Options) error {
	opts = opts.Clone()
	opts.PreserveTags = pipeline.NormalizeTags(opts.PreserveTags)
	if err := opts.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(ctx, opts); err != nil {
		return err
	}
	s.cached = &opts
	return nil
}

// Reset deletes the persisted record; the cache becomes the defaults.
func (s *Settings) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, SettingName); err != nil {
		return fmt.Errorf("resetting %s: %w", SettingName, err)
	}
	defaults := DefaultOptions()
	s.cached = &defaults
	s.logger.Debug("options reset", zap.String("setting", SettingName))
	return nil
}

// Uninstall deletes every persisted trace of the setting and drops the
// cache, so the next Load reads the store again.
func (s *Settings) Uninstall(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, SettingName); err != nil {
		return fmt.Errorf("uninstalling %s: %w", SettingName, err)
	}
	s.cached = nil
	s.logger.Debug("options uninstalled", zap.String("setting", SettingName))
	return nil
}

// write persists opts. Callers hold s.mu.
func (s *Settings) write(ctx context.Context, opts Options) error {
	data, err := yamlutil.Marshal(opts)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", SettingName, err)
	}
	if err := s.store.Set(ctx, SettingName, data); err != nil {
		return fmt.Errorf("saving %s: %w", SettingName, err)
	}
	s.logger.Debug("options saved", zap.String("setting", SettingName), zap.Int("bytes", len(data)))
	return nil
}

func (s *Settings) logIgnored(keys []string) {
	if len(keys) > 0 {
		s.logger.Debug("ignoring unknown option keys", zap.Strings("keys", keys))
	}
}
