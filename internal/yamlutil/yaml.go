// Package yamlutil wraps YAML encoding of persisted settings records.
// This keeps the YAML library out of the store and settings code.
package yamlutil

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// MaxInputSize limits a stored record (default 64KB). A settings record is
// a handful of keys; anything larger is not ours.
var MaxInputSize = 64 << 10

var (
	ErrNilData        = errors.New("yamlutil: nil or empty data")
	ErrNilDestination = errors.New("yamlutil: nil destination pointer")
	ErrInputTooLarge  = errors.New("yamlutil: input exceeds maximum size")
	ErrNotMapping     = errors.New("yamlutil: document is not a mapping")
)

func checkSize(data []byte) error {
	if len(data) == 0 {
		return ErrNilData
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}
	return nil
}

// Unmarshal decodes a YAML record into v.
func Unmarshal(data []byte, v any) error {
	if err := checkSize(data); err != nil {
		return err
	}
	if v == nil {
		return ErrNilDestination
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("yamlutil: %w", err)
	}
	return nil
}

// UnmarshalMap decodes a YAML mapping into a generic map, keeping only the
// keys present in the document. A null document yields an empty map.
func UnmarshalMap(data []byte) (map[string]any, error) {
	if err := checkSize(data); err != nil {
		return nil, err
	}
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("yamlutil: %w", err)
	}
	switch m := raw.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return m, nil
	default:
		return nil, fmt.Errorf("%w: got %T", ErrNotMapping, raw)
	}
}

// Marshal encodes v as YAML.
func Marshal(v any) ([]byte, error) {
	result, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("yamlutil: %w", err)
	}
	return result, nil
}
