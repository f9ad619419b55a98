// ABOUTME: Key/value view of the settings file used by the settings UI and engine startup
// ABOUTME: Accepts loosely typed values (string booleans, integer floats) like a browser storage area

package config

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
)

// Preference keys
const (
	KeyScrollFactor     = "scroll_factor"
	KeyFlingEnabled     = "fling_enabled"
	KeyFlingFriction    = "fling_friction"
	KeyFlingThreshold   = "fling_threshold"
	KeyCustomSetting    = "custom_setting"
	KeyDisableExtension = "disable_extension"
	KeySmoothScroll     = "smooth_scroll"
)

type keyKind int

const (
	kindFloat keyKind = iota
	kindBool
)

var knownKeys = map[string]keyKind{
	KeyScrollFactor:     kindFloat,
	KeyFlingEnabled:     kindBool,
	KeyFlingFriction:    kindFloat,
	KeyFlingThreshold:   kindFloat,
	KeyCustomSetting:    kindBool,
	KeyDisableExtension: kindBool,
	KeySmoothScroll:     kindBool,
}

// Keys returns the known preference keys in sorted order
func Keys() []string {
	keys := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Store is an asynchronous key/value preference store
type Store interface {
	// Get returns the raw stored value; ok is false when the key is absent
	Get(ctx context.Context, key string) (value any, ok bool, err error)
	// Set validates and persists one value
	Set(ctx context.Context, key string, value any) error
}

// FileStore stores preferences as top-level keys of the TOML settings file
type FileStore struct {
	path string
}

// NewFileStore returns a store over the settings file at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path
func (s *FileStore) Path() string {
	return s.path
}

// Get reads key from the settings file
func (s *FileStore) Get(ctx context.Context, key string) (any, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if _, known := knownKeys[key]; !known {
		return nil, false, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	raw, err := s.readRaw()
	if err != nil {
		return nil, false, err
	}

	v, ok := raw[key]
	return v, ok, nil
}

// Set validates value for key and writes it into the settings file
// Other keys in the file are preserved
func (s *FileStore) Set(ctx context.Context, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	coerced, err := CoerceValue(key, value)
	if err != nil {
		return err
	}

	raw, err := s.readRaw()
	if err != nil {
		return err
	}
	raw[key] = coerced

	return s.writeRaw(raw)
}

// Reset removes every known key, leaving defaults to apply on the next read
func (s *FileStore) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := s.readRaw()
	if err != nil {
		return err
	}
	for k := range knownKeys {
		delete(raw, k)
	}

	return s.writeRaw(raw)
}

func (s *FileStore) readRaw() (map[string]any, error) {
	raw := make(map[string]any)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return raw, nil
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}

	return raw, nil
}

func (s *FileStore) writeRaw(raw map[string]any) error {
	return writeTOML(s.path, raw)
}

// CoerceValue converts a loosely typed value to the key's type and validates its range
func CoerceValue(key string, value any) (any, error) {
	kind, known := knownKeys[key]
	if !known {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	switch kind {
	case kindFloat:
		f, err := toFloat(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, key, err)
		}
		if err := validateFloat(key, f); err != nil {
			return nil, err
		}
		return f, nil
	default:
		b, err := toBool(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, key, err)
		}
		return b, nil
	}
}

// ParseValue parses a command-line string for key
func ParseValue(key, s string) (any, error) {
	return CoerceValue(key, s)
}

// ReadSettings reads every known key from store, falling back to the default
// for keys that are missing, unreadable or invalid
func ReadSettings(ctx context.Context, store Store, logger *zap.Logger) (Settings, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := DefaultSettings()
	for _, key := range Keys() {
		raw, ok, err := store.Get(ctx, key)
		if err != nil {
			if ctx.Err() != nil {
				return DefaultSettings(), ctx.Err()
			}
			logger.Warn("settings key unreadable, using default", zap.String("key", key), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}

		v, err := CoerceValue(key, raw)
		if err != nil {
			logger.Warn("settings value invalid, using default", zap.String("key", key), zap.Error(err))
			continue
		}
		assign(&s, key, v)
	}

	return s, nil
}

// FormatValue renders the value of key in s for display
func FormatValue(s Settings, key string) (string, error) {
	switch key {
	case KeyScrollFactor:
		return strconv.FormatFloat(s.ScrollFactor, 'f', -1, 64), nil
	case KeyFlingEnabled:
		return strconv.FormatBool(s.FlingEnabled), nil
	case KeyFlingFriction:
		return strconv.FormatFloat(s.FlingFriction, 'f', -1, 64), nil
	case KeyFlingThreshold:
		return strconv.FormatFloat(s.FlingThreshold, 'f', -1, 64), nil
	case KeyCustomSetting:
		return strconv.FormatBool(s.CustomSetting), nil
	case KeyDisableExtension:
		return strconv.FormatBool(s.DisableExtension), nil
	case KeySmoothScroll:
		return strconv.FormatBool(s.SmoothScroll), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
}

func assign(s *Settings, key string, v any) {
	switch key {
	case KeyScrollFactor:
		s.ScrollFactor = v.(float64)
	case KeyFlingEnabled:
		s.FlingEnabled = v.(bool)
	case KeyFlingFriction:
		s.FlingFriction = v.(float64)
	case KeyFlingThreshold:
		s.FlingThreshold = v.(float64)
	case KeyCustomSetting:
		s.CustomSetting = v.(bool)
	case KeyDisableExtension:
		s.DisableExtension = v.(bool)
	case KeySmoothScroll:
		s.SmoothScroll = v.(bool)
	}
}

func validateFloat(key string, f float64) error {
	switch key {
	case KeyScrollFactor:
		return ValidateScrollFactor(f)
	case KeyFlingFriction:
		return ValidateFlingFriction(f)
	case KeyFlingThreshold:
		return ValidateFlingThreshold(f)
	}
	return nil
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", x)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

func toBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return false, fmt.Errorf("not a boolean: %q", x)
	default:
		return false, fmt.Errorf("unsupported type %T", v)
	}
}
