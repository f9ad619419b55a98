// ABOUTME: Scroll preference management backed by a TOML settings file
// ABOUTME: Handles loading/saving settings with per-field fallback to defaults

// Package config owns the user's scroll preferences: the settings file, the
// key/value store view of it, and the propagation of changes to running engines.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Default values used whenever a preference is missing or unusable
const (
	DefaultScrollFactor   = 1.0
	DefaultFlingFriction  = 0.95
	DefaultFlingThreshold = 1.0

	// MaxScrollFactor is the largest factor the settings UI accepts
	MaxScrollFactor = 1000.0
)

var (
	// ErrUnknownKey is returned for preference keys the store does not know
	ErrUnknownKey = errors.New("unknown settings key")
	// ErrInvalidValue is returned when a value is outside the key's accepted range
	ErrInvalidValue = errors.New("invalid settings value")
)

// Settings is an immutable snapshot of the scroll preferences
type Settings struct {
	// Core engine parameters
	ScrollFactor   float64 `toml:"scroll_factor"`   // Multiplier applied to every wheel delta
	FlingEnabled   bool    `toml:"fling_enabled"`   // Momentum scrolling after input stops
	FlingFriction  float64 `toml:"fling_friction"`  // Per-frame velocity retention, (0,1)
	FlingThreshold float64 `toml:"fling_threshold"` // Minimum px/ms speed to start a fling

	// Settings UI state
	CustomSetting    bool `toml:"custom_setting"`    // false: scroll factor follows the platform default
	DisableExtension bool `toml:"disable_extension"` // true: every event passes through untouched
	SmoothScroll     bool `toml:"smooth_scroll"`     // false: host smooth scrolling is forced off

	// Per-host target redirection
	Overrides map[string]OverrideRule `toml:"overrides,omitempty"`
}

// OverrideRule redirects scrolling on one host to a different element
type OverrideRule struct {
	Redirect       string `toml:"redirect" yaml:"redirect" json:"redirect"`                                                    // "root" or "selector"
	Selector       string `toml:"selector,omitempty" yaml:"selector,omitempty" json:"selector,omitempty"`                      // XPath, used with Redirect = "selector"
	FullscreenOnly bool   `toml:"fullscreen_only,omitempty" yaml:"fullscreen_only,omitempty" json:"fullscreen_only,omitempty"` // Only redirect while the page is fullscreen
}

// Override redirect kinds
const (
	RedirectRoot     = "root"
	RedirectSelector = "selector"
)

// DefaultSettings returns the documented defaults
func DefaultSettings() Settings {
	return Settings{
		ScrollFactor:   DefaultScrollFactor,
		FlingEnabled:   true,
		FlingFriction:  DefaultFlingFriction,
		FlingThreshold: DefaultFlingThreshold,
		SmoothScroll:   true,
	}
}

// PlatformScrollFactor returns the scroll factor used when custom settings are off
func PlatformScrollFactor(goos string) float64 {
	switch goos {
	case "linux":
		return 0.15
	case "windows", "darwin":
		return 1.0
	default:
		return DefaultScrollFactor
	}
}

// ApplyPlatformDefault replaces the scroll factor with the platform value
// unless the user opted into custom settings
func ApplyPlatformDefault(s Settings, goos string) Settings {
	if !s.CustomSetting {
		s.ScrollFactor = PlatformScrollFactor(goos)
	}

	return s
}

// GetConfigPath returns the default settings file path
// First tries current directory, then falls back to ~/.config/scrollspeed/config.toml
func GetConfigPath() string {
	if _, err := os.Stat("./scrollspeed.toml"); err == nil {
		return "./scrollspeed.toml"
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "./scrollspeed.toml"
	}

	return filepath.Join(home, ".config", "scrollspeed", "config.toml")
}

// LoadSettings loads settings from a TOML file
// Missing file yields defaults without error; missing or unusable keys keep their defaults
func LoadSettings(path string) (Settings, error) {
	s, _, err := ReadSettingsFile(path)
	return s, err
}

// ReadSettingsFile loads settings key by key, like ReadSettings does through a Store
// problems lists the keys that fell back to their default; err is set only when the
// file cannot be read or is not valid TOML, and then every key is a default.
func ReadSettingsFile(path string) (s Settings, problems []error, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil, nil
		}
		return DefaultSettings(), nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	return DecodeSettings(data)
}

// DecodeSettings parses settings file contents with per-key fallback to defaults
func DecodeSettings(data []byte) (Settings, []error, error) {
	raw := make(map[string]any)
	if err := toml.Unmarshal(data, &raw); err != nil {
		return DefaultSettings(), nil, fmt.Errorf("failed to parse settings file: %w", err)
	}

	var problems []error
	s := DefaultSettings()
	for _, key := range Keys() {
		v, ok := raw[key]
		if !ok {
			continue
		}
		coerced, err := CoerceValue(key, v)
		if err != nil {
			problems = append(problems, err)
			continue
		}
		assign(&s, key, coerced)
	}

	if _, ok := raw["overrides"]; ok {
		var table struct {
			Overrides map[string]OverrideRule `toml:"overrides"`
		}
		if err := toml.Unmarshal(data, &table); err != nil {
			problems = append(problems, fmt.Errorf("%w: overrides: %v", ErrInvalidValue, err))
		} else {
			var errs []error
			s.Overrides, errs = sanitizeOverrides(table.Overrides)
			problems = append(problems, errs...)
		}
	}

	return s, problems, nil
}

// SaveSettings saves settings to a TOML file
// The file is replaced atomically so watchers and readers never see a partial write
func SaveSettings(path string, settings Settings) error {
	// Round float values to 2 decimal places to match UI precision
	settings = roundSettingsPrecision(settings)

	return writeTOML(path, settings)
}

// writeTOML encodes v to a temp file next to path and renames it into place
func writeTOML(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".scrollspeed-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create settings file: %w", err)
	}
	tmpName := tmp.Name()

	if err := toml.NewEncoder(tmp).Encode(v); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close settings file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace settings file: %w", err)
	}

	return nil
}

// Sanitize replaces out-of-range values with defaults
// Returns the repaired settings and one error per replaced field
func Sanitize(s Settings) (Settings, []error) {
	var errs []error
	defaults := DefaultSettings()

	if err := ValidateScrollFactor(s.ScrollFactor); err != nil {
		errs = append(errs, err)
		s.ScrollFactor = defaults.ScrollFactor
	}
	if err := ValidateFlingFriction(s.FlingFriction); err != nil {
		errs = append(errs, err)
		s.FlingFriction = defaults.FlingFriction
	}
	if err := ValidateFlingThreshold(s.FlingThreshold); err != nil {
		errs = append(errs, err)
		s.FlingThreshold = defaults.FlingThreshold
	}

	if len(s.Overrides) > 0 {
		var overrideErrs []error
		s.Overrides, overrideErrs = sanitizeOverrides(s.Overrides)
		errs = append(errs, overrideErrs...)
	}

	return s, errs
}

// sanitizeOverrides returns a copy of m without the invalid rules
func sanitizeOverrides(m map[string]OverrideRule) (map[string]OverrideRule, []error) {
	var errs []error
	kept := make(map[string]OverrideRule, len(m))
	for host, rule := range m {
		if err := rule.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("override %q: %w", host, err))
			continue
		}
		kept[host] = rule
	}
	return kept, errs
}

// ValidateScrollFactor checks the factor is in (0, MaxScrollFactor]
func ValidateScrollFactor(v float64) error {
	if math.IsNaN(v) || v <= 0 || v > MaxScrollFactor {
		return fmt.Errorf("%w: scroll_factor %v not in (0, %v]", ErrInvalidValue, v, MaxScrollFactor)
	}
	return nil
}

// ValidateFlingFriction checks the friction is in (0, 1)
func ValidateFlingFriction(v float64) error {
	if math.IsNaN(v) || v <= 0 || v >= 1 {
		return fmt.Errorf("%w: fling_friction %v not in (0, 1)", ErrInvalidValue, v)
	}
	return nil
}

// ValidateFlingThreshold checks the threshold is non-negative
func ValidateFlingThreshold(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%w: fling_threshold %v must be >= 0", ErrInvalidValue, v)
	}
	return nil
}

// Validate checks the rule names a known redirect and carries what it needs
func (r OverrideRule) Validate() error {
	switch r.Redirect {
	case RedirectRoot:
		return nil
	case RedirectSelector:
		if r.Selector == "" {
			return fmt.Errorf("%w: selector redirect without selector", ErrInvalidValue)
		}
		return nil
	default:
		return fmt.Errorf("%w: redirect %q", ErrInvalidValue, r.Redirect)
	}
}

// roundSettingsPrecision rounds all float64 fields to 2 decimal places
func roundSettingsPrecision(s Settings) Settings {
	round := func(x float64) float64 {
		return math.Round(x*100) / 100
	}

	s.ScrollFactor = round(s.ScrollFactor)
	s.FlingFriction = round(s.FlingFriction)
	s.FlingThreshold = round(s.FlingThreshold)

	// Rounding must not push a valid value out of range
	if s.ScrollFactor <= 0 {
		s.ScrollFactor = 0.01
	}
	if s.FlingFriction >= 1 {
		s.FlingFriction = 0.99
	}
	if s.FlingFriction <= 0 {
		s.FlingFriction = 0.01
	}

	return s
}
