// ABOUTME: Partial settings updates pushed to running engines
// ABOUTME: Merge validates each present field and keeps prior values for invalid ones

package config

import (
	"fmt"
	"reflect"
	"strings"
)

// SettingsUpdate carries the fields that changed; nil fields are left alone
type SettingsUpdate struct {
	ScrollFactor     *float64
	FlingEnabled     *bool
	FlingFriction    *float64
	FlingThreshold   *float64
	DisableExtension *bool
	SmoothScroll     *bool

	// Overrides replaces the whole override table when non-nil
	Overrides map[string]OverrideRule
}

// IsEmpty reports whether the update carries no fields
func (u SettingsUpdate) IsEmpty() bool {
	return u.ScrollFactor == nil && u.FlingEnabled == nil && u.FlingFriction == nil &&
		u.FlingThreshold == nil && u.DisableExtension == nil && u.SmoothScroll == nil &&
		u.Overrides == nil
}

// Merge applies the update on top of s
// Invalid fields are skipped and reported; valid fields are still applied
func (u SettingsUpdate) Merge(s Settings) (Settings, []error) {
	var errs []error

	if u.ScrollFactor != nil {
		if err := ValidateScrollFactor(*u.ScrollFactor); err != nil {
			errs = append(errs, err)
		} else {
			s.ScrollFactor = *u.ScrollFactor
		}
	}
	if u.FlingEnabled != nil {
		s.FlingEnabled = *u.FlingEnabled
	}
	if u.FlingFriction != nil {
		if err := ValidateFlingFriction(*u.FlingFriction); err != nil {
			errs = append(errs, err)
		} else {
			s.FlingFriction = *u.FlingFriction
		}
	}
	if u.FlingThreshold != nil {
		if err := ValidateFlingThreshold(*u.FlingThreshold); err != nil {
			errs = append(errs, err)
		} else {
			s.FlingThreshold = *u.FlingThreshold
		}
	}
	if u.DisableExtension != nil {
		s.DisableExtension = *u.DisableExtension
	}
	if u.SmoothScroll != nil {
		s.SmoothScroll = *u.SmoothScroll
	}
	if u.Overrides != nil {
		var overrideErrs []error
		s.Overrides, overrideErrs = sanitizeOverrides(u.Overrides)
		errs = append(errs, overrideErrs...)
	}

	return s, errs
}

// Diff returns an update carrying every field that differs between old and updated
func Diff(old, updated Settings) SettingsUpdate {
	var u SettingsUpdate

	if old.ScrollFactor != updated.ScrollFactor {
		u.ScrollFactor = ptr(updated.ScrollFactor)
	}
	if old.FlingEnabled != updated.FlingEnabled {
		u.FlingEnabled = ptr(updated.FlingEnabled)
	}
	if old.FlingFriction != updated.FlingFriction {
		u.FlingFriction = ptr(updated.FlingFriction)
	}
	if old.FlingThreshold != updated.FlingThreshold {
		u.FlingThreshold = ptr(updated.FlingThreshold)
	}
	if old.DisableExtension != updated.DisableExtension {
		u.DisableExtension = ptr(updated.DisableExtension)
	}
	if old.SmoothScroll != updated.SmoothScroll {
		u.SmoothScroll = ptr(updated.SmoothScroll)
	}
	if !reflect.DeepEqual(normalizeOverrides(old.Overrides), normalizeOverrides(updated.Overrides)) {
		u.Overrides = normalizeOverrides(updated.Overrides)
	}

	return u
}

// FullUpdate returns an update carrying every engine-relevant field of s
func FullUpdate(s Settings) SettingsUpdate {
	return SettingsUpdate{
		ScrollFactor:     ptr(s.ScrollFactor),
		FlingEnabled:     ptr(s.FlingEnabled),
		FlingFriction:    ptr(s.FlingFriction),
		FlingThreshold:   ptr(s.FlingThreshold),
		DisableExtension: ptr(s.DisableExtension),
		SmoothScroll:     ptr(s.SmoothScroll),
		Overrides:        normalizeOverrides(s.Overrides),
	}
}

// String lists the fields the update carries, for logs
func (u SettingsUpdate) String() string {
	var parts []string
	if u.ScrollFactor != nil {
		parts = append(parts, fmt.Sprintf("scroll_factor=%g", *u.ScrollFactor))
	}
	if u.FlingEnabled != nil {
		parts = append(parts, fmt.Sprintf("fling_enabled=%t", *u.FlingEnabled))
	}
	if u.FlingFriction != nil {
		parts = append(parts, fmt.Sprintf("fling_friction=%g", *u.FlingFriction))
	}
	if u.FlingThreshold != nil {
		parts = append(parts, fmt.Sprintf("fling_threshold=%g", *u.FlingThreshold))
	}
	if u.DisableExtension != nil {
		parts = append(parts, fmt.Sprintf("disable_extension=%t", *u.DisableExtension))
	}
	if u.SmoothScroll != nil {
		parts = append(parts, fmt.Sprintf("smooth_scroll=%t", *u.SmoothScroll))
	}
	if u.Overrides != nil {
		parts = append(parts, fmt.Sprintf("overrides=%d", len(u.Overrides)))
	}
	if len(parts) == 0 {
		return "{}"
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// normalizeOverrides maps nil to an empty table so "no overrides" compares equal
func normalizeOverrides(m map[string]OverrideRule) map[string]OverrideRule {
	out := make(map[string]OverrideRule, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}

// Float64 returns a pointer to v, for building updates
func Float64(v float64) *float64 { return &v }

// Bool returns a pointer to v, for building updates
func Bool(v bool) *bool { return &v }
