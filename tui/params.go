// ABOUTME: Parameter manager for the scroll settings panel
// ABOUTME: Handles slider adjustments with boundary checking and boolean toggles

package tui

import (
	"math"

	"scrollspeed/config"
)

// Parameter is one row of the settings panel
// Sliders point Value into the edited settings; toggles point Flag.
type Parameter struct {
	Name  string
	Key   string // settings file key
	Value *float64
	Flag  *bool
	Min   float64
	Max   float64
	Step  float64
}

// IsToggle reports whether the parameter is a boolean
func (p *Parameter) IsToggle() bool {
	return p.Flag != nil
}

// newParameters builds the panel rows over s
func newParameters(s *config.Settings) []Parameter {
	return []Parameter{
		{Name: "Scroll Factor", Key: config.KeyScrollFactor, Value: &s.ScrollFactor, Min: 0.05, Max: 5.0, Step: 0.05},
		{Name: "Fling Enabled", Key: config.KeyFlingEnabled, Flag: &s.FlingEnabled},
		{Name: "Fling Friction", Key: config.KeyFlingFriction, Value: &s.FlingFriction, Min: 0.5, Max: 0.99, Step: 0.01},
		{Name: "Fling Threshold", Key: config.KeyFlingThreshold, Value: &s.FlingThreshold, Min: 0, Max: 10, Step: 0.1},
		{Name: "Custom Setting", Key: config.KeyCustomSetting, Flag: &s.CustomSetting},
		{Name: "Smooth Scroll", Key: config.KeySmoothScroll, Flag: &s.SmoothScroll},
		{Name: "Disable Scrolling", Key: config.KeyDisableExtension, Flag: &s.DisableExtension},
	}
}

// ParamManager manages settings panel adjustments
type ParamManager struct {
	params        []Parameter
	selectedIndex int
}

// NewParamManager creates a new parameter manager
func NewParamManager(params []Parameter) *ParamManager {
	return &ParamManager{
		params:        params,
		selectedIndex: 0,
	}
}

// Selected returns the index of the currently selected parameter
func (pm *ParamManager) Selected() int {
	return pm.selectedIndex
}

// SetSelected sets the selected parameter index
func (pm *ParamManager) SetSelected(index int) {
	if index >= 0 && index < len(pm.params) {
		pm.selectedIndex = index
	}
}

// SelectNext moves selection to the next parameter
func (pm *ParamManager) SelectNext() {
	if pm.selectedIndex < len(pm.params)-1 {
		pm.selectedIndex++
	}
}

// SelectPrevious moves selection to the previous parameter
func (pm *ParamManager) SelectPrevious() {
	if pm.selectedIndex > 0 {
		pm.selectedIndex--
	}
}

// Increase raises the selected slider by one step or switches a toggle on
// Returns true if the value was changed
func (pm *ParamManager) Increase() bool {
	param := pm.GetSelected()
	if param == nil {
		return false
	}

	if param.IsToggle() {
		if *param.Flag {
			return false
		}
		*param.Flag = true
		return true
	}

	newVal := roundStep(*param.Value + param.Step)
	if newVal > param.Max {
		return false
	}
	*param.Value = newVal
	return true
}

// Decrease lowers the selected slider by one step or switches a toggle off
// Returns true if the value was changed
func (pm *ParamManager) Decrease() bool {
	param := pm.GetSelected()
	if param == nil {
		return false
	}

	if param.IsToggle() {
		if !*param.Flag {
			return false
		}
		*param.Flag = false
		return true
	}

	newVal := roundStep(*param.Value - param.Step)
	if newVal < param.Min {
		return false
	}
	*param.Value = newVal
	return true
}

// Toggle flips the selected toggle
// Returns false for sliders
func (pm *ParamManager) Toggle() bool {
	param := pm.GetSelected()
	if param == nil || !param.IsToggle() {
		return false
	}
	*param.Flag = !*param.Flag
	return true
}

// ResetToDefaults copies every panel field from defaults
func (pm *ParamManager) ResetToDefaults(defaults config.Settings) {
	for i := range pm.params {
		p := &pm.params[i]
		switch p.Key {
		case config.KeyScrollFactor:
			*p.Value = defaults.ScrollFactor
		case config.KeyFlingEnabled:
			*p.Flag = defaults.FlingEnabled
		case config.KeyFlingFriction:
			*p.Value = defaults.FlingFriction
		case config.KeyFlingThreshold:
			*p.Value = defaults.FlingThreshold
		case config.KeyCustomSetting:
			*p.Flag = defaults.CustomSetting
		case config.KeySmoothScroll:
			*p.Flag = defaults.SmoothScroll
		case config.KeyDisableExtension:
			*p.Flag = defaults.DisableExtension
		}
	}
}

// Get returns the parameter at the given index
func (pm *ParamManager) Get(index int) *Parameter {
	if index >= 0 && index < len(pm.params) {
		return &pm.params[index]
	}
	return nil
}

// GetSelected returns the currently selected parameter
func (pm *ParamManager) GetSelected() *Parameter {
	return pm.Get(pm.selectedIndex)
}

// Len returns the number of parameters
func (pm *ParamManager) Len() int {
	return len(pm.params)
}

// All returns all parameters (for rendering)
func (pm *ParamManager) All() []Parameter {
	return pm.params
}

// roundStep keeps repeated steps on two decimals, matching the saved precision
func roundStep(v float64) float64 {
	return math.Round(v*100) / 100
}
