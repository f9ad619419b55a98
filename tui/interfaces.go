// ABOUTME: Interfaces defining dependencies for the TUI package
// ABOUTME: Allows clean separation and easy testing with mocks

package tui

import "scrollspeed/config"

// SettingsWriter persists settings edited in the panel
type SettingsWriter interface {
	Write(s config.Settings) error
}

// Logger provides debug logging capability
type Logger interface {
	Debugf(format string, args ...interface{})
}

// SettingsChange is a settings file change picked up by the watcher
type SettingsChange struct {
	Settings config.Settings
	Update   config.SettingsUpdate
}
