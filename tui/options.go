// ABOUTME: TUI mode configuration and injected dependencies
// ABOUTME: Defines what the terminal host needs to run a page with live settings

package tui

import (
	"time"

	"go.uber.org/zap"

	"scrollspeed/config"
	"scrollspeed/dom"
)

// DefaultWheelStep is the px distance of one wheel notch
const DefaultWheelStep = 120.0

// Options contains configuration for running the TUI
type Options struct {
	PageName   string  // Shown in the page panel title
	WheelStep  float64 // px per wheel notch (defaults to DefaultWheelStep)
	ConfigPath string  // Settings file the panel saves to
	DryRun     bool    // If true, setting edits are not written to disk
	GOOS       string  // Platform used for the default scroll factor (defaults to runtime.GOOS)
}

// Dependencies holds all external dependencies for the TUI
// This allows for clean dependency injection and easy testing
type Dependencies struct {
	Page    *dom.Document
	Shared  *config.SharedSettings
	Hub     *config.Hub
	Writer  SettingsWriter
	Logger  Logger
	Changes <-chan SettingsChange // Settings edited by other processes, may be nil

	EngineLogger *zap.Logger      // Passed to every scroll engine, may be nil
	Clock        func() time.Time // Scheduler clock, time.Now when nil
}
