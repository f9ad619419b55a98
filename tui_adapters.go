// ABOUTME: Adapter implementations for TUI interfaces
// ABOUTME: Bridges the settings file and its watcher to the TUI contracts

package main

import (
	"context"

	"go.uber.org/zap"

	"scrollspeed/config"
	"scrollspeed/tui"
)

// settingsFileWriter adapts config.SaveSettings to tui.SettingsWriter
type settingsFileWriter struct {
	path string
}

func (w *settingsFileWriter) Write(s config.Settings) error {
	return config.SaveSettings(w.path, s)
}

// watchSettings runs the watcher and forwards effective changes to the TUI
// The channel is closed when the watcher stops.
func watchSettings(ctx context.Context, w *config.Watcher, shared *config.SharedSettings, logger *zap.Logger) (<-chan tui.SettingsChange, func() error) {
	changes := make(chan tui.SettingsChange)

	run := func() error {
		defer close(changes)

		return w.Run(ctx, shared, func(s config.Settings, u config.SettingsUpdate) {
			select {
			case changes <- tui.SettingsChange{Settings: s, Update: u}:
			case <-ctx.Done():
				logger.Debug("dropping settings change on shutdown", zap.Stringer("update", u))
			}
		})
	}

	return changes, run
}
