// ABOUTME: TUI mode wiring: page, settings, hub, watcher and the Bubble Tea program
// ABOUTME: Runs the settings watcher and the terminal host side by side under one errgroup

package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"scrollspeed/config"
	"scrollspeed/tui"
)

// runTUI hosts a page in the terminal until the user quits
func (a *app) runTUI(ctx context.Context, pagePath string) error {
	doc, name, err := loadPage(pageOptions{
		Path:       pagePath,
		Host:       a.v.GetString("host"),
		Fullscreen: a.v.GetBool("fullscreen"),
		Logger:     a.logger,
	})
	if err != nil {
		return err
	}

	shared := config.NewSharedSettings(a.loadSettings())
	hub := config.NewHub(config.WithLogger(a.logger))

	watcher, err := config.NewWatcher(a.settingsPath, config.WithLogger(a.logger))
	if err != nil {
		return fmt.Errorf("failed to watch settings: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			a.logger.Warn("failed to close settings watcher", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	changes, watch := watchSettings(ctx, watcher, shared, a.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(watch)
	g.Go(func() error {
		// Quitting the TUI stops the watcher
		defer cancel()

		return tui.Run(gctx, tui.Options{
			PageName:   name,
			WheelStep:  a.v.GetFloat64("wheel-step"),
			ConfigPath: a.settingsPath,
			DryRun:     a.v.GetBool("dry-run"),
		}, tui.Dependencies{
			Page:         doc,
			Shared:       shared,
			Hub:          hub,
			Writer:       &settingsFileWriter{path: a.settingsPath},
			Logger:       a.logger.Sugar(),
			Changes:      changes,
			EngineLogger: a.logger,
		})
	})

	return g.Wait()
}
