// ABOUTME: Entry point for scrollspeed
// ABOUTME: Builds the cobra command tree, binds options through viper, and routes to TUI, replay or config

// Package main provides the entry point for scrollspeed, a momentum wheel scrolling engine
// with an interactive terminal host, a headless trace replayer, and a settings tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"scrollspeed/config"
)

const envPrefix = "SCROLLSPEED"

// app carries state shared by every command
type app struct {
	v            *viper.Viper
	logger       *zap.Logger
	settingsPath string
	stopProfile  func()
}

func main() {
	os.Exit(run())
}

func run() int {
	a := &app{v: viper.New()}
	root := newRootCmd(a)

	err := root.ExecuteContext(context.Background())
	a.teardown()

	if err != nil {
		if a.logger != nil {
			a.logger.Error("command failed", zap.Error(err))
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		return 1
	}

	return 0
}

// newRootCmd builds the command tree; the root command runs the TUI
func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "scrollspeed [page.html]",
		Short: "Momentum wheel scrolling with live-tunable settings",
		Long: `scrollspeed scales mouse wheel scrolling and continues it with a decaying fling.

Without a subcommand it opens a page in the terminal (a built-in demo when no
page is given) next to a settings panel. Edits are saved to the settings file
and picked up by every running instance.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// The TUI owns the terminal, so it only logs to the file
			return a.setup(cmd == cmd.Root())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			page := ""
			if len(args) == 1 {
				page = args[0]
			}
			return a.runTUI(cmd.Context(), page)
		},
	}

	pf := root.PersistentFlags()
	pf.String("settings", "", "settings file (default ./scrollspeed.toml or ~/.config/scrollspeed/config.toml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-file", "", "also write JSON logs to this file (rotated)")
	pf.Bool("debug", false, "enable debug logging to "+defaultDebugLog)
	pf.String("cpuprofile", "", "write cpu profile to file")
	pf.String("memprofile", "", "write memory profile to file")

	f := root.Flags()
	f.String("host", "", "host name the page is treated as (selects host overrides)")
	f.Float64("wheel-step", 120, "px scrolled by one wheel notch")
	f.Bool("dry-run", false, "edit settings without writing the settings file")
	f.Bool("fullscreen", false, "start the page in fullscreen state")

	a.bindFlags(root)

	root.AddCommand(newReplayCmd(a), newConfigCmd(a))

	return root
}

// bindFlags exposes every flag through viper, with SCROLLSPEED_* environment overrides
func (a *app) bindFlags(cmd *cobra.Command) {
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if err := a.v.BindPFlags(cmd.PersistentFlags()); err != nil {
		log.Printf("Warning: failed to bind flags: %v", err)
	}
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		log.Printf("Warning: failed to bind flags: %v", err)
	}
}

// setup builds the logger, resolves the settings path and starts profiling
func (a *app) setup(interactive bool) error {
	opts := logOptions{
		Level: a.v.GetString("log-level"),
		File:  a.v.GetString("log-file"),
	}
	if a.v.GetBool("debug") {
		opts.Level = "debug"
		if opts.File == "" {
			opts.File = defaultDebugLog
		}
	}
	if !interactive {
		opts.Console = os.Stderr
	}

	logger, err := newLogger(opts)
	if err != nil {
		return err
	}
	a.logger = logger

	a.settingsPath = a.v.GetString("settings")
	if a.settingsPath == "" {
		a.settingsPath = config.GetConfigPath()
	}

	if path := a.v.GetString("cpuprofile"); path != "" {
		stop, err := setupCPUProfile(path)
		if err != nil {
			return err
		}
		a.stopProfile = stop
	}

	a.logger.Debug("starting",
		zap.String("settings", a.settingsPath),
		zap.String("goos", runtime.GOOS))

	return nil
}

// teardown stops profiling and flushes the logger
func (a *app) teardown() {
	if a.stopProfile != nil {
		a.stopProfile()
		a.stopProfile = nil
	}

	if path := a.v.GetString("memprofile"); path != "" {
		writeMemoryProfile(path)
	}

	if a.logger != nil {
		// Sync on a terminal reports EINVAL or ENOTTY
		if err := a.logger.Sync(); err != nil && !errors.Is(err, syscall.EINVAL) && !errors.Is(err, syscall.ENOTTY) {
			log.Printf("Warning: failed to flush logs: %v", err)
		}
	}
}

// loadSettings reads the settings file and applies the platform scroll factor
func (a *app) loadSettings() config.Settings {
	s, problems, err := config.ReadSettingsFile(a.settingsPath)
	if err != nil {
		a.logger.Warn("using default settings", zap.String("path", a.settingsPath), zap.Error(err))
	}
	for _, p := range problems {
		a.logger.Warn("settings key unusable, using default", zap.String("path", a.settingsPath), zap.Error(p))
	}

	return config.ApplyPlatformDefault(s, runtime.GOOS)
}

// setupCPUProfile starts CPU profiling, returns cleanup function
func setupCPUProfile(filename string) (func(), error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("could not create CPU profile: %w", err)
	}

	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("could not start CPU profile: %w", err)
	}

	return func() {
		pprof.StopCPUProfile()

		if err := f.Close(); err != nil {
			log.Printf("Warning: failed to close CPU profile: %v", err)
		}
	}, nil
}

// writeMemoryProfile writes memory profile to file
func writeMemoryProfile(filename string) {
	f, err := os.Create(filename)
	if err != nil {
		log.Printf("could not create memory profile: %v", err)

		return
	}

	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Warning: failed to close memory profile: %v", err)
		}
	}()

	runtime.GC()

	if err := pprof.WriteHeapProfile(f); err != nil {
		log.Printf("could not write memory profile: %v", err)
	}
}
