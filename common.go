// ABOUTME: Shared initialization code for all modes (TUI, replay, config)
// ABOUTME: Provides logger construction, page loading, and small formatting helpers

package main

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"scrollspeed/dom"
)

const defaultDebugLog = "scrollspeed-debug.log"

// demoPage is shown when the TUI is started without a page
//
//go:embed demo.html
var demoPage string

// logOptions selects where logs go
type logOptions struct {
	Level   string    // zap level name, info when empty or unknown
	File    string    // JSON log file, rotated by lumberjack; empty disables
	Console io.Writer // human readable output; nil disables
}

// newLogger builds a zap logger teeing a console core and a rotating file core
// With neither configured it returns a no-op logger.
func newLogger(opts logOptions) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
	}

	var cores []zapcore.Core

	if opts.Console != nil {
		enc := zap.NewDevelopmentEncoderConfig()
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(enc),
			zapcore.AddSync(opts.Console),
			level,
		))
	}

	if opts.File != "" {
		if dir := filepath.Dir(opts.File); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create log directory: %w", err)
			}
		}
		writer := zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     7, // days
		})
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			writer,
			level,
		))
	}

	if len(cores) == 0 {
		return zap.NewNop(), nil
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddStacktrace(zap.ErrorLevel)).Named("scrollspeed"), nil
}

// pageOptions selects and configures the page to host
type pageOptions struct {
	Path       string // HTML file; the built-in demo when empty
	Host       string
	Fullscreen bool
	Logger     *zap.Logger
}

// loadPage parses the page to host
func loadPage(opts pageOptions) (*dom.Document, string, error) {
	domOpts := dom.Options{
		Host:       opts.Host,
		Fullscreen: opts.Fullscreen,
		Logger:     opts.Logger,
	}

	if opts.Path == "" {
		if domOpts.Host == "" {
			domOpts.Host = "demo.local"
		}
		doc, err := dom.ParseString(demoPage, domOpts)
		if err != nil {
			return nil, "", fmt.Errorf("failed to parse demo page: %w", err)
		}
		logPage(opts.Logger, doc, "demo")
		return doc, "demo", nil
	}

	f, err := os.Open(opts.Path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open page: %w", err)
	}
	defer f.Close()

	doc, err := dom.Parse(f, domOpts)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse page %s: %w", opts.Path, err)
	}

	logPage(opts.Logger, doc, opts.Path)

	return doc, filepath.Base(opts.Path), nil
}

func logPage(logger *zap.Logger, doc *dom.Document, path string) {
	if logger == nil {
		return
	}
	logger.Debug("page loaded",
		zap.String("path", path),
		zap.String("host", doc.Host()),
		zap.Int("frames", len(doc.Frames())),
		zap.Int("scrollables", len(doc.Scrollables())))
}

// truncate shortens string to maxLen, adding "..." if needed
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}

	if maxLen <= 3 {
		return s[:maxLen]
	}

	return s[:maxLen-3] + "..."
}
