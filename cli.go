// ABOUTME: Replay mode implementation for headless trace runs
// ABOUTME: Replays traces in parallel on the worker pool and prints a table or JSON report

package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"scrollspeed/config"
	"scrollspeed/pool"
	"scrollspeed/trace"
)

// ReplayOptions contains options for the replay command
type ReplayOptions struct {
	Paths       []string
	JSON        bool
	Workers     int
	Settle      time.Duration
	UseSettings bool // Start from the settings file instead of the defaults
	Dispatches  bool // Also list every dispatch in the table output
}

func newReplayCmd(a *app) *cobra.Command {
	var opts ReplayOptions

	cmd := &cobra.Command{
		Use:   "replay trace.yaml...",
		Short: "Replay recorded wheel traces headlessly",
		Long: `Replay runs each trace against the scroll engine on a virtual clock and reports
what scrolled: dispatches, flings and final offsets. Traces run in parallel;
press Ctrl+C to stop early.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts.Paths = args
			return a.RunReplay(ctx, cmd.OutOrStdout(), opts)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.JSON, "json", false, "print results as JSON")
	f.IntVar(&opts.Workers, "workers", 0, "parallel replays (default: number of CPUs)")
	f.DurationVar(&opts.Settle, "settle", trace.DefaultSettle, "longest time to wait for flings after the last event")
	f.BoolVar(&opts.UseSettings, "use-settings", false, "start from the settings file instead of the defaults")
	f.BoolVar(&opts.Dispatches, "dispatches", false, "list every dispatch")

	return cmd
}

// RunReplay executes replay mode
func (a *app) RunReplay(ctx context.Context, w io.Writer, opts ReplayOptions) error {
	base := config.DefaultSettings()
	if opts.UseSettings {
		base = a.loadSettings()
	}

	results, err := replayAll(ctx, opts, base, a.logger)
	if err != nil {
		return err
	}

	if opts.JSON {
		data, err := trace.MarshalJSON(results)
		if err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	return writeReport(w, results, opts.Dispatches, a.logger)
}

// replayAll loads and replays every trace on the worker pool, keeping argument order
func replayAll(ctx context.Context, opts ReplayOptions, base config.Settings, logger *zap.Logger) ([]*trace.Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	p := pool.NewWorkerPool(opts.Workers, len(opts.Paths))
	defer p.Close()

	results := make([]*trace.Result, len(opts.Paths))
	start := time.Now()

	err := pool.Run(ctx, p, opts.Paths, func(ctx context.Context, i int, path string) error {
		t, err := trace.Load(path)
		if err != nil {
			return err
		}

		settings := base
		r, err := trace.Replay(ctx, t, trace.Options{
			Logger:   logger,
			Settings: &settings,
			Settle:   opts.Settle,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		results[i] = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("replay finished",
		zap.Int("traces", len(results)),
		zap.Int("workers", p.Workers()),
		zap.Uint64("completed", p.Completed()),
		zap.Duration("elapsed", time.Since(start)))

	return results, nil
}

// writeReport prints the summary, offset and optional dispatch tables
func writeReport(out io.Writer, results []*trace.Result, dispatches bool, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	if _, err := fmt.Fprintln(w, "Trace\tEvents\tInput ms\tHandled\tPassed\tFwd\tFlings\tSuppr\tFling px\tEnd ms\tIdle"); err != nil {
		logger.Warn("failed to write header", zap.Error(err))
	}
	if _, err := fmt.Fprintln(w, "-----\t------\t--------\t-------\t------\t---\t------\t-----\t--------\t------\t----"); err != nil {
		logger.Warn("failed to write separator", zap.Error(err))
	}

	for _, r := range results {
		fx, fy := r.FlingDistance()
		if _, err := fmt.Fprintf(w, "%s\t%d\t%.1f\t%d\t%d\t%d\t%d\t%d\t%.1f\t%.1f\t%v\n",
			truncate(r.Name, 30),
			r.Events,
			r.InputMs,
			r.Handled,
			r.PassedThrough,
			r.Forwarded,
			r.FlingsStarted,
			r.FlingsSuppressed,
			math.Hypot(fx, fy),
			r.EndMs,
			r.Idle,
		); err != nil {
			logger.Warn("failed to write result", zap.String("trace", r.Name), zap.Error(err))
		}
	}

	if _, err := fmt.Fprintln(w, "\nTrace\tElement\tX\tY"); err != nil {
		logger.Warn("failed to write header", zap.Error(err))
	}
	for _, r := range results {
		for _, o := range r.Offsets {
			if _, err := fmt.Fprintf(w, "%s\t%s\t%.1f\t%.1f\n", truncate(r.Name, 30), truncate(o.Target, 50), o.X, o.Y); err != nil {
				logger.Warn("failed to write offset", zap.Error(err))
			}
		}
	}

	if dispatches {
		if _, err := fmt.Fprintln(w, "\nTrace\tAt ms\tElement\tDX\tDY\tKind"); err != nil {
			logger.Warn("failed to write header", zap.Error(err))
		}
		for _, r := range results {
			for _, d := range r.Dispatches {
				kind := "wheel"
				if d.Fling {
					kind = "fling"
				}
				if _, err := fmt.Fprintf(w, "%s\t%.1f\t%s\t%.2f\t%.2f\t%s\n",
					truncate(r.Name, 30), d.AtMs, truncate(d.Target, 50), d.DX, d.DY, kind); err != nil {
					logger.Warn("failed to write dispatch", zap.Error(err))
				}
			}
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}
