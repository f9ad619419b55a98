// ABOUTME: Settings subcommands for inspecting and editing the settings file
// ABOUTME: Reads and writes single preference keys through the key/value store

package main

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"scrollspeed/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit scroll settings",
		Long: `Read and write individual settings keys. Running instances pick up
changes written here. Known keys:

  ` + keyList(),
	}

	cmd.AddCommand(
		newConfigPathCmd(a),
		newConfigShowCmd(a),
		newConfigGetCmd(a),
		newConfigSetCmd(a),
		newConfigResetCmd(a),
	)

	return cmd
}

func newConfigPathCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the settings file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), a.settingsPath)
			return err
		},
	}
}

func newConfigShowCmd(a *app) *cobra.Command {
	var effective bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print every setting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.readStored(cmd.Context())
			if err != nil {
				return err
			}
			if effective {
				s = config.ApplyPlatformDefault(s, runtime.GOOS)
			}
			return writeSettings(cmd.OutOrStdout(), s)
		},
	}
	cmd.Flags().BoolVar(&effective, "effective", false, "show the scroll factor engines use on this platform")

	return cmd
}

func newConfigGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print one setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.readStored(cmd.Context())
			if err != nil {
				return err
			}

			v, err := config.FormatValue(s, args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), v)
			return err
		},
	}
}

func newConfigSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Validate and store one setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			v, err := config.ParseValue(key, args[1])
			if err != nil {
				return err
			}

			store := config.NewFileStore(a.settingsPath)
			if err := store.Set(cmd.Context(), key, v); err != nil {
				return err
			}

			// A hand-picked factor only takes effect with custom settings on
			if key == config.KeyScrollFactor {
				if err := store.Set(cmd.Context(), config.KeyCustomSetting, true); err != nil {
					return err
				}
			}

			a.logger.Info("setting stored",
				zap.String("key", key),
				zap.Any("value", v),
				zap.String("path", store.Path()))

			return nil
		},
	}
}

func newConfigResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Remove every stored setting so defaults apply",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := config.NewFileStore(a.settingsPath)
			if err := store.Reset(cmd.Context()); err != nil {
				return err
			}

			a.logger.Info("settings reset", zap.String("path", store.Path()))
			return nil
		},
	}
}

// readStored reads the settings file through the key/value store
func (a *app) readStored(ctx context.Context) (config.Settings, error) {
	store := config.NewFileStore(a.settingsPath)
	s, err := config.ReadSettings(ctx, store, a.logger)
	if err != nil {
		return s, err
	}

	// Overrides are not part of the key/value view
	loaded, err := config.LoadSettings(a.settingsPath)
	if err != nil {
		a.logger.Warn("overrides unreadable", zap.Error(err))
		return s, nil
	}
	s.Overrides = loaded.Overrides

	return s, nil
}

// writeSettings prints keys in sorted order followed by host overrides
func writeSettings(out io.Writer, s config.Settings) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	for _, key := range config.Keys() {
		v, err := config.FormatValue(s, key)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\n", key, v)
	}

	if len(s.Overrides) > 0 {
		hosts := make([]string, 0, len(s.Overrides))
		for h := range s.Overrides {
			hosts = append(hosts, h)
		}
		sort.Strings(hosts)

		fmt.Fprintln(w, "\nHost\tRedirect\tSelector\tFullscreen only")
		for _, h := range hosts {
			r := s.Overrides[h]
			fmt.Fprintf(w, "%s\t%s\t%s\t%v\n", h, r.Redirect, truncate(r.Selector, 40), r.FullscreenOnly)
		}
	}

	return w.Flush()
}

func keyList() string {
	return strings.Join(config.Keys(), ", ")
}
