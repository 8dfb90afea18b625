package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"keeptrack/internal/platform/config"
)

const (
	formatText = "text"
	formatJSON = "json"
)

// rootOptions carries the global flags and the loaded configuration to
// every subcommand.
type rootOptions struct {
	format string
	cfg    config.Config
}

func newRootCommand(load func() (config.Config, error)) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "keeptrackctl",
		Short:         "Operate a keeptrack deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if !slices.Contains([]string{formatText, formatJSON}, opts.format) {
				return fmt.Errorf("invalid format %q: must be %s or %s", opts.format, formatText, formatJSON)
			}
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			opts.cfg = cfg
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.format, "format", formatText, "output format (text|json)")

	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newTokenCommand(opts))
	cmd.AddCommand(newListCommand(opts))
	return cmd
}
