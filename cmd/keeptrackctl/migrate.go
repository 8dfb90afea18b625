package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"keeptrack/internal/platform/config"
	"keeptrack/internal/platform/storage"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the activities table of the configured SQL store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.cfg.Store
			if cfg.Backend == config.BackendMemory {
				return errors.New("the memory backend has nothing to migrate")
			}
			cfg.Migrate = true
			p, err := storage.Open(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer p.Close()

			if opts.format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"backend": cfg.Backend, "table": cfg.Table})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "migrated %s table %q\n", cfg.Backend, cfg.Table)
			return err
		},
	}
}
