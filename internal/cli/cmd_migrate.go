package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agb-planner/planner/internal/config"
	perrors "github.com/agb-planner/planner/internal/errors"
	"github.com/agb-planner/planner/internal/storage"
)

// openPrimary opens the configured persistent backend. The memory driver
// has none and is reported as a configuration error.
func openPrimary(cmd *cobra.Command, cfg *config.Config) (storage.Backend, error) {
	if cfg.Storage.Driver == config.DriverMemory {
		return nil, perrors.ErrConfigInvalid("storage.driver", "the memory driver has no persistent store")
	}
	b, err := storage.OpenPrimary(cmd.Context(), cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Driver, err)
	}
	return b, nil
}

func newMigrateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the persistent store's tables or indexes",
		Long: `Create any missing tables (SQLite, PostgreSQL) or indexes (MongoDB) for
the configured storage driver. Safe to run repeatedly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			b, err := openPrimary(cmd, cfg)
			if err != nil {
				return err
			}
			defer b.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "%s storage is up to date\n", b.Name())
			return nil
		},
	}
}
