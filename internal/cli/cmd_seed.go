package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agb-planner/planner/internal/storage"
)

func newSeedCmd(opts *globalOptions) *cobra.Command {
	var fixtures string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load fixtures into the persistent store",
		Long: `Load teams, projects, milestones and tasks from a fixtures file into the
configured persistent store. Use "builtin" for the bundled demo data.

Team names are unique, so seeding the same fixtures twice fails with a
conflict on the first team.

Example:
  planner seed
  planner seed --fixtures ./fixtures.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			if fixtures == "" {
				fixtures = cfg.Storage.Fixtures
			}
			if fixtures == "" {
				fixtures = storage.BuiltinFixtures
			}
			fx, err := storage.LoadFixtures(fixtures)
			if err != nil {
				return err
			}

			b, err := openPrimary(cmd, cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			res, err := storage.Seed(cmd.Context(), b, fx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %s storage: %d teams, %d projects, %d milestones, %d tasks\n",
				b.Name(), res.Teams, res.Projects, res.Milestones, res.Tasks)
			return nil
		},
	}

	cmd.Flags().StringVar(&fixtures, "fixtures", "", `fixtures file, or "builtin" (default storage.fixtures, then builtin)`)
	return cmd
}
