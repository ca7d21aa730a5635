// Package cli implements the planner command-line interface.
package cli

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/agb-planner/planner/internal/config"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	cfgFile string
	envFile string
	verbose bool
}

// config loads planner.yaml and PLANNER_* overrides.
func (o *globalOptions) config() (*config.Config, error) {
	return config.Load(o.cfgFile)
}

// logger builds the structured logger described by cfg. --verbose forces
// debug level.
func (o *globalOptions) logger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	if o.verbose {
		cfg.Level = "debug"
	}
	return newLogger(cfg, w)
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// loadEnvFile applies a dotenv file without overriding variables that are
// already set. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func newRootCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "planner",
		Short: "Team project planner with WhatsApp notification links",
		Long: `planner manages teams, projects, tasks and milestones and prepares
WhatsApp click-to-chat links for members mentioned on tasks.

Storage is persistent (SQLite, PostgreSQL or MongoDB) with an in-memory demo
store that takes over when the persistent one fails.

Quick start:
  planner migrate             Create tables or indexes
  planner seed                Load the demo fixtures
  planner serve               Start the JSON API`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnvFile(opts.envFile)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is planner.yaml in ., .planner or ~/.planner)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the config")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging and detailed errors")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newSeedCmd(opts))
	cmd.AddCommand(newNotificationsCmd(opts))
	cmd.AddCommand(newRemindersCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newTokenCmd(opts))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// Execute runs the planner CLI.
func Execute() error {
	opts := &globalOptions{}
	cmd := newRootCmd(opts)
	if err := cmd.Execute(); err != nil {
		PrintError(cmd.ErrOrStderr(), err, opts.verbose)
		return err
	}
	return nil
}
