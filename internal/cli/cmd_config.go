package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/agb-planner/planner/internal/config"
)

type setting struct {
	key   string
	value any
}

// settings lists the effective value of every configuration key.
func settings(cfg *config.Config) []setting {
	secret := ""
	if cfg.Server.Auth.Secret != "" {
		secret = "********"
	}
	return []setting{
		{"storage.driver", cfg.Storage.Driver},
		{"storage.dsn", cfg.Storage.DSN},
		{"storage.mongo.database", cfg.Storage.Mongo.Database},
		{"storage.operation_timeout", cfg.Storage.OperationTimeout},
		{"storage.fixtures", cfg.Storage.Fixtures},
		{"server.addr", cfg.Server.Addr},
		{"server.auth.secret", secret},
		{"server.auth.required", cfg.Server.Auth.Required},
		{"notifications.log_path", cfg.Notifications.LogPath},
		{"notifications.prune_interval", cfg.Notifications.PruneInterval},
		{"notifications.reminder_interval", cfg.Notifications.ReminderInterval},
		{"log.format", cfg.Log.Format},
		{"log.level", cfg.Log.Level},
	}
}

func formatValue(v any) string {
	switch v := v.(type) {
	case time.Duration:
		return v.String()
	case string:
		if v == "" {
			return "-"
		}
		return v
	default:
		return fmt.Sprint(v)
	}
}

func newConfigCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Show every configuration key with its effective value after planner.yaml,
.env and PLANNER_* environment overrides, and the variable that overrides it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tVALUE\tENV")
			for _, s := range settings(cfg) {
				fmt.Fprintf(w, "%s\t%s\t%s\n", s.key, formatValue(s.value), config.EnvVar(s.key))
			}
			return w.Flush()
		},
	}
}
