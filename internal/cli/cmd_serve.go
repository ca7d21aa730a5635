package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agb-planner/planner/internal/api"
	"github.com/agb-planner/planner/internal/notify"
	"github.com/agb-planner/planner/internal/planner"
	"github.com/agb-planner/planner/internal/storage"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the planner JSON API.

The persistent store named by storage.driver is opened first. If it cannot be
reached, or fails later, requests are served from the demo store for the rest
of the process. Notification log entries older than 30 days are pruned every
notifications.prune_interval, and tasks due tomorrow, overdue tasks and
milestones due within 30 days are logged every notifications.reminder_interval.

Example:
  planner serve                 # listen on server.addr (default :5000)
  planner serve --addr :8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			logger := opts.logger(cfg.Log, cmd.ErrOrStderr())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := storage.Open(ctx, cfg.Storage, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					logger.Warn("close storage", "error", err)
				}
			}()

			engine, err := notify.NewEngine(cfg.Notifications.LogPath, notify.WithLogger(logger))
			if err != nil {
				return fmt.Errorf("open notification log: %w", err)
			}
			go engine.RunPruner(ctx, cfg.Notifications.PruneInterval)

			svc := planner.New(store, planner.WithNotifier(engine), planner.WithLogger(logger))
			go svc.RunReminders(ctx, cfg.Notifications.ReminderInterval)
			srv := api.New(svc, &api.Config{
				Addr:   cfg.Server.Addr,
				Auth:   cfg.Server.Auth,
				Logger: logger,
			})
			return srv.StartContext(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.addr")
	return cmd
}
