package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/agb-planner/planner/internal/planner"
	"github.com/agb-planner/planner/internal/storage"
)

func newRemindersCmd(opts *globalOptions) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "List tasks due tomorrow, overdue tasks and upcoming milestones",
		Long: `Run the reminder scan once against the configured storage and print
the results. The same scan runs every notifications.reminder_interval while
serving.

Milestones are listed when they are not completed and fall due within 30 days.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			logger := opts.logger(cfg.Log, cmd.ErrOrStderr())

			store, err := storage.Open(cmd.Context(), cfg.Storage, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			svc := planner.New(store, planner.WithLogger(logger))
			r, err := svc.CheckReminders(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(r)
			}
			return printReminders(out, r)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")
	return cmd
}

func printReminders(out io.Writer, r *planner.Reminders) error {
	section := func(title string, n int) {
		heading := fmt.Sprintf("%s (%d)", title, n)
		if isTerminal(out) {
			heading = headingStyle.Render(heading)
		}
		fmt.Fprintln(out, heading)
	}
	day := func(t time.Time) string { return t.UTC().Format(time.DateOnly) }

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	section("Due tomorrow", len(r.DueTomorrow))
	for _, t := range r.DueTomorrow {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", t.ID, t.Title, orDash(t.Assignee), day(*t.DueDate))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	section("Overdue", len(r.Overdue))
	for _, t := range r.Overdue {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", t.ID, t.Title, orDash(t.Assignee), day(*t.DueDate))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	section("Milestones due within 30 days", len(r.UpcomingMilestones))
	for _, m := range r.UpcomingMilestones {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", m.ID, m.Title, m.Status, day(m.DueDate))
	}
	return w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
