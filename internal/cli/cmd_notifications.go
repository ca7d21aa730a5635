package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/agb-planner/planner/internal/notify"
)

var headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func newNotificationsCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notif"},
		Short:   "Inspect and prune the notification log",
		Long: `Inspect and prune the notification log.

Commands:
  list   Show logged WhatsApp links
  prune  Remove entries older than 30 days`,
	}

	cmd.AddCommand(newNotificationsListCmd(opts))
	cmd.AddCommand(newNotificationsPruneCmd(opts))
	return cmd
}

// openEngine opens the configured notification log.
func openEngine(opts *globalOptions) (*notify.Engine, error) {
	cfg, err := opts.config()
	if err != nil {
		return nil, err
	}
	return notify.NewEngine(cfg.Notifications.LogPath)
}

func newNotificationsListCmd(opts *globalOptions) *cobra.Command {
	var (
		userID  string
		taskID  string
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show logged WhatsApp links",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine(opts)
			if err != nil {
				return err
			}

			var entries []notify.Entry
			switch {
			case taskID != "":
				entries = engine.TaskNotifications(taskID)
			case userID != "":
				entries = engine.UserNotifications(userID)
			default:
				entries = engine.AllNotifications()
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				if entries == nil {
					entries = []notify.Entry{}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No notifications logged.")
				return nil
			}
			return printEntries(out, entries)
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "only entries for this user id")
	cmd.Flags().StringVar(&taskID, "task", "", "only entries for this task id")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")
	return cmd
}

func printEntries(out io.Writer, entries []notify.Entry) error {
	heading := fmt.Sprintf("%d notification(s)", len(entries))
	if isTerminal(out) {
		heading = headingStyle.Render(heading)
	}
	fmt.Fprintln(out, heading)
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SENT\tACTION\tUSER\tNUMBER\tTASK\tPROJECT")
	for _, e := range entries {
		project := e.ProjectName
		if project == "" {
			project = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.SentAt.Local().Format("2006-01-02 15:04"),
			e.Action,
			nameOrID(e.Name, e.UserID),
			e.WhatsappNumber,
			e.TaskTitle,
			project,
		)
	}
	return w.Flush()
}

func nameOrID(name, id string) string {
	if name != "" {
		return name
	}
	return id
}

func newNotificationsPruneCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove entries older than 30 days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine(opts)
			if err != nil {
				return err
			}
			n, err := engine.Prune()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d notification(s) older than %d days\n", n, int(notify.Retention.Hours()/24))
			return nil
		},
	}
}
