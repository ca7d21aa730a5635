package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/agb-planner/planner/internal/api"
	perrors "github.com/agb-planner/planner/internal/errors"
)

func newTokenCmd(opts *globalOptions) *cobra.Command {
	var (
		userID string
		name   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the API",
		Long: `Issue an HS256 bearer token signed with server.auth.secret, for local
testing of authenticated requests.

Example:
  planner token --user u1 --name "Asha"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			if cfg.Server.Auth.Secret == "" {
				return perrors.ErrConfigInvalid("server.auth.secret", "required to sign tokens")
			}
			token, err := api.NewAuthenticator(cfg.Server.Auth).Sign(userID, name, ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (required)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
