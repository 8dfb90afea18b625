package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	jwttoken "keeptrack/internal/jwt_token"
	"keeptrack/pkg/requestcontext"
)

func newTokenCommand(opts *rootOptions) *cobra.Command {
	caller := &requestcontext.Caller{}
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a caller",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if caller.ID == "" {
				return errors.New("--id is required")
			}
			if ttl <= 0 {
				return fmt.Errorf("--ttl must be positive, got %s", ttl)
			}
			tokens := jwttoken.NewService(opts.cfg.Server.JWTSigningKey, opts.cfg.Server.JWTIssuer)
			token, err := tokens.Issue(caller, ttl)
			if err != nil {
				return err
			}
			if opts.format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]string{
					"token":      token,
					"expires_at": time.Now().Add(ttl).UTC().Format(time.RFC3339),
				})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&caller.ID, "id", "", "caller id")
	cmd.Flags().StringVar(&caller.Type, "type", "User", "caller type")
	cmd.Flags().StringVar(&caller.Name, "name", "", "display name")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
