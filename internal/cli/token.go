package cli

import (
	"fmt"
	"github.com/spf13/cobra"
	"github.com/yakoovad/hackathon-teams/internal/auth"
)

// NewTokenCommand issues a bearer token for local testing.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue a signed bearer token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, l, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			defer func() { _ = l.Sync() }()

			token, err := auth.GenerateToken(args[0], auth.TokenType(role), cfg.TokenTTL)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&role, "role", string(auth.TokenTypeParticipant), "participant, organizer or admin")

	return cmd
}
