package cli

import (
	"fmt"
	"github.com/spf13/cobra"
	"github.com/yakoovad/hackathon-teams/internal/db"
	"github.com/yakoovad/hackathon-teams/internal/repository"
	"github.com/yakoovad/hackathon-teams/internal/service"
	"github.com/yakoovad/hackathon-teams/pkg/logger"
)

// NewPurgeExpiredCommand removes expired invitations and applications. Meant for cron.
func NewPurgeExpiredCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "purge-expired",
		Short: "Delete team requests whose 48h window has passed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			requests := service.NewTeamRequestService(db.NewPgxTransactor(a.pool)).
				WithTeamRequestRepo(repository.NewPgxTeamRequestRepository(a.pool))

			ctx := logger.WithLogger(cmd.Context(), a.logger)
			n, serr := requests.PurgeExpired(ctx)
			if serr != nil {
				return serr
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "purged %d expired team requests\n", n)
			return err
		},
	}
}
