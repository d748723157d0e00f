package cli

import (
	"github.com/spf13/cobra"
	"github.com/yakoovad/hackathon-teams/internal/db"
)

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, rootOpts, func(m *db.Migrator) error {
				return m.Up(cmd.Context())
			})
		},
	})

	var target int64
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migration, or down to --target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, rootOpts, func(m *db.Migrator) error {
				return m.Down(cmd.Context(), target)
			})
		},
	}
	down.Flags().Int64Var(&target, "target", 0, "version to roll back to (0 rolls back one step)")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, rootOpts, func(m *db.Migrator) error {
				return m.Status(cmd.Context())
			})
		},
	})

	return cmd
}

func withMigrator(cmd *cobra.Command, rootOpts *RootOptions, fn func(*db.Migrator) error) error {
	a, err := newApp(cmd.Context(), rootOpts)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(db.NewMigrator(a.pool, a.logger))
}
