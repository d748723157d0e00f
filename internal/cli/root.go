// Package cli wires configuration, storage and services into cobra commands.
package cli

import (
	"context"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/yakoovad/hackathon-teams/internal/auth"
	"github.com/yakoovad/hackathon-teams/internal/config"
	"github.com/yakoovad/hackathon-teams/pkg/logger"
	"go.uber.org/zap"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	EnvFiles []string
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "hackathon-teams",
		Short:         "Hackathon team formation service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringSliceVar(&opts.EnvFiles, "env-file", nil, "dotenv files to load before the environment (default .env)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewPurgeExpiredCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}

// app is the state shared by commands that talk to the database.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	pool   *pgxpool.Pool
}

func loadConfig(opts *RootOptions) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(opts.EnvFiles...)
	if err != nil {
		return config.Config{}, nil, err
	}

	l, err := logger.NewLogger(cfg.LogLevel, cfg.Development())
	if err != nil {
		return config.Config{}, nil, errors.Wrap(err, "create logger")
	}

	auth.TokenSecretKey = cfg.TokenSecret

	return cfg, l, nil
}

func newApp(ctx context.Context, opts *RootOptions) (*app, error) {
	cfg, l, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "connect to database")
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping database")
	}

	l.Info("database connection established")

	return &app{cfg: cfg, logger: l, pool: pool}, nil
}

func (a *app) Close() {
	a.pool.Close()
	_ = a.logger.Sync()
}
