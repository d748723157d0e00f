package db

import (
	"context"
	"database/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"github.com/yakoovad/hackathon-teams/internal/db/migrations"
	"go.uber.org/zap"
	"time"
)

const migrationTimeout = time.Minute

// Migrator applies the embedded schema migrations.
type Migrator struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewMigrator(pool *pgxpool.Pool, logger *zap.Logger) *Migrator {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(gooseLogger{l: logger.Sugar()})

	return &Migrator{pool: pool, logger: logger}
}

func (m *Migrator) Up(ctx context.Context) error {
	return m.withDB(ctx, func(ctx context.Context, db *sql.DB) error {
		m.logger.Info("applying migrations")
		if err := goose.UpContext(ctx, db, "."); err != nil {
			return errors.Wrap(err, "apply migrations")
		}
		m.logger.Info("migrations applied")
		return nil
	})
}

// Down rolls back the latest migration, or everything above target when target > 0.
func (m *Migrator) Down(ctx context.Context, target int64) error {
	return m.withDB(ctx, func(ctx context.Context, db *sql.DB) error {
		if target > 0 {
			m.logger.Info("rolling back migrations", zap.Int64("target", target))
			return errors.Wrapf(goose.DownToContext(ctx, db, ".", target), "rollback to version %d", target)
		}

		m.logger.Info("rolling back latest migration")
		return errors.Wrap(goose.DownContext(ctx, db, "."), "rollback latest migration")
	})
}

func (m *Migrator) Status(ctx context.Context) error {
	return m.withDB(ctx, func(_ context.Context, db *sql.DB) error {
		return errors.Wrap(goose.Status(db, "."), "migration status")
	})
}

func (m *Migrator) withDB(ctx context.Context, fn func(context.Context, *sql.DB) error) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "configure goose")
	}

	db := stdlib.OpenDBFromPool(m.pool)
	defer db.Close()

	runCtx, cancel := context.WithTimeout(ctx, migrationTimeout)
	defer cancel()

	return fn(runCtx, db)
}

type gooseLogger struct {
	l *zap.SugaredLogger
}

func (g gooseLogger) Printf(format string, v ...any) { g.l.Infof(format, v...) }
func (g gooseLogger) Fatalf(format string, v ...any) { g.l.Fatalf(format, v...) }
