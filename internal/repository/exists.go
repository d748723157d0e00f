package repository

import (
	"context"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/yakoovad/hackathon-teams/internal/db"
)

type queryBuilder interface {
	Build(ctx context.Context) (string, []any, error)
}

// queryExists runs a single-row lookup and reports whether it matched.
func queryExists(ctx context.Context, e db.Executor, q queryBuilder) (bool, error) {
	sql, args, err := q.Build(ctx)
	if err != nil {
		return false, err
	}

	var one int
	err = e.QueryRow(ctx, sql, args...).Scan(&one)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}
