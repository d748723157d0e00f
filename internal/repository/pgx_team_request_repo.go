package repository

import (
	"context"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/yakoovad/hackathon-teams/internal/db"
	"github.com/yakoovad/hackathon-teams/internal/model"
	"time"
)

var teamRequestColumns = []any{"team_id", "user_id", "direction", "created_at", "expires_at"}

type TeamRequest struct {
	TeamID    string          `db:"team_id"`
	UserID    string          `db:"user_id"`
	Direction model.Direction `db:"direction"`
	CreatedAt time.Time       `db:"created_at"`
	ExpiresAt time.Time       `db:"expires_at"`
}

type TeamRequestRepository interface {
	// Create fails with ErrAlreadyExists when a row for (team, user) is present, expired or not.
	Create(ctx context.Context, req *TeamRequest) error
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, teamID, userID string) (*TeamRequest, error)
	Delete(ctx context.Context, teamID, userID string) error
	ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]*TeamRequest, error)
	ListActiveByTeam(ctx context.Context, teamID string, now time.Time) ([]*TeamRequest, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type pgxTeamRequestRepository struct {
	pool *pgxpool.Pool
}

func NewPgxTeamRequestRepository(pool *pgxpool.Pool) TeamRequestRepository {
	return &pgxTeamRequestRepository{pool: pool}
}

func (p *pgxTeamRequestRepository) Create(ctx context.Context, req *TeamRequest) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("team_request", "team_id", "user_id", "direction", "created_at", "expires_at"),
		im.Values(
			psql.Arg(req.TeamID),
			psql.Arg(req.UserID),
			psql.Arg(string(req.Direction)),
			psql.Arg(req.CreatedAt),
			psql.Arg(req.ExpiresAt),
		),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	_, err = e.Exec(ctx, sql, args...)
	return mapError(err)
}

func (p *pgxTeamRequestRepository) GetForUpdate(ctx context.Context, teamID, userID string) (*TeamRequest, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(teamRequestColumns...),
		sm.From("team_request"),
		sm.Where(
			psql.Quote("team_id").EQ(psql.Arg(teamID)).
				And(psql.Quote("user_id").EQ(psql.Arg(userID))),
		),
		sm.ForUpdate("team_request"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	req := &TeamRequest{}
	if err = e.QueryRow(ctx, sql, args...).Scan(
		&req.TeamID,
		&req.UserID,
		&req.Direction,
		&req.CreatedAt,
		&req.ExpiresAt,
	); err != nil {
		return nil, mapError(err)
	}
	return req, nil
}

func (p *pgxTeamRequestRepository) Delete(ctx context.Context, teamID, userID string) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Delete(
		dm.From("team_request"),
		dm.Where(
			psql.Quote("team_id").EQ(psql.Arg(teamID)).
				And(psql.Quote("user_id").EQ(psql.Arg(userID))),
		),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	commandTag, err := e.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}

	if commandTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (p *pgxTeamRequestRepository) ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]*TeamRequest, error) {
	return p.listActive(ctx, "user_id", userID, now)
}

func (p *pgxTeamRequestRepository) ListActiveByTeam(ctx context.Context, teamID string, now time.Time) ([]*TeamRequest, error) {
	return p.listActive(ctx, "team_id", teamID, now)
}

func (p *pgxTeamRequestRepository) listActive(ctx context.Context, column, value string, now time.Time) ([]*TeamRequest, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(teamRequestColumns...),
		sm.From("team_request"),
		sm.Where(
			psql.Quote(column).EQ(psql.Arg(value)).
				And(psql.Quote("expires_at").GT(psql.Arg(now))),
		),
		sm.OrderBy("created_at").Desc(),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := e.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*TeamRequest, error) {
		req := &TeamRequest{}
		if err := row.Scan(&req.TeamID, &req.UserID, &req.Direction, &req.CreatedAt, &req.ExpiresAt); err != nil {
			return nil, err
		}
		return req, nil
	})
}

func (p *pgxTeamRequestRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Delete(
		dm.From("team_request"),
		dm.Where(psql.Quote("expires_at").LTE(psql.Arg(now))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return 0, err
	}

	commandTag, err := e.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}

	return commandTag.RowsAffected(), nil
}
