package repository

import (
	"context"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/yakoovad/hackathon-teams/internal/db"
	"time"
)

type TeamMember struct {
	TeamID   string    `db:"team_id"`
	UserID   string    `db:"user_id"`
	IsLeader bool      `db:"is_leader"`
	JoinedAt time.Time `db:"joined_at"`
}

type TeamMemberRepository interface {
	// Create fails with ErrAlreadyExists when the user is already on the team.
	Create(ctx context.Context, member *TeamMember) error
	Exists(ctx context.Context, teamID, userID string) (bool, error)
	ListByTeam(ctx context.Context, teamID string) ([]*TeamMember, error)
}

type pgxTeamMemberRepository struct {
	pool *pgxpool.Pool
}

func NewPgxTeamMemberRepository(pool *pgxpool.Pool) TeamMemberRepository {
	return &pgxTeamMemberRepository{pool: pool}
}

func (p *pgxTeamMemberRepository) Create(ctx context.Context, member *TeamMember) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("team_member", "team_id", "user_id", "is_leader", "joined_at"),
		im.Values(psql.Arg(member.TeamID), psql.Arg(member.UserID), psql.Arg(member.IsLeader), psql.Arg(member.JoinedAt)),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	_, err = e.Exec(ctx, sql, args...)
	return mapError(err)
}

func (p *pgxTeamMemberRepository) Exists(ctx context.Context, teamID, userID string) (bool, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("1"),
		sm.From("team_member"),
		sm.Where(
			psql.Quote("team_id").EQ(psql.Arg(teamID)).
				And(psql.Quote("user_id").EQ(psql.Arg(userID))),
		),
	)

	return queryExists(ctx, e, q)
}

func (p *pgxTeamMemberRepository) ListByTeam(ctx context.Context, teamID string) ([]*TeamMember, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("team_id", "user_id", "is_leader", "joined_at"),
		sm.From("team_member"),
		sm.Where(psql.Quote("team_id").EQ(psql.Arg(teamID))),
		sm.OrderBy("joined_at"),
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

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*TeamMember, error) {
		m := &TeamMember{}
		if err := row.Scan(&m.TeamID, &m.UserID, &m.IsLeader, &m.JoinedAt); err != nil {
			return nil, err
		}
		return m, nil
	})
}
