package repository

import (
	"context"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/yakoovad/hackathon-teams/internal/db"
	"time"
)

var teamColumns = []any{
	"id", "name", "description", "hackathon_id", "looking_for_members",
	"required_skills", "creator_id", "created_at", "updated_at",
}

type Team struct {
	ID                string    `db:"id"`
	Name              string    `db:"name"`
	Description       *string   `db:"description"`
	HackathonID       string    `db:"hackathon_id"`
	LookingForMembers bool      `db:"looking_for_members"`
	RequiredSkills    *string   `db:"required_skills"`
	CreatorID         string    `db:"creator_id"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

type TeamPatch struct {
	ID                string  `db:"id"`
	Name              *string `db:"name"`
	Description       *string `db:"description"`
	LookingForMembers *bool   `db:"looking_for_members"`
	RequiredSkills    *string `db:"required_skills"`
}

type TeamRepository interface {
	Create(ctx context.Context, team *Team) error
	Get(ctx context.Context, teamID string) (*Team, error)
	Patch(ctx context.Context, patch *TeamPatch) (*Team, error)
}

type pgxTeamRepository struct {
	pool *pgxpool.Pool
}

func NewPgxTeamRepository(pool *pgxpool.Pool) TeamRepository {
	return &pgxTeamRepository{pool: pool}
}

// Create inserts a team and fills the timestamps assigned by the database.
func (p *pgxTeamRepository) Create(ctx context.Context, team *Team) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("team", "id", "name", "description", "hackathon_id", "looking_for_members", "required_skills", "creator_id"),
		im.Values(
			psql.Arg(team.ID),
			psql.Arg(team.Name),
			psql.Arg(team.Description),
			psql.Arg(team.HackathonID),
			psql.Arg(team.LookingForMembers),
			psql.Arg(team.RequiredSkills),
			psql.Arg(team.CreatorID),
		),
		im.Returning(teamColumns...),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	return mapError(scanTeam(e.QueryRow(ctx, sql, args...), team))
}

func (p *pgxTeamRepository) Get(ctx context.Context, teamID string) (*Team, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(teamColumns...),
		sm.From("team"),
		sm.Where(psql.Quote("id").EQ(psql.Arg(teamID))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	team := &Team{}
	if err = scanTeam(e.QueryRow(ctx, sql, args...), team); err != nil {
		return nil, mapError(err)
	}
	return team, nil
}

func (p *pgxTeamRepository) Patch(ctx context.Context, patch *TeamPatch) (*Team, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	sets := make([]bob.Mod[*dialect.UpdateQuery], 0, 5)
	if patch.Name != nil {
		sets = append(sets, um.SetCol("name").ToArg(*patch.Name))
	}
	if patch.Description != nil {
		sets = append(sets, um.SetCol("description").ToArg(*patch.Description))
	}
	if patch.LookingForMembers != nil {
		sets = append(sets, um.SetCol("looking_for_members").ToArg(*patch.LookingForMembers))
	}
	if patch.RequiredSkills != nil {
		sets = append(sets, um.SetCol("required_skills").ToArg(*patch.RequiredSkills))
	}
	sets = append(sets, um.SetCol("updated_at").To(psql.Raw("now()")))

	q := psql.Update(
		um.Table("team"),
		um.Where(psql.Quote("id").EQ(psql.Arg(patch.ID))),
		um.Returning(teamColumns...),
	)

	q.Apply(sets...)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	team := &Team{}
	if err = scanTeam(e.QueryRow(ctx, sql, args...), team); err != nil {
		return nil, mapError(err)
	}
	return team, nil
}

func scanTeam(row pgx.Row, team *Team) error {
	return row.Scan(
		&team.ID,
		&team.Name,
		&team.Description,
		&team.HackathonID,
		&team.LookingForMembers,
		&team.RequiredSkills,
		&team.CreatorID,
		&team.CreatedAt,
		&team.UpdatedAt,
	)
}
