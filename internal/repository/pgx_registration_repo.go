package repository

import (
	"context"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/yakoovad/hackathon-teams/internal/db"
)

type RegistrationRepository interface {
	Exists(ctx context.Context, userID, hackathonID string) (bool, error)
}

type pgxRegistrationRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRegistrationRepository(pool *pgxpool.Pool) RegistrationRepository {
	return &pgxRegistrationRepository{pool: pool}
}

func (p *pgxRegistrationRepository) Exists(ctx context.Context, userID, hackathonID string) (bool, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("1"),
		sm.From("hackathon_registration"),
		sm.Where(
			psql.Quote("hackathon_id").EQ(psql.Arg(hackathonID)).
				And(psql.Quote("user_id").EQ(psql.Arg(userID))),
		),
	)

	return queryExists(ctx, e, q)
}
