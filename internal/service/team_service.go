package service

import (
	"context"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/yakoovad/hackathon-teams/internal/db"
	"github.com/yakoovad/hackathon-teams/internal/model"
	"github.com/yakoovad/hackathon-teams/internal/repository"
	"github.com/yakoovad/hackathon-teams/internal/validate"
	"github.com/yakoovad/hackathon-teams/pkg/logger"
	"go.uber.org/zap"
	"strings"
	"time"
)

type TeamService struct {
	tx db.Transactor

	teams         repository.TeamRepository
	members       repository.TeamMemberRepository
	registrations repository.RegistrationRepository

	validate *validator.Validate
	events   EventRecorder
	now      func() time.Time
	newID    func() string
}

func NewTeamService(tx db.Transactor) *TeamService {
	return &TeamService{
		tx:       tx,
		validate: validate.New(),
		events:   nopRecorder{},
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// CreateTeam creates a team led by the caller and enrolls the caller as its first member.
func (t *TeamService) CreateTeam(ctx context.Context, caller model.Caller, in *model.TeamInput) (*model.Team, *Error) {
	l := logger.FromContext(ctx)

	in.Name = strings.TrimSpace(in.Name)
	in.HackathonID = strings.TrimSpace(in.HackathonID)
	if err := t.validate.Struct(in); err != nil {
		return nil, NewValidationError("invalid team", validate.Fields(err))
	}

	l.Info("creating team",
		zap.String("team_name", in.Name),
		zap.String("hackathon_id", in.HackathonID),
		zap.String("creator_id", caller.UserID))

	if !caller.IsAdmin() {
		registered, err := t.registrations.Exists(ctx, caller.UserID, in.HackathonID)
		if err != nil {
			l.Error("failed to check registration", zap.String("hackathon_id", in.HackathonID), zap.Error(err))
			return nil, NewError(ErrorCodeUnspecified, "failed to check registration")
		}
		if !registered {
			return nil, NewError(ErrorCodeNotRegistered, "creator is not registered for the hackathon")
		}
	}

	team := &model.Team{}

	err := t.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		repoTeam := &repository.Team{
			ID:                t.newID(),
			Name:              in.Name,
			Description:       in.Description,
			HackathonID:       in.HackathonID,
			LookingForMembers: in.LookingForMembers,
			RequiredSkills:    in.RequiredSkills,
			CreatorID:         caller.UserID,
		}
		err := t.teams.Create(txCtx, repoTeam)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return NewError(ErrorCodeNotFound, "hackathon or creator not found")
		case err != nil:
			l.Error("failed to create team", zap.String("team_name", in.Name), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to create team")
		}

		*team = *teamFromRepo(repoTeam)

		leader := &repository.TeamMember{
			TeamID:   repoTeam.ID,
			UserID:   caller.UserID,
			IsLeader: team.IsLeader(caller.UserID),
			JoinedAt: t.now().UTC(),
		}
		if err = t.members.Create(txCtx, leader); err != nil {
			l.Error("failed to enroll team leader", zap.String("team_id", repoTeam.ID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to enroll team leader")
		}

		team.Members = []*model.TeamMember{memberFromRepo(leader)}
		return nil
	})

	if res := asServiceError(err); res != nil {
		return nil, res
	}

	t.events.TeamCreated()
	l.Debug("team created", zap.String("team_id", team.ID))

	return team, nil
}

// UpdateTeam applies a partial update. Only the leader (or an admin) may do it.
func (t *TeamService) UpdateTeam(ctx context.Context, caller model.Caller, teamID string, patch *model.TeamPatch) (*model.Team, *Error) {
	l := logger.FromContext(ctx)

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	if patch.Empty() {
		return nil, NewValidationError("nothing to update", nil)
	}
	if err := t.validate.Struct(patch); err != nil {
		return nil, NewValidationError("invalid team patch", validate.Fields(err))
	}

	team := &model.Team{}

	err := t.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		current, err := t.teams.Get(txCtx, teamID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return NewError(ErrorCodeNotFound, "team not found")
		case err != nil:
			l.Error("failed to get team", zap.String("team_id", teamID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to get team")
		}

		if !caller.IsAdmin() && current.CreatorID != caller.UserID {
			l.Warn("team update by non-leader", zap.String("team_id", teamID), zap.String("user_id", caller.UserID))
			return NewError(ErrorCodeForbidden, "only the team leader can update the team")
		}

		updated, err := t.teams.Patch(txCtx, &repository.TeamPatch{
			ID:                teamID,
			Name:              patch.Name,
			Description:       patch.Description,
			LookingForMembers: patch.LookingForMembers,
			RequiredSkills:    patch.RequiredSkills,
		})
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return NewError(ErrorCodeNotFound, "team not found")
		case err != nil:
			l.Error("failed to update team", zap.String("team_id", teamID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to update team")
		}

		*team = *teamFromRepo(updated)
		return nil
	})

	if res := asServiceError(err); res != nil {
		return nil, res
	}

	return team, nil
}

func (t *TeamService) GetTeam(ctx context.Context, teamID string) (*model.Team, *Error) {
	l := logger.FromContext(ctx)
	l.Debug("getting team", zap.String("team_id", teamID))

	repoTeam, err := t.teams.Get(ctx, teamID)
	if errors.Is(err, repository.ErrNotFound) {
		l.Warn("team not found", zap.String("team_id", teamID))
		return nil, NewError(ErrorCodeNotFound, "team not found")
	}
	if err != nil {
		l.Error("failed to get team", zap.String("team_id", teamID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get team")
	}

	repoMembers, err := t.members.ListByTeam(ctx, teamID)
	if err != nil {
		l.Error("failed to get team members", zap.String("team_id", teamID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get team members")
	}

	team := teamFromRepo(repoTeam)
	team.Members = make([]*model.TeamMember, 0, len(repoMembers))
	for _, m := range repoMembers {
		team.Members = append(team.Members, memberFromRepo(m))
	}

	return team, nil
}

func (t *TeamService) WithTeamRepo(r repository.TeamRepository) *TeamService {
	t.teams = r
	return t
}

func (t *TeamService) WithTeamMemberRepo(r repository.TeamMemberRepository) *TeamService {
	t.members = r
	return t
}

func (t *TeamService) WithRegistrationRepo(r repository.RegistrationRepository) *TeamService {
	t.registrations = r
	return t
}

func (t *TeamService) WithEventRecorder(r EventRecorder) *TeamService {
	t.events = r
	return t
}

func (t *TeamService) WithClock(now func() time.Time) *TeamService {
	t.now = now
	return t
}

func (t *TeamService) WithIDGenerator(newID func() string) *TeamService {
	t.newID = newID
	return t
}

func teamFromRepo(r *repository.Team) *model.Team {
	return &model.Team{
		ID:                r.ID,
		Name:              r.Name,
		Description:       r.Description,
		HackathonID:       r.HackathonID,
		LookingForMembers: r.LookingForMembers,
		RequiredSkills:    r.RequiredSkills,
		CreatorID:         r.CreatorID,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func memberFromRepo(r *repository.TeamMember) *model.TeamMember {
	return &model.TeamMember{
		TeamID:   r.TeamID,
		UserID:   r.UserID,
		IsLeader: r.IsLeader,
		JoinedAt: r.JoinedAt,
	}
}

// asServiceError extracts the *Error returned from a transaction closure.
// Infrastructure failures (begin/commit) become UNSPECIFIED.
func asServiceError(err error) *Error {
	if err == nil {
		return nil
	}
	var res *Error
	if errors.As(err, &res) {
		return res
	}
	return NewError(ErrorCodeUnspecified, "transaction failed")
}
