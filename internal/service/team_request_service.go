package service

import (
	"context"
	"github.com/pkg/errors"
	"github.com/yakoovad/hackathon-teams/internal/db"
	"github.com/yakoovad/hackathon-teams/internal/model"
	"github.com/yakoovad/hackathon-teams/internal/repository"
	"github.com/yakoovad/hackathon-teams/pkg/logger"
	"go.uber.org/zap"
	"time"
)

// TeamRequestService drives invitations and applications from creation to membership.
//
// A request for (team, user) is PENDING until created_at+48h and EXPIRED afterwards.
// Expired rows are inert: they are skipped by listings, refused by AcceptTeamRequest,
// replaced by a fresh CreateTeamRequest and removed by PurgeExpired.
type TeamRequestService struct {
	tx db.Transactor

	teams         repository.TeamRepository
	members       repository.TeamMemberRepository
	requests      repository.TeamRequestRepository
	users         repository.UserRepository
	registrations repository.RegistrationRepository

	events EventRecorder
	now    func() time.Time
}

func NewTeamRequestService(tx db.Transactor) *TeamRequestService {
	return &TeamRequestService{
		tx:     tx,
		events: nopRecorder{},
		now:    time.Now,
	}
}

func (s *TeamRequestService) CreateTeamRequest(ctx context.Context, caller model.Caller, teamID, userID string, direction model.Direction) (*model.TeamRequest, *Error) {
	l := logger.FromContext(ctx).With(
		zap.String("team_id", teamID),
		zap.String("user_id", userID),
		zap.String("direction", string(direction)))

	switch {
	case teamID == "" || userID == "":
		return nil, NewValidationError("team and user are required", nil)
	case !direction.Valid():
		return nil, NewValidationError("invalid direction", map[string]string{"direction": "oneof=LEADER_INVITES USER_APPLIES"})
	}

	var created *model.TeamRequest

	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		team, err := s.teams.Get(txCtx, teamID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return NewError(ErrorCodeNotFound, "team not found")
		case err != nil:
			l.Error("failed to get team", zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to get team")
		}

		if !caller.IsAdmin() {
			if direction == model.DirectionLeaderInvites && team.CreatorID != caller.UserID {
				return NewError(ErrorCodeForbidden, "only the team leader can invite")
			}
			if direction == model.DirectionUserApplies && caller.UserID != userID {
				return NewError(ErrorCodeForbidden, "users can only apply on their own behalf")
			}
		}

		exists, err := s.users.Exists(txCtx, userID)
		switch {
		case err != nil:
			l.Error("failed to check user", zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to check user")
		case !exists:
			return NewError(ErrorCodeNotFound, "user not found")
		}

		registered, err := s.registrations.Exists(txCtx, userID, team.HackathonID)
		switch {
		case err != nil:
			l.Error("failed to check registration", zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to check registration")
		case !registered:
			return NewError(ErrorCodeNotRegistered, "user is not registered for the hackathon")
		}

		member, err := s.members.Exists(txCtx, teamID, userID)
		switch {
		case err != nil:
			l.Error("failed to check membership", zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to check membership")
		case member:
			return NewError(ErrorCodeAlreadyMember, "user is already a team member")
		}

		now := s.now()

		existing, err := s.requests.GetForUpdate(txCtx, teamID, userID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
		case err != nil:
			l.Error("failed to get team request", zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to get team request")
		case requestFromRepo(existing, now).State == model.RequestStatePending:
			l.Warn("pending team request already exists")
			return NewError(ErrorCodeRequestExists, "a pending request already exists for this team and user")
		default:
			if err = s.requests.Delete(txCtx, teamID, userID); err != nil {
				l.Error("failed to replace expired team request", zap.Error(err))
				return NewError(ErrorCodeUnspecified, "failed to replace expired team request")
			}
		}

		req := model.NewTeamRequest(teamID, userID, direction, now)
		err = s.requests.Create(txCtx, &repository.TeamRequest{
			TeamID:    req.TeamID,
			UserID:    req.UserID,
			Direction: req.Direction,
			CreatedAt: req.CreatedAt,
			ExpiresAt: req.ExpiresAt,
		})
		switch {
		case errors.Is(err, repository.ErrAlreadyExists):
			l.Warn("concurrent team request insert")
			return NewError(ErrorCodeRequestExists, "a pending request already exists for this team and user")
		case errors.Is(err, repository.ErrNotFound):
			return NewError(ErrorCodeNotFound, "team or user not found")
		case err != nil:
			l.Error("failed to create team request", zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to create team request")
		}

		created = req
		return nil
	})

	if res := asServiceError(err); res != nil {
		return nil, res
	}

	s.events.TeamRequestCreated(direction)
	l.Info("team request created", zap.Time("expires_at", created.ExpiresAt))

	return created, nil
}

// ListActiveTeamRequests returns the caller's unexpired requests, newest first.
func (s *TeamRequestService) ListActiveTeamRequests(ctx context.Context, caller model.Caller, userID string) ([]*model.TeamRequest, *Error) {
	l := logger.FromContext(ctx)

	if !caller.IsAdmin() && caller.UserID != userID {
		return nil, NewError(ErrorCodeForbidden, "cannot list requests of another user")
	}

	now := s.now()
	repoRequests, err := s.requests.ListActiveByUser(ctx, userID, now)
	if err != nil {
		l.Error("failed to list team requests", zap.String("user_id", userID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list team requests")
	}

	return requestsFromRepo(repoRequests, now), nil
}

// ListTeamRequests returns the unexpired requests of a team. Leader only.
func (s *TeamRequestService) ListTeamRequests(ctx context.Context, caller model.Caller, teamID string) ([]*model.TeamRequest, *Error) {
	l := logger.FromContext(ctx)

	team, err := s.teams.Get(ctx, teamID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, NewError(ErrorCodeNotFound, "team not found")
	case err != nil:
		l.Error("failed to get team", zap.String("team_id", teamID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get team")
	}

	if !caller.IsAdmin() && team.CreatorID != caller.UserID {
		return nil, NewError(ErrorCodeForbidden, "only the team leader can list team requests")
	}

	now := s.now()
	repoRequests, err := s.requests.ListActiveByTeam(ctx, teamID, now)
	if err != nil {
		l.Error("failed to list team requests", zap.String("team_id", teamID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list team requests")
	}

	return requestsFromRepo(repoRequests, now), nil
}

// AcceptTeamRequest consumes a pending request and creates the membership in one transaction.
// An invitation is accepted by the invited user, an application by the team leader.
func (s *TeamRequestService) AcceptTeamRequest(ctx context.Context, caller model.Caller, teamID, userID string) (*model.TeamMember, *Error) {
	l := logger.FromContext(ctx).With(zap.String("team_id", teamID), zap.String("user_id", userID))

	var member *model.TeamMember
	var direction model.Direction

	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		team, err := s.teams.Get(txCtx, teamID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return NewError(ErrorCodeNotFound, "team not found")
		case err != nil:
			l.Error("failed to get team", zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to get team")
		}

		// only the two parties may see whether the request exists or has expired
		if !caller.IsAdmin() && caller.UserID != userID && team.CreatorID != caller.UserID {
			return NewError(ErrorCodeForbidden, "only the user or the team leader can accept a request")
		}

		repoReq, err := s.requests.GetForUpdate(txCtx, teamID, userID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return NewError(ErrorCodeNotFound, "team request not found")
		case err != nil:
			l.Error("failed to get team request", zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to get team request")
		}

		now := s.now()
		req := requestFromRepo(repoReq, now)

		if !caller.IsAdmin() {
			if req.Direction == model.DirectionLeaderInvites && caller.UserID != userID {
				return NewError(ErrorCodeForbidden, "only the invited user can accept an invitation")
			}
			if req.Direction == model.DirectionUserApplies && team.CreatorID != caller.UserID {
				return NewError(ErrorCodeForbidden, "only the team leader can accept an application")
			}
		}

		if req.State == model.RequestStateExpired {
			l.Warn("accepting expired team request", zap.Time("expires_at", req.ExpiresAt))
			return NewError(ErrorCodeRequestExpired, "team request has expired")
		}

		err = s.requests.Delete(txCtx, teamID, userID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return NewError(ErrorCodeNotFound, "team request not found")
		case err != nil:
			l.Error("failed to consume team request", zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to consume team request")
		}

		repoMember := &repository.TeamMember{
			TeamID:   teamID,
			UserID:   userID,
			IsLeader: team.CreatorID == userID,
			JoinedAt: now.UTC(),
		}
		err = s.members.Create(txCtx, repoMember)
		switch {
		case errors.Is(err, repository.ErrAlreadyExists):
			return NewError(ErrorCodeAlreadyMember, "user is already a team member")
		case errors.Is(err, repository.ErrNotFound):
			return NewError(ErrorCodeNotFound, "team or user not found")
		case err != nil:
			l.Error("failed to create team member", zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to create team member")
		}

		member = memberFromRepo(repoMember)
		direction = req.Direction
		return nil
	})

	if res := asServiceError(err); res != nil {
		return nil, res
	}

	s.events.TeamRequestAccepted(direction)
	l.Info("team request accepted", zap.Bool("is_leader", member.IsLeader))

	return member, nil
}

// RejectTeamRequest deletes a request, expired or not. Either side may reject.
// A second call for the same pair fails with NOT_FOUND.
func (s *TeamRequestService) RejectTeamRequest(ctx context.Context, caller model.Caller, teamID, userID string) *Error {
	l := logger.FromContext(ctx).With(zap.String("team_id", teamID), zap.String("user_id", userID))

	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		team, err := s.teams.Get(txCtx, teamID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return NewError(ErrorCodeNotFound, "team not found")
		case err != nil:
			l.Error("failed to get team", zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to get team")
		}

		if !caller.IsAdmin() && caller.UserID != userID && team.CreatorID != caller.UserID {
			return NewError(ErrorCodeForbidden, "only the user or the team leader can reject a request")
		}

		_, err = s.requests.GetForUpdate(txCtx, teamID, userID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return NewError(ErrorCodeNotFound, "team request not found")
		case err != nil:
			l.Error("failed to get team request", zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to get team request")
		}

		err = s.requests.Delete(txCtx, teamID, userID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return NewError(ErrorCodeNotFound, "team request not found")
		case err != nil:
			l.Error("failed to delete team request", zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to delete team request")
		}
		return nil
	})

	if res := asServiceError(err); res != nil {
		return res
	}

	s.events.TeamRequestRejected()
	l.Info("team request rejected", zap.String("by", caller.UserID))

	return nil
}

// PurgeExpired deletes every request whose expiry has passed.
func (s *TeamRequestService) PurgeExpired(ctx context.Context) (int64, *Error) {
	l := logger.FromContext(ctx)

	n, err := s.requests.DeleteExpired(ctx, s.now())
	if err != nil {
		l.Error("failed to purge expired team requests", zap.Error(err))
		return 0, NewError(ErrorCodeUnspecified, "failed to purge expired team requests")
	}

	s.events.TeamRequestsPurged(n)
	l.Info("expired team requests purged", zap.Int64("count", n))

	return n, nil
}

func (s *TeamRequestService) WithTeamRepo(r repository.TeamRepository) *TeamRequestService {
	s.teams = r
	return s
}

func (s *TeamRequestService) WithTeamMemberRepo(r repository.TeamMemberRepository) *TeamRequestService {
	s.members = r
	return s
}

func (s *TeamRequestService) WithTeamRequestRepo(r repository.TeamRequestRepository) *TeamRequestService {
	s.requests = r
	return s
}

func (s *TeamRequestService) WithUserRepo(r repository.UserRepository) *TeamRequestService {
	s.users = r
	return s
}

func (s *TeamRequestService) WithRegistrationRepo(r repository.RegistrationRepository) *TeamRequestService {
	s.registrations = r
	return s
}

func (s *TeamRequestService) WithEventRecorder(r EventRecorder) *TeamRequestService {
	s.events = r
	return s
}

func (s *TeamRequestService) WithClock(now func() time.Time) *TeamRequestService {
	s.now = now
	return s
}

func requestFromRepo(r *repository.TeamRequest, now time.Time) *model.TeamRequest {
	req := &model.TeamRequest{
		TeamID:    r.TeamID,
		UserID:    r.UserID,
		Direction: r.Direction,
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt,
	}
	req.State = req.StateAt(now)
	return req
}

func requestsFromRepo(rs []*repository.TeamRequest, now time.Time) []*model.TeamRequest {
	res := make([]*model.TeamRequest, 0, len(rs))
	for _, r := range rs {
		res = append(res, requestFromRepo(r, now))
	}
	return res
}
