package service

import (
	"context"
	"github.com/stretchr/testify/mock"
	"github.com/yakoovad/hackathon-teams/internal/model"
	"github.com/yakoovad/hackathon-teams/internal/repository"
	"time"
)

// MockTransactor runs the closure inline and records whether it returned an error,
// which is what a real transaction would roll back.
type MockTransactor struct {
	mock.Mock
	RolledBack bool
}

func (m *MockTransactor) WithinTransaction(ctx context.Context, fn func(context.Context) error) error {
	err := fn(ctx)
	m.RolledBack = err != nil
	return err
}

type MockTeamRepository struct {
	mock.Mock
}

func (m *MockTeamRepository) Create(ctx context.Context, team *repository.Team) error {
	args := m.Called(ctx, team)
	return args.Error(0)
}

func (m *MockTeamRepository) Get(ctx context.Context, teamID string) (*repository.Team, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Team), args.Error(1)
}

func (m *MockTeamRepository) Patch(ctx context.Context, patch *repository.TeamPatch) (*repository.Team, error) {
	args := m.Called(ctx, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Team), args.Error(1)
}

type MockTeamMemberRepository struct {
	mock.Mock
}

func (m *MockTeamMemberRepository) Create(ctx context.Context, member *repository.TeamMember) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockTeamMemberRepository) Exists(ctx context.Context, teamID, userID string) (bool, error) {
	args := m.Called(ctx, teamID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTeamMemberRepository) ListByTeam(ctx context.Context, teamID string) ([]*repository.TeamMember, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.TeamMember), args.Error(1)
}

type MockTeamRequestRepository struct {
	mock.Mock
}

func (m *MockTeamRequestRepository) Create(ctx context.Context, req *repository.TeamRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockTeamRequestRepository) GetForUpdate(ctx context.Context, teamID, userID string) (*repository.TeamRequest, error) {
	args := m.Called(ctx, teamID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.TeamRequest), args.Error(1)
}

func (m *MockTeamRequestRepository) Delete(ctx context.Context, teamID, userID string) error {
	args := m.Called(ctx, teamID, userID)
	return args.Error(0)
}

func (m *MockTeamRequestRepository) ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]*repository.TeamRequest, error) {
	args := m.Called(ctx, userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.TeamRequest), args.Error(1)
}

func (m *MockTeamRequestRepository) ListActiveByTeam(ctx context.Context, teamID string, now time.Time) ([]*repository.TeamRequest, error) {
	args := m.Called(ctx, teamID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.TeamRequest), args.Error(1)
}

func (m *MockTeamRequestRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Exists(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

type MockRegistrationRepository struct {
	mock.Mock
}

func (m *MockRegistrationRepository) Exists(ctx context.Context, userID, hackathonID string) (bool, error) {
	args := m.Called(ctx, userID, hackathonID)
	return args.Bool(0), args.Error(1)
}

type MockEventRecorder struct {
	mock.Mock
}

func (m *MockEventRecorder) TeamCreated() {
	m.Called()
}

func (m *MockEventRecorder) TeamRequestCreated(direction model.Direction) {
	m.Called(direction)
}

func (m *MockEventRecorder) TeamRequestAccepted(direction model.Direction) {
	m.Called(direction)
}

func (m *MockEventRecorder) TeamRequestRejected() {
	m.Called()
}

func (m *MockEventRecorder) TeamRequestsPurged(count int64) {
	m.Called(count)
}
