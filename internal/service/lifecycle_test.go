package service

import (
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yakoovad/hackathon-teams/internal/model"
	"github.com/yakoovad/hackathon-teams/internal/repository"
	"testing"
	"time"
)

var lifecycleStart = time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)

func participant(userID string) model.Caller {
	return model.Caller{UserID: userID, Role: model.RoleParticipant}
}

func newLifecycle(t *testing.T) (*memStore, *fakeClock, *TeamService, *TeamRequestService) {
	t.Helper()

	store := newMemStore()
	store.addUser("U1", "H1")
	store.addUser("U2", "H1")
	store.addUser("U3", "H1")

	clock := &fakeClock{now: lifecycleStart}
	teams, requests := newMemServices(store, clock, "T1", "T2")

	team, err := teams.CreateTeam(context.Background(), participant("U1"), &model.TeamInput{
		Name:              "Team One",
		HackathonID:       "H1",
		LookingForMembers: true,
	})
	require.Nil(t, err)
	require.Equal(t, "T1", team.ID)

	return store, clock, teams, requests
}

func TestLifecycle_ApplyAndAccept(t *testing.T) {
	ctx := context.Background()
	store, _, teams, requests := newLifecycle(t)

	leader, ok := store.member("T1", "U1")
	require.True(t, ok)
	assert.True(t, leader.IsLeader)

	req, err := requests.CreateTeamRequest(ctx, participant("U2"), "T1", "U2", model.DirectionUserApplies)
	require.Nil(t, err)
	assert.Equal(t, lifecycleStart.Add(48*time.Hour), req.ExpiresAt)

	active, err := requests.ListTeamRequests(ctx, participant("U1"), "T1")
	require.Nil(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "U2", active[0].UserID)
	assert.Equal(t, lifecycleStart.Add(48*time.Hour), active[0].ExpiresAt)
	assert.Equal(t, model.RequestStatePending, active[0].State)

	mine, err := requests.ListActiveTeamRequests(ctx, participant("U2"), "U2")
	require.Nil(t, err)
	assert.Len(t, mine, 1)

	member, err := requests.AcceptTeamRequest(ctx, participant("U1"), "T1", "U2")
	require.Nil(t, err)
	assert.Equal(t, &model.TeamMember{TeamID: "T1", UserID: "U2", IsLeader: false, JoinedAt: lifecycleStart}, member)

	_, ok = store.request("T1", "U2")
	assert.False(t, ok, "accepted request must be consumed")

	stored, ok := store.member("T1", "U2")
	require.True(t, ok)
	assert.False(t, stored.IsLeader)

	team, err := teams.GetTeam(ctx, "T1")
	require.Nil(t, err)
	assert.Len(t, team.Members, 2)

	_, err = requests.AcceptTeamRequest(ctx, participant("U1"), "T1", "U2")
	require.NotNil(t, err)
	assert.Equal(t, ErrorCodeNotFound, err.Code)
}

func TestLifecycle_InviteAndAccept(t *testing.T) {
	ctx := context.Background()
	_, _, _, requests := newLifecycle(t)

	_, err := requests.CreateTeamRequest(ctx, participant("U1"), "T1", "U3", model.DirectionLeaderInvites)
	require.Nil(t, err)

	_, err = requests.AcceptTeamRequest(ctx, participant("U1"), "T1", "U3")
	require.NotNil(t, err)
	assert.Equal(t, ErrorCodeForbidden, err.Code, "the leader cannot accept an invitation on behalf of the invitee")

	member, err := requests.AcceptTeamRequest(ctx, participant("U3"), "T1", "U3")
	require.Nil(t, err)
	assert.False(t, member.IsLeader)
}

func TestLifecycle_DuplicateRequest(t *testing.T) {
	ctx := context.Background()
	_, _, _, requests := newLifecycle(t)

	_, err := requests.CreateTeamRequest(ctx, participant("U2"), "T1", "U2", model.DirectionUserApplies)
	require.Nil(t, err)

	_, err = requests.CreateTeamRequest(ctx, participant("U2"), "T1", "U2", model.DirectionUserApplies)
	require.NotNil(t, err)
	assert.Equal(t, ErrorCodeRequestExists, err.Code)

	_, err = requests.CreateTeamRequest(ctx, participant("U1"), "T1", "U2", model.DirectionLeaderInvites)
	require.NotNil(t, err)
	assert.Equal(t, ErrorCodeRequestExists, err.Code, "direction does not widen the (team, user) key")
}

func TestLifecycle_Expiry(t *testing.T) {
	ctx := context.Background()
	store, clock, _, requests := newLifecycle(t)

	_, err := requests.CreateTeamRequest(ctx, participant("U2"), "T1", "U2", model.DirectionUserApplies)
	require.Nil(t, err)

	clock.Advance(48*time.Hour - time.Second)
	active, err := requests.ListActiveTeamRequests(ctx, participant("U2"), "U2")
	require.Nil(t, err)
	assert.Len(t, active, 1)

	clock.Advance(time.Second)
	active, err = requests.ListActiveTeamRequests(ctx, participant("U2"), "U2")
	require.Nil(t, err)
	assert.Empty(t, active)

	_, err = requests.AcceptTeamRequest(ctx, participant("U3"), "T1", "U2")
	require.NotNil(t, err)
	assert.Equal(t, ErrorCodeForbidden, err.Code, "outsiders do not learn that the request expired")

	_, err = requests.AcceptTeamRequest(ctx, participant("U1"), "T1", "U2")
	require.NotNil(t, err)
	assert.Equal(t, ErrorCodeRequestExpired, err.Code)

	_, ok := store.request("T1", "U2")
	assert.True(t, ok, "listing and refused accept must not mutate expired rows")
	_, ok = store.member("T1", "U2")
	assert.False(t, ok)

	renewed, err := requests.CreateTeamRequest(ctx, participant("U2"), "T1", "U2", model.DirectionUserApplies)
	require.Nil(t, err)
	assert.Equal(t, clock.Now().Add(48*time.Hour), renewed.ExpiresAt)
}

func TestLifecycle_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	store, clock, _, requests := newLifecycle(t)

	_, err := requests.CreateTeamRequest(ctx, participant("U2"), "T1", "U2", model.DirectionUserApplies)
	require.Nil(t, err)
	clock.Advance(24 * time.Hour)
	_, err = requests.CreateTeamRequest(ctx, participant("U1"), "T1", "U3", model.DirectionLeaderInvites)
	require.Nil(t, err)

	clock.Advance(30 * time.Hour)
	n, err := requests.PurgeExpired(ctx)
	require.Nil(t, err)
	assert.Equal(t, int64(1), n)

	_, ok := store.request("T1", "U2")
	assert.False(t, ok)
	_, ok = store.request("T1", "U3")
	assert.True(t, ok)
}

func TestLifecycle_RejectTwice(t *testing.T) {
	ctx := context.Background()
	_, _, _, requests := newLifecycle(t)

	_, err := requests.CreateTeamRequest(ctx, participant("U2"), "T1", "U2", model.DirectionUserApplies)
	require.Nil(t, err)

	err = requests.RejectTeamRequest(ctx, participant("U1"), "T1", "U2")
	require.Nil(t, err)

	err = requests.RejectTeamRequest(ctx, participant("U1"), "T1", "U2")
	require.NotNil(t, err)
	assert.Equal(t, ErrorCodeNotFound, err.Code)
}

func TestLifecycle_AcceptIsAtomic(t *testing.T) {
	ctx := context.Background()

	t.Run("team lookup failure keeps the request", func(t *testing.T) {
		store, _, _, requests := newLifecycle(t)
		store.requests[pair{"ghost", "U2"}] = repository.TeamRequest{
			TeamID:    "ghost",
			UserID:    "U2",
			Direction: model.DirectionUserApplies,
			CreatedAt: lifecycleStart,
			ExpiresAt: lifecycleStart.Add(model.TeamRequestTTL),
		}

		_, err := requests.AcceptTeamRequest(ctx, participant("U1"), "ghost", "U2")
		require.NotNil(t, err)
		assert.Equal(t, ErrorCodeNotFound, err.Code)
		assert.Equal(t, "team not found", err.Message)

		_, ok := store.request("ghost", "U2")
		assert.True(t, ok)
	})

	t.Run("membership insert failure restores the request", func(t *testing.T) {
		store, _, _, requests := newLifecycle(t)
		store.members[pair{"T1", "U2"}] = repository.TeamMember{TeamID: "T1", UserID: "U2", JoinedAt: lifecycleStart}
		store.requests[pair{"T1", "U2"}] = repository.TeamRequest{
			TeamID:    "T1",
			UserID:    "U2",
			Direction: model.DirectionUserApplies,
			CreatedAt: lifecycleStart,
			ExpiresAt: lifecycleStart.Add(model.TeamRequestTTL),
		}

		_, err := requests.AcceptTeamRequest(ctx, participant("U1"), "T1", "U2")
		require.NotNil(t, err)
		assert.Equal(t, ErrorCodeAlreadyMember, err.Code)

		_, ok := store.request("T1", "U2")
		assert.True(t, ok, "delete must be rolled back with the failed insert")
	})
}

func TestLifecycle_CreatorAcceptedAsLeader(t *testing.T) {
	ctx := context.Background()

	store := newMemStore()
	store.addUser("U1", "H1")
	store.teams["T9"] = repository.Team{ID: "T9", Name: "Imported", HackathonID: "H1", CreatorID: "U1"}
	store.requests[pair{"T9", "U1"}] = repository.TeamRequest{
		TeamID:    "T9",
		UserID:    "U1",
		Direction: model.DirectionLeaderInvites,
		CreatedAt: lifecycleStart,
		ExpiresAt: lifecycleStart.Add(model.TeamRequestTTL),
	}

	_, requests := newMemServices(store, &fakeClock{now: lifecycleStart.Add(time.Hour)})

	member, err := requests.AcceptTeamRequest(ctx, participant("U1"), "T9", "U1")
	require.Nil(t, err)
	assert.True(t, member.IsLeader)

	stored, ok := store.member("T9", "U1")
	require.True(t, ok)
	assert.True(t, stored.IsLeader)
}
