package service

import (
	"context"
	"github.com/yakoovad/hackathon-teams/internal/repository"
	"maps"
	"slices"
	"sync"
	"time"
)

type pair struct {
	a, b string
}

// memStore is an in-memory stand-in for the database. Its transactor restores a
// snapshot when the closure fails, so rollback behaviour is observable in tests.
type memStore struct {
	mu sync.Mutex

	teams         map[string]repository.Team
	members       map[pair]repository.TeamMember
	requests      map[pair]repository.TeamRequest
	users         map[string]bool
	registrations map[pair]bool
}

func newMemStore() *memStore {
	return &memStore{
		teams:         map[string]repository.Team{},
		members:       map[pair]repository.TeamMember{},
		requests:      map[pair]repository.TeamRequest{},
		users:         map[string]bool{},
		registrations: map[pair]bool{},
	}
}

func (s *memStore) addUser(userID string, hackathons ...string) {
	s.users[userID] = true
	for _, h := range hackathons {
		s.registrations[pair{userID, h}] = true
	}
}

func (s *memStore) request(teamID, userID string) (repository.TeamRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[pair{teamID, userID}]
	return r, ok
}

func (s *memStore) member(teamID, userID string) (repository.TeamMember, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[pair{teamID, userID}]
	return m, ok
}

type memTransactor struct {
	s *memStore
}

func (t memTransactor) WithinTransaction(ctx context.Context, fn func(context.Context) error) error {
	t.s.mu.Lock()
	teams, members, requests := maps.Clone(t.s.teams), maps.Clone(t.s.members), maps.Clone(t.s.requests)
	t.s.mu.Unlock()

	if err := fn(ctx); err != nil {
		t.s.mu.Lock()
		t.s.teams, t.s.members, t.s.requests = teams, members, requests
		t.s.mu.Unlock()
		return err
	}
	return nil
}

type memTeams struct{ s *memStore }

func (r memTeams) Create(_ context.Context, team *repository.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.teams[team.ID]; ok {
		return repository.ErrAlreadyExists
	}
	if !r.s.users[team.CreatorID] {
		return repository.ErrNotFound
	}
	team.CreatedAt = time.Now().UTC()
	team.UpdatedAt = team.CreatedAt
	r.s.teams[team.ID] = *team
	return nil
}

func (r memTeams) Get(_ context.Context, teamID string) (*repository.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	team, ok := r.s.teams[teamID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &team, nil
}

func (r memTeams) Patch(_ context.Context, patch *repository.TeamPatch) (*repository.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	team, ok := r.s.teams[patch.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if patch.Name != nil {
		team.Name = *patch.Name
	}
	if patch.Description != nil {
		team.Description = patch.Description
	}
	if patch.LookingForMembers != nil {
		team.LookingForMembers = *patch.LookingForMembers
	}
	if patch.RequiredSkills != nil {
		team.RequiredSkills = patch.RequiredSkills
	}
	r.s.teams[patch.ID] = team
	return &team, nil
}

type memMembers struct{ s *memStore }

func (r memMembers) Create(_ context.Context, m *repository.TeamMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := pair{m.TeamID, m.UserID}
	if _, ok := r.s.members[key]; ok {
		return repository.ErrAlreadyExists
	}
	if _, ok := r.s.teams[m.TeamID]; !ok {
		return repository.ErrNotFound
	}
	r.s.members[key] = *m
	return nil
}

func (r memMembers) Exists(_ context.Context, teamID, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.members[pair{teamID, userID}]
	return ok, nil
}

func (r memMembers) ListByTeam(_ context.Context, teamID string) ([]*repository.TeamMember, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res := make([]*repository.TeamMember, 0)
	for key, m := range r.s.members {
		if key.a == teamID {
			res = append(res, &m)
		}
	}
	slices.SortFunc(res, func(x, y *repository.TeamMember) int { return x.JoinedAt.Compare(y.JoinedAt) })
	return res, nil
}

type memRequests struct{ s *memStore }

func (r memRequests) Create(_ context.Context, req *repository.TeamRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := pair{req.TeamID, req.UserID}
	if _, ok := r.s.requests[key]; ok {
		return repository.ErrAlreadyExists
	}
	r.s.requests[key] = *req
	return nil
}

func (r memRequests) GetForUpdate(_ context.Context, teamID, userID string) (*repository.TeamRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[pair{teamID, userID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &req, nil
}

func (r memRequests) Delete(_ context.Context, teamID, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := pair{teamID, userID}
	if _, ok := r.s.requests[key]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.requests, key)
	return nil
}

func (r memRequests) ListActiveByUser(_ context.Context, userID string, now time.Time) ([]*repository.TeamRequest, error) {
	return r.listActive(func(req repository.TeamRequest) bool { return req.UserID == userID }, now), nil
}

func (r memRequests) ListActiveByTeam(_ context.Context, teamID string, now time.Time) ([]*repository.TeamRequest, error) {
	return r.listActive(func(req repository.TeamRequest) bool { return req.TeamID == teamID }, now), nil
}

func (r memRequests) listActive(match func(repository.TeamRequest) bool, now time.Time) []*repository.TeamRequest {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res := make([]*repository.TeamRequest, 0)
	for _, req := range r.s.requests {
		if match(req) && req.ExpiresAt.After(now) {
			res = append(res, &req)
		}
	}
	slices.SortFunc(res, func(x, y *repository.TeamRequest) int { return y.CreatedAt.Compare(x.CreatedAt) })
	return res
}

func (r memRequests) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for key, req := range r.s.requests {
		if !req.ExpiresAt.After(now) {
			delete(r.s.requests, key)
			n++
		}
	}
	return n, nil
}

type memUsers struct{ s *memStore }

func (r memUsers) Exists(_ context.Context, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.users[userID], nil
}

type memRegistrations struct{ s *memStore }

func (r memRegistrations) Exists(_ context.Context, userID, hackathonID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.registrations[pair{userID, hackathonID}], nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newMemServices(s *memStore, clock *fakeClock, teamIDs ...string) (*TeamService, *TeamRequestService) {
	tx := memTransactor{s: s}

	next := 0
	newID := func() string {
		id := teamIDs[next]
		next++
		return id
	}

	teams := NewTeamService(tx).
		WithTeamRepo(memTeams{s}).
		WithTeamMemberRepo(memMembers{s}).
		WithRegistrationRepo(memRegistrations{s}).
		WithClock(clock.Now).
		WithIDGenerator(newID)

	requests := NewTeamRequestService(tx).
		WithTeamRepo(memTeams{s}).
		WithTeamMemberRepo(memMembers{s}).
		WithTeamRequestRepo(memRequests{s}).
		WithUserRepo(memUsers{s}).
		WithRegistrationRepo(memRegistrations{s}).
		WithClock(clock.Now)

	return teams, requests
}
