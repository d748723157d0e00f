package model

import "time"

// TeamRequestTTL is the lifetime of an invitation or application.
// Elapsed time, so DST shifts never change it.
const TeamRequestTTL = 48 * time.Hour

type Direction string

const (
	DirectionLeaderInvites Direction = "LEADER_INVITES"
	DirectionUserApplies   Direction = "USER_APPLIES"
)

func (d Direction) Valid() bool {
	return d == DirectionLeaderInvites || d == DirectionUserApplies
}

type RequestState string

const (
	RequestStatePending RequestState = "PENDING"
	RequestStateExpired RequestState = "EXPIRED"
)

type TeamRequest struct {
	TeamID    string       `json:"team_id"`
	UserID    string       `json:"user_id"`
	Direction Direction    `json:"direction"`
	State     RequestState `json:"state"`
	CreatedAt time.Time    `json:"created_at"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// NewTeamRequest stamps a request created at now with its fixed expiry.
func NewTeamRequest(teamID, userID string, direction Direction, now time.Time) *TeamRequest {
	now = now.UTC()
	return &TeamRequest{
		TeamID:    teamID,
		UserID:    userID,
		Direction: direction,
		State:     RequestStatePending,
		CreatedAt: now,
		ExpiresAt: now.Add(TeamRequestTTL),
	}
}

// Active reports whether the request can still be accepted at now.
func (r *TeamRequest) Active(now time.Time) bool {
	return now.Before(r.ExpiresAt)
}

func (r *TeamRequest) StateAt(now time.Time) RequestState {
	if r.Active(now) {
		return RequestStatePending
	}
	return RequestStateExpired
}

// Caller is the authenticated identity performing an operation.
type Caller struct {
	UserID string
	Role   Role
}

type Role string

const (
	RoleParticipant Role = "participant"
	RoleOrganizer   Role = "organizer"
	RoleAdmin       Role = "admin"
)

func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}
