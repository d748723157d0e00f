package model

import "time"

type Team struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	Description       *string       `json:"description,omitempty"`
	HackathonID       string        `json:"hackathon_id"`
	LookingForMembers bool          `json:"looking_for_members"`
	RequiredSkills    *string       `json:"required_skills,omitempty"`
	CreatorID         string        `json:"creator_id"`
	Members           []*TeamMember `json:"members,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// TeamInput is the validated payload of a team creation.
type TeamInput struct {
	Name              string  `json:"name" validate:"required,min=5,max=100"`
	Description       *string `json:"description" validate:"omitempty,max=2000"`
	HackathonID       string  `json:"hackathon_id" validate:"required"`
	LookingForMembers bool    `json:"looking_for_members"`
	RequiredSkills    *string `json:"required_skills" validate:"omitempty,max=500"`
}

// TeamPatch carries the mutable team fields; nil means unchanged.
type TeamPatch struct {
	Name              *string `json:"name" validate:"omitempty,min=5,max=100"`
	Description       *string `json:"description" validate:"omitempty,max=2000"`
	LookingForMembers *bool   `json:"looking_for_members"`
	RequiredSkills    *string `json:"required_skills" validate:"omitempty,max=500"`
}

func (p *TeamPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.LookingForMembers == nil && p.RequiredSkills == nil
}

type TeamMember struct {
	TeamID   string    `json:"team_id"`
	UserID   string    `json:"user_id"`
	IsLeader bool      `json:"is_leader"`
	JoinedAt time.Time `json:"joined_at"`
}

// IsLeader reports whether userID leads the team. The creator is always the leader.
func (t *Team) IsLeader(userID string) bool {
	return t.CreatorID == userID
}
