package domain

import "time"

type Team struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TeamMember ties a user to a team with exactly one team role at a time.
// The store enforces at most one row per (user, team) pair.
type TeamMember struct {
	UserID     string
	TeamID     string
	TeamRoleID string
	CreatedAt  time.Time
}
