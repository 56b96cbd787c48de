package domain

import "time"

// Well-known role names seeded by migration.
const (
	RoleTodoUser    = "todo_user"
	RoleSystemAdmin = "system_admin"

	TeamRoleLead   = "team_lead"
	TeamRoleMember = "team_member"
)

// SystemRole is a named system-wide role. Users and system roles are
// many-to-many through a plain join table carrying nothing but the pair.
type SystemRole struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// TeamRole is a named role scoped to team membership, distinct from
// system roles.
type TeamRole struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
