package store

import (
	"context"
	"errors"

	"github.com/crewtask/crewtask/internal/api/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Users() Users
	Roles() Roles
	Teams() Teams
	Todos() Todos

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername looks up by the normalized (lowercase) username.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// A duplicate username maps to ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateTOTPSecret replaces the TOTP secret, invalidating the old one.
	UpdateTOTPSecret(ctx context.Context, userID string, secret string) error

	// UpdatePasswordHash sets the password_hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// DeleteUser cascades to role assignments and memberships (per schema).
	DeleteUser(ctx context.Context, userID string) error

	// ListUsers returns all users ordered by creation date.
	ListUsers(ctx context.Context) ([]domain.User, error)
}

type Roles interface {
	// GetSystemRoleByName fetches a system role by its unique name.
	GetSystemRoleByName(ctx context.Context, name string) (domain.SystemRole, error)

	// ListSystemRoles returns all system roles.
	ListSystemRoles(ctx context.Context) ([]domain.SystemRole, error)

	// AssignSystemRole links a user to a system role. Assigning an already
	// held role is a no-op.
	AssignSystemRole(ctx context.Context, userID, roleID string) error

	// ListUserSystemRoles returns a user's system roles in assignment
	// order; the first entry is the primary role.
	ListUserSystemRoles(ctx context.Context, userID string) ([]domain.SystemRole, error)

	// GetTeamRoleByName fetches a team role by its unique name.
	GetTeamRoleByName(ctx context.Context, name string) (domain.TeamRole, error)

	// ListTeamRoles returns all team roles.
	ListTeamRoles(ctx context.Context) ([]domain.TeamRole, error)
}

type Teams interface {
	GetTeamByID(ctx context.Context, id string) (domain.Team, error)
	ListTeams(ctx context.Context) ([]domain.Team, error)
	CreateTeam(ctx context.Context, t domain.Team) error
	UpdateTeam(ctx context.Context, t domain.Team) error
	DeleteTeam(ctx context.Context, id string) error

	// UpsertMember adds a user to a team or, when a membership row already
	// exists, replaces its team role. Keeps the at-most-one-row-per-pair
	// invariant.
	UpsertMember(ctx context.Context, m domain.TeamMember) error

	RemoveMember(ctx context.Context, teamID, userID string) error
	ListMembers(ctx context.Context, teamID string) ([]domain.TeamMember, error)

	// IsMember reports whether the user holds any role in the team.
	IsMember(ctx context.Context, teamID, userID string) (bool, error)
}

type Todos interface {
	GetTodoByID(ctx context.Context, id string) (domain.Todo, error)
	ListTodos(ctx context.Context) ([]domain.Todo, error)
	CreateTodo(ctx context.Context, t domain.Todo) error
	UpdateTodo(ctx context.Context, t domain.Todo) error
	DeleteTodo(ctx context.Context, id string) error

	GetStatusByID(ctx context.Context, id string) (domain.TodoStatus, error)
	ListStatuses(ctx context.Context) ([]domain.TodoStatus, error)
}
