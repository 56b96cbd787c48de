package sqlite

import (
	"context"

	"github.com/crewtask/crewtask/internal/api/domain"
)

type rolesRepo struct {
	db dbtx
}

func (r *rolesRepo) GetSystemRoleByName(ctx context.Context, name string) (domain.SystemRole, error) {
	var role domain.SystemRole
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name FROM system_roles WHERE name = ?`, name).
		Scan(&role.ID, &role.Name)
	if err != nil {
		return domain.SystemRole{}, mapNotFound(err)
	}
	return role, nil
}

func (r *rolesRepo) ListSystemRoles(ctx context.Context) ([]domain.SystemRole, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name FROM system_roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SystemRole
	for rows.Next() {
		var role domain.SystemRole
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

func (r *rolesRepo) AssignSystemRole(ctx context.Context, userID, roleID string) error {
	// Assigning an already-held role is a no-op
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_system_roles (user_id, role_id)
		VALUES (?, ?)
		ON CONFLICT (user_id, role_id) DO NOTHING`,
		userID, roleID)
	return err
}

func (r *rolesRepo) ListUserSystemRoles(ctx context.Context, userID string) ([]domain.SystemRole, error) {
	// Assignment order; the first role is the user's primary role
	rows, err := r.db.QueryContext(ctx, `
		SELECT sr.id, sr.name
		FROM user_system_roles usr
		JOIN system_roles sr ON sr.id = usr.role_id
		WHERE usr.user_id = ?
		ORDER BY usr.created_at, sr.id`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SystemRole
	for rows.Next() {
		var role domain.SystemRole
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

func (r *rolesRepo) GetTeamRoleByName(ctx context.Context, name string) (domain.TeamRole, error) {
	var role domain.TeamRole
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name FROM team_roles WHERE name = ?`, name).
		Scan(&role.ID, &role.Name)
	if err != nil {
		return domain.TeamRole{}, mapNotFound(err)
	}
	return role, nil
}

func (r *rolesRepo) ListTeamRoles(ctx context.Context) ([]domain.TeamRole, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name FROM team_roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TeamRole
	for rows.Next() {
		var role domain.TeamRole
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}
