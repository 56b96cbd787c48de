package sqlite

import (
	"context"
	"database/sql"

	"github.com/crewtask/crewtask/internal/api/domain"
)

type teamsRepo struct {
	db dbtx
}

const teamColumns = `id, name, description, created_at, updated_at`

func scanTeam(row interface{ Scan(...any) error }) (domain.Team, error) {
	var t domain.Team
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (r *teamsRepo) GetTeamByID(ctx context.Context, id string) (domain.Team, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+teamColumns+` FROM teams WHERE id = ?`, id)
	t, err := scanTeam(row)
	if err != nil {
		return domain.Team{}, mapNotFound(err)
	}
	return t, nil
}

func (r *teamsRepo) ListTeams(ctx context.Context) ([]domain.Team, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+teamColumns+` FROM teams ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *teamsRepo) CreateTeam(ctx context.Context, t domain.Team) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO teams (id, name, description)
		VALUES (?, ?, ?)`,
		t.ID, t.Name, t.Description)
	return mapConstraint(err)
}

func (r *teamsRepo) UpdateTeam(ctx context.Context, t domain.Team) error {
	return r.expectOneRow(ctx, `
		UPDATE teams SET name = ?, description = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		t.Name, t.Description, t.ID)
}

func (r *teamsRepo) DeleteTeam(ctx context.Context, id string) error {
	return r.expectOneRow(ctx, `DELETE FROM teams WHERE id = ?`, id)
}

func (r *teamsRepo) UpsertMember(ctx context.Context, m domain.TeamMember) error {
	// One membership row per (user, team); re-adding swaps the team role
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO team_members (user_id, team_id, team_role_id)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, team_id) DO UPDATE SET team_role_id = excluded.team_role_id`,
		m.UserID, m.TeamID, m.TeamRoleID)
	return err
}

func (r *teamsRepo) RemoveMember(ctx context.Context, teamID, userID string) error {
	return r.expectOneRow(ctx,
		`DELETE FROM team_members WHERE team_id = ? AND user_id = ?`,
		teamID, userID)
}

func (r *teamsRepo) ListMembers(ctx context.Context, teamID string) ([]domain.TeamMember, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, team_id, team_role_id, created_at
		FROM team_members WHERE team_id = ?
		ORDER BY created_at, user_id`,
		teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TeamMember
	for rows.Next() {
		var m domain.TeamMember
		if err := rows.Scan(&m.UserID, &m.TeamID, &m.TeamRoleID, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *teamsRepo) IsMember(ctx context.Context, teamID, userID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM team_members WHERE team_id = ? AND user_id = ?`,
		teamID, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *teamsRepo) expectOneRow(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}
