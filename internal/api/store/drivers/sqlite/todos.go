package sqlite

import (
	"context"
	"database/sql"

	"github.com/crewtask/crewtask/internal/api/domain"
)

type todosRepo struct {
	db dbtx
}

const todoColumns = `id, title, description, due_date, status_id, assigned_to, created_by, team_id, created_at, updated_at`

func scanTodo(row interface{ Scan(...any) error }) (domain.Todo, error) {
	var (
		t          domain.Todo
		dueDate    sql.NullTime
		assignedTo sql.NullString
		createdBy  sql.NullString
		teamID     sql.NullString
	)
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&dueDate,
		&t.StatusID,
		&assignedTo,
		&createdBy,
		&teamID,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return domain.Todo{}, err
	}
	t.DueDate = mapNullTimePtr(dueDate)
	t.AssignedTo = mapNullStringPtr(assignedTo)
	t.CreatedBy = mapNullStringPtr(createdBy)
	t.TeamID = mapNullStringPtr(teamID)
	return t, nil
}

func (r *todosRepo) GetTodoByID(ctx context.Context, id string) (domain.Todo, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE id = ?`, id)
	t, err := scanTodo(row)
	if err != nil {
		return domain.Todo{}, mapNotFound(err)
	}
	return t, nil
}

func (r *todosRepo) ListTodos(ctx context.Context) ([]domain.Todo, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+todoColumns+` FROM todos ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *todosRepo) CreateTodo(ctx context.Context, t domain.Todo) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO todos (id, title, description, due_date, status_id, assigned_to, created_by, team_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description,
		mapOptionalTime(t.DueDate), t.StatusID,
		mapOptionalString(t.AssignedTo), mapOptionalString(t.CreatedBy), mapOptionalString(t.TeamID))
	return mapConstraint(err)
}

func (r *todosRepo) UpdateTodo(ctx context.Context, t domain.Todo) error {
	return r.expectOneRow(ctx, `
		UPDATE todos
		SET title = ?, description = ?, due_date = ?, status_id = ?,
		    assigned_to = ?, team_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		t.Title, t.Description, mapOptionalTime(t.DueDate), t.StatusID,
		mapOptionalString(t.AssignedTo), mapOptionalString(t.TeamID), t.ID)
}

func (r *todosRepo) DeleteTodo(ctx context.Context, id string) error {
	return r.expectOneRow(ctx, `DELETE FROM todos WHERE id = ?`, id)
}

func (r *todosRepo) GetStatusByID(ctx context.Context, id string) (domain.TodoStatus, error) {
	var st domain.TodoStatus
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name FROM todo_statuses WHERE id = ?`, id).
		Scan(&st.ID, &st.Name)
	if err != nil {
		return domain.TodoStatus{}, mapNotFound(err)
	}
	return st, nil
}

func (r *todosRepo) ListStatuses(ctx context.Context) ([]domain.TodoStatus, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name FROM todo_statuses ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TodoStatus
	for rows.Next() {
		var st domain.TodoStatus
		if err := rows.Scan(&st.ID, &st.Name); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (r *todosRepo) expectOneRow(ctx context.Context, query string, args ...any) error {
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
