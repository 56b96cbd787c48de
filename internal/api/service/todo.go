package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/crewtask/crewtask/internal/api/domain"
	"github.com/crewtask/crewtask/internal/api/store"
	"github.com/crewtask/crewtask/pkg/idx"
	"github.com/crewtask/crewtask/pkg/slogx"
)

const todoTitleMaxLength = 200

// Actor identifies who is performing an operation, as extracted from the
// access token at the transport layer.
type Actor struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the actor holds the administrative system role.
func (a Actor) IsAdmin() bool { return a.Role == domain.RoleSystemAdmin }

// TodoInput carries the writable fields of a todo.
type TodoInput struct {
	Title       string
	Description string
	DueDate     *time.Time
	StatusID    string
	AssignedTo  *string
	TeamID      *string
}

// TodoService manages todos and enforces the ownership policy: a todo may
// be modified by its creator or by any member of its team. A todo with
// neither creator nor team is frozen for regular users; only admins can
// remove it.
type TodoService struct {
	Store store.Store
}

func (s *TodoService) Get(ctx context.Context, id string) (domain.Todo, error) {
	todo, err := s.Store.Todos().GetTodoByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Todo{}, ErrNotFound
		}
		return domain.Todo{}, fmt.Errorf("todo lookup: %w", err)
	}
	return todo, nil
}

func (s *TodoService) List(ctx context.Context) ([]domain.Todo, error) {
	todos, err := s.Store.Todos().ListTodos(ctx)
	if err != nil {
		return nil, fmt.Errorf("todo list: %w", err)
	}
	return todos, nil
}

func (s *TodoService) Create(ctx context.Context, actor Actor, in TodoInput) (domain.Todo, error) {
	if err := s.validateInput(ctx, &in); err != nil {
		return domain.Todo{}, err
	}

	todo := domain.Todo{
		ID:          idx.New().String(),
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
		StatusID:    in.StatusID,
		AssignedTo:  in.AssignedTo,
		CreatedBy:   &actor.UserID,
		TeamID:      in.TeamID,
	}

	if err := s.Store.Todos().CreateTodo(ctx, todo); err != nil {
		return domain.Todo{}, fmt.Errorf("todo create: %w", err)
	}

	slogx.FromContext(ctx).Info("todo created", "todo_id", todo.ID, "user_id", actor.UserID)
	return todo, nil
}

func (s *TodoService) Update(ctx context.Context, actor Actor, id string, in TodoInput) (domain.Todo, error) {
	todo, err := s.Get(ctx, id)
	if err != nil {
		return domain.Todo{}, err
	}

	allowed, err := s.CanModify(ctx, actor, todo)
	if err != nil {
		return domain.Todo{}, err
	}
	if !allowed {
		return domain.Todo{}, ErrForbidden
	}

	if err := s.validateInput(ctx, &in); err != nil {
		return domain.Todo{}, err
	}

	todo.Title = in.Title
	todo.Description = in.Description
	todo.DueDate = in.DueDate
	todo.StatusID = in.StatusID
	todo.AssignedTo = in.AssignedTo
	todo.TeamID = in.TeamID

	if err := s.Store.Todos().UpdateTodo(ctx, todo); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Todo{}, ErrNotFound
		}
		return domain.Todo{}, fmt.Errorf("todo update: %w", err)
	}
	return todo, nil
}

func (s *TodoService) Delete(ctx context.Context, actor Actor, id string) error {
	todo, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	allowed, err := s.CanModify(ctx, actor, todo)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrForbidden
	}

	if err := s.Store.Todos().DeleteTodo(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("todo delete: %w", err)
	}

	slogx.FromContext(ctx).Info("todo deleted", "todo_id", id, "user_id", actor.UserID)
	return nil
}

func (s *TodoService) ListStatuses(ctx context.Context) ([]domain.TodoStatus, error) {
	statuses, err := s.Store.Todos().ListStatuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("status list: %w", err)
	}
	return statuses, nil
}

// CanModify applies the ownership policy. Admins may modify anything.
// Otherwise the actor must be the creator, or a member of the todo's team.
// A todo with no creator and no team cannot be modified by regular users.
func (s *TodoService) CanModify(ctx context.Context, actor Actor, todo domain.Todo) (bool, error) {
	if actor.IsAdmin() {
		return true, nil
	}

	if todo.CreatedBy != nil && *todo.CreatedBy == actor.UserID {
		return true, nil
	}

	if todo.TeamID != nil {
		member, err := s.Store.Teams().IsMember(ctx, *todo.TeamID, actor.UserID)
		if err != nil {
			return false, fmt.Errorf("membership check: %w", err)
		}
		return member, nil
	}

	return false, nil
}

// validateInput normalizes and checks the writable fields: title bounds,
// default status, status existence, and assignee membership when the todo
// belongs to a team.
func (s *TodoService) validateInput(ctx context.Context, in *TodoInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || len(in.Title) > todoTitleMaxLength {
		return fmt.Errorf("%w: title must be 1-%d characters", ErrValidation, todoTitleMaxLength)
	}

	if in.StatusID == "" {
		in.StatusID = domain.DefaultTodoStatusID
	}
	if _, err := s.Store.Todos().GetStatusByID(ctx, in.StatusID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: unknown status %q", ErrValidation, in.StatusID)
		}
		return fmt.Errorf("status lookup: %w", err)
	}

	if in.TeamID != nil {
		if _, err := s.Store.Teams().GetTeamByID(ctx, *in.TeamID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("%w: unknown team", ErrValidation)
			}
			return fmt.Errorf("team lookup: %w", err)
		}
	}

	if in.AssignedTo != nil {
		if _, err := s.Store.Users().GetUserByID(ctx, *in.AssignedTo); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("%w: unknown assignee", ErrValidation)
			}
			return fmt.Errorf("assignee lookup: %w", err)
		}

		// An assignee on a team todo must belong to that team
		if in.TeamID != nil {
			member, err := s.Store.Teams().IsMember(ctx, *in.TeamID, *in.AssignedTo)
			if err != nil {
				return fmt.Errorf("membership check: %w", err)
			}
			if !member {
				return fmt.Errorf("%w: assignee is not a member of the team", ErrValidation)
			}
		}
	}

	return nil
}
