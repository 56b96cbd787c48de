package domain

import "time"

// DefaultTodoStatusID is the seeded status assigned when none is given.
const DefaultTodoStatusID = "status_pending"

type TodoStatus struct {
	ID   string
	Name string
}

// Todo is a tracked task. Creator, assignee, and team are all optional;
// authorization reads them but a todo with none of them set is "unowned"
// and only elevated roles may mutate it.
type Todo struct {
	ID          string
	Title       string
	Description string
	DueDate     *time.Time
	StatusID    string
	AssignedTo  *string // user id
	CreatedBy   *string // user id
	TeamID      *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
