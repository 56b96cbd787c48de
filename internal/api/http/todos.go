package http

import (
	"net/http"
	"time"

	"github.com/crewtask/crewtask/internal/api/service"
	"github.com/crewtask/crewtask/pkg/httpx"
)

// TodosHandler serves todo CRUD. Ownership checks live in the service.
type TodosHandler struct {
	TodoService *service.TodoService
}

type todoRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	StatusID    string     `json:"status_id,omitempty"`
	AssignedTo  *string    `json:"assigned_to,omitempty"`
	TeamID      *string    `json:"team_id,omitempty"`
}

func (req todoRequest) toInput() service.TodoInput {
	return service.TodoInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		StatusID:    req.StatusID,
		AssignedTo:  req.AssignedTo,
		TeamID:      req.TeamID,
	}
}

func actorFromCtx(r *http.Request) service.Actor {
	ctx := r.Context()
	return service.Actor{
		UserID: httpx.UserIDFromCtx(ctx),
		Role:   httpx.RoleFromCtx(ctx),
	}
}

// HandleList handles GET /v1/todos.
func (h *TodosHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	todos, err := h.TodoService.List(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, todos)
}

// HandleGet handles GET /v1/todos/{id}.
func (h *TodosHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	todo, err := h.TodoService.Get(ctx, r.PathValue("id"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, todo)
}

// HandleCreate handles POST /v1/todos.
func (h *TodosHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req todoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	todo, err := h.TodoService.Create(ctx, actorFromCtx(r), req.toInput())
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, todo)
}

// HandleUpdate handles PUT /v1/todos/{id}.
func (h *TodosHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req todoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	todo, err := h.TodoService.Update(ctx, actorFromCtx(r), r.PathValue("id"), req.toInput())
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, todo)
}

// HandleDelete handles DELETE /v1/todos/{id}.
func (h *TodosHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.TodoService.Delete(ctx, actorFromCtx(r), r.PathValue("id")); err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleListStatuses handles GET /v1/todos/statuses.
func (h *TodosHandler) HandleListStatuses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	statuses, err := h.TodoService.ListStatuses(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, statuses)
}
