package http

import (
	"net/http"

	"github.com/crewtask/crewtask/internal/api/service"
	"github.com/crewtask/crewtask/pkg/httpx"
)

// UsersHandler serves account queries and admin-only account management.
type UsersHandler struct {
	UserService *service.UserService
}

type promoteRequest struct {
	Role string `json:"role"`
}

// HandleMe handles GET /v1/users/me.
func (h *UsersHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := h.UserService.Get(ctx, httpx.UserIDFromCtx(ctx))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, user)
}

// HandleList handles GET /v1/users.
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.UserService.List(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, users)
}

// HandleDelete handles DELETE /v1/users/{id}.
func (h *UsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.UserService.Delete(ctx, r.PathValue("id")); err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandlePromote handles POST /v1/users/{id}/roles.
func (h *UsersHandler) HandlePromote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req promoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.UserService.Promote(ctx, r.PathValue("id"), req.Role); err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
