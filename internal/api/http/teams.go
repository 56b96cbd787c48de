package http

import (
	"net/http"

	"github.com/crewtask/crewtask/internal/api/service"
	"github.com/crewtask/crewtask/pkg/httpx"
)

// TeamsHandler serves team CRUD and membership management.
type TeamsHandler struct {
	TeamService *service.TeamService
}

type teamRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type addMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// HandleList handles GET /v1/teams.
func (h *TeamsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	teams, err := h.TeamService.List(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, teams)
}

// HandleGet handles GET /v1/teams/{id}.
func (h *TeamsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	team, err := h.TeamService.Get(ctx, r.PathValue("id"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, team)
}

// HandleCreate handles POST /v1/teams. The caller becomes the team lead.
func (h *TeamsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req teamRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	team, err := h.TeamService.Create(ctx, req.Name, req.Description, httpx.UserIDFromCtx(ctx))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, team)
}

// HandleUpdate handles PUT /v1/teams/{id}.
func (h *TeamsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req teamRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	team, err := h.TeamService.Update(ctx, r.PathValue("id"), req.Name, req.Description)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, team)
}

// HandleDelete handles DELETE /v1/teams/{id}.
func (h *TeamsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.TeamService.Delete(ctx, r.PathValue("id")); err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleListMembers handles GET /v1/teams/{id}/members.
func (h *TeamsHandler) HandleListMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	members, err := h.TeamService.ListMembers(ctx, r.PathValue("id"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, members)
}

// HandleAddMember handles POST /v1/teams/{id}/members.
func (h *TeamsHandler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req addMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.TeamService.AddMember(ctx, r.PathValue("id"), req.UserID, req.Role); err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleRemoveMember handles DELETE /v1/teams/{id}/members/{userID}.
func (h *TeamsHandler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.TeamService.RemoveMember(ctx, r.PathValue("id"), r.PathValue("userID")); err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
