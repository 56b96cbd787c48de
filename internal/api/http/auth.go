package http

import (
	"net/http"

	"github.com/crewtask/crewtask/internal/api/domain"
	"github.com/crewtask/crewtask/internal/api/service"
	"github.com/crewtask/crewtask/pkg/httpx"
)

// AuthHandler serves registration and login.
type AuthHandler struct {
	AuthService *service.AuthService
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerResponse struct {
	User            domain.PublicUser `json:"user"`
	ProvisioningURI string            `json:"provisioning_uri"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

type loginResponse struct {
	Token string            `json:"token"`
	Role  string            `json:"role"`
	User  domain.PublicUser `json:"user"`
}

// HandleRegister handles POST /v1/auth/register.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.AuthService.Register(ctx, req.Username, req.Password)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	// The provisioning URI carries the shared secret; make sure nothing caches it
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusCreated, registerResponse{
		User:            res.User,
		ProvisioningURI: res.ProvisioningURI,
	})
}

// HandleLogin handles POST /v1/auth/login. Username, password and
// verification code are checked in a single round trip.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.AuthService.Login(ctx, req.Username, req.Password, req.Code)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		Token: res.Token,
		Role:  res.Role,
		User:  res.User,
	})
}
