package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/crewtask/crewtask/internal/api/service"
	"github.com/crewtask/crewtask/pkg/httpx"
	"github.com/crewtask/crewtask/pkg/slogx"
)

// writeServiceError maps service sentinels onto HTTP status codes and the
// standard error body. Anything unrecognized is a 500 and gets logged; the
// client only ever sees "server_error".
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		httpx.WriteError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, service.ErrUsernameTaken):
		httpx.WriteError(w, http.StatusConflict, "username_taken", "username is already in use")
	case errors.Is(err, service.ErrAuthenticationFailed):
		httpx.WriteError(w, http.StatusUnauthorized, "authentication_failed", "invalid credentials")
	case errors.Is(err, service.ErrNotProvisioned):
		httpx.WriteError(w, http.StatusForbidden, "mfa_not_provisioned", "account has no authenticator enrolled")
	case errors.Is(err, service.ErrRateLimited):
		httpx.WriteError(w, http.StatusTooManyRequests, "too_many_attempts", "too many failed attempts, try again later")
	case errors.Is(err, service.ErrTooMany2FAAttempts):
		httpx.WriteError(w, http.StatusTooManyRequests, "too_many_code_attempts", "too many failed code attempts, try again later")
	case errors.Is(err, service.ErrForbidden):
		httpx.WriteError(w, http.StatusForbidden, "forbidden", "not allowed to perform this operation")
	case errors.Is(err, service.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "resource not found")
	default:
		slogx.FromContext(ctx).Error("request failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal server error")
	}
}

// decodeJSON parses the request body into v and writes the 400 itself on
// failure. Returns false when the caller should stop.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}
