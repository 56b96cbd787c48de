package http

import (
	"net/http"

	"github.com/crewtask/crewtask/internal/api/service"
	"github.com/crewtask/crewtask/pkg/httpx"
	qrcode "github.com/skip2/go-qrcode"
)

// MFAHandler serves authenticator enrollment for the logged-in user.
type MFAHandler struct {
	MFAService *service.MFAService
}

type mfaVerifyRequest struct {
	Code string `json:"code"`
}

type mfaURIResponse struct {
	ProvisioningURI string `json:"provisioning_uri"`
}

type mfaVerifyResponse struct {
	Valid bool `json:"valid"`
}

// HandleSetup handles POST /v1/mfa/setup.
func (h *MFAHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	uri, err := h.MFAService.Setup(ctx, httpx.UserIDFromCtx(ctx))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, mfaURIResponse{ProvisioningURI: uri})
}

// HandleVerify handles POST /v1/mfa/verify. Lets an authenticated user
// confirm their authenticator still produces accepted codes, typically
// after a Setup or Reset re-enrollment.
func (h *MFAHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req mfaVerifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	valid, err := h.MFAService.VerifyCode(ctx, httpx.UserIDFromCtx(ctx), req.Code)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, mfaVerifyResponse{Valid: valid})
}

// HandleReset handles POST /v1/mfa/reset. The old secret stops working
// immediately.
func (h *MFAHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	uri, err := h.MFAService.Reset(ctx, httpx.UserIDFromCtx(ctx))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, mfaURIResponse{ProvisioningURI: uri})
}

// HandleQR handles GET /v1/mfa/qr, rendering the provisioning URI as a PNG
// for authenticator apps to scan.
func (h *MFAHandler) HandleQR(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	uri, err := h.MFAService.Setup(ctx, httpx.UserIDFromCtx(ctx))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	png, err := qrcode.Encode(uri, qrcode.Medium, 256)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.NoCache(w)
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
