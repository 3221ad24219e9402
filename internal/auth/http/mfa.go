package http

import (
	"net/http"

	"github.com/aussiebroadwan/rodneyauth/internal/auth/service"
	"github.com/aussiebroadwan/rodneyauth/pkg/authsdk"
	"github.com/aussiebroadwan/rodneyauth/pkg/httpx"
)

// MFAHandler lets a signed-in user set up an authenticator.
type MFAHandler struct {
	EnrollmentService *service.EnrollmentService
}

// HandleEnroll handles POST /v1/mfa/totp/enroll
//
//	@Summary		Enroll in TOTP
//	@Description	Generates a TOTP secret for the signed-in user and returns it with a QR code and a ticket for the verify step.
//	@Tags			MFA
//	@Produce		json
//	@Success		200	{object}	authsdk.EnrollmentResponse	"TOTP secret and QR code"
//	@Failure		401	{object}	authsdk.ErrorResponse		"No active session"
//	@Failure		409	{object}	authsdk.ErrorResponse		"Authenticator already set up"
//	@Router			/v1/mfa/totp/enroll [post].
func (h *MFAHandler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	u := SessionUserFromContext(r.Context())

	enr, err := h.EnrollmentService.BeginForUser(r.Context(), u.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toEnrollmentResponse(enr))
}

// HandleVerify handles POST /v1/mfa/totp/verify
//
//	@Summary		Verify TOTP code and enable the authenticator
//	@Tags			MFA
//	@Accept			json
//	@Param			request	body	authsdk.TOTPVerifyRequest	true	"Ticket and code"
//	@Success		204
//	@Failure		400	{object}	authsdk.ErrorResponse	"Enrollment expired or invalid"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid code or no session"
//	@Router			/v1/mfa/totp/verify [post].
func (h *MFAHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	u := SessionUserFromContext(r.Context())

	var req authsdk.TOTPVerifyRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.EnrollmentService.Confirm(r.Context(), u.ID, req.Ticket, req.Code); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
