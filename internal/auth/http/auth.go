package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/rodneyauth/internal/auth/service"
	"github.com/aussiebroadwan/rodneyauth/pkg/authsdk"
	"github.com/aussiebroadwan/rodneyauth/pkg/httpx"
)

// AuthHandler serves registration, login and logout.
type AuthHandler struct {
	AuthService       *service.AuthService
	EnrollmentService *service.EnrollmentService
	Cookies           CookieConfig
}

// HandleBeginEnrollment handles POST /v1/register/enrollment
//
//	@Summary		Begin authenticator enrollment for registration
//	@Description	Generates a TOTP secret for an email that is not registered yet. The secret only reaches an account once Register is called with a valid code and the returned ticket.
//	@Tags			Registration
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.EnrollmentRequest	true	"Email to enroll"
//	@Success		200		{object}	authsdk.EnrollmentResponse	"Secret, QR code and ticket"
//	@Failure		400		{object}	authsdk.ErrorResponse		"Malformed email"
//	@Failure		409		{object}	authsdk.ErrorResponse		"Email already registered"
//	@Router			/v1/register/enrollment [post].
func (h *AuthHandler) HandleBeginEnrollment(w http.ResponseWriter, r *http.Request) {
	var req authsdk.EnrollmentRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	enr, err := h.EnrollmentService.Begin(r.Context(), req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toEnrollmentResponse(enr))
}

// HandleRegister handles POST /v1/register
//
//	@Summary		Register
//	@Description	Creates a MEMBER account and signs it in. With enable_two_factor set, the enrollment ticket and a current code are required and nothing is created unless the code is valid.
//	@Tags			Registration
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterRequest	true	"Account details"
//	@Success		201		{object}	authsdk.FlowResponse	"Signed in; session cookie set"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Invalid input or enrollment"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid authenticator code"
//	@Failure		409		{object}	authsdk.ErrorResponse	"Email already registered"
//	@Router			/v1/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	out, err := h.AuthService.Register(r.Context(), service.RegisterRequest{
		Email:            req.Email,
		Name:             req.Name,
		Password:         req.Password,
		EnableTwoFactor:  req.EnableTwoFactor,
		EnrollmentTicket: req.EnrollmentTicket,
		Code:             req.Code,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.Cookies.setSession(w, out.Session)
	httpx.WriteJSON(w, http.StatusCreated, toFlowResponse(out))
}

// HandleLoginPassword handles POST /v1/login/password
//
//	@Summary		Sign in with a password
//	@Description	Accounts with an authenticator get a challenge cookie and redirect_to the authenticator page instead of a session.
//	@Description	Accounts that require two-factor but have no authenticator get an enrollment to confirm at /v1/login/enroll, and no session.
//	@Tags			Login
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginPasswordRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.FlowResponse			"Signed in, or challenge issued"
//	@Failure		401		{object}	authsdk.ErrorResponse			"Invalid email or password"
//	@Router			/v1/login/password [post].
func (h *AuthHandler) HandleLoginPassword(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginPasswordRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	out, err := h.AuthService.LoginPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if out.Challenge != nil {
		h.Cookies.setChallenge(w, out.Challenge)
	}
	if out.Session != nil {
		h.Cookies.setSession(w, out.Session)
		h.Cookies.clearChallenge(w)
	}
	httpx.WriteJSON(w, http.StatusOK, toFlowResponse(out))
}

// HandleLoginTOTP handles POST /v1/login/totp
//
//	@Summary		Sign in with an authenticator code
//	@Description	Accounts that require two-factor must present the challenge cookie from the password step.
//	@Tags			Login
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginTOTPRequest	true	"Email and code"
//	@Success		200		{object}	authsdk.FlowResponse		"Signed in; session cookie set"
//	@Failure		401		{object}	authsdk.ErrorResponse		"Invalid code, not enrolled, or password step missing"
//	@Router			/v1/login/totp [post].
func (h *AuthHandler) HandleLoginTOTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginTOTPRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	out, err := h.AuthService.LoginTOTP(r.Context(), req.Email, req.Code, h.Cookies.challengeTicket(r))
	if err != nil {
		if errors.Is(err, service.ErrChallengeRequired) {
			h.Cookies.clearChallenge(w)
		}
		writeError(w, r, err)
		return
	}

	h.Cookies.setSession(w, out.Session)
	h.Cookies.clearChallenge(w)
	httpx.WriteJSON(w, http.StatusOK, toFlowResponse(out))
}

// HandleLoginEnroll handles POST /v1/login/enroll
//
//	@Summary		Finish authenticator setup and sign in
//	@Description	Confirms the enrollment handed out by the password step. The secret is stored and the session issued only when the code matches.
//	@Tags			Login
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.TOTPVerifyRequest	true	"Enrollment ticket and code"
//	@Success		200		{object}	authsdk.FlowResponse		"Signed in; session cookie set"
//	@Failure		400		{object}	authsdk.ErrorResponse		"Enrollment expired or invalid"
//	@Failure		401		{object}	authsdk.ErrorResponse		"Invalid code"
//	@Router			/v1/login/enroll [post].
func (h *AuthHandler) HandleLoginEnroll(w http.ResponseWriter, r *http.Request) {
	var req authsdk.TOTPVerifyRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	out, err := h.AuthService.CompleteEnrollment(r.Context(), req.Ticket, req.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.Cookies.setSession(w, out.Session)
	h.Cookies.clearChallenge(w)
	httpx.WriteJSON(w, http.StatusOK, toFlowResponse(out))
}

// HandleLogout handles POST /v1/logout
//
//	@Summary		Sign out
//	@Description	Destroys the current session, if any, and clears the cookies.
//	@Tags			Login
//	@Produce		json
//	@Success		200	{object}	authsdk.FlowResponse	"Signed out"
//	@Router			/v1/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	out, err := h.AuthService.Logout(r.Context(), h.Cookies.sessionToken(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.Cookies.clearSession(w)
	h.Cookies.clearChallenge(w)
	httpx.WriteJSON(w, http.StatusOK, toFlowResponse(out))
}

// HandleSession handles GET /v1/session
//
//	@Summary		Current session
//	@Tags			Login
//	@Produce		json
//	@Success		200	{object}	authsdk.SessionResponse	"Signed-in user"
//	@Failure		401	{object}	authsdk.ErrorResponse	"No active session"
//	@Router			/v1/session [get].
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	u := SessionUserFromContext(r.Context())
	if u == nil {
		authsdk.ErrUnauthenticated.WriteError(w)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toSessionResponse(u))
}
