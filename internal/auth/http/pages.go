package http

import (
	"net/http"

	"github.com/aussiebroadwan/rodneyauth/internal/auth/access"
	"github.com/aussiebroadwan/rodneyauth/internal/auth/service"
	"github.com/aussiebroadwan/rodneyauth/pkg/authsdk"
	"github.com/aussiebroadwan/rodneyauth/pkg/httpx"
)

// PageHandler serves the data behind each page after running the full
// access policy against the resolved session.
type PageHandler struct {
	Policy       access.Policy
	AdminService *service.AdminService
}

// guard runs the policy for r and writes the redirect if there is one.
func (h *PageHandler) guard(w http.ResponseWriter, r *http.Request) bool {
	d := h.Policy.Decide(SessionUserFromContext(r.Context()), r.URL.Path)
	if d.IsRedirect() {
		http.Redirect(w, r, d.Location, http.StatusFound)
		return false
	}
	return true
}

// HandleEntry handles GET /
//
//	@Summary		Sign-in page
//	@Description	Redirects to the dashboard when a session exists.
//	@Tags			Pages
//	@Produce		json
//	@Success		200	{object}	authsdk.EntryPage
//	@Success		302	"Redirect to /dashboard"
//	@Router			/ [get].
func (h *PageHandler) HandleEntry(w http.ResponseWriter, r *http.Request) {
	if !h.guard(w, r) {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.EntryPage{SignedIn: false})
}

// HandleAuthenticator handles GET /authenticator and GET /authenticator/setup
//
//	@Summary		Authenticator step of the sign-in flow
//	@Tags			Pages
//	@Produce		json
//	@Param			email	query		string	false	"Email carried over from the password step"
//	@Success		200		{object}	authsdk.AuthenticatorPage
//	@Success		302		"Redirect to /dashboard"
//	@Router			/authenticator [get]
//	@Router			/authenticator/setup [get].
func (h *PageHandler) HandleAuthenticator(w http.ResponseWriter, r *http.Request) {
	if !h.guard(w, r) {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.AuthenticatorPage{Email: r.URL.Query().Get("email")})
}

// HandleDashboard handles GET /dashboard
//
//	@Summary		Dashboard
//	@Tags			Pages
//	@Produce		json
//	@Success		200	{object}	authsdk.SessionResponse
//	@Success		302	"Redirect to /"
//	@Router			/dashboard [get].
func (h *PageHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if !h.guard(w, r) {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toSessionResponse(SessionUserFromContext(r.Context())))
}

// HandleAdminUsers handles GET /admin/users
//
//	@Summary		User administration page
//	@Description	Non-admins are sent to the dashboard, anonymous visitors to /.
//	@Tags			Pages
//	@Produce		json
//	@Success		200	{object}	authsdk.ListUsersResponse
//	@Success		302	"Redirect"
//	@Router			/admin/users [get].
func (h *PageHandler) HandleAdminUsers(w http.ResponseWriter, r *http.Request) {
	if !h.guard(w, r) {
		return
	}

	users, err := h.AdminService.ListUsers(r.Context(), SessionUserFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserList(users))
}
