package http

import (
	"net/http"

	"github.com/aussiebroadwan/rodneyauth/internal/auth/domain"
	"github.com/aussiebroadwan/rodneyauth/internal/auth/service"
	"github.com/aussiebroadwan/rodneyauth/pkg/authsdk"
	"github.com/aussiebroadwan/rodneyauth/pkg/httpx"
)

// AdminHandler serves the directory administration endpoints.
type AdminHandler struct {
	AdminService *service.AdminService
}

func toUserList(users []domain.Profile) authsdk.ListUsersResponse {
	out := authsdk.ListUsersResponse{Users: make([]authsdk.UserProfile, 0, len(users))}
	for _, u := range users {
		out.Users = append(out.Users, toUserProfile(u))
	}
	return out
}

// HandleList handles GET /v1/admin/users
//
//	@Summary		List users
//	@Description	Every user, newest first. Requires ADMIN.
//	@Tags			Admin
//	@Produce		json
//	@Success		200	{object}	authsdk.ListUsersResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"No active session"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Not an administrator"
//	@Router			/v1/admin/users [get].
func (h *AdminHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.AdminService.ListUsers(r.Context(), SessionUserFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserList(users))
}

// HandleUpdateRole handles PUT /v1/admin/users/{id}/role
//
//	@Summary		Change a user's role
//	@Tags			Admin
//	@Accept			json
//	@Param			id		path	string						true	"User ID"
//	@Param			request	body	authsdk.UpdateRoleRequest	true	"ADMIN, MANAGER or MEMBER"
//	@Success		204
//	@Failure		400	{object}	authsdk.ErrorResponse	"Unknown role or malformed id"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Not an administrator"
//	@Failure		404	{object}	authsdk.ErrorResponse	"User not found"
//	@Router			/v1/admin/users/{id}/role [put].
func (h *AdminHandler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	var req authsdk.UpdateRoleRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	err := h.AdminService.UpdateRole(r.Context(), SessionUserFromContext(r.Context()), r.PathValue("id"), req.Role)
	h.finish(w, r, err)
}

// HandleSetTwoFactorRequirement handles PUT /v1/admin/users/{id}/two-factor-requirement
//
//	@Summary		Require or waive two-factor for a user
//	@Tags			Admin
//	@Accept			json
//	@Param			id		path	string								true	"User ID"
//	@Param			request	body	authsdk.TwoFactorRequirementRequest	true	"Requirement"
//	@Success		204
//	@Failure		403	{object}	authsdk.ErrorResponse	"Not an administrator"
//	@Failure		404	{object}	authsdk.ErrorResponse	"User not found"
//	@Router			/v1/admin/users/{id}/two-factor-requirement [put].
func (h *AdminHandler) HandleSetTwoFactorRequirement(w http.ResponseWriter, r *http.Request) {
	var req authsdk.TwoFactorRequirementRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	err := h.AdminService.SetTwoFactorRequirement(r.Context(), SessionUserFromContext(r.Context()), r.PathValue("id"), req.Required)
	h.finish(w, r, err)
}

// HandleUpdatePassword handles PUT /v1/admin/users/{id}/password
//
//	@Summary		Set a user's password
//	@Tags			Admin
//	@Accept			json
//	@Param			id		path	string							true	"User ID"
//	@Param			request	body	authsdk.UpdatePasswordRequest	true	"New password"
//	@Success		204
//	@Failure		400	{object}	authsdk.ErrorResponse	"Password too short"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Not an administrator"
//	@Failure		404	{object}	authsdk.ErrorResponse	"User not found"
//	@Router			/v1/admin/users/{id}/password [put].
func (h *AdminHandler) HandleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req authsdk.UpdatePasswordRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	err := h.AdminService.UpdatePassword(r.Context(), SessionUserFromContext(r.Context()), r.PathValue("id"), req.Password)
	h.finish(w, r, err)
}

// HandleResetTwoFactor handles DELETE /v1/admin/users/{id}/two-factor
//
//	@Summary		Remove a user's authenticator
//	@Tags			Admin
//	@Param			id	path	string	true	"User ID"
//	@Success		204
//	@Failure		403	{object}	authsdk.ErrorResponse	"Not an administrator"
//	@Failure		404	{object}	authsdk.ErrorResponse	"User not found"
//	@Router			/v1/admin/users/{id}/two-factor [delete].
func (h *AdminHandler) HandleResetTwoFactor(w http.ResponseWriter, r *http.Request) {
	err := h.AdminService.ResetTwoFactor(r.Context(), SessionUserFromContext(r.Context()), r.PathValue("id"))
	h.finish(w, r, err)
}

func (h *AdminHandler) finish(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
