package authsdk

import (
	"context"
	"net/http"
	"net/url"
)

// Administration calls. They need an ADMIN session in the jar.

func (c *SDKClient) ListUsers(ctx context.Context) (*ListUsersResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/admin/users", nil, nil)
	if err != nil {
		return nil, err
	}

	var out ListUsersResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *SDKClient) UpdateUserRole(ctx context.Context, userID, role string) error {
	return c.adminWrite(ctx, http.MethodPut, userID, "/role", UpdateRoleRequest{Role: role})
}

func (c *SDKClient) SetTwoFactorRequirement(ctx context.Context, userID string, required bool) error {
	return c.adminWrite(ctx, http.MethodPut, userID, "/two-factor-requirement", TwoFactorRequirementRequest{Required: required})
}

func (c *SDKClient) UpdateUserPassword(ctx context.Context, userID, password string) error {
	return c.adminWrite(ctx, http.MethodPut, userID, "/password", UpdatePasswordRequest{Password: password})
}

// ResetTwoFactor removes a user's authenticator.
func (c *SDKClient) ResetTwoFactor(ctx context.Context, userID string) error {
	return c.adminWrite(ctx, http.MethodDelete, userID, "/two-factor", nil)
}

func (c *SDKClient) adminWrite(ctx context.Context, method, userID, suffix string, payload any) error {
	resp, err := c.doJSON(ctx, method, "/v1/admin/users/"+url.PathEscape(userID)+suffix, payload)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}
