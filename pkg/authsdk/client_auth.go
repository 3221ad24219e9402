package authsdk

import (
	"context"
	"net/http"
)

// BeginEnrollment starts authenticator setup for an email that is about to
// register.
func (c *SDKClient) BeginEnrollment(ctx context.Context, email string) (*EnrollmentResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/register/enrollment", EnrollmentRequest{Email: email})
	if err != nil {
		return nil, err
	}

	var out EnrollmentResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account and signs the client in.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*FlowResponse, error) {
	return c.flow(ctx, "/v1/register", req, http.StatusCreated)
}

// LoginPassword runs the password step. When the account has an
// authenticator the response redirects to the authenticator page and the
// jar holds the challenge cookie for LoginTOTP. When the account needs one
// but has none, the response carries an Enrollment instead.
func (c *SDKClient) LoginPassword(ctx context.Context, email, password string) (*FlowResponse, error) {
	return c.flow(ctx, "/v1/login/password", LoginPasswordRequest{Email: email, Password: password}, http.StatusOK)
}

// LoginTOTP completes sign-in with an authenticator code.
func (c *SDKClient) LoginTOTP(ctx context.Context, email, code string) (*FlowResponse, error) {
	return c.flow(ctx, "/v1/login/totp", LoginTOTPRequest{Email: email, Code: code}, http.StatusOK)
}

// CompleteEnrollment confirms the authenticator set up during LoginPassword
// and signs the client in.
func (c *SDKClient) CompleteEnrollment(ctx context.Context, ticket, code string) (*FlowResponse, error) {
	return c.flow(ctx, "/v1/login/enroll", TOTPVerifyRequest{Ticket: ticket, Code: code}, http.StatusOK)
}

// Logout ends the session held in the jar. It succeeds without one.
func (c *SDKClient) Logout(ctx context.Context) (*FlowResponse, error) {
	return c.flow(ctx, "/v1/logout", nil, http.StatusOK)
}

func (c *SDKClient) flow(ctx context.Context, path string, payload any, expected int) (*FlowResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}

	var out FlowResponse
	if err := decodeJSON(resp, &out, expected); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSession returns the signed-in user, or ErrUnauthenticated.
func (c *SDKClient) GetSession(ctx context.Context) (*SessionResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/session", nil, nil)
	if err != nil {
		return nil, err
	}

	var out SessionResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// EnrollTOTP starts authenticator setup for the signed-in user.
func (c *SDKClient) EnrollTOTP(ctx context.Context) (*EnrollmentResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/mfa/totp/enroll", nil, nil)
	if err != nil {
		return nil, err
	}

	var out EnrollmentResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyTOTP confirms the first code of an enrollment and activates it.
func (c *SDKClient) VerifyTOTP(ctx context.Context, ticket, code string) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/mfa/totp/verify", TOTPVerifyRequest{Ticket: ticket, Code: code})
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}
