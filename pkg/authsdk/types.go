package authsdk

import "time"

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ============================================================================
// Users
// ============================================================================

// UserProfile is a user as the API shows it. Password hashes and TOTP
// secrets are never part of it.
type UserProfile struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	Name              string    `json:"name"`
	Role              string    `json:"role"`
	TwoFactorEnabled  bool      `json:"two_factor_enabled"`
	RequiresTwoFactor bool      `json:"requires_two_factor"`
	CreatedAt         time.Time `json:"created_at"`
}

// SessionResponse is the signed-in user plus when the session ends.
type SessionResponse struct {
	UserProfile
	ExpiresAt time.Time `json:"expires_at"`
}

type ListUsersResponse struct {
	Users []UserProfile `json:"users"`
}

// ============================================================================
// Registration and login
// ============================================================================

type EnrollmentRequest struct {
	Email string `json:"email"`
}

// EnrollmentResponse carries a pending authenticator. Ticket must be sent
// back with the first code before ExpiresAt.
type EnrollmentResponse struct {
	Secret     string    `json:"secret"`
	OTPAuthURL string    `json:"otpauth_url"`
	QRCode     string    `json:"qr_code"`
	Issuer     string    `json:"issuer"`
	Account    string    `json:"account"`
	Ticket     string    `json:"ticket"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type RegisterRequest struct {
	Email           string `json:"email"`
	Name            string `json:"name"`
	Password        string `json:"password"`
	EnableTwoFactor bool   `json:"enable_two_factor"`

	// EnrollmentTicket and Code are required when EnableTwoFactor is set.
	EnrollmentTicket string `json:"enrollment_ticket,omitempty"`
	Code             string `json:"code,omitempty"`
}

type LoginPasswordRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginTOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// FlowResponse is returned by every step of the sign-in flows. RedirectTo is
// where the browser goes next.
type FlowResponse struct {
	RedirectTo string       `json:"redirect_to"`
	User       *UserProfile `json:"user,omitempty"`

	// ChallengeExpiresAt is set when an authenticator code is still needed.
	ChallengeExpiresAt *time.Time `json:"challenge_expires_at,omitempty"`

	// Enrollment is set when the account must set up an authenticator
	// before it can sign in. Finish it with CompleteEnrollment.
	Enrollment *EnrollmentResponse `json:"enrollment,omitempty"`
}

// ============================================================================
// Authenticated enrollment
// ============================================================================

type TOTPVerifyRequest struct {
	Ticket string `json:"ticket"`
	Code   string `json:"code"`
}

// ============================================================================
// Administration
// ============================================================================

type UpdateRoleRequest struct {
	Role string `json:"role"`
}

type TwoFactorRequirementRequest struct {
	Required bool `json:"required"`
}

type UpdatePasswordRequest struct {
	Password string `json:"password"`
}

// ============================================================================
// Pages
// ============================================================================

// AuthenticatorPage is the data behind the TOTP step of the login page.
type AuthenticatorPage struct {
	Email string `json:"email"`
}

// EntryPage is the data behind the sign-in page.
type EntryPage struct {
	SignedIn bool `json:"signed_in"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez (liveness) and /readyz (readiness) endpoints.
type HealthResponse struct {
	// Status is "ok" when healthy, "degraded" when a check failed.
	Status string `json:"status"`

	// Uptime is the duration the service has been running.
	Uptime string `json:"uptime"`

	// Version is the build version of the service.
	Version string `json:"version"`

	// Checks contains the status of individual components (only for /readyz).
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	Database string `json:"database"`
	Tickets  string `json:"tickets"`
}
