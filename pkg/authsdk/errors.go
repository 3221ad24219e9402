package authsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/rodneyauth/pkg/httpx"
)

// Error codes carried in the "error" field of every error body.
const (
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeInvalidCode        = "invalid_code"
	ErrorCodeNotEnrolled        = "not_enrolled"
	ErrorCodeChallengeRequired  = "challenge_required"
	ErrorCodeDuplicateEmail     = "duplicate_email"
	ErrorCodeNotAuthorized      = "not_authorized"
	ErrorCodeInvalidInput       = "invalid_input"
	ErrorCodeNotFound           = "not_found"
	ErrorCodeInvalidEnrollment  = "invalid_enrollment"
	ErrorCodeAlreadyEnrolled    = "already_enrolled"
	ErrorCodeUnauthenticated    = "unauthenticated"
	ErrorCodeServerError        = "server_error"
)

// APIError is the error body returned by the service. The server writes it
// with WriteError and the client hands it back from failed calls.
type APIError struct {
	StatusCode int `json:"-"`

	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Is matches on Code, so errors.Is(err, authsdk.ErrInvalidCode) works for
// errors parsed from a response.
func (e *APIError) Is(target error) bool {
	var t *APIError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WriteError writes e as a JSON error response.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:            e.Code,
		ErrorDescription: e.Description,
	})
}

// WithDescription returns a copy of e with a different description.
func (e *APIError) WithDescription(desc string) *APIError {
	c := *e
	c.Description = desc
	return &c
}

var (
	ErrInvalidCredentials = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCredentials,
		Description: "invalid email or password",
	}

	ErrInvalidCode = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCode,
		Description: "invalid authenticator code",
	}

	ErrNotEnrolled = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeNotEnrolled,
		Description: "authenticator is not set up for this account",
	}

	// ErrChallengeRequired means the password step has to be completed (again)
	// before an authenticator code is accepted.
	ErrChallengeRequired = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeChallengeRequired,
		Description: "sign in with your password first",
	}

	ErrDuplicateEmail = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeDuplicateEmail,
		Description: "an account with this email already exists",
	}

	ErrNotAuthorized = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeNotAuthorized,
		Description: "not authorized",
	}

	ErrInvalidInput = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidInput,
		Description: "the request is malformed or missing required fields",
	}

	ErrNotFound = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeNotFound,
		Description: "not found",
	}

	ErrInvalidEnrollment = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidEnrollment,
		Description: "enrollment expired or invalid, start again",
	}

	ErrAlreadyEnrolled = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeAlreadyEnrolled,
		Description: "authenticator already set up",
	}

	ErrUnauthenticated = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeUnauthenticated,
		Description: "no active session",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)

// parseErrorResponse turns a non-2xx response into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
