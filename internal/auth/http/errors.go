package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/rodneyauth/internal/auth/service"
	"github.com/aussiebroadwan/rodneyauth/pkg/authsdk"
	"github.com/aussiebroadwan/rodneyauth/pkg/httpx"
	"github.com/aussiebroadwan/rodneyauth/pkg/slogx"
)

var errorTable = []struct {
	err error
	api *authsdk.APIError
}{
	{service.ErrInvalidCredentials, authsdk.ErrInvalidCredentials},
	{service.ErrInvalidCode, authsdk.ErrInvalidCode},
	{service.ErrNotEnrolled, authsdk.ErrNotEnrolled},
	{service.ErrChallengeRequired, authsdk.ErrChallengeRequired},
	{service.ErrDuplicateEmail, authsdk.ErrDuplicateEmail},
	{service.ErrNotAuthorized, authsdk.ErrNotAuthorized},
	{service.ErrUserNotFound, authsdk.ErrNotFound},
	{service.ErrInvalidEnrollment, authsdk.ErrInvalidEnrollment},
	{service.ErrAlreadyEnrolled, authsdk.ErrAlreadyEnrolled},
}

// writeError maps a service error onto its API error. Anything unknown is
// logged and reported as a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, e := range errorTable {
		if errors.Is(err, e.err) {
			e.api.WriteError(w)
			return
		}
	}

	switch {
	case errors.Is(err, service.ErrInvalidInput):
		authsdk.ErrInvalidInput.WithDescription(err.Error()).WriteError(w)
	case errors.Is(err, httpx.ErrBadJSON):
		authsdk.ErrInvalidInput.WithDescription("invalid JSON body").WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed", "error", err)
		authsdk.ErrServerError.WriteError(w)
	}
}
