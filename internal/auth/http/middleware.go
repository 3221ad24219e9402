package http

import (
	"context"
	"net/http"

	"github.com/aussiebroadwan/rodneyauth/internal/auth/access"
	"github.com/aussiebroadwan/rodneyauth/internal/auth/domain"
	"github.com/aussiebroadwan/rodneyauth/internal/auth/service"
	"github.com/aussiebroadwan/rodneyauth/pkg/authsdk"
	"github.com/aussiebroadwan/rodneyauth/pkg/httpx"
	"github.com/aussiebroadwan/rodneyauth/pkg/slogx"
)

type ctxKey int

const ctxKeySessionUser ctxKey = iota

// SessionUserFromContext returns the user resolved by SessionMiddleware, or
// nil for anonymous requests.
func SessionUserFromContext(ctx context.Context) *domain.SessionUser {
	u, _ := ctx.Value(ctxKeySessionUser).(*domain.SessionUser)
	return u
}

// EdgeMiddleware redirects on cookie presence alone, before anything touches
// the store. It only runs for paths the policy matches.
func EdgeMiddleware(policy access.Policy, cookies CookieConfig) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !policy.Matches(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			d := policy.DecideEdge(cookies.sessionToken(r) != "", r.URL.Path)
			if d.IsRedirect() {
				http.Redirect(w, r, d.Location, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionMiddleware resolves the session cookie and attaches the user to the
// request context. Dead cookies are cleared on the same response.
func SessionMiddleware(sessions *service.SessionService, cookies CookieConfig) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := cookies.sessionToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			res, err := sessions.Resolve(ctx, token)
			if err != nil {
				slogx.FromContext(ctx).Error("failed to resolve session", "error", err)
				authsdk.ErrServerError.WriteError(w)
				return
			}
			if res.ClearCookie {
				cookies.clearSession(w)
			}
			if res.User != nil {
				ctx = context.WithValue(ctx, ctxKeySessionUser, res.User)
				ctx = slogx.WithUserID(ctx, res.User.ID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession rejects anonymous API calls with 401.
func RequireSession() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if SessionUserFromContext(r.Context()) == nil {
				authsdk.ErrUnauthenticated.WriteError(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole rejects API calls from users without one of roles. It runs
// before the handler reads the body.
func RequireRole(roles ...domain.Role) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := SessionUserFromContext(r.Context())
			if u == nil {
				authsdk.ErrUnauthenticated.WriteError(w)
				return
			}
			if err := access.RequireRole(u, roles...); err != nil {
				slogx.FromContext(r.Context()).Warn("role check failed", "path", r.URL.Path, "role", u.Role)
				authsdk.ErrNotAuthorized.WriteError(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
