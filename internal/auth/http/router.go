package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/rodneyauth/internal/auth/access"
	"github.com/aussiebroadwan/rodneyauth/internal/auth/domain"
	"github.com/aussiebroadwan/rodneyauth/internal/auth/service"
	"github.com/aussiebroadwan/rodneyauth/internal/auth/store"
	"github.com/aussiebroadwan/rodneyauth/pkg/httpx"
	"github.com/aussiebroadwan/rodneyauth/pkg/jwtx"
	"github.com/aussiebroadwan/rodneyauth/pkg/slogx"

	_ "github.com/aussiebroadwan/rodneyauth/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store
	tickets      *jwtx.Tickets

	Policy  access.Policy
	Cookies CookieConfig

	AuthService       *service.AuthService
	SessionService    *service.SessionService
	EnrollmentService *service.EnrollmentService
	AdminService      *service.AdminService
}

func NewRouter(
	buildVersion string,
	st store.Store,
	tickets *jwtx.Tickets,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		store:        st,
		tickets:      tickets,
		Policy:       access.DefaultPolicy(),
		Cookies:      DefaultCookieConfig(),
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.Recover(),
		httpx.SecureHeaders(),
	}

	return r
}

// ApplyRoutes registers every route. Services must be set first.
func (r *Router) ApplyRoutes() {
	r.middlewares = append(r.middlewares,
		EdgeMiddleware(r.Policy, r.Cookies),
		SessionMiddleware(r.SessionService, r.Cookies),
	)

	r.registerPages()
	r.registerAuth()
	r.registerMFA()
	r.registerAdmin()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			RodneyAuth Authentication Service API
//	@version		0.1.0
//	@description	Password and TOTP sign-in with server-side sessions and role-based access.
//	@description
//	@description				Sessions are carried in an HttpOnly cookie; every endpoint below is called with it.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/rodneyauth
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	SessionCookie
//	@in							cookie
//	@name						rodney_session
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerPages() {
	h := &PageHandler{Policy: r.Policy, AdminService: r.AdminService}

	r.Mux.HandleFunc("GET /{$}", h.HandleEntry)
	r.Mux.HandleFunc("GET /authenticator", h.HandleAuthenticator)
	r.Mux.HandleFunc("GET /authenticator/setup", h.HandleAuthenticator)
	r.Mux.HandleFunc("GET /dashboard", h.HandleDashboard)
	r.Mux.HandleFunc("GET /admin/users", h.HandleAdminUsers)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		AuthService:       r.AuthService,
		EnrollmentService: r.EnrollmentService,
		Cookies:           r.Cookies,
	}

	r.Mux.HandleFunc("POST /v1/register/enrollment", h.HandleBeginEnrollment)
	r.Mux.HandleFunc("POST /v1/register", h.HandleRegister)
	r.Mux.HandleFunc("POST /v1/login/password", h.HandleLoginPassword)
	r.Mux.HandleFunc("POST /v1/login/totp", h.HandleLoginTOTP)
	r.Mux.HandleFunc("POST /v1/login/enroll", h.HandleLoginEnroll)
	r.Mux.HandleFunc("POST /v1/logout", h.HandleLogout)
	r.Mux.HandleFunc("GET /v1/session", h.HandleSession)
}

func (r *Router) registerMFA() {
	h := &MFAHandler{EnrollmentService: r.EnrollmentService}

	r.Mux.Handle("POST /v1/mfa/totp/enroll",
		httpx.Chain(http.HandlerFunc(h.HandleEnroll), RequireSession()),
	)
	r.Mux.Handle("POST /v1/mfa/totp/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerify), RequireSession()),
	)
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{AdminService: r.AdminService}
	admin := RequireRole(domain.RoleAdmin)

	r.Mux.Handle("GET /v1/admin/users",
		httpx.Chain(http.HandlerFunc(h.HandleList), admin))
	r.Mux.Handle("PUT /v1/admin/users/{id}/role",
		httpx.Chain(http.HandlerFunc(h.HandleUpdateRole), admin))
	r.Mux.Handle("PUT /v1/admin/users/{id}/two-factor-requirement",
		httpx.Chain(http.HandlerFunc(h.HandleSetTwoFactorRequirement), admin))
	r.Mux.Handle("PUT /v1/admin/users/{id}/password",
		httpx.Chain(http.HandlerFunc(h.HandleUpdatePassword), admin))
	r.Mux.Handle("DELETE /v1/admin/users/{id}/two-factor",
		httpx.Chain(http.HandlerFunc(h.HandleResetTwoFactor), admin))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.tickets))
}
