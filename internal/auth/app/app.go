package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/rodneyauth/internal/auth/http"
	"github.com/aussiebroadwan/rodneyauth/internal/auth/service"
	"github.com/aussiebroadwan/rodneyauth/internal/auth/store"
	"github.com/aussiebroadwan/rodneyauth/pkg/cryptox"
	"github.com/aussiebroadwan/rodneyauth/pkg/jwtx"
	"github.com/aussiebroadwan/rodneyauth/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db      store.Store
	tickets *jwtx.Tickets

	// Services
	directory           *service.UserDirectory
	sessionService      *service.SessionService
	enrollmentService   *service.EnrollmentService
	authService         *service.AuthService
	adminService        *service.AdminService
	seedService         *service.SeedService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "rodneyauth",
			Version: cfg.BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing and ticket key derivation
	cryptox.SetPepperPath(app.cfg.PepperFile)

	ctx := context.Background()

	db, err := OpenStore(ctx, app.cfg, app.logger)
	if err != nil {
		return nil, err
	}
	app.db = db

	tickets, err := InitTickets(app.cfg, app.logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	app.tickets = tickets

	app.initServices()
	app.initHTTP()

	if app.cfg.SeedOnStart {
		if err := app.Seed(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return app, nil
}

// Handler exposes the router, mainly for in-process tests.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Seed creates the default accounts that don't exist yet.
func (app *Application) Seed(ctx context.Context) error {
	n, err := app.seedService.Seed(slogx.WithContext(ctx, app.logger), app.cfg.SeedPassword, app.seedAccounts())
	if err != nil {
		return fmt.Errorf("failed to seed accounts: %w", err)
	}
	app.logger.Info("seed complete", "created", n)
	return nil
}

func (app *Application) seedAccounts() []service.SeedAccount {
	accounts := service.DefaultSeedAccounts(app.cfg.SeedAdmin.Email, app.cfg.SeedManager.Email, app.cfg.SeedMember.Email)
	for i, id := range []SeedIdentity{app.cfg.SeedAdmin, app.cfg.SeedManager, app.cfg.SeedMember} {
		accounts[i].Name = id.Name
	}
	accounts[0].TwoFactorSecret = app.cfg.SeedAdminSecret
	return accounts
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", app.cfg.BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGrace)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// Close releases the store without touching the server. Used when Run was
// never called.
func (app *Application) Close() error {
	return app.db.Close()
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	verifier := service.Verifier{}

	app.directory = &service.UserDirectory{Store: app.db, Verifier: verifier}
	app.sessionService = &service.SessionService{Store: app.db, TTL: app.cfg.SessionTTL}
	app.enrollmentService = &service.EnrollmentService{
		Store:    app.db,
		Tickets:  app.tickets,
		Verifier: verifier,
		Issuer:   app.cfg.Issuer,
	}
	app.adminService = &service.AdminService{Directory: app.directory}
	app.seedService = &service.SeedService{Directory: app.directory}

	app.housekeepingService = service.NewHousekeepingService(
		app.sessionService,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.cfg.BuildVersion,
		app.db,
		app.tickets,
		app.logger,
	)

	router.Cookies.SessionName = app.cfg.SessionCookie
	router.Cookies.Secure = app.cfg.CookieSecure

	app.authService = &service.AuthService{
		Store:      app.db,
		Directory:  app.directory,
		Sessions:   app.sessionService,
		Enrollment: app.enrollmentService,
		Tickets:    app.tickets,
		Verifier:   service.Verifier{},
		Policy:     router.Policy,
	}

	// Wire services to router
	router.AuthService = app.authService
	router.SessionService = app.sessionService
	router.EnrollmentService = app.enrollmentService
	router.AdminService = app.adminService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
