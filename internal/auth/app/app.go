package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/tanglebay/doorman/internal/auth/http"
	"github.com/tanglebay/doorman/internal/auth/service"
	"github.com/tanglebay/doorman/internal/auth/store"
	"github.com/tanglebay/doorman/internal/auth/store/drivers/sqlite"
	"github.com/tanglebay/doorman/pkg/cryptox"
	"github.com/tanglebay/doorman/pkg/slogx"
	"github.com/tanglebay/doorman/pkg/webauthn"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	db store.Store

	sessionService      *service.SessionService
	userService         *service.UserService
	resetService        *service.PasswordResetService
	verificationService *service.EmailVerificationService
	twoFactorService    *service.TwoFactorService
	webAuthnService     *service.WebAuthnService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "doorman",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
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
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
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

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(app.cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	mailer := &service.LogMailer{Logger: app.logger}

	app.sessionService = &service.SessionService{Store: app.db}
	app.userService = &service.UserService{Store: app.db}
	app.resetService = &service.PasswordResetService{
		Store:  app.db,
		Mailer: mailer,
	}
	app.verificationService = &service.EmailVerificationService{
		Store:  app.db,
		Mailer: mailer,
	}
	app.twoFactorService = &service.TwoFactorService{Store: app.db}
	app.webAuthnService = &service.WebAuthnService{
		Store:          app.db,
		Challenges:     webauthn.NewChallengeStore(),
		RelyingPartyID: app.cfg.RelyingPartyID,
		Origin:         app.cfg.Origin,
	}
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		app.db,
		app.logger,
		app.cfg.SecureCookies,
	)

	// Wire services to router
	router.Sessions = app.sessionService
	router.Users = app.userService
	router.Resets = app.resetService
	router.Verifications = app.verificationService
	router.TwoFactor = app.twoFactorService
	router.WebAuthn = app.webAuthnService
	router.ApplyRoutes()

	app.router = router

	// Housekeeping owns expiry sweeps for both database rows and the
	// in-memory limiter and challenge state.
	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		router.SweepLimiters,
	)

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
