package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpapi "github.com/filefortress/fortress/internal/auth/http"
	"github.com/filefortress/fortress/internal/auth/service"
	"github.com/filefortress/fortress/internal/auth/store"
	"github.com/filefortress/fortress/internal/auth/store/drivers/sqlite"
	"github.com/filefortress/fortress/pkg/cryptox"
	"github.com/filefortress/fortress/pkg/jwtx"
	"github.com/filefortress/fortress/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application wires the auth service together: store, signer, services and
// the HTTP server.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	signer   *jwtx.EdDSASigner
	verifier jwtx.Verifier

	enrollmentService   *service.EnrollmentService
	authService         *service.AuthService
	tokenService        *service.TokenService
	accountService      *service.AccountService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "auth-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initKeys(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
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

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

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

// initDatabase initializes the database and applies migrations.
func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
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

// initKeys loads the Ed25519 signing key from AUTH_KEY_FILE, or generates an
// ephemeral one. Ephemeral keys invalidate all access tokens on restart,
// which is acceptable because refresh tokens survive in the database.
func (app *Application) initKeys() error {
	if app.cfg.KeyFile != "" {
		pemKey, err := os.ReadFile(app.cfg.KeyFile)
		if err != nil {
			return fmt.Errorf("failed to read signing key: %w", err)
		}
		signer, err := jwtx.NewSignerEdDSA("primary", pemKey)
		if err != nil {
			return fmt.Errorf("failed to load signing key: %w", err)
		}
		app.signer = signer
		app.logger.Info("signing key loaded", "kid", signer.KID())
	} else {
		signer, err := jwtx.NewEphemeralSignerEdDSA("primary")
		if err != nil {
			return fmt.Errorf("failed to generate signing key: %w", err)
		}
		app.signer = signer
		app.logger.Info("ephemeral signing key generated", "kid", signer.KID())
	}

	app.verifier = jwtx.NewVerifierEdDSA(app.cfg.Issuer, app.signer)
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.tokenService = &service.TokenService{
		Store:      app.db,
		Signer:     app.signer,
		Issuer:     app.cfg.Issuer,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}

	app.enrollmentService = &service.EnrollmentService{
		Store:      app.db,
		Issuer:     app.cfg.Issuer,
		PendingTTL: app.cfg.PendingTTL,
		Window:     app.cfg.TOTPWindow,
	}

	app.authService = &service.AuthService{
		Store:  app.db,
		Tokens: app.tokenService,
		Window: app.cfg.TOTPWindow,
	}

	app.accountService = &service.AccountService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.verifier, BuildVersion, app.db, app.logger)
	router.EnrollmentService = app.enrollmentService
	router.AuthService = app.authService
	router.TokenService = app.tokenService
	router.AccountService = app.accountService
	router.ApplyRoutes()

	app.router = router
	app.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.cfg.Port),
		Handler: router,
	}
}
