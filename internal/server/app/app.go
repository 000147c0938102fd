package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpapi "github.com/vaultbox/vaultbox/internal/server/http"
	"github.com/vaultbox/vaultbox/internal/server/mail"
	"github.com/vaultbox/vaultbox/internal/server/service"
	"github.com/vaultbox/vaultbox/internal/server/store"
	"github.com/vaultbox/vaultbox/internal/server/store/drivers/sqlite"
	"github.com/vaultbox/vaultbox/pkg/keyx"
	"github.com/vaultbox/vaultbox/pkg/ratex"
	"github.com/vaultbox/vaultbox/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the vault server together: database, ephemeral server
// keypair, services, background housekeeping and the HTTP surface.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	identity *keyx.ServerIdentity
	mailer   mail.Mailer

	tokenService        *service.TokenService
	authService         *service.AuthService
	cipherService       *service.CipherService
	collectionService   *service.CollectionService
	userService         *service.UserService
	twoFactorService    *service.TwoFactorService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "vaultbox",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// The proof-of-possession keypair lives for exactly one process run.
	// Restarting invalidates in-flight pre-login handshakes, nothing else.
	identity, err := keyx.GenerateIdentity()
	if err != nil {
		return nil, fmt.Errorf("failed to generate server identity: %w", err)
	}
	app.identity = identity

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initMailer()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("vault server starting", "port", app.cfg.Port, "version", BuildVersion)

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

// Shutdown gracefully stops the HTTP server, housekeeping and the database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down vault server...")

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

	app.logger.Info("vault server stopped")
	return nil
}

func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
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

func (app *Application) initMailer() {
	if app.cfg.SMTPHost == "" {
		app.logger.Warn("no SMTP relay configured, outbound mail is recorded in memory only")
		app.mailer = mail.NewMemoryMailer()
		return
	}

	app.mailer = mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     app.cfg.SMTPHost,
		Port:     app.cfg.SMTPPort,
		Username: app.cfg.SMTPUsername,
		Password: app.cfg.SMTPPassword,
		From:     app.cfg.SMTPFrom,
		BaseURL:  app.cfg.WebURL,
	})
}

func (app *Application) initServices() {
	strictGate := ratex.NewGate(ratex.StrictConfig)
	emailGate := ratex.NewGate(ratex.EmailConfig)
	if app.cfg.RateLimitDisabled {
		strictGate = ratex.Disabled()
		emailGate = ratex.Disabled()
	}

	app.tokenService = &service.TokenService{Store: app.db}

	app.authService = &service.AuthService{
		Store:               app.db,
		Identity:            app.identity,
		Tokens:              app.tokenService,
		Mailer:              app.mailer,
		StrictGate:          strictGate,
		EmailGate:           emailGate,
		RequireVerification: app.cfg.RequireEmailVerification,
	}

	app.cipherService = &service.CipherService{Store: app.db}
	app.collectionService = &service.CollectionService{Store: app.db}
	app.userService = &service.UserService{
		Store:    app.db,
		Identity: app.identity,
	}
	app.twoFactorService = &service.TwoFactorService{
		Store:    app.db,
		Identity: app.identity,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.RequireEmailVerification,
	)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)
	router.TokenService = app.tokenService
	router.AuthService = app.authService
	router.CipherService = app.cipherService
	router.CollectionService = app.collectionService
	router.UserService = app.userService
	router.TwoFactorService = app.twoFactorService
	if app.cfg.RateLimitDisabled {
		router.VaultGate = ratex.Disabled()
	}
	router.ApplyRoutes()

	app.router = router
	app.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.cfg.Port),
		Handler: router,
	}
}
