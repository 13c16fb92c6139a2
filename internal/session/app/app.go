package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	httpapi "github.com/aussiebroadwan/cookieauth/internal/session/http"
	"github.com/aussiebroadwan/cookieauth/internal/session/service"
	"github.com/aussiebroadwan/cookieauth/internal/session/store"
	"github.com/aussiebroadwan/cookieauth/internal/session/store/drivers/sqlite"
	"github.com/aussiebroadwan/cookieauth/pkg/cryptox"
	"github.com/aussiebroadwan/cookieauth/pkg/httpx"
	"github.com/aussiebroadwan/cookieauth/pkg/jwtx"
	"github.com/aussiebroadwan/cookieauth/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags "-X ...BuildVersion=...".
var BuildVersion = "v0.1.0"

// Application encapsulates the session service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db      store.Store
	codec   *jwtx.Codec
	cookies *httpx.CookieTransport
	policy  *httpx.Policy

	credentials *service.Credentials
	identities  *service.Identities

	server *http.Server
	router *httpapi.Router
}

// New creates an Application. A missing or short signing secret is fatal.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "session-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.Log.Level,
			Format:  cfg.Log.Format,
		}),
	}

	if err := app.initSecurity(); err != nil {
		return nil, err
	}
	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler returns the fully wired HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the server and blocks until a shutdown signal or server error.
func (app *Application) Run() error {
	ln, err := net.Listen("tcp", app.server.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down.
func (app *Application) Serve(ctx context.Context, ln net.Listener) error {
	app.logger.Info("session service starting",
		slog.String("addr", ln.Addr().String()),
		slog.String("version", BuildVersion),
		slog.String("alg", app.codec.Alg()),
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.db.Close()
			return fmt.Errorf("server failed: %w", err)
		}
		return app.db.Close()
	case <-ctx.Done():
		app.logger.Info("shutdown signal received")
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		<-serverErrors
		return nil
	}
}

// Shutdown drains in-flight requests and closes the database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down session service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.Server.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", slog.Any("error", err))
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", slog.Any("error", err))
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", slog.Any("error", err))
		return err
	}

	app.logger.Info("session service stopped")
	return nil
}

// initSecurity loads the signing secret and builds the codec, cookie
// transport and route policy.
func (app *Application) initSecurity() error {
	secret, err := app.cfg.LoadSecret()
	if err != nil {
		return err
	}
	app.codec, err = jwtx.NewCodec(secret)
	if err != nil {
		return err
	}

	cookieCfg, err := app.cfg.CookieTransportConfig()
	if err != nil {
		return err
	}
	if app.cookies, err = httpx.NewCookieTransport(cookieCfg); err != nil {
		return err
	}
	if !cookieCfg.Secure {
		app.logger.Warn("session cookie is not marked Secure; use only behind plain HTTP in development")
	}

	if app.policy, err = app.cfg.BuildPolicy(); err != nil {
		return err
	}
	for _, rule := range app.policy.Rules() {
		app.logger.Debug("route rule",
			slog.String("pattern", rule.Pattern),
			slog.String("method", rule.Method),
			slog.String("requirement", rule.Requirement.String()),
		)
	}
	return nil
}

// initDatabase opens the database and applies migrations.
func (app *Application) initDatabase() error {
	db, err := OpenStore(app.cfg)
	if err != nil {
		return err
	}
	app.db = db
	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initServices() error {
	hasher, err := newHasher(app.cfg)
	if err != nil {
		return err
	}
	app.credentials = &service.Credentials{Store: app.db, Hasher: hasher}
	app.identities = &service.Identities{Store: app.db}
	return nil
}

func (app *Application) initHTTP() {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app.router = httpapi.NewRouter(httpapi.RouterConfig{
		Codec:         app.codec,
		Cookies:       app.cookies,
		Policy:        app.policy,
		TokenTTL:      app.cfg.Token.TTL,
		LookupTimeout: app.cfg.Identity.LookupTimeout,
		TrustProxy:    app.cfg.Server.TrustProxy,
		BuildVersion:  BuildVersion,
		Store:         app.db,
		Credentials:   app.credentials,
		Identities:    app.identities,
		Registry:      reg,
		Logger:        app.logger,
	})

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Server.Port),
		Handler:           app.router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// OpenStore opens the sqlite database named by cfg and applies migrations.
func OpenStore(cfg Config) (*sqlite.Store, error) {
	db, err := sqlite.NewStore(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}
	return db, nil
}

func newHasher(cfg Config) (*cryptox.Hasher, error) {
	pepper, err := cryptox.LoadOrCreatePepper(cfg.Pepper.File)
	if err != nil {
		return nil, err
	}
	return cryptox.NewHasher(pepper)
}
