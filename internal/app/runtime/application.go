// Package runtime wires configuration, storage and the HTTP server into a
// runnable application.
package runtime

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/specificocean23/ABie-backend/internal/api/httpserver"
	app "github.com/specificocean23/ABie-backend/internal/app"
	"github.com/specificocean23/ABie-backend/internal/app/httpapi"
	"github.com/specificocean23/ABie-backend/internal/app/storage/postgres"
	"github.com/specificocean23/ABie-backend/internal/config"
	"github.com/specificocean23/ABie-backend/pkg/logger"
)

// Application wires core dependencies and manages the HTTP server lifecycle.
type Application struct {
	cfg        *config.Config
	log        *logger.Logger
	httpServer *httpserver.Server
	db         *sqlx.DB
}

// NewApplication constructs a new application instance with default wiring.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePrefix: cfg.Logging.FilePrefix,
	})

	db, stores, err := buildStores(cfg)
	if err != nil {
		return nil, fmt.Errorf("configure stores: %w", err)
	}

	application := app.New(stores, log)

	handler := httpapi.NewHandler(application, httpapi.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		GeneralLimit:   cfg.RateLimit.GeneralLimit,
		GeneralWindow:  cfg.RateLimit.GeneralWindow,
		StrictLimit:    cfg.RateLimit.StrictLimit,
		StrictWindow:   cfg.RateLimit.StrictWindow,
	}, log)

	return &Application{
		cfg:        cfg,
		log:        log,
		httpServer: httpserver.New(cfg.Server, log, handler),
		db:         db,
	}, nil
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.log.Infof("HTTP server listening on %s", a.httpServer.Addr())
		if err := a.httpServer.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown drains in-flight requests and releases the connection pool.
func (a *Application) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.WithError(err).Warn("error closing database connection")
		}
	}

	return nil
}

func buildStores(cfg *config.Config) (*sqlx.DB, app.Stores, error) {
	if cfg.Database.DSN == "" {
		return nil, app.Stores{}, fmt.Errorf("database configuration is required (DATABASE_URL)")
	}

	db, err := openDatabase(cfg.Database)
	if err != nil {
		return nil, app.Stores{}, err
	}

	store := postgres.New(db)

	if cfg.Database.EnsureSchema {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, app.Stores{}, fmt.Errorf("ensure schema: %w", err)
		}
	}

	return db, app.Stores{
		Users:      store,
		Progress:   store,
		Cravings:   store,
		Challenges: store,
		Community:  store,
	}, nil
}

func openDatabase(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
