// Package server wires the authentication service together: configuration,
// signing secret, PostgreSQL pool, migrations, and the HTTP and gRPC
// transports, and runs them until the context is cancelled.
package server

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/parametrik/internal/dbx"
	"github.com/dmitrijs2005/parametrik/internal/logging"
	"github.com/dmitrijs2005/parametrik/internal/server/auth"
	"github.com/dmitrijs2005/parametrik/internal/server/config"
	"github.com/dmitrijs2005/parametrik/internal/server/credentials"
	"github.com/dmitrijs2005/parametrik/internal/server/hasher"
	"github.com/dmitrijs2005/parametrik/internal/server/httpapi"
	"github.com/dmitrijs2005/parametrik/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/parametrik/internal/server/secrets"
	"github.com/dmitrijs2005/parametrik/internal/server/services"
	"github.com/dmitrijs2005/parametrik/internal/workerpool"

	gs "github.com/dmitrijs2005/parametrik/internal/server/grpc"
)

// Seams for tests.
var (
	openDB = func(ctx context.Context, dsn string, opts dbx.PoolOptions) (*sql.DB, error) {
		return dbx.Open(ctx, repomanager.DriverName, dsn, opts)
	}
	newRepositoryManager = func() repomanager.RepositoryManager {
		return repomanager.NewPostgresRepositoryManager()
	}
	hasherParams = hasher.DefaultParams
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	pool        *workerpool.Pool
	userService *services.UserService
}

// NewApp performs every startup step that can fail: a missing secret, an
// unreachable database or a failed migration is returned here and nothing
// is left running.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	key, err := secrets.Load(ctx, secrets.Source{
		Key:            c.SecretKey,
		File:           c.SecretKeyFile,
		URI:            c.SecretKeyURI,
		S3Region:       c.S3Region,
		S3BaseEndpoint: c.S3BaseEndpoint,
		S3AccessKey:    c.S3AccessKey,
		S3SecretKey:    c.S3SecretKey,
	})
	if err != nil {
		return nil, fmt.Errorf("secret: %w", err)
	}
	secret, err := auth.NewSecret(c.SigningAlgorithm, key)
	if err != nil {
		return nil, fmt.Errorf("secret: %w", err)
	}

	h, err := hasher.NewScrypt(hasherParams)
	if err != nil {
		return nil, fmt.Errorf("hasher: %w", err)
	}

	db, err := openDB(ctx, c.DatabaseDSN, dbx.PoolOptions{
		MaxOpenConns:    c.DBMaxOpenConns,
		MaxIdleConns:    c.DBMaxIdleConns,
		ConnMaxLifetime: c.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := newRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db migrations error: %w", err)
	}

	store, err := credentials.NewStore(db, rm, h)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("credential store: %w", err)
	}

	tokens := auth.NewTokenService(auth.WithValidity(c.TokenValidity), auth.WithLeeway(c.TokenLeeway))
	pool := workerpool.New(c.WorkerPoolSize)
	us := services.NewUserService(store, h, tokens, secret, pool, logger)

	logger.Info(ctx, "app initialised",
		"signing_algorithm", secret.Algorithm(),
		"worker_pool_size", pool.Size(),
	)

	return &App{config: c, logger: logger, db: db, pool: pool, userService: us}, nil
}

// Run serves HTTP and gRPC until ctx is cancelled or either server fails,
// then stops both and releases the worker pool and database pool.
func (app *App) Run(ctx context.Context) error {
	app.logger.Info(ctx, "Starting app...")
	defer app.close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.userService).Run(gctx)
	})
	g.Go(func() error {
		return gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.userService).Run(gctx)
	})

	err := g.Wait()
	app.logger.Info(ctx, "App stopped")
	return err
}

func (app *App) close() {
	app.pool.Close()
	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "closing database", "error", err)
	}
}
