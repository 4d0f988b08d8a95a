package container

import (
	"context"
	"fmt"
	"time"

	"abkit/adapters/memory"
	"abkit/adapters/postgres"
	"abkit/internal"
	"abkit/internal/abtest"
	"abkit/internal/batch"
	"abkit/internal/config"
	"abkit/internal/errors"
	"abkit/internal/migration"
	"abkit/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Store names reported by /healthz.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	Repo      ports.ExperimentRepository
	StoreName string

	Engine    *abtest.Engine
	Evaluator *batch.Evaluator
}

// New creates the container with the engine and evaluator ready; call one of
// the Init methods to attach a store.
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	engine := abtest.NewDefaultEngine()
	return &Container{
		Config:    cfg,
		Logger:    logger,
		Engine:    engine,
		Evaluator: batch.NewEvaluator(engine, cfg.Batch.Concurrency, batch.WithLogger(logger)),
	}, nil
}

// Init attaches postgres when DATABASE_URL is set and the in-memory store
// otherwise.
func (c *Container) Init(ctx context.Context) error {
	if !c.Config.Database.Enabled() {
		c.InitInMemory()
		return nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	db, err := sqlx.ConnectContext(connectCtx, "postgres", c.Config.Database.URL)
	if err != nil {
		return errors.DatabaseError("failed to connect to database", err)
	}
	if err := c.InitWithDatabase(ctx, db); err != nil {
		db.Close()
		return err
	}
	return nil
}

// InitWithDatabase migrates db and uses it as the experiment store.
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	if err := db.PingContext(ctx); err != nil {
		return errors.DatabaseError("database connection test failed", err)
	}

	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		return errors.Wrap(err, "database migration failed")
	}

	c.DB = db
	c.Repo = postgres.NewExperimentRepository(db)
	c.StoreName = StorePostgres
	c.Logger.Info("using postgres experiment store (schema %s)", runner.Version())
	return nil
}

// InitInMemory uses a process-local store.
func (c *Container) InitInMemory() {
	c.Repo = memory.NewExperimentRepository()
	c.StoreName = StoreMemory
	c.Logger.Info("DATABASE_URL not set, using in-memory experiment store")
}

// Shutdown releases the database connection if one was opened.
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
