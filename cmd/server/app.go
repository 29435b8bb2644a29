package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/phrazzld/curriculum-api/internal/config"
	"github.com/phrazzld/curriculum-api/internal/domain/suggest"
	"github.com/phrazzld/curriculum-api/internal/domain/taxonomy"
	"github.com/phrazzld/curriculum-api/internal/events"
	"github.com/phrazzld/curriculum-api/internal/platform/observability"
	"github.com/phrazzld/curriculum-api/internal/platform/postgres"
	"github.com/phrazzld/curriculum-api/internal/platform/redislock"
	"github.com/phrazzld/curriculum-api/internal/service"
	"github.com/phrazzld/curriculum-api/internal/service/auth"
	"github.com/phrazzld/curriculum-api/internal/task"
)

// application holds the shared dependencies of the server and releases them
// on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	redis  *goredis.Client

	verifier         auth.TokenVerifier
	unitService      service.UnitService
	alignmentService service.AlignmentService

	taskRunner      *task.TaskRunner
	shutdownTracing observability.ShutdownFunc
}

// newApplication wires stores, services and the background task pipeline.
// The database connection is owned by the returned application.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.shutdownTracing, err = observability.InitTracing(ctx, cfg.Tracing, logger)
	if err != nil {
		return nil, err
	}

	app.verifier, err = auth.NewTokenVerifier(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token verifier: %w", err)
	}

	catalogs, err := taxonomy.LoadDir(cfg.Catalog.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalogs: %w", err)
	}
	logger.Info("catalogs loaded", slog.String("dir", cfg.Catalog.Dir))

	engine := suggest.NewServiceWithParams(catalogs, suggest.NewParams(suggest.ParamsConfig{
		KeywordWeight:       cfg.Suggest.KeywordWeight,
		CompetencyThreshold: cfg.Suggest.CompetencyThreshold,
		TopN:                cfg.Suggest.TopN,
	}))

	var locker service.UnitLocker
	locker, app.redis, err = newUnitLocker(ctx, cfg.Redis, logger)
	if err != nil {
		return nil, err
	}

	unitStore := postgres.NewPostgresUnitStore(db, logger)
	mappingStore := postgres.NewPostgresMappingStore(db, logger)
	taskStore := postgres.NewPostgresTaskStore(db, logger)

	emitter := events.NewInMemoryEventEmitter(logger)

	app.unitService, err = service.NewUnitService(db, unitStore, mappingStore, locker, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create unit service: %w", err)
	}
	app.alignmentService, err = service.NewAlignmentService(service.AlignmentDeps{
		DB:       db,
		Units:    unitStore,
		Mappings: mappingStore,
		Catalogs: catalogs,
		Engine:   engine,
		Locker:   locker,
		Emitter:  emitter,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create alignment service: %w", err)
	}

	// Suggestion requests flow emitter -> handler -> runner -> alignment
	// service. The factory is registered on the runner before Start so that
	// tasks left over from a previous run can be rebuilt.
	factory := task.NewUnitSuggestionTaskFactory(app.alignmentService, logger)
	app.taskRunner = task.NewTaskRunner(taskStore, task.TaskRunnerConfig{
		WorkerCount:  cfg.Task.WorkerCount,
		QueueSize:    cfg.Task.QueueSize,
		StuckTaskAge: time.Duration(cfg.Task.StuckTaskAgeMinutes) * time.Minute,
	}, logger)
	app.taskRunner.RegisterFactory(factory)
	emitter.RegisterHandler(task.NewTaskFactoryEventHandler(app.taskRunner, logger, factory))

	if err := app.taskRunner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}

	logger.Info("application initialized")
	return app, nil
}

// newUnitLocker picks the Redis-backed lock when an address is configured and
// the in-process lock otherwise. The Redis client, when any, is returned so
// it can be closed on shutdown.
func newUnitLocker(
	ctx context.Context,
	cfg config.RedisConfig,
	logger *slog.Logger,
) (service.UnitLocker, *goredis.Client, error) {
	if cfg.Addr == "" {
		logger.Warn("redis not configured, unit writes are serialized in-process only")
		return service.NewLocalUnitLocker(), nil, nil
	}

	rdb, err := redislock.NewClient(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return redislock.New(rdb, time.Duration(cfg.LockTTLSeconds)*time.Second, logger), rdb, nil
}

// Run serves HTTP until ctx is canceled, then shuts everything down.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup releases resources in reverse order of creation.
func (app *application) cleanup(ctx context.Context) {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", slog.String("error", err.Error()))
		}
	}
	if app.shutdownTracing != nil {
		if err := app.shutdownTracing(ctx); err != nil {
			app.logger.Error("error flushing traces", slog.String("error", err.Error()))
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}
	app.logger.Info("application shutdown completed")
}
