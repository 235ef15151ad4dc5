package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/vocab-api/internal/config"
	"github.com/phrazzld/vocab-api/internal/domain/srs"
	"github.com/phrazzld/vocab-api/internal/events"
	"github.com/phrazzld/vocab-api/internal/generation"
	"github.com/phrazzld/vocab-api/internal/platform/gemini"
	"github.com/phrazzld/vocab-api/internal/platform/postgres"
	"github.com/phrazzld/vocab-api/internal/service"
	"github.com/phrazzld/vocab-api/internal/service/auth"
	"github.com/phrazzld/vocab-api/internal/service/review"
	"github.com/phrazzld/vocab-api/internal/store"
	"github.com/phrazzld/vocab-api/internal/task"
)

// application holds the shared application dependencies so startup wiring
// and shutdown cleanup live in one place.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userStore      store.UserStore
	itemStore      store.ItemStore
	reviewLogStore store.ReviewLogStore

	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	generator        generation.Generator
	itemService      service.ItemService
	reviewService    review.Service

	eventEmitter *events.InMemoryEventEmitter
	taskRunner   *task.Runner
}

// newApplication wires every dependency. The caller owns the database
// connection until newApplication returns successfully; afterwards cleanup
// closes it.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	app.passwordVerifier = auth.NewBcryptVerifier()

	app.userStore = postgres.NewPostgresUserStore(db, logger, cfg.Auth.BcryptCost)
	app.itemStore = postgres.NewPostgresItemStore(db, logger)
	app.reviewLogStore = postgres.NewPostgresReviewLogStore(db, logger)

	app.generator, err = gemini.NewGeminiGenerator(
		ctx,
		logger.With(slog.String("component", "example_generator")),
		cfg.LLM,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize example generator: %w", err)
	}

	// Background enrichment: item creation emits an event, the handler
	// queues a generation task on the runner.
	app.taskRunner = task.NewRunner(task.DefaultRunnerConfig(), logger)
	app.taskRunner.Start()

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(
		task.NewEnrichmentEventHandler(app.taskRunner, app.itemStore, app.generator, logger),
	)

	app.itemService = service.NewItemService(app.itemStore, app.eventEmitter, logger)

	srsService := srs.NewDefaultService()
	app.reviewService = review.NewService(
		db,
		app.itemStore,
		app.reviewLogStore,
		srsService,
		nil, // default planner parameters
		logger,
	)

	logger.Info("application initialized")
	return app, nil
}

// Run starts the HTTP server and blocks until shutdown.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()
	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}
	if app.db != nil {
		closeDatabase(app.db, app.logger)
	}
	app.logger.Info("application shutdown completed")
}
