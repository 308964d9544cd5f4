// Package server wires configuration, storage, services and the HTTP API
// together and runs them until the process is asked to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/kabyedict/internal/logging"
	"github.com/dmitrijs2005/kabyedict/internal/server/config"
	"github.com/dmitrijs2005/kabyedict/internal/server/httpapi"
	"github.com/dmitrijs2005/kabyedict/internal/server/imagestore"
	"github.com/dmitrijs2005/kabyedict/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/kabyedict/internal/server/reviewers"
	"github.com/dmitrijs2005/kabyedict/internal/server/services"
	"github.com/dmitrijs2005/kabyedict/internal/server/tracing"
)

var (
	openDB = func(dsn string) (*sql.DB, error) {
		return sql.Open("pgx", dsn)
	}

	newManager = repomanager.NewPostgresRepositoryManager

	newS3Store = func(ctx context.Context, cfg imagestore.S3Config, l logging.Logger) (imagestore.Store, error) {
		return imagestore.NewS3Store(ctx, cfg, l)
	}

	setupTracing = tracing.Setup
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	entries    *services.EntryService
	validation *services.ValidationService
	statistics *services.StatisticsService
	shutdown   []func(context.Context) error
}

// NewLogger builds the JSON logger for the configured level. Unknown levels
// fall back to info.
func NewLogger(level string) logging.Logger {
	return logging.NewJSONLogger(os.Stdout, logging.ParseLevel(level, slog.LevelInfo))
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	app := &App{config: c, logger: logger}

	if c.TracingEnabled {
		stop, err := setupTracing(ctx, c.TracingEndpoint)
		if err != nil {
			return nil, fmt.Errorf("tracing init error: %w", err)
		}
		app.shutdown = append(app.shutdown, stop)
	}

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.db = db

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db connect error: %w", err)
	}

	m, err := newManager(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if c.AutoMigrate {
		if err := m.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migration error: %w", err)
		}
	}
	schema, err := m.DetectSchema(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if !schema.Validation {
		logger.Warn(ctx, "validation columns missing, running with the legacy schema")
	}

	images, err := app.newImageStore(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	app.entries = services.NewEntryService(db, m, images, c, logger.With("module", "entries"))
	app.validation = services.NewValidationService(db, m, reviewers.NewRegistry(c.Reviewers), logger.With("module", "validation"))
	app.statistics = services.NewStatisticsService(db, m)

	return app, nil
}

func (app *App) newImageStore(ctx context.Context) (imagestore.Store, error) {
	c := app.config
	if c.S3Bucket == "" {
		app.logger.Info(ctx, "no image bucket configured, image uploads disabled")
		return imagestore.Disabled{}, nil
	}

	s, err := newS3Store(ctx, imagestore.S3Config{
		Region:    c.S3Region,
		AccessKey: c.S3RootUser,
		SecretKey: c.S3RootPassword,
		Endpoint:  c.S3BaseEndpoint,
		Bucket:    c.S3Bucket,
		PublicURL: c.S3PublicURL,
		Prefix:    c.S3Prefix,
		Timeout:   c.ImageTimeout,
		Retries:   c.ImageRetries,
	}, app.logger)
	if err != nil {
		return nil, fmt.Errorf("image store init error: %w", err)
	}
	return s, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	c := app.config
	s := httpapi.NewHTTPServer(c.EndpointAddrHTTP, app.logger.With("module", "httpapi"),
		app.entries, app.validation, app.statistics, httpapi.Options{
			CORSOrigins:  c.CORSOrigins,
			MaxImageSize: c.MaxImageSize,
			Maintenance: httpapi.Maintenance{
				Manual:   c.MaintenanceMode,
				Start:    c.MaintenanceStart,
				Duration: c.MaintenanceDuration,
			},
		})

	app.logger.Info(ctx, "listening", "address", c.EndpointAddrHTTP)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// releases the database and flushes traces.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()
	app.close()
}

func (app *App) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, stop := range app.shutdown {
		if err := stop(ctx); err != nil {
			app.logger.Warn(ctx, "shutdown error", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "closing database", "error", err)
	}
	app.logger.Info(ctx, "stopped")
}
