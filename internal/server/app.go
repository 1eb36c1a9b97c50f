// Package server assembles the vaultsync backend: it opens the database,
// applies migrations, selects a blob backend, builds the services and runs
// the HTTP API until the process is asked to stop.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/vaultsync/internal/blob"
	"github.com/dmitrijs2005/vaultsync/internal/dbx"
	"github.com/dmitrijs2005/vaultsync/internal/logging"
	"github.com/dmitrijs2005/vaultsync/internal/server/config"
	"github.com/dmitrijs2005/vaultsync/internal/server/httpapi"
	"github.com/dmitrijs2005/vaultsync/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/vaultsync/internal/server/services"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	logCloser io.Closer
	db        *sql.DB
	server    *httpapi.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, logCloser, err := logging.New(logging.Options{Level: c.LogLevel, File: c.LogFile})
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	app := &App{config: c, logger: logger, logCloser: logCloser}

	if err := app.init(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func (app *App) init(ctx context.Context) error {
	dialect, err := dbx.ParseDialect(app.config.DatabaseDriver)
	if err != nil {
		return err
	}

	app.db, err = dbx.Open(ctx, dialect, app.config.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}

	rm, err := repomanager.NewSQLRepositoryManager(dialect)
	if err != nil {
		return err
	}
	if err := rm.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	store, err := newBlobStore(ctx, app.config)
	if err != nil {
		return fmt.Errorf("blob store init error: %w", err)
	}
	notesStore := blob.Namespace(store, blob.NotesPrefix)

	svc := httpapi.Services{
		Users:       services.NewUserService(app.db, rm, store, app.config, app.logger),
		Sync:        services.NewSyncService(app.db, rm, app.config, app.logger),
		Notes:       services.NewNoteService(app.db, rm, notesStore, app.config, app.logger),
		Attachments: services.NewAttachmentService(app.db, rm, blob.Namespace(store, blob.AttachmentsPrefix), app.config, app.logger),
		Report:      services.NewReportService(app.db, rm, notesStore, app.config, app.logger),
	}

	app.server, err = httpapi.NewServer(app.config.HTTPAddr, app.config.RequestTimeout, app.config.MaxAttachmentSize, app.logger, svc)
	if err != nil {
		return err
	}

	app.logger.Info(ctx, "App initialized",
		"database", string(dialect),
		"blob_backend", app.config.BlobBackend,
	)
	return nil
}

func newBlobStore(ctx context.Context, c *config.Config) (blob.Store, error) {
	switch c.BlobBackend {
	case config.BlobBackendFS:
		return blob.NewFSStore(c.StoragePath)
	case config.BlobBackendS3:
		return blob.NewS3Store(ctx, blob.S3Options{
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			BaseEndpoint: c.S3BaseEndpoint,
		})
	default:
		return nil, fmt.Errorf("unknown blob backend %q", c.BlobBackend)
	}
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

// Run serves HTTP until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, "HTTP server failed", "error", err)
		return err
	}

	app.logger.Info(ctx, "App stopped")
	return nil
}

// Close releases the database and the log file.
func (app *App) Close() error {
	var errs []error
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	if app.logCloser != nil {
		errs = append(errs, app.logCloser.Close())
	}
	return errors.Join(errs...)
}
