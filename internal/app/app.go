package app

import (
	"context"
	"fmt"

	"blockeditor/internal/config"
	"blockeditor/internal/domain"
	"blockeditor/internal/logger"
	"blockeditor/internal/plugins"
	"blockeditor/internal/publish"
	"blockeditor/internal/service"
	"blockeditor/internal/storage"
)

// App wires storage, services and background jobs from a Config.
type App struct {
	cfg *config.Config
	log logger.Logger

	db          *storage.DB
	documents   *storage.DocumentStore
	history     *storage.HistoryStore
	Docs        *service.DocumentService
	Importer    *service.Importer
	watcher     *service.Watcher
	maintenance *service.Maintenance
	publisher   *publish.MongoPublisher
}

// New opens the database and builds the services. Background jobs start in
// Startup.
func New(ctx context.Context, cfg *config.Config, log logger.Logger, emitter service.EventEmitter) (*App, error) {
	dialect := storage.Dialect(cfg.Database.Driver)
	dsn := cfg.Database.DSN
	if dialect == storage.SQLite {
		dsn = cfg.DatabasePath()
	}
	db, err := storage.Open(dialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	log.Info("database ready", logger.String("driver", cfg.Database.Driver))

	if emitter == nil {
		emitter = service.LogEmitter{Log: log}
	}

	a := &App{
		cfg:       cfg,
		log:       log,
		db:        db,
		documents: storage.NewDocumentStore(db),
		history:   storage.NewHistoryStore(db, cfg.History.MaxEntries),
	}

	if cfg.Publish.MongoURI != "" {
		state := func(id string) (*domain.DocumentState, error) { return a.Docs.State(id) }
		a.publisher, err = publish.NewMongoPublisher(ctx, publish.Config{
			URI:        cfg.Publish.MongoURI,
			Database:   cfg.Publish.Database,
			Collection: cfg.Publish.Collection,
		}, state, log)
		if err != nil {
			db.Close()
			return nil, err
		}
		emitter = service.MultiEmitter{emitter, a.publisher}
	}

	kinds := service.NewKindRegistry()
	plugins.RegisterBuiltins(kinds)
	a.Docs = service.NewDocumentService(a.documents, a.history, kinds, emitter, log)
	a.Importer = service.NewImporter(a.Docs, log)
	a.watcher = service.NewWatcher(a.Importer, log)
	a.maintenance = service.NewMaintenance(a.history, log)
	return a, nil
}

// Startup starts history pruning and, when watchDir is set, imports the
// directory and keeps following it.
func (a *App) Startup(ctx context.Context, watchDir string) error {
	if err := a.maintenance.Start(a.cfg.History.PruneSchedule); err != nil {
		return err
	}
	if watchDir == "" {
		return nil
	}
	if _, err := a.Importer.ImportDir(ctx, watchDir); err != nil {
		// broken files are reported and skipped; the watcher retries on the next save
		a.log.Warn("initial import incomplete", logger.Error(err))
	}
	return a.watcher.Start(ctx, watchDir)
}

// Shutdown stops background jobs, closes sessions and the database.
func (a *App) Shutdown(ctx context.Context) {
	a.watcher.Stop()
	a.maintenance.Stop()
	a.Importer.WaitRunning(ctx)
	a.Docs.CloseAll()
	if a.publisher != nil {
		if err := a.publisher.Close(ctx); err != nil {
			a.log.Error("close publisher", logger.Error(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.log.Error("close database", logger.Error(err))
	}
}
