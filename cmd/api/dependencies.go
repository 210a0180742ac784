package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/BornStar-hub/Makopo-Industrial-Price-Adjuster/internal/domain/catalog/handler"
	"github.com/BornStar-hub/Makopo-Industrial-Price-Adjuster/internal/domain/catalog/parser"
	"github.com/BornStar-hub/Makopo-Industrial-Price-Adjuster/internal/domain/catalog/service"
	"github.com/BornStar-hub/Makopo-Industrial-Price-Adjuster/pkg/config"
	"github.com/BornStar-hub/Makopo-Industrial-Price-Adjuster/pkg/cron"
	"github.com/BornStar-hub/Makopo-Industrial-Price-Adjuster/pkg/metrics"
	"github.com/BornStar-hub/Makopo-Industrial-Price-Adjuster/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	Logger *slog.Logger

	Metrics      *metrics.Metrics
	FileStorage  storage.Storage
	SessionStore sessions.Store

	// Services
	CatalogService *service.CatalogService
	Scheduler      *cron.Scheduler

	// Handlers
	CatalogHandler *handler.CatalogHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initInfrastructure(); err != nil {
		return nil, fmt.Errorf("failed to init infrastructure: %w", err)
	}

	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	if err := deps.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to init handlers: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initInfrastructure sets up metrics, artifact storage and the session store
func (d *Dependencies) initInfrastructure() error {
	if d.Config.Observability.MetricsEnabled {
		d.Metrics = metrics.New()
	}

	fileStorage, err := storage.New(&d.Config.Storage)
	if err != nil {
		return fmt.Errorf("failed to init file storage: %w", err)
	}
	d.FileStorage = fileStorage

	store := sessions.NewCookieStore([]byte(d.Config.Session.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(d.Config.Artifacts.TTL.Seconds()) * 4,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	d.SessionStore = store

	d.Logger.Info("infrastructure initialized",
		slog.String("storage", string(d.Config.Storage.Type)),
		slog.Bool("metrics", d.Metrics != nil),
	)
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices() error {
	loader := parser.NewLoader(parser.DefaultConfig())

	d.CatalogService = service.NewCatalogService(loader, d.Logger).
		WithStorage(d.FileStorage)
	if d.Metrics != nil {
		d.CatalogService.WithMetrics(d.Metrics)
	}

	// Expired downloads are swept in the background
	d.Scheduler = cron.NewScheduler(
		d.CatalogService,
		d.Config.Artifacts.SweepSchedule,
		d.Config.Artifacts.TTL,
		d.Logger,
	)

	d.Logger.Info("services initialized")
	return nil
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() error {
	h, err := handler.NewCatalogHandler(d.CatalogService, d.SessionStore, handler.Options{
		LogoURL:        d.Config.Branding.LogoURL,
		MaxUploadBytes: d.Config.Server.MaxUploadBytes,
		Version:        Version,
	}, d.Logger)
	if err != nil {
		return err
	}
	d.CatalogHandler = h

	d.Logger.Info("handlers initialized")
	return nil
}

// Cleanup stops background jobs
func (d *Dependencies) Cleanup() {
	if d.Scheduler != nil {
		<-d.Scheduler.Stop().Done()
	}
	d.Logger.Info("cleanup completed")
}
