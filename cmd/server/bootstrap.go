package main

import (
	"github.com/dsolisav/designio/internal/config"
	"github.com/dsolisav/designio/internal/handlers"
	"github.com/dsolisav/designio/internal/models"
	"github.com/dsolisav/designio/internal/services"
	"github.com/dsolisav/designio/internal/storage"
	"github.com/dsolisav/designio/internal/utils"
	"github.com/dsolisav/designio/pkg/logger"
)

// appServices holds the initialized dependencies the routes need.
type appServices struct {
	store          *storage.DiskStore
	authHandler    *handlers.AuthHandler
	projectHandler *handlers.ProjectHandler
	userHandler    *handlers.UserHandler
	healthHandler  *handlers.HealthHandler
}

// bootstrap initializes all application dependencies: database, blob
// store, handlers, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	store, err := storage.NewDiskStore(cfg.Storage.Dir, cfg.Storage.BaseURL)
	if err != nil {
		logger.Fatalf("Failed to init blob store: %v", err)
	}

	db := models.GetDB()

	// Operational log sink for the audit middleware
	services.InitSystemLogger(db)

	// Nightly maintenance: log retention and orphaned-blob sweep
	services.StartLogCleanupScheduler(db, cfg.Log.RetentionDays)
	services.StartStorageSweepScheduler(db, store)

	return &appServices{
		store:          store,
		authHandler:    handlers.NewAuthHandler(db, cfg),
		projectHandler: handlers.NewProjectHandler(db, store),
		userHandler:    handlers.NewUserHandler(db),
		healthHandler:  handlers.NewHealthHandler(),
	}
}
