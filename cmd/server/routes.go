package main

import (
	"github.com/dsolisav/designio/internal/config"
	"github.com/dsolisav/designio/internal/middleware"
	"github.com/dsolisav/designio/internal/models"
	"github.com/dsolisav/designio/pkg/logger"
	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, cfg *config.Config, svc *appServices) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.Use(middleware.CORS())

	// Health check
	r.GET("/health", svc.healthHandler.CheckHealth)

	// Uploaded blobs are served from the storage dir; PublicURL keys
	// resolve under this route when the default base URL is used.
	r.Static("/files", svc.store.Dir())

	// Brute-force guard on the public auth routes
	authLimiter := middleware.NewRateLimiter(&cfg.RateLimit)

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth", authLimiter.Middleware())
		{
			auth.POST("/signup", svc.authHandler.SignUp)
			auth.POST("/login", svc.authHandler.Login)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(), middleware.AuditLog())
		{
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.POST("/auth/logout", svc.authHandler.Logout)

			// Projects: listing dispatches on the caller's role;
			// mutations are gated per role
			protected.GET("/projects", svc.projectHandler.List)
			protected.POST("/projects",
				middleware.RoleRequired(models.RoleClient), svc.projectHandler.Create)
			protected.PUT("/projects/:id",
				middleware.RoleRequired(models.RoleProjectManager), svc.projectHandler.Update)
			protected.DELETE("/projects/:id",
				middleware.RoleRequired(models.RoleProjectManager), svc.projectHandler.Delete)

			// Designer selector for the PM edit form
			protected.GET("/designers",
				middleware.RoleRequired(models.RoleProjectManager), svc.userHandler.ListDesigners)
		}
	}
}
