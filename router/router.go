package router

import (
	"github.com/TrailParty/trail-party-backend/config"
	"github.com/TrailParty/trail-party-backend/handlers"
	"github.com/TrailParty/trail-party-backend/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Dependencies struct holds all dependencies required for setting up routes.
type Dependencies struct {
	Config            *config.Config
	CompanionHandler  *handlers.CompanionHandler
	PermissionHandler *handlers.PermissionHandler
	HealthHandler     *handlers.HealthHandler
	Logger            *zap.SugaredLogger
}

// SetupRouter configures and returns the main Gin engine with all routes defined.
func SetupRouter(deps Dependencies) *gin.Engine {
	if deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	// Global middleware
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(&deps.Config.Server))

	// Health and metrics routes (no auth)
	r.GET("/health/liveness", deps.HealthHandler.LivenessCheck)
	r.GET("/health/readiness", deps.HealthHandler.ReadinessCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Versioned API group; the upstream gateway authenticates and injects the
	// user ID header.
	v1 := r.Group("/v1")
	v1.Use(middleware.PrincipalMiddleware())
	{
		trips := v1.Group("/trips/:tripId")
		{
			trips.POST("/companions", deps.CompanionHandler.AddCompanionHandler)
			trips.DELETE("/companions/:companionId", deps.CompanionHandler.RemoveCompanionHandler)
			trips.PUT("/companions/:companionId/permissions", deps.CompanionHandler.UpdateCompanionPermissionsHandler)
			trips.PUT("/items/:itemType/:itemId/companions", deps.CompanionHandler.SetItemGrantHandler)
			trips.DELETE("/items/:itemType/:itemId/companions/:companionId", deps.CompanionHandler.RemoveItemGrantHandler)
		}

		permissions := v1.Group("/permissions")
		{
			permissions.GET("/check", deps.PermissionHandler.CheckPermissionHandler)
			permissions.POST("/validate", deps.PermissionHandler.ValidateCapabilitiesHandler)
		}
	}

	return r
}
