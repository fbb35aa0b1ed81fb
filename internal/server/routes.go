package server

import (
	"github.com/lattice-intel/lattice/internal/server/middleware"
	"github.com/lattice-intel/lattice/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)
	graphRoutes := apiRoutes.Group("/graphs/:scope", middleware.RequireScope)

	// Query surface
	graphRoutes.GET("", routes.GetGraphHandler)
	graphRoutes.GET("/clusters", routes.GetClustersHandler)
	graphRoutes.GET("/centrality/:metric", routes.GetCentralityHandler)
	graphRoutes.GET("/path", routes.GetPathHandler)
	graphRoutes.GET("/paths", routes.GetAllPathsHandler)

	// Mutations; the graph-shaped ones invalidate the scope's caches after
	// committing. Content only feeds discovery, so it leaves the tiers alone.
	graphRoutes.POST("/entities", routes.CreateEntityHandler)
	graphRoutes.DELETE("/entities/:id", routes.DeleteEntityHandler)
	graphRoutes.POST("/entities/:id/merge", routes.MergeEntitiesHandler)
	graphRoutes.POST("/relationships", routes.CreateRelationshipHandler)
	graphRoutes.POST("/content", routes.CreateContentItemHandler)
	graphRoutes.POST("/discover", routes.DiscoverHandler)

	// Cache control surface
	graphRoutes.POST("/cache/invalidate", routes.InvalidateCacheHandler)
	graphRoutes.GET("/cache", routes.GetCacheStatusHandler)
}
