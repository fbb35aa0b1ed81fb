package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lattice-intel/lattice/internal/server/middleware"
	"github.com/lattice-intel/lattice/pkg/cache"
)

// InvalidateCacheHandler expires a scope's cached results: every tier, or a
// single one when `kind` is given.
func InvalidateCacheHandler(c echo.Context) error {
	scope := c.Param("scope")
	app := c.(*middleware.AppContext).App

	if raw := c.QueryParam("kind"); raw != "" {
		kind := cache.Kind(raw)
		switch kind {
		case cache.KindSnapshot, cache.KindLayout, cache.KindCluster:
			app.Cache.InvalidateKind(scope, kind)
		default:
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown cache kind " + raw})
		}
		return c.JSON(http.StatusOK, map[string]string{"message": "Invalidated"})
	}

	app.Cache.Invalidate(scope)
	return c.JSON(http.StatusOK, map[string]string{"message": "Invalidated"})
}

// GetCacheStatusHandler exposes per-tier age and hit/miss counters.
func GetCacheStatusHandler(c echo.Context) error {
	scope := c.Param("scope")
	app := c.(*middleware.AppContext).App

	return c.JSON(http.StatusOK, app.Cache.Status(scope))
}
