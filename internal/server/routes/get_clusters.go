package routes

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/lattice-intel/lattice/internal/server/middleware"
	"github.com/lattice-intel/lattice/pkg/logger"
)

// GetClustersHandler serves the community partition of a scope's graph.
func GetClustersHandler(c echo.Context) error {
	scope := c.Param("scope")
	app := c.(*middleware.AppContext).App

	minSize := 1
	if raw := c.QueryParam("min_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid min_size"})
		}
		minSize = size
	}

	result, err := app.Cache.Clusters(c.Request().Context(), scope, minSize)
	if err != nil {
		logger.Error("Failed to detect clusters", "scope", scope, "err", err)
		return writeDomainError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}
