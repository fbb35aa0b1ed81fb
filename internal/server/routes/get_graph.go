package routes

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/lattice-intel/lattice/internal/server/middleware"
	"github.com/lattice-intel/lattice/pkg/cache"
	"github.com/lattice-intel/lattice/pkg/layout"
	"github.com/lattice-intel/lattice/pkg/logger"
)

// GetGraphHandler serves the node-link view of a scope's graph. Positions
// and cluster assignments are opt-in because they trigger the expensive
// tiers.
func GetGraphHandler(c echo.Context) error {
	scope := c.Param("scope")
	app := c.(*middleware.AppContext).App

	params := cache.NodeLinkParams{
		IncludePositions: c.QueryParam("positions") == "true",
		IncludeClusters:  c.QueryParam("clusters") == "true",
		Algorithm:        layout.ParseAlgorithm(c.QueryParam("layout")),
	}
	if raw := c.QueryParam("min_cluster_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid min_cluster_size"})
		}
		params.MinClusterSize = size
	}

	result, err := app.Cache.NodeLink(c.Request().Context(), scope, params)
	if err != nil {
		logger.Error("Failed to build graph view", "scope", scope, "err", err)
		return writeDomainError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}
