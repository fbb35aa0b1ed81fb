package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/lattice-intel/lattice/internal/server/middleware"
	"github.com/lattice-intel/lattice/pkg/common"
	"github.com/lattice-intel/lattice/pkg/logger"
)

const defaultCentralityLimit = 20

// GetCentralityHandler serves one centrality ranking. A graph too large for
// betweenness degrades to an empty, partial ranking instead of failing the
// request.
func GetCentralityHandler(c echo.Context) error {
	type centralityResponse struct {
		Metric  string         `json:"metric"`
		Scores  []common.Score `json:"scores"`
		Partial bool           `json:"partial,omitempty"`
	}

	scope := c.Param("scope")
	metric := c.Param("metric")
	app := c.(*middleware.AppContext).App

	limit := defaultCentralityLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid limit"})
		}
		limit = n
	}

	snap, err := app.Cache.Snapshot(c.Request().Context(), scope)
	if err != nil {
		logger.Error("Failed to load snapshot", "scope", scope, "err", err)
		return writeDomainError(c, err)
	}

	resp := centralityResponse{Metric: metric, Scores: []common.Score{}}
	switch metric {
	case "degree":
		resp.Scores = app.Centrality.Degree(snap, limit)
	case "importance":
		resp.Scores = app.Centrality.Importance(snap, limit)
	case "betweenness":
		scores, err := app.Centrality.Betweenness(snap, limit)
		if errors.Is(err, common.ErrGraphTooLarge) {
			logger.Warn("Skipping betweenness", "scope", scope, "nodes", snap.NodeCount())
			resp.Partial = true
			break
		}
		if err != nil {
			return writeDomainError(c, err)
		}
		resp.Scores = scores
	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown metric " + metric})
	}

	return c.JSON(http.StatusOK, resp)
}
