package routes

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/lattice-intel/lattice/internal/server/middleware"
	"github.com/lattice-intel/lattice/pkg/logger"
)

func pathQueryParams(c echo.Context) (from, to string, maxDepth int, err error) {
	from = c.QueryParam("from")
	to = c.QueryParam("to")
	if from == "" || to == "" {
		return "", "", 0, echo.NewHTTPError(http.StatusBadRequest, "from and to are required")
	}
	if raw := c.QueryParam("max_depth"); raw != "" {
		maxDepth, err = strconv.Atoi(raw)
		if err != nil || maxDepth < 1 {
			return "", "", 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid max_depth")
		}
	}
	return from, to, maxDepth, nil
}

// GetPathHandler serves the bounded shortest path between two entities.
func GetPathHandler(c echo.Context) error {
	type pathResponse struct {
		Path []string `json:"path"`
	}

	scope := c.Param("scope")
	app := c.(*middleware.AppContext).App

	from, to, maxDepth, err := pathQueryParams(c)
	if err != nil {
		return err
	}

	snap, err := app.Cache.Snapshot(c.Request().Context(), scope)
	if err != nil {
		logger.Error("Failed to load snapshot", "scope", scope, "err", err)
		return writeDomainError(c, err)
	}

	path, err := app.Paths.ShortestPath(snap, from, to, maxDepth)
	if err != nil {
		return writeDomainError(c, err)
	}

	return c.JSON(http.StatusOK, pathResponse{Path: path})
}

// GetAllPathsHandler serves the capped set of alternate paths between two
// entities.
func GetAllPathsHandler(c echo.Context) error {
	type pathsResponse struct {
		Paths [][]string `json:"paths"`
	}

	scope := c.Param("scope")
	app := c.(*middleware.AppContext).App

	from, to, maxDepth, err := pathQueryParams(c)
	if err != nil {
		return err
	}

	snap, err := app.Cache.Snapshot(c.Request().Context(), scope)
	if err != nil {
		logger.Error("Failed to load snapshot", "scope", scope, "err", err)
		return writeDomainError(c, err)
	}

	iter, err := app.Paths.AllPaths(snap, from, to, maxDepth)
	if err != nil {
		return writeDomainError(c, err)
	}

	resp := pathsResponse{Paths: [][]string{}}
	for {
		path, ok := iter.Next()
		if !ok {
			break
		}
		resp.Paths = append(resp.Paths, path)
	}

	return c.JSON(http.StatusOK, resp)
}
