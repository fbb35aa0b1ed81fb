package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lattice-intel/lattice/internal/server/middleware"
	"github.com/lattice-intel/lattice/pkg/logger"
)

// MergeEntitiesHandler folds another entity into the path entity.
func MergeEntitiesHandler(c echo.Context) error {
	type mergeBody struct {
		LoserID string `json:"loser_id" validate:"required"`
	}

	scope := c.Param("scope")
	winnerID := c.Param("id")
	app := c.(*middleware.AppContext).App

	data := new(mergeBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if data.LoserID == winnerID {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Cannot merge an entity into itself"})
	}

	err := app.Store.MergeEntities(c.Request().Context(), scope, winnerID, data.LoserID)
	if err != nil {
		logger.Error("Failed to merge entities", "scope", scope, "winner", winnerID, "loser", data.LoserID, "err", err)
		return writeDomainError(c, err)
	}
	app.Cache.Invalidate(scope)

	return c.JSON(http.StatusOK, map[string]string{"message": "Merged"})
}
