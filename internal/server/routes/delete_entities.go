package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lattice-intel/lattice/internal/server/middleware"
	"github.com/lattice-intel/lattice/pkg/logger"
)

// DeleteEntityHandler removes an entity and its relationships.
func DeleteEntityHandler(c echo.Context) error {
	scope := c.Param("scope")
	id := c.Param("id")
	app := c.(*middleware.AppContext).App

	if err := app.Store.DeleteEntity(c.Request().Context(), scope, id); err != nil {
		logger.Error("Failed to delete entity", "scope", scope, "id", id, "err", err)
		return writeDomainError(c, err)
	}
	app.Cache.Invalidate(scope)

	return c.JSON(http.StatusOK, map[string]string{"message": "Deleted"})
}
