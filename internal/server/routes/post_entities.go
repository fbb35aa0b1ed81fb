package routes

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/lattice-intel/lattice/internal/server/middleware"
	"github.com/lattice-intel/lattice/pkg/common"
	"github.com/lattice-intel/lattice/pkg/logger"
)

// CreateEntityHandler records a new entity and invalidates the scope's
// caches before responding.
func CreateEntityHandler(c echo.Context) error {
	type createEntityBody struct {
		ID       string            `json:"id"`
		Name     string            `json:"name" validate:"required"`
		Type     string            `json:"type"`
		Metadata map[string]string `json:"metadata"`
	}

	scope := c.Param("scope")
	app := c.(*middleware.AppContext).App

	data := new(createEntityBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	id := data.ID
	if id == "" {
		var err error
		if id, err = gonanoid.New(); err != nil {
			logger.Error("Failed to generate entity id", "err", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		}
	}

	now := time.Now().UTC()
	entity := common.Entity{
		ID:        id,
		Scope:     scope,
		Name:      data.Name,
		Type:      common.ParseEntityType(data.Type),
		Metadata:  data.Metadata,
		FirstSeen: now,
		LastSeen:  now,
	}

	if err := app.Store.CreateEntity(c.Request().Context(), entity); err != nil {
		logger.Error("Failed to create entity", "scope", scope, "err", err)
		return writeDomainError(c, err)
	}
	app.Cache.Invalidate(scope)

	return c.JSON(http.StatusCreated, entity)
}
