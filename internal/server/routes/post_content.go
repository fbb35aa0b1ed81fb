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

// CreateContentItemHandler stores a content item and its entity mentions,
// the raw material discovery runs consume. Mentions of unknown entities are
// rejected. The graph tiers derive from entities and relationships only, so
// no cache invalidation happens here.
func CreateContentItemHandler(c echo.Context) error {
	type createContentBody struct {
		ID        string    `json:"id"`
		Text      string    `json:"text" validate:"required"`
		EntityIDs []string  `json:"entity_ids"`
		Timestamp time.Time `json:"timestamp"`
	}

	scope := c.Param("scope")
	app := c.(*middleware.AppContext).App

	data := new(createContentBody)
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
			logger.Error("Failed to generate content id", "err", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		}
	}
	ts := data.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	item := common.ContentItem{
		ID:        id,
		Scope:     scope,
		Text:      data.Text,
		EntityIDs: data.EntityIDs,
		Timestamp: ts,
	}

	if err := app.Store.SaveContentItem(c.Request().Context(), item); err != nil {
		logger.Error("Failed to save content item", "scope", scope, "err", err)
		return writeDomainError(c, err)
	}

	return c.JSON(http.StatusCreated, item)
}
