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

// CreateRelationshipHandler records one observation of a relationship. A
// repeat observation of the same (source, target, type) strengthens the
// existing edge instead of duplicating it.
func CreateRelationshipHandler(c echo.Context) error {
	type createRelationshipBody struct {
		Source     string  `json:"source" validate:"required"`
		Target     string  `json:"target" validate:"required"`
		Type       string  `json:"type" validate:"required"`
		Confidence float64 `json:"confidence" validate:"gte=0,lte=1"`
		Weight     float64 `json:"weight" validate:"gte=0"`
	}

	type createRelationshipResponse struct {
		Created bool `json:"created"`
	}

	scope := c.Param("scope")
	app := c.(*middleware.AppContext).App

	data := new(createRelationshipBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	id, err := gonanoid.New()
	if err != nil {
		logger.Error("Failed to generate relationship id", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	weight := data.Weight
	if weight == 0 {
		weight = 1.0
	}
	now := time.Now().UTC()
	created, err := app.Store.UpsertRelationship(c.Request().Context(), common.Relationship{
		ID:            id,
		Scope:         scope,
		SourceID:      data.Source,
		TargetID:      data.Target,
		Type:          data.Type,
		Confidence:    data.Confidence,
		Weight:        weight,
		Observations:  1,
		FirstObserved: now,
		LastObserved:  now,
	})
	if err != nil {
		logger.Error("Failed to upsert relationship", "scope", scope, "err", err)
		return writeDomainError(c, err)
	}
	app.Cache.Invalidate(scope)

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, createRelationshipResponse{Created: created})
}
