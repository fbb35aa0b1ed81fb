package routes

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lattice-intel/lattice/internal/queue"
	"github.com/lattice-intel/lattice/internal/server/middleware"
	"github.com/lattice-intel/lattice/pkg/discovery"
	"github.com/lattice-intel/lattice/pkg/logger"
)

// DiscoverHandler starts a relationship-discovery run for the scope. With a
// queue configured the job goes to the worker; otherwise it runs inline and
// the response carries the result. A partial inline run still reports what
// was committed.
func DiscoverHandler(c echo.Context) error {
	type discoverBody struct {
		Since time.Time `json:"since"`
	}

	type discoverResponse struct {
		Message string            `json:"message"`
		Result  *discovery.Result `json:"result,omitempty"`
	}

	scope := c.Param("scope")
	app := c.(*middleware.AppContext).App

	data := new(discoverBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, discoverResponse{Message: "Invalid request body"})
	}

	if app.Queue != nil {
		err := queue.PublishDiscoveryJob(app.Queue, queue.DiscoveryJob{
			Scope: scope,
			Since: data.Since,
		})
		if err != nil {
			logger.Error("Failed to enqueue discovery job", "scope", scope, "err", err)
			return c.JSON(http.StatusInternalServerError, discoverResponse{Message: "Internal server error"})
		}
		return c.JSON(http.StatusAccepted, discoverResponse{Message: "Discovery job enqueued"})
	}

	res, err := app.Discovery.Run(c.Request().Context(), scope, data.Since)
	if err != nil {
		logger.Error("Discovery run failed", "scope", scope, "err", err)
		return c.JSON(http.StatusInternalServerError, discoverResponse{
			Message: "Discovery run failed partway; committed changes are reported",
			Result:  &res,
		})
	}

	return c.JSON(http.StatusOK, discoverResponse{Message: "Discovery finished", Result: &res})
}
