package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lattice-intel/lattice/pkg/common"
)

// writeDomainError maps the domain sentinels onto HTTP statuses. Anything
// unrecognized is a 500.
func writeDomainError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrEntityNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Entity not found"})
	case errors.Is(err, common.ErrPathNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "No path found"})
	case errors.Is(err, common.ErrStoreUnavailable):
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Store unavailable"})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
}
