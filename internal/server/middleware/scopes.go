package middleware

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"
)

func HasScope(user *AppUser, scope string) bool {
	if user == nil {
		return false
	}
	if IsAdmin(user) {
		return true
	}
	return slices.Contains(user.Scopes, scope)
}

func IsAdmin(user *AppUser) bool {
	if user == nil {
		return false
	}
	return user.Role == "admin"
}

// RequireScope guards every /graphs/:scope route: the caller must carry the
// path scope in its token, or be an admin.
func RequireScope(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := c.(*AppContext).User
		if user == nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}

		scope := c.Param("scope")
		if scope == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing scope"})
		}
		if !HasScope(user, scope) {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "Forbidden: no access to scope " + scope})
		}

		return next(c)
	}
}
