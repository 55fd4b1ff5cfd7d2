package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Clinic roles. Admin passes every role check.
const (
	RoleAdmin       = "admin"
	RoleSurgeon     = "surgeon"
	RoleNurse       = "nurse"
	RoleCoordinator = "coordinator"
	RoleViewer      = "viewer"
)

// RequireRole returns middleware that checks if the user has at least one of the specified roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if HasAnyRole(RolesFromContext(c.Request().Context()), roles...) {
				return next(c)
			}
			return echo.NewHTTPError(http.StatusForbidden, "insufficient permissions")
		}
	}
}

// HasAnyRole reports whether granted contains admin or any of required.
func HasAnyRole(granted []string, required ...string) bool {
	for _, has := range granted {
		if has == RoleAdmin {
			return true
		}
		for _, r := range required {
			if has == r {
				return true
			}
		}
	}
	return false
}
