package session

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Role names used across the EMR and LIS sides.
const (
	RoleAdmin        = "Admin"
	RoleLabAttendant = "lab_attendant"
	RoleDoctor       = "doctor"
	RoleNurse        = "nurse"
	RoleRecords      = "records"
)

// RequireRole allows only sessions carrying one of the named roles.
// The Admin role passes every check.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := FromContext(c.Request().Context())
			if claims == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if claims.Role == RoleAdmin || allowed[claims.Role] {
				return next(c)
			}
			return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
		}
	}
}

// RequireRealm restricts a route group to sessions issued for one side
// of the system.
func RequireRealm(realm string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := FromContext(c.Request().Context())
			if claims == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if claims.Realm != realm {
				return echo.NewHTTPError(http.StatusForbidden, "wrong realm for this route")
			}
			return next(c)
		}
	}
}
