package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/homekeeper/household-api/internal/api/metrics"
	"github.com/homekeeper/household-api/internal/core/domain"
)

// RBAC admits the request when the principal holds at least one of the
// required roles. Requirements are declared per route in the router's role
// table, so handlers never re-check roles themselves.
func RBAC(requiredRoles ...string) echo.MiddlewareFunc {
	required := make(map[string]struct{}, len(requiredRoles))
	for _, r := range requiredRoles {
		required[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := c.Get(PrincipalKey).(domain.Principal)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}

			for _, role := range principal.Roles {
				if _, allowed := required[role]; allowed {
					return next(c)
				}
			}

			metrics.AuthRejectionsTotal.WithLabelValues("insufficient_role").Inc()
			return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
		}
	}
}
