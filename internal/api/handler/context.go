package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/homekeeper/household-api/internal/api/middleware"
	"github.com/homekeeper/household-api/internal/core/domain"
)

// ctxPrincipal extracts the principal injected by the Auth middleware.
// Its presence proves the middleware ran; a handler reached without it is a
// routing mistake and fails closed with 401.
func ctxPrincipal(c echo.Context) (domain.Principal, error) {
	principal, ok := c.Get(middleware.PrincipalKey).(domain.Principal)
	if !ok {
		return domain.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return principal, nil
}

// ctxTokenValue extracts the raw bearer token the Auth middleware validated.
func ctxTokenValue(c echo.Context) (string, error) {
	value, ok := c.Get(middleware.TokenValueKey).(string)
	if !ok || value == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return value, nil
}
