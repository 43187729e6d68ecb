package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/homekeeper/household-api/internal/api/metrics"
	"github.com/homekeeper/household-api/internal/core/domain"
	"github.com/homekeeper/household-api/internal/core/ports"
)

// Context keys set by Auth for downstream handlers.
const (
	PrincipalKey  = "principal"
	TokenValueKey = "token_value"
)

// Auth validates the bearer token and injects the principal into context.
//
// Order matters: signature and claim expiry are checked first (cheap, local),
// then the token store decides whether the session is still live. A token
// with a valid signature and unexpired claims must still be rejected once it
// has been logged out or swept.
func Auth(jwtSecret string, store ports.TokenRepository, revoked ports.RevocationCache) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				metrics.AuthRejectionsTotal.WithLabelValues("missing_token").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				metrics.AuthRejectionsTotal.WithLabelValues("missing_token").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}
			value := parts[1]

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(value, claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				if errors.Is(err, jwt.ErrTokenExpired) {
					metrics.AuthRejectionsTotal.WithLabelValues("expired_token").Inc()
					return echo.NewHTTPError(http.StatusUnauthorized, "token expired")
				}
				metrics.AuthRejectionsTotal.WithLabelValues("malformed_token").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			ctx := c.Request().Context()

			if revoked != nil {
				// Cache hit short-circuits the store read; a miss proves nothing.
				if hit, cacheErr := revoked.IsRevoked(ctx, value); cacheErr == nil && hit {
					metrics.AuthRejectionsTotal.WithLabelValues("revoked_token").Inc()
					return echo.NewHTTPError(http.StatusUnauthorized, "token revoked")
				}
			}

			record, err := store.FindByValue(ctx, value)
			if err != nil {
				if errors.Is(err, domain.ErrTokenNotFound) {
					metrics.AuthRejectionsTotal.WithLabelValues("revoked_token").Inc()
					return echo.NewHTTPError(http.StatusUnauthorized, "token revoked")
				}
				return err
			}
			if !record.Active {
				metrics.AuthRejectionsTotal.WithLabelValues("revoked_token").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "token revoked")
			}

			subject, _ := claims.GetSubject()
			c.Set(PrincipalKey, domain.Principal{
				UserID:   record.UserID,
				Username: subject,
				Roles:    rolesFromClaims(claims),
			})
			c.Set(TokenValueKey, value)

			return next(c)
		}
	}
}

// rolesFromClaims reads the "roles" claim, which arrives as []any after JSON
// decoding.
func rolesFromClaims(claims jwt.MapClaims) []string {
	raw, ok := claims["roles"].([]any)
	if !ok {
		return nil
	}
	roles := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok {
			roles = append(roles, s)
		}
	}
	return roles
}
