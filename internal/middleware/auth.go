package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	// PrincipalKey holds the verified external principal in the echo context
	PrincipalKey = "firebaseUID"
	// UserKey holds the resolved *models.User in the echo context
	UserKey = "user"
)

// TokenVerifier checks a bearer token and returns the external principal it was issued to
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// Authenticate rejects requests without a valid bearer token and stores the principal
func Authenticate(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is missing")
			}

			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header must be in Bearer format")
			}

			principal, err := verifier.Verify(c.Request().Context(), tokenParts[1])
			if err != nil || principal == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}

			c.Set(PrincipalKey, principal)
			return next(c)
		}
	}
}

// Principal returns the principal stored by Authenticate
func Principal(c echo.Context) string {
	principal, _ := c.Get(PrincipalKey).(string)
	return principal
}
