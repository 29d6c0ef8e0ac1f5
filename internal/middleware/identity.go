package middleware

import (
	"errors"
	"net/http"

	"github.com/anonto42/walltribe/backend/internal/models"
	"github.com/anonto42/walltribe/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// ResolveIdentity loads the user registered for the authenticated principal.
// Principals that have not registered yet are rejected with 401.
func ResolveIdentity(identity *services.IdentityService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, err := identity.Resolve(c.Request().Context(), Principal(c))
			if err != nil {
				if errors.Is(err, services.ErrUnauthenticated) {
					return echo.NewHTTPError(http.StatusUnauthorized, "User is not registered")
				}
				return echo.NewHTTPError(http.StatusInternalServerError, "Failed to resolve user")
			}
			c.Set(UserKey, user)
			return next(c)
		}
	}
}

// CurrentUser returns the user stored by ResolveIdentity
func CurrentUser(c echo.Context) (*models.User, error) {
	user, ok := c.Get(UserKey).(*models.User)
	if !ok || user == nil {
		return nil, services.ErrUnauthenticated
	}
	return user, nil
}
