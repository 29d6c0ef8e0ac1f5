package handlers

import (
	"net/http"

	"github.com/anonto42/walltribe/backend/internal/middleware"
	"github.com/anonto42/walltribe/backend/internal/models"
	"github.com/anonto42/walltribe/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// UserHandler handles registration and profile requests
type UserHandler struct {
	identity *services.IdentityService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(identity *services.IdentityService) *UserHandler {
	return &UserHandler{identity: identity}
}

// RegisterAuthRoutes registers routes that need a verified principal but no user yet
func (h *UserHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/register", h.Register)
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
}

// Register links the authenticated principal to a new user
func (h *UserHandler) Register(c echo.Context) error {
	var req models.RegisterUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, created, err := h.identity.Register(c.Request().Context(), middleware.Principal(c), req.Username, req.Email)
	if err != nil {
		return httpError(err)
	}
	if !created {
		return c.JSON(http.StatusOK, user)
	}
	return c.JSON(http.StatusCreated, user)
}

// GetProfile returns the authenticated user
func (h *UserHandler) GetProfile(c echo.Context) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}
