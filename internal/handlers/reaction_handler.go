package handlers

import (
	"net/http"

	"github.com/anonto42/walltribe/backend/internal/middleware"
	"github.com/anonto42/walltribe/backend/internal/models"
	"github.com/anonto42/walltribe/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// ReactionHandler handles likes, dislikes and favorites on images
type ReactionHandler struct {
	reactions *services.ReactionService
}

// NewReactionHandler creates a new ReactionHandler
func NewReactionHandler(reactions *services.ReactionService) *ReactionHandler {
	return &ReactionHandler{reactions: reactions}
}

// RegisterReactionRoutes registers reaction-related routes
func (h *ReactionHandler) RegisterReactionRoutes(g *echo.Group) {
	g.POST("/images/:id/reaction", h.React)
	g.POST("/images/:id/favorite", h.ToggleFavorite)
}

// React sets the caller's like or dislike on an image and returns the new counters
func (h *ReactionHandler) React(c echo.Context) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return httpError(err)
	}
	var req models.ReactRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	state, err := h.reactions.React(c.Request().Context(), user, c.Param("id"), req.Action)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, state)
}

// ToggleFavorite flips the caller's favorite on an image
func (h *ReactionHandler) ToggleFavorite(c echo.Context) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return httpError(err)
	}

	state, err := h.reactions.ToggleFavorite(c.Request().Context(), user, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, state)
}
