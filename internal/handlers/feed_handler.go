package handlers

import (
	"net/http"

	"github.com/anonto42/walltribe/backend/internal/middleware"
	"github.com/anonto42/walltribe/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FeedHandler handles feed-related HTTP requests
type FeedHandler struct {
	feed *services.FeedService
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(feed *services.FeedService) *FeedHandler {
	return &FeedHandler{feed: feed}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// GetFeed returns the images of the caller and their friends, newest first
func (h *FeedHandler) GetFeed(c echo.Context) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return httpError(err)
	}

	feed, err := h.feed.BuildFeed(c.Request().Context(), user)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, feed)
}
