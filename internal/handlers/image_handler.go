package handlers

import (
	"net/http"

	"github.com/anonto42/walltribe/backend/internal/middleware"
	"github.com/anonto42/walltribe/backend/internal/models"
	"github.com/anonto42/walltribe/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// ImageHandler handles image metadata requests. The bytes live in the external file store.
type ImageHandler struct {
	images *services.ImageService
}

// NewImageHandler creates a new ImageHandler
func NewImageHandler(images *services.ImageService) *ImageHandler {
	return &ImageHandler{images: images}
}

// RegisterImageRoutes registers image-related routes
func (h *ImageHandler) RegisterImageRoutes(g *echo.Group) {
	g.POST("/images", h.CreateImage)
	g.DELETE("/images/:id", h.DeleteImage)
}

// CreateImage records an uploaded image owned by the caller
func (h *ImageHandler) CreateImage(c echo.Context) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return httpError(err)
	}
	var req models.CreateImageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	image, err := h.images.Create(c.Request().Context(), user, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, image)
}

// DeleteImage removes one of the caller's images with its comments and reactions
func (h *ImageHandler) DeleteImage(c echo.Context) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return httpError(err)
	}

	if err := h.images.Delete(c.Request().Context(), user, c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
