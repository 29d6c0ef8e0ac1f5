package handlers

import (
	"net/http"

	"github.com/anonto42/walltribe/backend/internal/middleware"
	"github.com/anonto42/walltribe/backend/internal/models"
	"github.com/anonto42/walltribe/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	comments *services.CommentService
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/images/:id/comments", h.CreateComment)
	g.GET("/images/:id/comments", h.GetCommentsByImageID)
}

// CreateComment creates a new comment on an image
func (h *CommentHandler) CreateComment(c echo.Context) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return httpError(err)
	}
	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := h.comments.Create(c.Request().Context(), user, c.Param("id"), req.Content)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"comment": comment})
}

// GetCommentsByImageID lists the comments on an image, newest first
func (h *CommentHandler) GetCommentsByImageID(c echo.Context) error {
	comments, err := h.comments.List(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, comments)
}
