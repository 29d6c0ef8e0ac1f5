package handlers

import (
	"net/http"

	"github.com/anonto42/walltribe/backend/internal/middleware"
	"github.com/anonto42/walltribe/backend/internal/models"
	"github.com/anonto42/walltribe/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FriendshipHandler handles HTTP requests related to friend requests and friendships
type FriendshipHandler struct {
	relationships *services.RelationshipService
}

// NewFriendshipHandler creates a new FriendshipHandler
func NewFriendshipHandler(relationships *services.RelationshipService) *FriendshipHandler {
	return &FriendshipHandler{relationships: relationships}
}

// RegisterFriendshipRoutes registers friendship-related routes
func (h *FriendshipHandler) RegisterFriendshipRoutes(g *echo.Group) {
	g.GET("/friends", h.GetFriends)
	g.DELETE("/friends/:username", h.RemoveFriend) // Unfriend
	g.POST("/friends/requests", h.SendFriendRequest)
	g.GET("/friends/requests", h.GetIncomingFriendRequests)
	g.POST("/friends/requests/accept", h.AcceptFriendRequest)
	g.POST("/friends/requests/reject", h.RejectFriendRequest)
}

// OutcomeResponse reports the result of a relationship operation
type OutcomeResponse struct {
	Status  services.Outcome `json:"status"`
	Message string           `json:"message"`
}

func respondOutcome(c echo.Context, outcome services.Outcome, err error) error {
	if err != nil {
		return httpError(err)
	}
	status := http.StatusOK
	if outcome == services.OutcomeRequestSent {
		status = http.StatusCreated
	}
	return c.JSON(status, OutcomeResponse{Status: outcome, Message: outcome.Message()})
}

// SendFriendRequest handles sending a friend request to a user by name
func (h *FriendshipHandler) SendFriendRequest(c echo.Context) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return httpError(err)
	}
	var req models.FriendRequestBody
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	outcome, err := h.relationships.SendRequest(c.Request().Context(), user, req.Username)
	return respondOutcome(c, outcome, err)
}

// AcceptFriendRequest accepts the pending request sent by the named user
func (h *FriendshipHandler) AcceptFriendRequest(c echo.Context) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return httpError(err)
	}
	var req models.FriendRequestBody
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	outcome, err := h.relationships.AcceptRequest(c.Request().Context(), user, req.Username)
	return respondOutcome(c, outcome, err)
}

// RejectFriendRequest drops the pending request between the caller and the named user
func (h *FriendshipHandler) RejectFriendRequest(c echo.Context) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return httpError(err)
	}
	var req models.FriendRequestBody
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	outcome, err := h.relationships.RejectRequest(c.Request().Context(), user, req.Username)
	return respondOutcome(c, outcome, err)
}

// RemoveFriend deletes the friendship with the user named in the path
func (h *FriendshipHandler) RemoveFriend(c echo.Context) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return httpError(err)
	}

	outcome, err := h.relationships.RemoveFriend(c.Request().Context(), user, c.Param("username"))
	return respondOutcome(c, outcome, err)
}

// GetFriends lists the caller's friends
func (h *FriendshipHandler) GetFriends(c echo.Context) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return httpError(err)
	}

	friends, err := h.relationships.ListFriends(c.Request().Context(), user)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, friends)
}

// GetIncomingFriendRequests lists requests waiting for the caller, newest first
func (h *FriendshipHandler) GetIncomingFriendRequests(c echo.Context) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return httpError(err)
	}

	requests, err := h.relationships.ListIncoming(c.Request().Context(), user)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, requests)
}
