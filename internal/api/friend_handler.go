package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"strive-backend-go/internal/core"
	"strive-backend-go/internal/models"
)

// FriendHandler serves the friend list, requests and suggestions of the caller.
type FriendHandler struct {
	friendService core.FriendService
	logger        *zap.Logger
}

// NewFriendHandler creates a new FriendHandler.
func NewFriendHandler(fs core.FriendService, logger *zap.Logger) *FriendHandler {
	return &FriendHandler{friendService: fs, logger: logger}
}

func (h *FriendHandler) listUsers(c *gin.Context, list func(ctx *gin.Context, uid string) ([]*models.User, error)) {
	uid, ok := callerID(c)
	if !ok {
		return
	}
	users, err := list(c, uid)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toPublicUsers(users))
}

// ListFriends handles GET /friends.
func (h *FriendHandler) ListFriends(c *gin.Context) {
	h.listUsers(c, func(ctx *gin.Context, uid string) ([]*models.User, error) {
		return h.friendService.GetFriends(ctx.Request.Context(), uid)
	})
}

// ListRequests handles GET /friends/requests (incoming requests).
func (h *FriendHandler) ListRequests(c *gin.Context) {
	h.listUsers(c, func(ctx *gin.Context, uid string) ([]*models.User, error) {
		return h.friendService.GetFriendRequests(ctx.Request.Context(), uid)
	})
}

// ListRequested handles GET /friends/requested (outgoing requests).
func (h *FriendHandler) ListRequested(c *gin.Context) {
	h.listUsers(c, func(ctx *gin.Context, uid string) ([]*models.User, error) {
		return h.friendService.GetRequestedFriends(ctx.Request.Context(), uid)
	})
}

// Suggestions handles GET /friends/suggestions.
func (h *FriendHandler) Suggestions(c *gin.Context) {
	h.listUsers(c, func(ctx *gin.Context, uid string) ([]*models.User, error) {
		return h.friendService.GetFriendSuggestions(ctx.Request.Context(), uid)
	})
}

// Status handles GET /friends/:friendId/status.
func (h *FriendHandler) Status(c *gin.Context) {
	uid, ok := callerID(c)
	if !ok {
		return
	}
	status, err := h.friendService.Status(c.Request.Context(), uid, c.Param("friendId"))
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *FriendHandler) mutate(c *gin.Context, message string, op func(ctx *gin.Context, uid, friendID string) error) {
	uid, ok := callerID(c)
	if !ok {
		return
	}
	if err := op(c, uid, c.Param("friendId")); err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

// SendRequest handles POST /friends/:friendId/request.
func (h *FriendHandler) SendRequest(c *gin.Context) {
	h.mutate(c, "Friend request sent", func(ctx *gin.Context, uid, friendID string) error {
		return h.friendService.AddFriend(ctx.Request.Context(), uid, friendID)
	})
}

// CancelRequest handles DELETE /friends/:friendId/request.
func (h *FriendHandler) CancelRequest(c *gin.Context) {
	h.mutate(c, "Friend request withdrawn", func(ctx *gin.Context, uid, friendID string) error {
		return h.friendService.RemoveFriendRequest(ctx.Request.Context(), uid, friendID)
	})
}

// Accept handles POST /friends/:friendId/accept.
func (h *FriendHandler) Accept(c *gin.Context) {
	h.mutate(c, "Friend request accepted", func(ctx *gin.Context, uid, friendID string) error {
		return h.friendService.AcceptFriend(ctx.Request.Context(), uid, friendID)
	})
}

// Reject handles POST /friends/:friendId/reject.
func (h *FriendHandler) Reject(c *gin.Context) {
	h.mutate(c, "Friend request rejected", func(ctx *gin.Context, uid, friendID string) error {
		return h.friendService.RejectFriend(ctx.Request.Context(), uid, friendID)
	})
}
