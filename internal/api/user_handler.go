package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"strive-backend-go/internal/core"
	"strive-backend-go/internal/middleware"
	"strive-backend-go/internal/models"
)

// UserHandler serves user profiles and the per-user listings.
type UserHandler struct {
	userService      core.UserService
	challengeService core.ChallengeService
	groupService     core.GroupService
	logger           *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(us core.UserService, cs core.ChallengeService, gs core.GroupService, logger *zap.Logger) *UserHandler {
	return &UserHandler{userService: us, challengeService: cs, groupService: gs, logger: logger}
}

// GetCurrentUserProfile handles GET /users/me. Without a session it returns
// the guest account.
func (h *UserHandler) GetCurrentUserProfile(c *gin.Context) {
	user, err := h.userService.GetUser(c.Request.Context(), "", middleware.UserID(c))
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetUser handles GET /users/:uid.
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.GetUser(c.Request.Context(), c.Param("uid"), "")
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toPublicUser(user))
}

// ListUsers handles GET /users.
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.GetAllUsers(c.Request.Context())
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toPublicUsers(users))
}

// GetName handles GET /users/:uid/name.
func (h *UserHandler) GetName(c *gin.Context) {
	name, err := h.userService.GetName(c.Request.Context(), c.Param("uid"))
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, NameResponse{Name: name})
}

// SetName handles PUT /users/me/name.
func (h *UserHandler) SetName(c *gin.Context) {
	uid, ok := callerID(c)
	if !ok {
		return
	}
	var req models.SetNameRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.userService.SetName(c.Request.Context(), uid, req.Name); err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, NameResponse{Name: req.Name})
}

// GetPicture handles GET /users/:uid/picture. The URL is empty when the user
// has no picture.
func (h *UserHandler) GetPicture(c *gin.Context) {
	url, err := h.userService.GetProfilePicture(c.Request.Context(), c.Param("uid"))
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, PictureResponse{URL: url})
}

// SetPicture handles PUT /users/me/picture.
func (h *UserHandler) SetPicture(c *gin.Context) {
	uid, ok := callerID(c)
	if !ok {
		return
	}
	var req models.SetPictureRequest
	if !bindJSON(c, &req) {
		return
	}
	imageID, err := h.userService.SetProfilePicture(c.Request.Context(), uid, req)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	url, err := h.userService.GetProfilePicture(c.Request.Context(), uid)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, PictureResponse{ImageID: imageID, URL: url})
}

// RegisterPushToken handles PUT /users/me/push-token.
func (h *UserHandler) RegisterPushToken(c *gin.Context) {
	uid, ok := callerID(c)
	if !ok {
		return
	}
	var req models.PushTokenRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.userService.RegisterPushToken(c.Request.Context(), uid, req.Token); err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Push token registered"})
}

// GetUserChallenges handles GET /users/:uid/challenges.
func (h *UserHandler) GetUserChallenges(c *gin.Context) {
	challenges, err := h.challengeService.GetChallengesByUserID(c.Request.Context(), c.Param("uid"))
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, challenges)
}

// GetUserGroups handles GET /users/:uid/groups.
func (h *UserHandler) GetUserGroups(c *gin.Context) {
	groups, err := h.groupService.GetGroupsByUserID(c.Request.Context(), c.Param("uid"))
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}
