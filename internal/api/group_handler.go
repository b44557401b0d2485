package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"strive-backend-go/internal/core"
	"strive-backend-go/internal/middleware"
	"strive-backend-go/internal/models"
)

// GroupHandler serves group creation, membership and group listings.
type GroupHandler struct {
	groupService     core.GroupService
	challengeService core.ChallengeService
	logger           *zap.Logger
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(gs core.GroupService, cs core.ChallengeService, logger *zap.Logger) *GroupHandler {
	return &GroupHandler{groupService: gs, challengeService: cs, logger: logger}
}

// CreateGroup handles POST /groups.
// The caller is always the first member. Every listed member, the caller
// included, gets the new group id in their own group list; unknown member ids
// are skipped.
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	uid, ok := callerID(c)
	if !ok {
		return
	}
	var req models.CreateGroupRequest
	if !bindJSON(c, &req) {
		return
	}
	group, err := h.groupService.NewGroup(c.Request.Context(), uid, req)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, group)
}

// GetGroup handles GET /groups/:gid.
func (h *GroupHandler) GetGroup(c *gin.Context) {
	group, err := h.groupService.GetGroup(c.Request.Context(), c.Param("gid"))
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

// JoinGroup handles POST /groups/:gid/join.
func (h *GroupHandler) JoinGroup(c *gin.Context) {
	uid, ok := callerID(c)
	if !ok {
		return
	}
	group, err := h.groupService.JoinGroup(c.Request.Context(), c.Param("gid"), uid)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

// Members handles GET /groups/:gid/members.
func (h *GroupHandler) Members(c *gin.Context) {
	users, err := h.groupService.GetUsersInGroup(c.Request.Context(), c.Param("gid"))
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toPublicUsers(users))
}

// Challenges handles GET /groups/:gid/challenges, newest first.
func (h *GroupHandler) Challenges(c *gin.Context) {
	challenges, err := h.challengeService.GetAllPostsOfGroup(c.Request.Context(), c.Param("gid"))
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	core.SortByDateDesc(challenges)
	c.JSON(http.StatusOK, challenges)
}

// OtherGroups handles GET /groups/:gid/others: the caller's other groups.
func (h *GroupHandler) OtherGroups(c *gin.Context) {
	groups, err := h.groupService.OtherGroups(c.Request.Context(), middleware.UserID(c), c.Param("gid"))
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

// Nearby handles GET /groups/nearby?lat=..&lon=..
// Both coordinates are required; a missing or unparsable one is a 400.
func (h *GroupHandler) Nearby(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lon, errLon := strconv.ParseFloat(c.Query("lon"), 64)
	if errLat != nil || errLon != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "lat and lon query parameters are required numbers"})
		return
	}
	groups, err := h.groupService.NearbyGroups(c.Request.Context(), lat, lon)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}
