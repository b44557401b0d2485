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

const (
	defaultChallengeLimit = 20
	maxChallengeLimit     = 100
)

// ChallengeHandler serves posts, likes, comments, the home feed and the map.
type ChallengeHandler struct {
	challengeService core.ChallengeService
	commentService   core.CommentService
	logger           *zap.Logger
}

// NewChallengeHandler creates a new ChallengeHandler.
func NewChallengeHandler(cs core.ChallengeService, cms core.CommentService, logger *zap.Logger) *ChallengeHandler {
	return &ChallengeHandler{challengeService: cs, commentService: cms, logger: logger}
}

// CreateChallenge handles POST /challenges.
// The author is always the authenticated caller; any uid in the body is
// ignored. The post is tagged with the title of the current challenge period.
//
// Responses: 201 with the stored challenge, 400 on a malformed body, 404 when
// the named group or the current period does not exist.
func (h *ChallengeHandler) CreateChallenge(c *gin.Context) {
	uid, ok := callerID(c)
	if !ok {
		return
	}
	var req models.CreateChallengeRequest
	// ShouldBindJSON leaves optional fields (location, date) nil when absent.
	if !bindJSON(c, &req) {
		return
	}
	challenge, err := h.challengeService.CreateChallenge(c.Request.Context(), uid, req)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, challenge)
}

// ListChallenges handles GET /challenges?limit=k.
// Without a limit the first defaultChallengeLimit posts are returned; larger
// values are capped at maxChallengeLimit.
func (h *ChallengeHandler) ListChallenges(c *gin.Context) {
	limit := defaultChallengeLimit
	if raw := c.Query("limit"); raw != "" {
		k, err := strconv.Atoi(raw)
		if err != nil || k < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		limit = k
	}
	if limit > maxChallengeLimit {
		limit = maxChallengeLimit
	}
	challenges, err := h.challengeService.GetKChallenges(c.Request.Context(), limit)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, challenges)
}

// GetChallenge handles GET /challenges/:id.
func (h *ChallengeHandler) GetChallenge(c *gin.Context) {
	challenge, err := h.challengeService.GetChallenge(c.Request.Context(), c.Param("id"))
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, challenge)
}

// GetLikes handles GET /challenges/:id/likes.
func (h *ChallengeHandler) GetLikes(c *gin.Context) {
	likes, err := h.challengeService.GetLikesOf(c.Request.Context(), c.Param("id"))
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, LikesResponse{Likes: likes})
}

// UpdateLikes handles PUT /challenges/:id/likes and replaces the whole list.
// Clients send the list they rendered with their own like toggled; any other
// difference from the stored list is refused with 403.
func (h *ChallengeHandler) UpdateLikes(c *gin.Context) {
	uid, ok := callerID(c)
	if !ok {
		return
	}
	var req models.UpdateLikesRequest
	if !bindJSON(c, &req) {
		return
	}
	likes, err := h.challengeService.UpdateLikesOf(c.Request.Context(), c.Param("id"), uid, req.Likes)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, LikesResponse{Likes: likes})
}

// ToggleLike handles POST /challenges/:id/like.
func (h *ChallengeHandler) ToggleLike(c *gin.Context) {
	uid, ok := callerID(c)
	if !ok {
		return
	}
	likes, err := h.challengeService.ToggleLike(c.Request.Context(), c.Param("id"), uid)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, LikesResponse{Likes: likes})
}

// ListComments handles GET /challenges/:id/comments.
func (h *ChallengeHandler) ListComments(c *gin.Context) {
	comments, err := h.commentService.GetCommentsOf(c.Request.Context(), c.Param("id"))
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

// AddComment handles POST /challenges/:id/comments.
func (h *ChallengeHandler) AddComment(c *gin.Context) {
	uid, ok := callerID(c)
	if !ok {
		return
	}
	var req models.AddCommentRequest
	if !bindJSON(c, &req) {
		return
	}
	comment, err := h.commentService.AddComment(c.Request.Context(), c.Param("id"), uid, req.Text)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// HomeFeed handles GET /feed for the caller or the guest account.
func (h *ChallengeHandler) HomeFeed(c *gin.Context) {
	feed, err := h.challengeService.HomeFeed(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, feed)
}

// Map handles GET /map.
func (h *ChallengeHandler) Map(c *gin.Context) {
	view, err := h.challengeService.MapPosts(c.Request.Context())
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
