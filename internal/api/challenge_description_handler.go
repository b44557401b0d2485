package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"strive-backend-go/internal/core"
)

// ChallengeDescriptionHandler serves the current challenge period.
type ChallengeDescriptionHandler struct {
	service core.ChallengeDescriptionService
	logger  *zap.Logger
	now     func() time.Time
}

// NewChallengeDescriptionHandler creates a new ChallengeDescriptionHandler.
func NewChallengeDescriptionHandler(s core.ChallengeDescriptionService, logger *zap.Logger) *ChallengeDescriptionHandler {
	return &ChallengeDescriptionHandler{service: s, logger: logger, now: time.Now}
}

// Get handles GET /challenge-description.
func (h *ChallengeDescriptionHandler) Get(c *gin.Context) {
	desc, err := h.service.GetChallengeDescription(c.Request.Context())
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, desc)
}

// Countdown handles GET /challenge-description/countdown.
func (h *ChallengeDescriptionHandler) Countdown(c *gin.Context) {
	countdown, err := h.service.Countdown(c.Request.Context(), h.now())
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, countdown)
}
