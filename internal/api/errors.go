package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"strive-backend-go/internal/core"
	"strive-backend-go/internal/middleware"
)

// notFoundErrors map to 404 with their own message.
var notFoundErrors = []error{
	core.ErrUserNotFound,
	core.ErrChallengeNotFound,
	core.ErrGroupNotFound,
	core.ErrChallengeDescriptionNotFound,
	core.ErrImageNotFound,
}

// badRequestErrors map to 400 with the full error as details.
var badRequestErrors = []error{
	core.ErrInvalidEmail,
	core.ErrPasswordTooShort,
	core.ErrMissingName,
	core.ErrCannotFriendSelf,
	core.ErrInvalidInput,
	core.ErrImageRequired,
}

// mapErrorToStatus writes the HTTP reply for a service error.
func mapErrorToStatus(c *gin.Context, logger *zap.Logger, err error) {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: target.Error(), Details: err.Error()})
			return
		}
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: target.Error(), Details: err.Error()})
			return
		}
	}

	switch {
	case errors.Is(err, core.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: core.ErrInvalidCredentials.Error()})
	case errors.Is(err, core.ErrNoPendingRequest):
		c.JSON(http.StatusConflict, ErrorResponse{Error: core.ErrNoPendingRequest.Error(), Details: err.Error()})
	case errors.Is(err, core.ErrForeignLike):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: core.ErrForeignLike.Error()})
	case errors.Is(err, core.ErrEmailInUse):
		c.JSON(http.StatusConflict, ErrorResponse{Error: core.ErrEmailInUse.Error()})
	case errors.Is(err, core.ErrImageTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: core.ErrImageTooLarge.Error()})
	case errors.Is(err, core.ErrIdentityUnavailable):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: core.ErrIdentityUnavailable.Error()})
	default:
		logger.Error("Internal Server Error",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "An unexpected internal server error occurred."})
	}
}

// callerID returns the user id set by the auth middleware, replying 401 when
// it is missing.
func callerID(c *gin.Context) (string, bool) {
	uid := middleware.UserID(c)
	if uid == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return "", false
	}
	return uid, true
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return false
	}
	return true
}
