package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"strive-backend-go/internal/core"
	"strive-backend-go/internal/middleware"
	"strive-backend-go/internal/models"
)

// AuthHandler handles sign-up, sign-in and profile initialization.
type AuthHandler struct {
	authService core.AuthService
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as core.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: as, logger: logger}
}

// SignUp handles POST /auth/signup.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.authService.SignUp(c.Request.Context(), req)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// SignIn handles POST /auth/signin.
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req models.SignInRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.authService.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// ResetPassword handles POST /auth/password-reset. Unknown addresses get the
// same reply as known ones.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req models.PasswordResetRequest
	if !bindJSON(c, &req) {
		return
	}
	err := h.authService.ResetPassword(c.Request.Context(), req.Email)
	if err != nil && !isUserNotFound(err) {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "If the address is registered, a reset email has been sent."})
}

// InitializeUserProfile handles POST /users/initialize. It is called by the
// client after any Firebase sign-in to make sure the profile exists.
func (h *AuthHandler) InitializeUserProfile(c *gin.Context) {
	uid, ok := callerID(c)
	if !ok {
		return
	}
	email := c.GetString(middleware.ContextUserEmail)
	displayName := c.GetString(middleware.ContextUserDisplayName)

	user, created, err := h.authService.InitializeProfile(c.Request.Context(), uid, email, displayName)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	if created {
		h.logger.Info("User profile created", zap.String("uid", uid))
		c.JSON(http.StatusCreated, user)
		return
	}
	c.JSON(http.StatusOK, user)
}

func isUserNotFound(err error) bool {
	return errors.Is(err, core.ErrUserNotFound)
}
