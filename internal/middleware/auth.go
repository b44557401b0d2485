package middleware

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set by the auth middleware.
const (
	ContextUserID          = "userID"
	ContextUserEmail       = "userEmail"
	ContextUserDisplayName = "userDisplayName"
	ContextIsGuest         = "isGuest"
)

// ErrorResponse mirrors api.ErrorResponse to avoid an import cycle.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// TokenVerifier verifies Firebase ID tokens. *auth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AuthMiddleware provides Gin middleware for Firebase token authentication.
type AuthMiddleware struct {
	verifier    TokenVerifier
	guestUserID string
	logger      *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware. guestUserID is used by
// OptionalAuth when a request carries no token.
func NewAuthMiddleware(verifier TokenVerifier, guestUserID string, logger *zap.Logger) *AuthMiddleware {
	if verifier == nil {
		panic("AuthMiddleware requires a non-nil TokenVerifier")
	}
	return &AuthMiddleware{verifier: verifier, guestUserID: guestUserID, logger: logger}
}

// RequireAuth returns a gin.HandlerFunc that verifies the Firebase ID token in
// the "Authorization: Bearer <token>" header. On success the user id, email
// and display name are stored in the gin context under the Context* keys;
// otherwise the request is aborted with 401.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Mutating routes never fall back to the guest account.
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header is required"})
			return
		}
		if !m.authenticate(c) {
			return
		}
		c.Next()
	}
}

// OptionalAuth verifies a token when present and otherwise runs the request
// as the guest account. A token that is present but invalid is still
// rejected, so a stale session never silently turns into a guest view.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// No header at all: browse as the shared guest account.
		if c.GetHeader("Authorization") == "" {
			c.Set(ContextUserID, m.guestUserID)
			c.Set(ContextIsGuest, true)
			c.Next()
			return
		}
		if !m.authenticate(c) {
			return
		}
		c.Next()
	}
}

// authenticate verifies the bearer token and populates the context. It aborts
// the request and returns false on any failure.
func (m *AuthMiddleware) authenticate(c *gin.Context) bool {
	// Expected format: "Bearer <token>", scheme compared case-insensitively.
	parts := strings.Split(c.GetHeader("Authorization"), " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header format must be 'Bearer {token}'"})
		return false
	}

	// VerifyIDToken checks signature, expiry, audience and issuer against
	// the project the Firebase app was initialised with.
	token, err := m.verifier.VerifyIDToken(c.Request.Context(), parts[1])
	if err != nil {
		m.logger.Warn("Error verifying Firebase ID token", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired authentication token"})
		return false
	}

	// Downstream handlers read these through UserID and c.GetString.
	c.Set(ContextUserID, token.UID)
	c.Set(ContextIsGuest, token.UID == m.guestUserID)
	if email, ok := token.Claims["email"].(string); ok {
		c.Set(ContextUserEmail, email)
	}
	if name, ok := token.Claims["name"].(string); ok {
		c.Set(ContextUserDisplayName, name)
	}
	return true
}

// UserID returns the authenticated (or guest) user id for the request.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
