package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"strive-backend-go/internal/core"
	"strive-backend-go/internal/metrics"
	"strive-backend-go/internal/middleware"
)

// Services bundles what the handlers call into.
type Services struct {
	Auth                 core.AuthService
	Users                core.UserService
	Friends              core.FriendService
	Challenges           core.ChallengeService
	Comments             core.CommentService
	Groups               core.GroupService
	ChallengeDescription core.ChallengeDescriptionService
	Images               core.ImageStore
}

// SetupRoutes registers the /api/v1 routes, /health and, when m is set,
// /metrics. Global middleware is applied by the caller. limiter may be nil.
func SetupRoutes(
	router *gin.Engine,
	authMW *middleware.AuthMiddleware,
	limiter *middleware.RateLimiter,
	m *metrics.Metrics,
	svc Services,
	logger *zap.Logger,
) {
	authHandler := NewAuthHandler(svc.Auth, logger)
	userHandler := NewUserHandler(svc.Users, svc.Challenges, svc.Groups, logger)
	friendHandler := NewFriendHandler(svc.Friends, logger)
	challengeHandler := NewChallengeHandler(svc.Challenges, svc.Comments, logger)
	descriptionHandler := NewChallengeDescriptionHandler(svc.ChallengeDescription, logger)
	groupHandler := NewGroupHandler(svc.Groups, svc.Challenges, logger)
	imageHandler := NewImageHandler(svc.Images, logger)

	// Two chains: requireAuth for anything that writes or reads private
	// data, optionalAuth for the browsing routes a guest may use. The rate
	// limiter runs after auth so it can key on the user id.
	requireAuth := []gin.HandlerFunc{authMW.RequireAuth()}
	optionalAuth := []gin.HandlerFunc{authMW.OptionalAuth()}
	if limiter != nil {
		requireAuth = append(requireAuth, limiter.Handler())
		optionalAuth = append(optionalAuth, limiter.Handler())
	}
	auth := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, requireAuth...), h)
	}
	opt := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, optionalAuth...), h)
	}

	// All application routes are versioned under /api/v1.
	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		if limiter != nil {
			authGroup.Use(limiter.Handler())
		}
		{
			authGroup.POST("/signup", authHandler.SignUp)
			authGroup.POST("/signin", authHandler.SignIn)
			authGroup.POST("/password-reset", authHandler.ResetPassword)
		}

		users := apiV1.Group("/users")
		{
			users.POST("/initialize", auth(authHandler.InitializeUserProfile)...)
			users.GET("", opt(userHandler.ListUsers)...)
			users.GET("/me", opt(userHandler.GetCurrentUserProfile)...)
			users.PUT("/me/name", auth(userHandler.SetName)...)
			users.PUT("/me/picture", auth(userHandler.SetPicture)...)
			users.PUT("/me/push-token", auth(userHandler.RegisterPushToken)...)
			users.GET("/:uid", opt(userHandler.GetUser)...)
			users.GET("/:uid/name", opt(userHandler.GetName)...)
			users.GET("/:uid/picture", opt(userHandler.GetPicture)...)
			users.GET("/:uid/challenges", opt(userHandler.GetUserChallenges)...)
			users.GET("/:uid/groups", opt(userHandler.GetUserGroups)...)
		}

		friends := apiV1.Group("/friends", requireAuth...)
		{
			friends.GET("", friendHandler.ListFriends)
			friends.GET("/requests", friendHandler.ListRequests)
			friends.GET("/requested", friendHandler.ListRequested)
			friends.GET("/suggestions", friendHandler.Suggestions)
			friends.GET("/:friendId/status", friendHandler.Status)
			friends.POST("/:friendId/request", friendHandler.SendRequest)
			friends.DELETE("/:friendId/request", friendHandler.CancelRequest)
			friends.POST("/:friendId/accept", friendHandler.Accept)
			friends.POST("/:friendId/reject", friendHandler.Reject)
		}

		challenges := apiV1.Group("/challenges")
		{
			challenges.POST("", auth(challengeHandler.CreateChallenge)...)
			challenges.GET("", opt(challengeHandler.ListChallenges)...)
			challenges.GET("/:id", opt(challengeHandler.GetChallenge)...)
			challenges.GET("/:id/likes", opt(challengeHandler.GetLikes)...)
			challenges.PUT("/:id/likes", auth(challengeHandler.UpdateLikes)...)
			challenges.POST("/:id/like", auth(challengeHandler.ToggleLike)...)
			challenges.GET("/:id/comments", opt(challengeHandler.ListComments)...)
			challenges.POST("/:id/comments", auth(challengeHandler.AddComment)...)
		}

		apiV1.GET("/feed", opt(challengeHandler.HomeFeed)...)
		apiV1.GET("/map", opt(challengeHandler.Map)...)

		description := apiV1.Group("/challenge-description", optionalAuth...)
		{
			description.GET("", descriptionHandler.Get)
			description.GET("/countdown", descriptionHandler.Countdown)
		}

		groups := apiV1.Group("/groups")
		{
			groups.POST("", auth(groupHandler.CreateGroup)...)
			groups.GET("/nearby", opt(groupHandler.Nearby)...)
			groups.GET("/:gid", opt(groupHandler.GetGroup)...)
			groups.POST("/:gid/join", auth(groupHandler.JoinGroup)...)
			groups.GET("/:gid/members", opt(groupHandler.Members)...)
			groups.GET("/:gid/challenges", opt(groupHandler.Challenges)...)
			groups.GET("/:gid/others", opt(groupHandler.OtherGroups)...)
		}

		images := apiV1.Group("/images")
		{
			images.POST("", auth(imageHandler.Upload)...)
			images.POST("/from-url", auth(imageHandler.UploadFromURL)...)
			images.GET("/:id/url", opt(imageHandler.GetURL)...)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Strive backend is healthy."})
	})
	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	logger.Info("API routes configured under /api/v1, /health and /metrics")
}
