package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"strive-backend-go/internal/api"
	"strive-backend-go/internal/cache"
	"strive-backend-go/internal/config"
	"strive-backend-go/internal/core"
	"strive-backend-go/internal/crypto"
	"strive-backend-go/internal/db"
	"strive-backend-go/internal/identity"
	"strive-backend-go/internal/mailer"
	"strive-backend-go/internal/metrics"
	"strive-backend-go/internal/middleware"
	"strive-backend-go/internal/notify"
	"strive-backend-go/internal/storage"
)

func newLogger(release bool) (*zap.Logger, error) {
	if release {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func main() {
	// .env is a development convenience; production sets the environment directly.
	if !strings.EqualFold(os.Getenv("GIN_MODE"), "release") {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("Warning: error loading .env file: %v", err)
		}
	}

	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}

	zapLogger, err := newLogger(appConfig.IsRelease())
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger.Info("Application configuration loaded", zap.String("projectId", appConfig.FirebaseProjectID))

	rootCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	// --- Firebase (Firestore, Auth, Storage) ---
	initCtx, cancelInit := context.WithTimeout(rootCtx, 15*time.Second)
	defer cancelInit()
	clients, err := db.InitFirebase(initCtx, appConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize Firebase Admin SDK", zap.Error(err))
	}
	defer clients.Close()

	// --- Repositories ---
	var sealer db.FieldSealer
	key, err := appConfig.EncryptionKeyBytes()
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Invalid encryption key", zap.Error(err))
	}
	if key != nil {
		cipher, err := crypto.NewFieldCipher(key)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to create field cipher", zap.Error(err))
		}
		sealer = cipher
		zapLogger.Info("Personal fields are sealed at rest")
	} else {
		zapLogger.Warn("ENCRYPTION_KEY not set, phone and address are stored in clear")
	}

	var userRepo db.UserRepository = db.NewFirestoreUserRepository(clients.Firestore, sealer, zapLogger)
	if appConfig.RedisAddr != "" {
		redisCache, err := cache.NewRedisCache(initCtx, cache.RedisConfig{
			Address:  appConfig.RedisAddr,
			Password: appConfig.RedisPassword,
			DB:       appConfig.RedisDB,
		}, zapLogger)
		if err != nil {
			zapLogger.Warn("Redis unavailable, user reads are not cached", zap.Error(err))
		} else {
			defer redisCache.Close()
			userRepo = cache.NewUserRepository(userRepo, redisCache, appConfig.UserCacheTTL, zapLogger)
		}
	}
	challengeRepo := db.NewFirestoreChallengeRepository(clients.Firestore, zapLogger)
	commentRepo := db.NewFirestoreCommentRepository(clients.Firestore, zapLogger)
	groupRepo := db.NewFirestoreGroupRepository(clients.Firestore, zapLogger)
	descriptionRepo := db.NewFirestoreChallengeDescriptionRepository(clients.Firestore, zapLogger)
	activityRepo := db.NewFirestoreActivityRepository(clients.Firestore, zapLogger)

	// --- External collaborators ---
	bucketName := appConfig.FirebaseStorageBucket
	if bucketName == "" {
		bucketName = appConfig.FirebaseProjectID + ".appspot.com"
	}
	bucket, err := clients.Storage.Bucket(bucketName)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to open storage bucket", zap.String("bucket", bucketName), zap.Error(err))
	}
	imageStore := storage.NewImageStore(bucket, bucketName, zapLogger)

	identityProvider, err := identity.NewFirebaseProvider(initCtx, clients.Auth, appConfig.FirebaseWebAPIKey, zapLogger)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize identity provider", zap.Error(err))
	}

	var mailSender core.Mailer
	if appConfig.MailEnabled() {
		smtpMailer, err := mailer.NewSMTPMailer(mailer.Config{
			Host:     appConfig.SMTPHost,
			Port:     appConfig.SMTPPort,
			Username: appConfig.SMTPUser,
			Password: appConfig.SMTPPass,
			From:     appConfig.MailFrom,
		}, zapLogger)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Invalid SMTP configuration", zap.Error(err))
		}
		mailSender = smtpMailer
	} else {
		zapLogger.Info("SMTP not configured, Firebase sends password reset emails")
	}

	appMetrics := metrics.New()

	var pushNotifier core.Notifier = metrics.InstrumentNotifier(notify.NewExpoNotifier(userRepo, nil, zapLogger), appMetrics)
	notifier := pushNotifier
	if appConfig.AMQPURL != "" {
		mq, err := notify.NewRabbitMQ(appConfig.AMQPURL, zapLogger)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer mq.Close()
		notifier = notify.NewQueueNotifier(mq, appConfig.NotificationQueue)
		consumer := notify.NewConsumer(mq, appConfig.NotificationQueue, pushNotifier, zapLogger)
		go func() {
			if err := consumer.Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
				zapLogger.Error("Notification consumer stopped", zap.Error(err))
			}
		}()
		zapLogger.Info("Notifications are queued", zap.String("queue", appConfig.NotificationQueue))
	}

	// --- Services ---
	activityService := metrics.InstrumentActivity(core.NewActivityService(activityRepo), appMetrics)
	userService := core.NewUserService(userRepo, imageStore, activityService, appConfig.GuestUserID, zapLogger)
	authService := core.NewAuthService(identityProvider, userService, userRepo, mailSender, zapLogger)
	friendService := core.NewFriendService(userRepo, notifier, activityService, zapLogger,
		core.WithSuggestionCount(appConfig.FriendSuggestionCount))
	descriptionService := core.NewChallengeDescriptionService(descriptionRepo, zapLogger)
	challengeService := core.NewChallengeService(challengeRepo, groupRepo, userRepo, descriptionService, activityService, zapLogger)
	commentService := core.NewCommentService(commentRepo, userRepo, challengeService, notifier, activityService, zapLogger)
	groupService := core.NewGroupService(groupRepo, userRepo, activityService, zapLogger)
	zapLogger.Info("Core services initialized")

	watcher := core.NewChallengeWatcher(descriptionService, userRepo, notifier, zapLogger)
	if err := watcher.Start(appConfig.ChallengeWatchSchedule); err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Invalid CHALLENGE_WATCH_SCHEDULE", zap.Error(err))
	}

	// --- HTTP ---
	if appConfig.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware(appConfig.ClientURL))
	router.Use(middleware.Metrics(appMetrics))

	var limiter *middleware.RateLimiter
	stopCleanup := make(chan struct{})
	if appConfig.RateLimitRPS > 0 {
		limiter = middleware.NewRateLimiter(float64(appConfig.RateLimitRPS), appConfig.RateLimitBurst, zapLogger)
		limiter.StartCleanup(5*time.Minute, stopCleanup)
	}

	authMW := middleware.NewAuthMiddleware(clients.Auth, appConfig.GuestUserID, zapLogger)
	api.SetupRoutes(router, authMW, limiter, appMetrics, api.Services{
		Auth:                 authService,
		Users:                userService,
		Friends:              friendService,
		Challenges:           challengeService,
		Comments:             commentService,
		Groups:               groupService,
		ChallengeDescription: descriptionService,
		Images:               imageStore,
	}, zapLogger)

	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	zapLogger.Info("Starting HTTP server", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	watcher.Stop(shutdownCtx)
	close(stopCleanup)
	stopBackground()

	zapLogger.Info("Server exiting gracefully")
}
