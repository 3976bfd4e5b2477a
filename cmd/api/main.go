package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"io.winapps.memorialboard/internal/board"
	"io.winapps.memorialboard/internal/captcha"
	"io.winapps.memorialboard/internal/config"
	"io.winapps.memorialboard/internal/db"
	firebaseutil "io.winapps.memorialboard/internal/firebase"
	"io.winapps.memorialboard/internal/handlers"
	"io.winapps.memorialboard/internal/identity"
	"io.winapps.memorialboard/internal/logging"
	"io.winapps.memorialboard/internal/media"
	"io.winapps.memorialboard/internal/metrics"
	"io.winapps.memorialboard/internal/middleware"
	"io.winapps.memorialboard/internal/notify"
	"io.winapps.memorialboard/internal/progress"
	"io.winapps.memorialboard/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	metrics.Init()
	ctx := context.Background()

	// Initialize Firebase when any component needs it
	var firebaseApp *firebase.App
	if cfg.UsesFirebase() {
		firebaseApp, err = firebaseutil.InitFirebase(ctx, firebaseutil.Options{
			ProjectID:          cfg.FirebaseProjectID,
			ServiceAccountPath: cfg.FirebaseServiceAccountPath,
			StorageBucket:      cfg.FirebaseStorageBucket,
		})
		if err != nil {
			logger.Fatalw("Failed to initialize Firebase", "error", err)
		}
	}

	// Initialize Redis
	var redisClient *redis.Client
	if cfg.UseRedis() {
		redisClient, err = db.InitRedis(ctx, db.RedisOptions{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			logger.Fatalw("Failed to initialize Redis", "error", err)
		}
		defer redisClient.Close()
	}

	entries, closeEntries := openEntryStore(ctx, cfg, firebaseApp, logger)
	defer closeEntries()
	if redisClient != nil {
		entries = store.NewCached(entries, redisClient, logger.Named("cache"))
	}

	blobs := openBlobStore(ctx, cfg, firebaseApp, logger)
	provider := openIdentityProvider(ctx, cfg, firebaseApp, redisClient, logger)

	// Admin notifications
	var (
		sender notify.Sender
		topics notify.TopicManager
	)
	if firebaseApp != nil {
		messagingClient, err := firebaseApp.Messaging(ctx)
		if err != nil {
			logger.Warnw("Messaging unavailable, admin notifications will only be logged", "error", err)
		} else {
			sender, topics = messagingClient, messagingClient
		}
	}
	notifier := notify.New(sender, entries, cfg.AdminTopic, cfg.NotifyOnSubmit, logger.Named("notify")).
		WithTopicManager(topics)
	if err := notifier.Start(cfg.DigestCronSpec); err != nil {
		logger.Fatalw("Failed to schedule moderation digest", "error", err)
	}
	defer notifier.Stop()

	var verifier captcha.Verifier
	if cfg.RecaptchaSecret != "" {
		verifier = captcha.NewRecaptcha(cfg.RecaptchaSecret, "", nil)
	} else {
		logger.Infow("RECAPTCHA_SECRET not set, page submissions are not captcha-checked")
	}

	transcoder := media.NewTranscoder()
	service := board.NewService(board.Deps{
		Entries:  entries,
		Blobs:    blobs,
		Preparer: media.NewPreparer(cfg.MaxUploadBytes, transcoder, logger.Named("media")),
		Admins:   identity.NewAdminSet(cfg.AdminEmails),
		Notifier: notifier,
		Captcha:  verifier,
		Logger:   logger.Named("board"),
	})
	if service.Admins().Len() == 0 {
		logger.Warnw("No admin emails configured, moderation is disabled")
	}

	var (
		progressStore progress.Store  = progress.NewMemoryStore()
		tempStore     media.TempStore = media.NewMemoryTemp()
	)
	if redisClient != nil {
		progressStore = progress.NewRedisStore(redisClient)
		tempStore = media.NewRedisTemp(redisClient)
	}
	converter := media.NewConverter(
		media.NewHTTPFetcher(nil, 4*cfg.MaxUploadBytes),
		transcoder,
		tempStore,
		media.DefaultTempTTL,
		logger.Named("compat"),
	)

	// Initialize Gin router
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.RequestIDMiddleware(),
		middleware.RequestLoggingMiddleware(logger.Named("http")),
		middleware.RecoveryMiddleware(logger),
		metrics.GinMiddleware(),
	)

	// Add CORS middleware for the static site
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-Request-ID, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	handlers.Routes{
		Submissions:   handlers.NewSubmissionHandler(service, progressStore, cfg.MaxUploadBytes, logger.Named("submissions")),
		Feeds:         handlers.NewFeedHandler(service, handlers.CompatPath, logger.Named("feeds")),
		Moderation:    handlers.NewModerationHandler(service, logger.Named("moderation")),
		Media:         handlers.NewMediaHandler(converter, handlers.TempPath, cfg.PublicBaseURL, cfg.CompatSources, logger.Named("compat")),
		Notifications: handlers.NewNotificationsHandler(notifier, service.Admins(), logger.Named("notifications")),
		Identity:      provider,
		RateLimit: middleware.RateLimitConfig{
			PerMinute: cfg.SubmitRatePerMinute,
			Burst:     cfg.SubmitBurst,
		},
	}.Register(router)

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", metrics.Handler())

	// Serve locally stored media
	if cfg.BlobBackend == config.BlobLocal {
		router.Static(cfg.MediaBaseURL, cfg.MediaDir)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Infow("Server starting", "addr", cfg.Addr(), "store", cfg.StoreBackend, "blobs", cfg.BlobBackend, "redis", redisClient != nil)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalw("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infow("Shutting down server")

	// Give a 5 second timeout for graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("Server forced to shutdown", "error", err)
	}

	logger.Infow("Server exited")
}

func openEntryStore(ctx context.Context, cfg *config.Config, app *firebase.App, logger *zap.SugaredLogger) (store.EntryStore, func()) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		pool, err := db.InitPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatalw("Failed to initialize PostgreSQL", "error", err)
		}
		return store.NewPostgres(pool), pool.Close
	case config.StoreFirestore:
		fs, err := firebaseutil.NewFirestoreStore(ctx, app)
		if err != nil {
			logger.Fatalw("Failed to initialize Firestore", "error", err)
		}
		return fs, func() { _ = fs.Close() }
	default:
		logger.Warnw("Using in-memory entry store, submissions are lost on restart")
		return store.NewMemory(), func() {}
	}
}

func openBlobStore(ctx context.Context, cfg *config.Config, app *firebase.App, logger *zap.SugaredLogger) store.BlobStore {
	if cfg.BlobBackend == config.BlobFirebase {
		blobs, err := firebaseutil.NewStorageBlobs(ctx, app, cfg.FirebaseStorageBucket)
		if err != nil {
			logger.Fatalw("Failed to initialize Cloud Storage", "error", err)
		}
		return blobs
	}
	if err := os.MkdirAll(cfg.MediaDir, 0755); err != nil {
		logger.Fatalw("Failed to create media directory", "dir", cfg.MediaDir, "error", err)
	}
	return store.NewLocalBlobs(cfg.MediaDir, cfg.MediaBaseURL)
}

// openIdentityProvider verifies Firebase ID tokens. Without Firebase, a
// development build accepts two fixed demo tokens.
func openIdentityProvider(ctx context.Context, cfg *config.Config, app *firebase.App, redisClient *redis.Client, logger *zap.SugaredLogger) identity.Provider {
	if app == nil {
		if !cfg.IsDevelopment() {
			logger.Fatalw("An identity provider is required outside development; set FIREBASE_PROJECT_ID")
		}
		demo := identity.Static{"dev-visitor": {UID: "dev-visitor", Anonymous: true}}
		if len(cfg.AdminEmails) > 0 {
			demo["dev-admin"] = identity.Identity{UID: "dev-admin", Email: cfg.AdminEmails[0]}
		}
		logger.Warnw("Using demo identities", "tokens", []string{"dev-visitor", "dev-admin"})
		return demo
	}

	authProvider, err := firebaseutil.NewAuthProvider(ctx, app)
	if err != nil {
		logger.Fatalw("Failed to initialize Firebase Auth", "error", err)
	}
	if redisClient == nil {
		return authProvider
	}
	return identity.NewCachedProvider(authProvider, redisClient, logger.Named("identity"))
}
