package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/fiddyhq/autopublisher/config"
	"github.com/fiddyhq/autopublisher/pkg/api/handlers"
	"github.com/fiddyhq/autopublisher/pkg/archive"
	"github.com/fiddyhq/autopublisher/pkg/auth"
	"github.com/fiddyhq/autopublisher/pkg/cache"
	"github.com/fiddyhq/autopublisher/pkg/database"
	"github.com/fiddyhq/autopublisher/pkg/export"
	"github.com/fiddyhq/autopublisher/pkg/generation"
	"github.com/fiddyhq/autopublisher/pkg/humanizer"
	"github.com/fiddyhq/autopublisher/pkg/logger"
	"github.com/fiddyhq/autopublisher/pkg/metrics"
	custommiddleware "github.com/fiddyhq/autopublisher/pkg/middleware"
	"github.com/fiddyhq/autopublisher/pkg/scheduler"
	"github.com/fiddyhq/autopublisher/pkg/secrets"
	"github.com/fiddyhq/autopublisher/pkg/store"
	"github.com/fiddyhq/autopublisher/pkg/wordpress"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server and campaign scheduler",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg := config.Load()
	log.Printf("🔧 Configuration loaded (environment: %s)", cfg.APIEnvironment)

	appLogger := logger.New(cfg.LogLevel, cfg.LogFormat)

	// Initialize Sentry for error tracking
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.APIEnvironment,
			TracesSampleRate: 1.0,
			AttachStacktrace: true,
		})
		if err != nil {
			log.Printf("⚠️  Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s)", cfg.APIEnvironment)
			defer sentry.Flush(2 * time.Second)
		}
	} else {
		log.Printf("ℹ️  Sentry disabled (no DSN configured)")
	}

	// Initialize database (applies the embedded schema)
	sslCfg := &database.SSLConfig{
		Mode:         cfg.DBSSLMode,
		CertPath:     cfg.DBSSLCertPath,
		KeyPath:      cfg.DBSSLKeyPath,
		RootCertPath: cfg.DBSSLRootCertPath,
	}
	db, err := database.NewClientWithSSL(cfg.DBDriver, cfg.DatabaseURL, sslCfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	// Initialize Redis cache
	redisClient, err := cache.NewClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect to Redis: %w", err)
	}
	defer redisClient.Close()

	st := store.New(db)

	// Initialize Prometheus metrics
	prometheusMetrics := metrics.New()
	log.Printf("✅ Prometheus metrics initialized")

	// Initialize secrets manager. The provider API key and the credential
	// encryption secret come through here so production can keep them in
	// AWS Secrets Manager while development reads the environment.
	secretsManager, err := secrets.NewManager(secrets.Config{
		Backend:       cfg.SecretsBackend,
		AWSRegion:     cfg.AWSRegion,
		CacheDuration: 5 * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("initialize secrets manager: %w", err)
	}
	defer secretsManager.Close()

	providerKey := secrets.LoadString(cmd.Context(), secretsManager, "OPENAI_API_KEY", cfg.OpenAIAPIKey)
	credentialSecret := secrets.LoadString(cmd.Context(), secretsManager, "CREDENTIAL_SECRET", cfg.CredentialSecret)
	jwtSecret := secrets.LoadString(cmd.Context(), secretsManager, "JWT_SECRET", cfg.JWTSecret)

	cipher, err := secrets.NewCipher(credentialSecret)
	if err != nil {
		return fmt.Errorf("initialize credential cipher: %w", err)
	}

	// Initialize content generation client
	generator := generation.New(generation.Config{
		APIKey:            providerKey,
		Model:             cfg.OpenAIModel,
		ImageModel:        cfg.OpenAIImageModel,
		Temperature:       float32(cfg.OpenAITemperature),
		MaxTokens:         cfg.OpenAIMaxTokens,
		RequestsPerMinute: cfg.OpenAIRequestsPerMinute,
	}, appLogger)
	if generator.Configured() {
		log.Printf("✅ Content generation enabled (model: %s)", cfg.OpenAIModel)
	} else {
		log.Printf("ℹ️  Content generation disabled (no OpenAI API key configured)")
	}

	// Initialize WordPress publish client and humanizer
	publisher := wordpress.New(&http.Client{
		Timeout: time.Duration(cfg.PublishTimeoutSeconds) * time.Second,
	}, appLogger)
	bodyHumanizer := humanizer.New()

	// Initialize archive service (if a bucket is configured)
	var archiveService *archive.Service
	if cfg.ArchiveBucket != "" {
		archiveService, err = archive.NewService(archive.Config{
			AWSAccessKeyID:     cfg.AWSAccessKeyID,
			AWSSecretAccessKey: cfg.AWSSecretAccessKey,
			AWSRegion:          cfg.AWSRegion,
			S3Bucket:           cfg.ArchiveBucket,
		})
		if err != nil {
			log.Printf("⚠️  Failed to initialize archive service: %v", err)
			archiveService = nil
		} else {
			log.Printf("✅ Archive service initialized (bucket: %s)", cfg.ArchiveBucket)
		}
	} else {
		log.Printf("ℹ️  Content archival disabled (no ARCHIVE_BUCKET configured)")
	}

	// Initialize campaign scheduler
	schedDeps := scheduler.Deps{
		Generator: generator,
		Humanizer: bodyHumanizer,
		Publisher: publisher,
		Cipher:    cipher,
		Metrics:   prometheusMetrics,
	}
	if archiveService != nil {
		schedDeps.Archiver = archiveService
	}
	quotaPeriod := time.Duration(cfg.QuotaPeriodDays) * 24 * time.Hour
	sched := scheduler.New(st, schedDeps, scheduler.Config{
		PollInterval:       time.Duration(cfg.PollIntervalMinutes) * time.Minute,
		BatchSize:          cfg.PollBatchSize,
		GenerationTimeout:  time.Duration(cfg.GenerationTimeoutSeconds) * time.Second,
		PublishTimeout:     time.Duration(cfg.PublishTimeoutSeconds) * time.Second,
		StuckTimeout:       time.Duration(cfg.StuckTimeoutHours) * time.Hour,
		FailedRetention:    time.Duration(cfg.FailedRetentionDays) * 24 * time.Hour,
		CompletedRetention: time.Duration(cfg.CompletedRetentionDays) * 24 * time.Hour,
		EventRetention:     time.Duration(cfg.EventRetentionDays) * 24 * time.Hour,
		QuotaPeriod:        quotaPeriod,
	}, appLogger)
	if cfg.SchedulerEnabled {
		if err := sched.Start(); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		log.Printf("✅ Scheduler started (poll interval: %dm, batch size: %d)",
			cfg.PollIntervalMinutes, cfg.PollBatchSize)
	} else {
		log.Printf("ℹ️  Scheduler disabled (SCHEDULER_ENABLED=false)")
	}

	// Initialize JWT blacklist
	tokenBlacklist := auth.NewTokenBlacklist(redisClient)

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	// Initialize rate limiters
	globalRateLimiter := custommiddleware.NewRateLimiter(cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	tierRateLimiter := custommiddleware.NewTierRateLimiter()

	// Global middleware
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Printf("[%s] %s - Status: %d", c.Request().Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	// Sentry error tracking middleware (if configured)
	if cfg.SentryDSN != "" {
		e.Use(sentryecho.New(sentryecho.Options{
			Repanic: true,
		}))
	}

	// Prometheus metrics middleware
	e.Use(prometheusMetrics.Middleware())

	// CORS with restricted origins
	e.Use(middleware.CORSWithConfig(custommiddleware.CORSConfig()))

	e.Use(middleware.Gzip())
	e.Use(custommiddleware.SecurityHeaders(custommiddleware.DefaultSecurityHeadersConfig()))

	// Global rate limiting (default 60 req/min)
	e.Use(globalRateLimiter.RateLimitMiddleware())

	// Health check endpoints (public)
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"name":        "Fiddy AutoPublisher API",
			"version":     version,
			"status":      "running",
			"environment": cfg.APIEnvironment,
			"timestamp":   time.Now().Unix(),
		})
	})

	e.GET("/health", func(c echo.Context) error {
		if err := db.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status":   "unhealthy",
				"database": "down",
			})
		}

		if _, err := redisClient.Redis.Ping(c.Request().Context()).Result(); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status": "unhealthy",
				"cache":  "down",
			})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"status":   "healthy",
			"database": "up",
			"cache":    "up",
		})
	})

	// Prometheus metrics endpoint (public)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Initialize handlers
	campaignHandler := handlers.NewCampaignHandler(st)
	siteHandler := handlers.NewSiteHandler(st, cipher, publisher)
	titleHandler := handlers.NewTitleHandler(st, generator, prometheusMetrics)
	contentHandler := handlers.NewContentHandler(st)
	eventHandler := handlers.NewEventHandler(st)
	usageHandler := handlers.NewUsageHandler(st, redisClient, prometheusMetrics, quotaPeriod)
	exportHandler := handlers.NewExportHandler(export.NewService(st), prometheusMetrics)
	authHandler := handlers.NewAuthHandler(tokenBlacklist, jwtSecret)
	schedulerHandler := handlers.NewSchedulerHandler(sched)
	adminHandler := handlers.NewAdminHandler(st, redisClient, prometheusMetrics, archiveService)

	// API v1 routes
	v1 := e.Group("/api/v1")

	// Version info endpoint (public)
	v1.GET("/version", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"version":    version,
			"build_time": buildTime,
		})
	})

	// Ping endpoint (public)
	v1.GET("/ping", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"message": "pong",
		})
	})

	// Authentication routes. Tokens are issued out of band; the API only
	// verifies and revokes them.
	authRoutes := v1.Group("/auth")
	{
		authRoutes.POST("/logout", authHandler.Logout, custommiddleware.JWTMiddlewareWithBlacklist(jwtSecret, tokenBlacklist, st))
	}

	// Export download authenticates from the query string as well, so a
	// browser can fetch the file without an Authorization header.
	v1.GET("/export/publish-history", exportHandler.Download, custommiddleware.JWTFromQueryOrHeader(jwtSecret, tokenBlacklist, st))

	// Protected routes (require JWT with blacklist validation)
	protected := v1.Group("")
	protected.Use(custommiddleware.JWTMiddlewareWithBlacklist(jwtSecret, tokenBlacklist, st))
	protected.Use(tierRateLimiter.Middleware())
	{
		// Campaign routes
		campaignsGroup := protected.Group("/campaigns")
		{
			campaignsGroup.POST("", campaignHandler.Create)
			campaignsGroup.GET("", campaignHandler.List)
			campaignsGroup.GET("/:id", campaignHandler.Get)
			campaignsGroup.PATCH("/:id", campaignHandler.Update)
			campaignsGroup.DELETE("/:id", campaignHandler.Delete)
			campaignsGroup.POST("/:id/pause", campaignHandler.Pause)
			campaignsGroup.POST("/:id/resume", campaignHandler.Resume)

			// Per-campaign title queue
			campaignsGroup.POST("/:id/titles/generate", titleHandler.Generate)
			campaignsGroup.GET("/:id/titles", titleHandler.List)

			// Per-campaign content queue and run history
			campaignsGroup.GET("/:id/content", contentHandler.ListForCampaign)
			campaignsGroup.GET("/:id/events", eventHandler.List)
		}

		// Site routes
		sitesGroup := protected.Group("/sites")
		{
			sitesGroup.POST("", siteHandler.Create)
			sitesGroup.GET("", siteHandler.List)
			sitesGroup.PUT("/:id/active", siteHandler.SetActive)
			sitesGroup.DELETE("/:id", siteHandler.Delete)
		}

		// Title review routes
		titlesGroup := protected.Group("/titles")
		{
			titlesGroup.POST("/:id/review", titleHandler.Review)
		}

		// Content routes (user-wide)
		contentGroup := protected.Group("/content")
		{
			contentGroup.GET("", contentHandler.ListForUser)
			contentGroup.POST("/:id/cancel", contentHandler.Cancel)
		}

		// Usage and quota
		protected.GET("/usage", usageHandler.Get)

		// Admin routes (require admin role)
		adminGroup := protected.Group("/admin")
		adminGroup.Use(custommiddleware.RequireAdmin(st))
		{
			adminGroup.POST("/scheduler/trigger", schedulerHandler.Trigger)
			adminGroup.GET("/scheduler/status", schedulerHandler.Status)
			adminGroup.GET("/stats", adminHandler.Stats)
			adminGroup.PUT("/users/:id/tier", adminHandler.SetUserTier)
			adminGroup.GET("/archives", adminHandler.Archives)
		}
	}

	// Start server
	address := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	log.Printf("🚀 Fiddy AutoPublisher API starting on %s", address)
	log.Printf("📝 Log level: %s, Log format: %s", cfg.LogLevel, cfg.LogFormat)
	log.Printf("🔐 JWT expiration: %d hours", cfg.JWTExpirationHours)
	log.Printf("🛡️  Rate limiting: %d req/min (burst: %d)", cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	log.Printf("⏰ Quota period: %d days", cfg.QuotaPeriodDays)

	// Graceful shutdown
	go func() {
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	// Stop the scheduler first so no publish run is cut off mid-flight
	sched.Stop()
	log.Println("✅ Scheduler stopped")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("✅ Server gracefully stopped")
	return nil
}
