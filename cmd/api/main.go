package main

// @title JobScout API
// @version 1.0
// @description Tailored resume content from job postings.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the identity provider token.

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/jobscout/jobscout/config"
	"github.com/jobscout/jobscout/pkg/ai/llm"
	"github.com/jobscout/jobscout/pkg/api/handlers"
	custommw "github.com/jobscout/jobscout/pkg/api/middleware"
	"github.com/jobscout/jobscout/pkg/billing"
	"github.com/jobscout/jobscout/pkg/cache"
	"github.com/jobscout/jobscout/pkg/database"
	"github.com/jobscout/jobscout/pkg/domain"
	"github.com/jobscout/jobscout/pkg/email"
	"github.com/jobscout/jobscout/pkg/events"
	"github.com/jobscout/jobscout/pkg/export"
	"github.com/jobscout/jobscout/pkg/generator"
	"github.com/jobscout/jobscout/pkg/jobs"
	"github.com/jobscout/jobscout/pkg/logger"
	"github.com/jobscout/jobscout/pkg/metrics"
	custommiddleware "github.com/jobscout/jobscout/pkg/middleware"
	"github.com/jobscout/jobscout/pkg/prompts"
	"github.com/jobscout/jobscout/pkg/quota"
	"github.com/jobscout/jobscout/pkg/repository"
	"github.com/jobscout/jobscout/pkg/users"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	version     = "1.0.0"
	webhookPath = "/subscriptions/webhook"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log.Printf("🔧 Configuration loaded (environment: %s)", cfg.APIEnvironment)
	if err := config.LoadSecrets(context.Background(), cfg); err != nil {
		log.Fatalf("❌ Failed to load secrets: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	appLogger := logger.New(cfg.LogLevel)

	// Initialize Sentry for error tracking
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			Release:          "jobscout-api@" + version,
			TracesSampleRate: 0.2,
			AttachStacktrace: true,
		})
		if err != nil {
			log.Printf("⚠️  Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s)", cfg.SentryEnvironment)
			defer sentry.Flush(2 * time.Second)
		}
	} else {
		log.Printf("ℹ️  Sentry disabled (no DSN configured)")
	}

	// Storage
	var repos *repository.Set
	if cfg.UseMemoryStore {
		repos = repository.NewMemory()
		log.Printf("⚠️  Using in-memory store, data is lost on restart")
	} else {
		db, err := database.Open(context.Background(), database.Options{
			URL: cfg.DatabaseURL,
			TLS: database.TLS{
				Mode:     cfg.DBSSLMode,
				Cert:     cfg.DBSSLCertPath,
				Key:      cfg.DBSSLKeyPath,
				RootCert: cfg.DBSSLRootCertPath,
			},
		})
		if err != nil {
			log.Fatalf("❌ Failed to connect to database: %v", err)
		}
		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = db.Migrate(migrateCtx)
		cancel()
		if err != nil {
			log.Fatalf("❌ Failed to migrate database: %v", err)
		}
		repos = repository.NewPostgres(db)
	}
	defer repos.Close()

	// Redis backs webhook de-duplication. Without it every delivery is processed.
	redisClient, err := cache.NewClient(cfg.RedisURL)
	if err != nil {
		log.Printf("⚠️  Redis unavailable, webhook de-duplication disabled: %v", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	// Prometheus metrics
	prometheusMetrics := metrics.New()
	log.Printf("✅ Prometheus metrics initialized")

	// Domain events
	var publisher events.Publisher = events.NewNoopPublisher(appLogger)
	if cfg.RabbitMQURL != "" {
		rmq, err := events.NewRabbitMQPublisher(cfg.RabbitMQURL, appLogger)
		if err != nil {
			log.Printf("⚠️  RabbitMQ unavailable, events are logged only: %v", err)
		} else {
			publisher = rmq
			log.Printf("✅ RabbitMQ publisher connected")
		}
	}
	defer publisher.Close()
	emitter := events.NewEmitter(publisher, appLogger)

	// Email notifications
	emailService := email.NewService(cfg.EmailFrom, cfg.EmailFromName, cfg.SendGridAPIKey)

	// Completion pipeline
	llmClient := llm.NewOpenAIClient(llm.Config{
		APIKey:          cfg.OpenAIAPIKey,
		BaseURL:         cfg.OpenAIBaseURL,
		Model:           cfg.OpenAIModel,
		Temperature:     cfg.OpenAITemperature,
		MaxTokens:       cfg.OpenAIMaxTokens,
		Timeout:         cfg.OpenAITimeout,
		BreakerFailures: cfg.OpenAIBreakerFailures,
		BreakerTimeout:  cfg.OpenAIBreakerTimeout,
	}, appLogger, prometheusMetrics.RecordBreakerState)
	contentGenerator := generator.New(llmClient, appLogger)

	clock := domain.SystemClock{}
	provisioner := users.NewProvisioner(repos.Users, appLogger)
	tracker := quota.NewTracker(repos.Prompts, cfg.FreePromptLimit, clock, appLogger)

	promptService := prompts.NewService(prompts.Deps{
		Users:     provisioner,
		Quota:     tracker,
		Prompts:   repos.Prompts,
		Contents:  repos.Contents,
		Generator: contentGenerator,
		Events:    emitter,
		Metrics:   prometheusMetrics,
		Clock:     clock,
		Logger:    appLogger,
	})

	// Exports, archived to S3 when a bucket is configured
	var archive export.Archive
	if cfg.ExportS3Bucket != "" {
		s3Archive, err := export.NewS3Archive(context.Background(), export.S3Config{
			Bucket:          cfg.ExportS3Bucket,
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
		if err != nil {
			log.Printf("⚠️  Export archive disabled: %v", err)
		} else {
			archive = s3Archive
			log.Printf("✅ Export archive enabled (bucket: %s)", cfg.ExportS3Bucket)
		}
	}
	exportService := export.NewService(archive, appLogger)
	exportService.SetMetrics(prometheusMetrics)

	// Billing
	prices := billing.PriceIDs{
		ProMonthly:     cfg.StripeProMonthlyPriceID,
		ProYearly:      cfg.StripeProYearlyPriceID,
		PremiumMonthly: cfg.StripePremiumMonthlyPriceID,
		PremiumYearly:  cfg.StripePremiumYearlyPriceID,
	}
	billingService := billing.NewService(repos.Subscriptions, provisioner, billing.NewStripeGateway(cfg.StripeSecretKey), billing.Config{
		Prices:         prices,
		FrontendURL:    cfg.FrontendURL,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		FreeLimit:      cfg.FreePromptLimit,
	}, appLogger)
	billingService.SetMetrics(prometheusMetrics)

	reconciler := billing.NewReconciler(repos.Subscriptions, repos.Users, prices, cfg.StripeWebhookSecret, appLogger)
	reconciler.SetEmailSender(emailService, cfg.FrontendURL)
	reconciler.SetEmitter(emitter)
	reconciler.SetMetrics(prometheusMetrics)
	reconciler.SetFreeLimit(cfg.FreePromptLimit)
	if redisClient != nil {
		reconciler.SetEventClaimer(redisClient)
	}

	// Stale prompt reaper
	reaper := jobs.NewStaleReaper(repos.Prompts, cfg.StalePromptAfter, clock, log.Default())
	reaper.SetMetrics(prometheusMetrics)
	cronManager := jobs.NewCronManager(reaper, log.Default())
	if err := cronManager.SetupJobs(cfg.StalePromptSchedule); err != nil {
		log.Fatalf("❌ Failed to set up cron jobs: %v", err)
	}
	cronManager.Start()

	// Handlers
	promptHandler := handlers.NewPromptHandler(promptService, exportService)
	billingHandler := handlers.NewBillingHandler(billingService, reconciler)
	checks := map[string]handlers.Pinger{"database": repos}
	if redisClient != nil {
		checks["redis"] = redisClient
	}
	healthHandler := handlers.NewHealthHandler(version, checks)

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	globalRateLimiter := custommiddleware.NewRateLimiter(cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst, custommiddleware.IPKey)
	defer globalRateLimiter.Stop()
	// per-user budget for completion calls
	promptRateLimiter := custommiddleware.NewRateLimiter(10, 3, custommiddleware.UserOrIPKey(custommw.UserIDKey))
	defer promptRateLimiter.Stop()
	webhookRateLimiter := custommiddleware.NewRateLimiter(100, 20, custommiddleware.IPKey)
	defer webhookRateLimiter.Stop()

	// Global middleware
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURIPath: true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			// path only: export links carry the token in the query
			args := []any{"method", v.Method, "path", v.URIPath, "status", v.Status, "latency_ms", v.Latency.Milliseconds()}
			if v.Error != nil {
				appLogger.Error("request", append(args, "error", v.Error.Error())...)
				return nil
			}
			appLogger.Info("request", args...)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	// Sentry error tracking middleware (if configured)
	if cfg.SentryDSN != "" {
		e.Use(sentryecho.New(sentryecho.Options{
			Repanic: true, // Recover middleware turns the panic into a 500
		}))
	}

	e.Use(prometheusMetrics.Middleware())
	e.Use(middleware.CORSWithConfig(custommiddleware.CORSConfig(cfg.CORSAllowedOrigins)))
	e.Use(custommiddleware.SecurityHeaders(custommiddleware.SecurityHeadersConfig{}))
	e.Use(middleware.Gzip())

	// Global rate limiting (default 60 req/min per IP). Stripe delivers from a
	// handful of IPs, so the webhook only answers to its own limiter.
	e.Use(globalRateLimiter.RateLimitMiddlewareWithSkipper(custommiddleware.SkipPaths(webhookPath)))

	// Public routes
	e.GET("/", healthHandler.Root)
	e.GET("/health", healthHandler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/pricing", billingHandler.Pricing)

	// Stripe calls the webhook with its own signature, not a user token
	e.POST(webhookPath, billingHandler.Webhook, webhookRateLimiter.RateLimitMiddleware())

	// Authenticated routes
	requireUser := custommw.JWTMiddleware(cfg.AuthJWTSecret)

	e.POST("/prompts", promptHandler.Create, requireUser, promptRateLimiter.RateLimitMiddleware())
	e.GET("/prompts/user", promptHandler.ListUser, requireUser)
	e.DELETE("/prompts/:id", promptHandler.Delete, requireUser)
	// download links may carry the token in the query string
	e.GET("/prompts/:id/export", promptHandler.Export, custommw.JWTFromQueryOrHeader(cfg.AuthJWTSecret))
	e.GET("/usage", promptHandler.Usage, requireUser)

	e.POST("/subscriptions/checkout", billingHandler.Checkout, requireUser)
	e.POST("/subscriptions/portal", billingHandler.Portal, requireUser)
	e.GET("/subscriptions/current", billingHandler.Current, requireUser)

	// Start server
	address := net.JoinHostPort(cfg.APIHost, cfg.APIPort)
	log.Printf("🚀 JobScout API starting on %s", address)
	log.Printf("📝 Log level: %s", cfg.LogLevel)
	log.Printf("🌍 CORS: %v", cfg.CORSAllowedOrigins)
	log.Printf("🛡️  Rate limiting: %d req/min (burst: %d)", cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	log.Printf("📊 Free plan: %d prompts/month", tracker.Limit())
	log.Printf("⏰ Cron jobs: stale prompt reaper (%s, after %s)", cfg.StalePromptSchedule, cfg.StalePromptAfter)

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

	cronManager.Stop()
	log.Println("✅ Cron jobs stopped")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
		return
	}

	log.Println("✅ Server gracefully stopped")
}
