package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/0xobelisk/dubhe-website-sub001/config"
	"github.com/0xobelisk/dubhe-website-sub001/internal/handlers"
	"github.com/0xobelisk/dubhe-website-sub001/internal/mailer"
	"github.com/0xobelisk/dubhe-website-sub001/internal/middleware"
	"github.com/0xobelisk/dubhe-website-sub001/internal/security"
	"github.com/0xobelisk/dubhe-website-sub001/internal/services"
	"github.com/0xobelisk/dubhe-website-sub001/pkg/httpclient"
	"github.com/0xobelisk/dubhe-website-sub001/pkg/logger"
	"github.com/0xobelisk/dubhe-website-sub001/pkg/metrics"
	"github.com/0xobelisk/dubhe-website-sub001/pkg/profiling"
	"github.com/0xobelisk/dubhe-website-sub001/pkg/tracing"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const (
	metricsPath     = "/api/metrics"
	healthcheckPath = "/api/healthcheck"
)

// registerContactRoutes mounts the submission endpoint on a router group
func registerContactRoutes(group *gin.RouterGroup, cfg *config.Config, limiter *middleware.RateLimiter, contactHandler *handlers.ContactHandler) {
	group.POST("/contact", limiter.Middleware(), middleware.BodySizeLimitMiddleware(cfg.Contact.MaxBodyBytes), contactHandler.SubmitContact)
}

// newContactRateLimiter builds the per-IP limiter for the contact routes. The
// default rate of zero leaves it disabled.
func newContactRateLimiter(cfg *config.Config) *middleware.RateLimiter {
	return middleware.NewRateLimiter("contact", rate.Limit(cfg.Contact.RateLimitRPS), cfg.Contact.RateLimitBurst)
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.Server.AppEnv,
		ServiceName: cfg.Observability.ServiceName,
		MaxSizeMB:   cfg.Logging.MaxSizeMB,
		MaxBackups:  cfg.Logging.MaxBackups,
		MaxAgeDays:  cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	settings := cfg.EmailSettings()
	logger.Info("Starting Dubhe website API",
		zap.String("version", cfg.Observability.ServiceVersion),
		zap.String("environment", cfg.Server.AppEnv),
		zap.String("email_provider", settings.ProviderName()),
		zap.Bool("email_configured", settings.IsConfigured()),
	)
	if !settings.IsConfigured() {
		logger.Warn("Email provider not configured: contact submissions will be accepted but not delivered")
	}

	// Initialize distributed tracing
	tracerShutdown, err := tracing.InitTracer(cfg.Observability, cfg.Server.AppEnv)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tracerShutdown(ctx); shutdownErr != nil {
			logger.Error("Failed to shutdown tracer", zap.Error(shutdownErr))
		}
	}()

	// Initialize continuous profiling
	stopProfiler, err := profiling.InitProfiler(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	defer stopProfiler()

	// Initialize metrics with service name from config
	metrics.Init(cfg.Observability.ServiceName)

	// Initialize HTTP client for the email provider API
	httpClient := httpclient.NewStandardClient()

	// Initialize services
	contactService := services.NewContactService(
		cfg,
		security.NewSanitizer(),
		security.NewPatternDetector(),
		mailer.NewFactory(httpClient),
	)

	// Initialize handlers
	contactHandler := handlers.NewContactHandler(contactService)
	healthHandler := handlers.NewHealthHandler(func() bool {
		return cfg.EmailSettings().IsConfigured()
	})

	// Set up Gin router
	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Observability.ServiceName)) // OpenTelemetry tracing
	router.Use(middleware.ObservabilityMiddleware(metricsPath, healthcheckPath))
	router.Use(middleware.SecurityHeadersMiddleware(cfg.IsProduction()))

	// CORS configuration - SECURITY: Only allow specific origins
	allowedOrigins := cfg.Server.AllowedOrigins
	// Allow localhost in development
	if cfg.IsDevelopment() {
		allowedOrigins = append(allowedOrigins, "http://localhost:3000", "http://127.0.0.1:3000")
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:  allowedOrigins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader, "traceparent", "tracestate"},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}))

	// SECURITY: the contact limiter is opt-in via CONTACT_RATE_LIMIT_RPS
	generalRateLimiter := middleware.NewRateLimiter("general", 20, 40)
	contactRateLimiter := newContactRateLimiter(cfg)
	if cfg.Contact.RateLimitRPS == 0 {
		logger.Info("Contact rate limiting disabled: CONTACT_RATE_LIMIT_RPS is 0")
	}

	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	defer stopCleanup()
	go generalRateLimiter.RunCleanup(cleanupCtx, time.Minute)
	go contactRateLimiter.RunCleanup(cleanupCtx, time.Minute)

	// API routes
	api := router.Group("/api")
	// Utility endpoints (not versioned - operational endpoints)
	api.GET("/healthcheck", generalRateLimiter.Middleware(), healthHandler.Healthcheck)
	api.GET("/metrics", generalRateLimiter.Middleware(), gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	// The website posts to /api/contact; /api/v1/contact is the versioned alias
	registerContactRoutes(api, cfg, contactRateLimiter, contactHandler)
	registerContactRoutes(router.Group("/api/v1"), cfg, contactRateLimiter, contactHandler)

	// Create HTTP server
	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second, // covers two provider sends
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // SECURITY: 1 MB max header size
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
