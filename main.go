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

	"github.com/gin-gonic/gin"

	"github.com/commercekit/stripe-gateway/internal/config"
	"github.com/commercekit/stripe-gateway/internal/database"
	"github.com/commercekit/stripe-gateway/internal/di"
	"github.com/commercekit/stripe-gateway/internal/gateway"
	"github.com/commercekit/stripe-gateway/internal/logger"
	"github.com/commercekit/stripe-gateway/internal/metrics"
	"github.com/commercekit/stripe-gateway/internal/middleware"
	"github.com/commercekit/stripe-gateway/internal/redis"
	"github.com/commercekit/stripe-gateway/internal/repository"
	"github.com/commercekit/stripe-gateway/internal/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logCfg := &logger.Config{
		Level:       cfg.App.Environment,
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting Stripe Gateway Service...")

	ctx := context.Background()

	// Initialize telemetry
	tel, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	})
	if err != nil {
		appLog.Warn(fmt.Sprintf("Telemetry initialization failed: %v", err))
	} else if tel != nil {
		defer telemetry.Shutdown(ctx)
	}

	if err := metrics.Init(); err != nil {
		appLog.Warn(fmt.Sprintf("Metrics initialization failed: %v", err))
	}

	// Initialize database connection
	var db *database.PostgresDB
	dbCfg := &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxOpenConns),
		MinConns:        int32(cfg.Database.MaxIdleConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   1 * time.Second,
		EnableTracing:   cfg.OTel.Enabled,
	}
	db, err = database.NewPostgres(ctx, dbCfg)
	if err != nil {
		appLog.Warn(fmt.Sprintf("Database connection failed: %v", err))
		db = nil
	} else {
		defer db.Close()
		appLog.Info(fmt.Sprintf("Database connected (pool: min=%d, max=%d)", dbCfg.MinConns, dbCfg.MaxConns))
	}

	// Initialize Redis connection
	var redisClient *redis.Client
	redisCfg := &redis.Config{
		Host:          cfg.Redis.Host,
		Port:          cfg.Redis.Port,
		Password:      cfg.Redis.Password,
		DB:            cfg.Redis.DB,
		PoolSize:      cfg.Redis.PoolSize,
		MinIdleConns:  cfg.Redis.MinIdleConns,
		MaxRetries:    3,
		RetryInterval: 100 * time.Millisecond,
		DialTimeout:   cfg.Redis.DialTimeout,
		ReadTimeout:   cfg.Redis.ReadTimeout,
		WriteTimeout:  cfg.Redis.WriteTimeout,
	}
	redisClient, err = redis.NewClient(ctx, redisCfg)
	if err != nil {
		appLog.Warn(fmt.Sprintf("Redis connection failed: %v", err))
		redisClient = nil
	} else {
		defer redisClient.Close()
		appLog.Info(fmt.Sprintf("Redis connected (pool: %d, minIdle: %d)", redisCfg.PoolSize, redisCfg.MinIdleConns))
	}

	// Initialize payment gateway
	var paymentGateway gateway.PaymentGateway
	if cfg.Stripe.SecretKey() != "" {
		stripeGateway, gwErr := gateway.NewStripeGateway(&gateway.StripeGatewayConfig{
			SecretKey: cfg.Stripe.SecretKey(),
		})
		if gwErr != nil {
			appLog.Warn(fmt.Sprintf("Failed to create Stripe gateway: %v, falling back to mock", gwErr))
		} else {
			// The configured mode must match the mode of the key we hold
			livemode, vErr := stripeGateway.VerifyMode(ctx)
			switch {
			case vErr != nil:
				appLog.Warn(fmt.Sprintf("Stripe credential check failed: %v", vErr))
			case livemode != cfg.Stripe.IsLive():
				appLog.Warn(fmt.Sprintf("Stripe key mode mismatch: configured mode is %q but key livemode=%v", cfg.Stripe.Mode, livemode))
			}
			paymentGateway = stripeGateway
			appLog.Info(fmt.Sprintf("Using Stripe payment gateway (mode=%s)", cfg.Stripe.Mode))
		}
	}
	if paymentGateway == nil {
		paymentGateway = gateway.NewMockGateway()
		appLog.Warn("Using mock payment gateway (no Stripe secret key configured)")
	}

	// Initialize repositories
	var (
		paymentRepo repository.PaymentRepository
		methodRepo  repository.PaymentMethodRepository
		accountRepo repository.AccountRepository
	)
	if db != nil {
		paymentRepo = repository.NewPostgresPaymentRepository(db)
		methodRepo = repository.NewPostgresPaymentMethodRepository(db)
		accountRepo = repository.NewPostgresAccountRepository(db)
		appLog.Info("Using PostgreSQL repositories")
	} else {
		paymentRepo = repository.NewMemoryPaymentRepository()
		methodRepo = repository.NewMemoryPaymentMethodRepository()
		accountRepo = repository.NewMemoryAccountRepository()
		appLog.Warn("Using in-memory repositories (data will not persist)")
	}

	// Build dependency injection container
	container := di.NewContainer(&di.ContainerConfig{
		DB:             db,
		Redis:          redisClient,
		PaymentRepo:    paymentRepo,
		MethodRepo:     methodRepo,
		AccountRepo:    accountRepo,
		PaymentGateway: paymentGateway,
		Stripe:         &cfg.Stripe,
	})

	// Setup Gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.OTel.Enabled {
		router.Use(telemetry.TracingMiddleware(cfg.OTel.ServiceName))
	}

	// Health check endpoints
	router.GET("/health", container.HealthHandler.Health)
	router.GET("/ready", container.HealthHandler.Ready)

	// API routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/status", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "ok",
				"version": cfg.App.Version,
				"service": cfg.App.Name,
			})
		})

		if container.PaymentHandler != nil {
			v1.GET("/config", container.PaymentHandler.GetClientConfig)

			// Configure idempotency middleware for write operations
			var idem gin.HandlerFunc
			if redisClient != nil {
				idemConfig := middleware.DefaultIdempotencyConfig(redisClient.Client())
				idemConfig.SkipPaths = []string{"/health", "/ready"}
				idem = middleware.IdempotencyMiddleware(idemConfig)
			}

			payments := v1.Group("/payments")
			{
				if idem != nil {
					payments.POST("", idem, container.PaymentHandler.CreatePayment)
					payments.POST("/:id/capture", idem, container.PaymentHandler.CapturePayment)
					payments.POST("/:id/void", idem, container.PaymentHandler.VoidPayment)
					payments.POST("/:id/refund", idem, container.PaymentHandler.RefundPayment)
				} else {
					payments.POST("", container.PaymentHandler.CreatePayment)
					payments.POST("/:id/capture", container.PaymentHandler.CapturePayment)
					payments.POST("/:id/void", container.PaymentHandler.VoidPayment)
					payments.POST("/:id/refund", container.PaymentHandler.RefundPayment)
				}

				payments.GET("/:id", container.PaymentHandler.GetPayment)
			}

			methods := v1.Group("/payment-methods")
			{
				if idem != nil {
					methods.POST("", idem, container.PaymentHandler.CreatePaymentMethod)
					methods.DELETE("/:id", idem, container.PaymentHandler.DeletePaymentMethod)
				} else {
					methods.POST("", container.PaymentHandler.CreatePaymentMethod)
					methods.DELETE("/:id", container.PaymentHandler.DeletePaymentMethod)
				}

				methods.GET("/:id", container.PaymentHandler.GetPaymentMethod)
			}
		}
	}

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Start server in goroutine
	go func() {
		appLog.Info(fmt.Sprintf("Stripe Gateway Service listening on %s", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal(fmt.Sprintf("Failed to start server: %v", err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Fatal(fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	appLog.Info("Server exited gracefully")
}
