package di

import (
	"github.com/commercekit/stripe-gateway/internal/config"
	"github.com/commercekit/stripe-gateway/internal/database"
	"github.com/commercekit/stripe-gateway/internal/gateway"
	"github.com/commercekit/stripe-gateway/internal/handler"
	"github.com/commercekit/stripe-gateway/internal/redis"
	"github.com/commercekit/stripe-gateway/internal/repository"
	"github.com/commercekit/stripe-gateway/internal/service"
)

// Container holds all dependencies for the gateway service
type Container struct {
	// Infrastructure
	DB    *database.PostgresDB
	Redis *redis.Client

	// Gateways
	PaymentGateway gateway.PaymentGateway

	// Repositories
	PaymentRepo repository.PaymentRepository
	MethodRepo  repository.PaymentMethodRepository
	AccountRepo repository.AccountRepository

	// Services
	PaymentService service.PaymentService

	// Handlers
	HealthHandler  *handler.HealthHandler
	PaymentHandler *handler.PaymentHandler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	DB             *database.PostgresDB
	Redis          *redis.Client
	PaymentRepo    repository.PaymentRepository
	MethodRepo     repository.PaymentMethodRepository
	AccountRepo    repository.AccountRepository
	PaymentGateway gateway.PaymentGateway
	Stripe         *config.StripeConfig
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:             cfg.DB,
		Redis:          cfg.Redis,
		PaymentRepo:    cfg.PaymentRepo,
		MethodRepo:     cfg.MethodRepo,
		AccountRepo:    cfg.AccountRepo,
		PaymentGateway: cfg.PaymentGateway,
	}

	// Initialize handlers
	c.HealthHandler = handler.NewHealthHandler(c.DB, c.Redis)

	if c.PaymentRepo != nil && c.MethodRepo != nil && c.AccountRepo != nil && c.PaymentGateway != nil {
		c.PaymentService = service.NewPaymentService(c.PaymentRepo, c.MethodRepo, c.AccountRepo, c.PaymentGateway)
		c.PaymentHandler = handler.NewPaymentHandler(c.PaymentService, c.PaymentGateway.Name(), cfg.Stripe)
	}

	return c
}
