package repository

import (
	"context"

	"github.com/commercekit/stripe-gateway/internal/domain"
)

// PaymentRepository defines data access for payments.
type PaymentRepository interface {
	// Create creates a new payment record
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID retrieves a payment by its ID
	GetByID(ctx context.Context, id string) (*domain.Payment, error)

	// GetByOrderID retrieves a payment by its owning order
	GetByOrderID(ctx context.Context, orderID string) (*domain.Payment, error)

	// Update updates an existing payment
	Update(ctx context.Context, payment *domain.Payment) error
}

// PaymentMethodRepository defines data access for stored payment methods.
type PaymentMethodRepository interface {
	Create(ctx context.Context, method *domain.PaymentMethod) error
	GetByID(ctx context.Context, id string) (*domain.PaymentMethod, error)
	ListByAccount(ctx context.Context, accountID string) ([]*domain.PaymentMethod, error)
	Delete(ctx context.Context, id string) error
}

// AccountRepository defines data access for the host accounts that own
// payment methods and carry the provider-scoped remote customer id.
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	Update(ctx context.Context, account *domain.Account) error
}
