package service

import (
	"context"

	"github.com/commercekit/stripe-gateway/internal/domain"
)

// PaymentService drives the payment lifecycle against the remote gateway
type PaymentService interface {
	// CreatePayment authorizes (and optionally captures) a new payment
	CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*domain.Payment, error)

	// GetPayment retrieves a payment by ID
	GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error)

	// CapturePayment captures an authorized payment. A zero amount
	// captures the full authorized amount.
	CapturePayment(ctx context.Context, paymentID string, amount float64) (*domain.Payment, error)

	// VoidPayment releases an uncaptured authorization
	VoidPayment(ctx context.Context, paymentID string) (*domain.Payment, error)

	// RefundPayment refunds a captured payment. A zero amount refunds
	// the remaining balance.
	RefundPayment(ctx context.Context, paymentID string, amount float64) (*domain.Payment, error)

	// CreatePaymentMethod stores a tokenized card as a reusable payment method
	CreatePaymentMethod(ctx context.Context, req *CreatePaymentMethodRequest) (*domain.PaymentMethod, error)

	// GetPaymentMethod retrieves a payment method by ID
	GetPaymentMethod(ctx context.Context, methodID string) (*domain.PaymentMethod, error)

	// DeletePaymentMethod removes a payment method remotely and locally
	DeletePaymentMethod(ctx context.Context, methodID string) error
}

// CreatePaymentRequest carries the fields needed to create a payment
type CreatePaymentRequest struct {
	OrderID         string  `json:"order_id"`
	PaymentMethodID string  `json:"payment_method_id"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
	Capture         bool    `json:"capture"`
}

// CreatePaymentMethodRequest carries the tokenized card details submitted
// by the host. The remote token is opaque; card data never touches us.
type CreatePaymentMethodRequest struct {
	AccountID string            `json:"account_id"`
	Details   map[string]string `json:"details"`
}

// Token returns the opaque remote token from the submitted details
func (r *CreatePaymentMethodRequest) Token() string {
	if r.Details == nil {
		return ""
	}
	return r.Details["stripe_token"]
}
