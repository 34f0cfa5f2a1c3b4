package dto

import (
	"time"

	"github.com/commercekit/stripe-gateway/internal/domain"
)

// CreatePaymentRequest represents a request to create a payment
type CreatePaymentRequest struct {
	OrderID         string  `json:"order_id" binding:"required"`
	PaymentMethodID string  `json:"payment_method_id" binding:"required"`
	Amount          float64 `json:"amount" binding:"required,gt=0"`
	Currency        string  `json:"currency" binding:"required"`
	Capture         bool    `json:"capture"`
}

// CapturePaymentRequest represents a request to capture an authorization.
// Amount is optional; zero captures the full authorized amount.
type CapturePaymentRequest struct {
	Amount float64 `json:"amount,omitempty"`
}

// RefundPaymentRequest represents a request to refund a payment. Amount is
// optional; zero refunds the remaining balance.
type RefundPaymentRequest struct {
	Amount float64 `json:"amount,omitempty"`
}

// PaymentResponse represents a payment response
type PaymentResponse struct {
	ID              string              `json:"id"`
	OrderID         string              `json:"order_id"`
	PaymentMethodID string              `json:"payment_method_id,omitempty"`
	Amount          float64             `json:"amount"`
	Currency        string              `json:"currency"`
	State           domain.PaymentState `json:"state"`
	RemoteChargeID  string              `json:"remote_charge_id,omitempty"`
	RefundedAmount  float64             `json:"refunded_amount"`
	Balance         float64             `json:"balance"`
	AuthorizedAt    *time.Time          `json:"authorized_at,omitempty"`
	CapturedAt      *time.Time          `json:"captured_at,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// FromPayment converts a domain Payment to PaymentResponse
func FromPayment(p *domain.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:              p.ID,
		OrderID:         p.OrderID,
		PaymentMethodID: p.PaymentMethodID,
		Amount:          p.Amount,
		Currency:        p.Currency,
		State:           p.State,
		RemoteChargeID:  p.RemoteChargeID,
		RefundedAmount:  p.RefundedAmount,
		Balance:         p.Balance(),
		AuthorizedAt:    p.AuthorizedAt,
		CapturedAt:      p.CapturedAt,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// CreatePaymentMethodRequest represents a request to store a tokenized card
type CreatePaymentMethodRequest struct {
	AccountID string            `json:"account_id" binding:"required"`
	Details   map[string]string `json:"details" binding:"required"`
}

// PaymentMethodResponse represents a stored payment method
type PaymentMethodResponse struct {
	ID             string           `json:"id"`
	AccountID      string           `json:"account_id"`
	RemoteSourceID string           `json:"remote_source_id"`
	Brand          domain.CardBrand `json:"brand"`
	Last4          string           `json:"last4"`
	ExpMonth       int              `json:"exp_month"`
	ExpYear        int              `json:"exp_year"`
	CreatedAt      time.Time        `json:"created_at"`
}

// FromPaymentMethod converts a domain PaymentMethod to PaymentMethodResponse
func FromPaymentMethod(m *domain.PaymentMethod) *PaymentMethodResponse {
	return &PaymentMethodResponse{
		ID:             m.ID,
		AccountID:      m.AccountID,
		RemoteSourceID: m.RemoteSourceID,
		Brand:          m.Brand,
		Last4:          m.Last4,
		ExpMonth:       m.ExpMonth,
		ExpYear:        m.ExpYear,
		CreatedAt:      m.CreatedAt,
	}
}

// ClientConfigResponse carries the browser-facing gateway configuration.
// Only the publishable key is ever exposed.
type ClientConfigResponse struct {
	Gateway        string `json:"gateway"`
	Mode           string `json:"mode"`
	PublishableKey string `json:"publishable_key"`
}
