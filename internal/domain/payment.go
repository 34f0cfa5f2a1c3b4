package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// PaymentState represents the lifecycle state of a payment (matches DB ENUM)
type PaymentState string

const (
	PaymentStateNew                 PaymentState = "new"
	PaymentStateAuthorization       PaymentState = "authorization"
	PaymentStateAuthorizationVoided PaymentState = "authorization_voided"
	PaymentStateCaptureCompleted    PaymentState = "capture_completed"
	PaymentStatePartiallyRefunded   PaymentState = "capture_partially_refunded"
	PaymentStateRefunded            PaymentState = "capture_refunded"
)

// Payment represents one attempted or completed charge. State is mutated
// exclusively through the transition methods below; the lifecycle engine
// persists a payment only after the remote call backing a transition
// succeeded.
type Payment struct {
	ID              string       `json:"id"`
	OrderID         string       `json:"order_id"`
	PaymentMethodID string       `json:"payment_method_id"`
	Amount          float64      `json:"amount"`
	Currency        string       `json:"currency"`
	State           PaymentState `json:"state"`
	RemoteChargeID  string       `json:"remote_charge_id,omitempty"`
	RefundedAmount  float64      `json:"refunded_amount"`
	AuthorizedAt    *time.Time   `json:"authorized_at,omitempty"`
	CapturedAt      *time.Time   `json:"captured_at,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// NewPayment creates a payment in the "new" state.
func NewPayment(orderID, paymentMethodID string, amount float64, currency string) (*Payment, error) {
	if orderID == "" {
		return nil, errors.New("order_id is required")
	}
	if amount <= 0 {
		return nil, errors.New("amount must be positive")
	}
	if currency == "" {
		return nil, errors.New("currency is required")
	}

	now := time.Now().UTC()
	return &Payment{
		ID:              uuid.New().String(),
		OrderID:         orderID,
		PaymentMethodID: paymentMethodID,
		Amount:          amount,
		Currency:        currency,
		State:           PaymentStateNew,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Authorize records a successful charge against a payment in the "new"
// state. With captured true the payment goes straight to capture_completed,
// otherwise it holds in authorization. The remote charge id is immutable
// once set.
func (p *Payment) Authorize(remoteChargeID string, captured bool) error {
	if p.State != PaymentStateNew {
		return ErrInvalidPaymentState
	}
	if p.RemoteChargeID != "" {
		return ErrRemoteChargeIDImmutable
	}
	now := time.Now().UTC()
	p.RemoteChargeID = remoteChargeID
	p.AuthorizedAt = &now
	if captured {
		p.State = PaymentStateCaptureCompleted
		p.CapturedAt = &now
	} else {
		p.State = PaymentStateAuthorization
	}
	p.UpdatedAt = now
	return nil
}

// Capture completes a previously authorized payment for the given amount.
func (p *Payment) Capture(amount float64) error {
	if p.State != PaymentStateAuthorization {
		return ErrInvalidPaymentState
	}
	now := time.Now().UTC()
	p.State = PaymentStateCaptureCompleted
	p.Amount = amount
	p.CapturedAt = &now
	p.UpdatedAt = now
	return nil
}

// Void releases an uncaptured authorization.
func (p *Payment) Void() error {
	if p.State != PaymentStateAuthorization {
		return ErrInvalidPaymentState
	}
	p.State = PaymentStateAuthorizationVoided
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Balance returns the amount still refundable.
func (p *Payment) Balance() float64 {
	return p.Amount - p.RefundedAmount
}

// RegisterRefund accumulates a refund of the given amount. The refunded
// total never exceeds the payment amount; the state moves to
// capture_partially_refunded while a balance remains and capture_refunded
// once it is exhausted.
func (p *Payment) RegisterRefund(amount float64) error {
	if p.State != PaymentStateCaptureCompleted && p.State != PaymentStatePartiallyRefunded {
		return ErrInvalidPaymentState
	}
	if amount <= 0 || amount > p.Balance() {
		return errors.New("refund amount exceeds remaining balance")
	}
	p.RefundedAmount += amount
	if p.RefundedAmount < p.Amount {
		p.State = PaymentStatePartiallyRefunded
	} else {
		p.State = PaymentStateRefunded
	}
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Refundable reports whether the payment accepts refunds in its current state.
func (p *Payment) Refundable() bool {
	return p.State == PaymentStateCaptureCompleted || p.State == PaymentStatePartiallyRefunded
}
