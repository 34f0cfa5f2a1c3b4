package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// CardBrand is the canonical card brand identifier used locally.
type CardBrand string

const (
	CardBrandAmex       CardBrand = "amex"
	CardBrandDinersClub CardBrand = "dinersclub"
	CardBrandDiscover   CardBrand = "discover"
	CardBrandJCB        CardBrand = "jcb"
	CardBrandMasterCard CardBrand = "mastercard"
	CardBrandVisa       CardBrand = "visa"
)

// PaymentMethod represents a reusable tokenized card attached to a remote
// customer. The remote source id is immutable once set.
type PaymentMethod struct {
	ID             string    `json:"id"`
	AccountID      string    `json:"account_id"`
	RemoteSourceID string    `json:"remote_source_id"`
	Brand          CardBrand `json:"brand"`
	Last4          string    `json:"last4"`
	ExpMonth       int       `json:"exp_month"`
	ExpYear        int       `json:"exp_year"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewPaymentMethod creates a payment method from provisioned card metadata.
// The expiry must be a valid month and must not already be in the past.
func NewPaymentMethod(accountID, remoteSourceID string, brand CardBrand, last4 string, expMonth, expYear int) (*PaymentMethod, error) {
	if accountID == "" {
		return nil, errors.New("account_id is required")
	}
	if remoteSourceID == "" {
		return nil, errors.New("remote_source_id is required")
	}
	if expMonth < 1 || expMonth > 12 {
		return nil, errors.New("expiration month must be between 1 and 12")
	}

	now := time.Now().UTC()
	pm := &PaymentMethod{
		ID:             uuid.New().String(),
		AccountID:      accountID,
		RemoteSourceID: remoteSourceID,
		Brand:          brand,
		Last4:          last4,
		ExpMonth:       expMonth,
		ExpYear:        expYear,
		CreatedAt:      now,
	}
	if pm.Expired(now) {
		return nil, errors.New("card is already expired")
	}
	return pm, nil
}

// ExpiresAt returns the first instant at which the card counts as expired:
// midnight UTC on the first day of the month after the expiry month.
func (m *PaymentMethod) ExpiresAt() time.Time {
	return time.Date(m.ExpYear, time.Month(m.ExpMonth), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}

// Expired reports whether the card has expired as of now.
func (m *PaymentMethod) Expired(now time.Time) bool {
	return !now.Before(m.ExpiresAt())
}
