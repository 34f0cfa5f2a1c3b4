package gateway

import (
	"context"
)

// PaymentGateway is the remote card-processor boundary: a small fixed set
// of RPC-style calls over an authenticated channel. Implementations return
// either a normalized result or an error already classified by the
// translator in errors.go; callers never see raw transport errors.
type PaymentGateway interface {
	// CreateCharge creates a charge with amount, currency, customer,
	// source, and a capture flag.
	CreateCharge(ctx context.Context, req *ChargeRequest) (*Result, error)

	// CaptureCharge retrieves the existing charge and issues a capture for
	// the given amount in minor units.
	CaptureCharge(ctx context.Context, chargeID string, amount int64) (*Result, error)

	// RefundCharge issues a partial or full refund against a charge.
	RefundCharge(ctx context.Context, chargeID string, amount int64) (*Result, error)

	// CreateCustomer creates a remote customer with the opaque card token
	// as its initial source.
	CreateCustomer(ctx context.Context, req *CreateCustomerRequest) (*Customer, error)

	// AttachSource attaches a new card source built from the opaque token
	// to an existing customer.
	AttachSource(ctx context.Context, customerID, token string) (*CardSource, error)

	// ListCardSources returns the customer's card-type sources.
	ListCardSources(ctx context.Context, customerID string) ([]*CardSource, error)

	// DeleteSource retrieves the customer and deletes the given source.
	DeleteSource(ctx context.Context, customerID, sourceID string) error

	// Name returns the gateway name.
	Name() string
}

// ChargeRequest carries the fields of a remote charge creation. Amount is
// in minor units (see amount.go).
type ChargeRequest struct {
	Amount      int64
	Currency    string
	CustomerID  string
	SourceID    string
	Capture     bool
	Description string
}

// CreateCustomerRequest carries the fields of a remote customer creation.
type CreateCustomerRequest struct {
	Email string
	Token string
}

// Customer is the remote customer record.
type Customer struct {
	ID    string
	Email string
}

// CardSource is the card metadata of a reusable remote source.
type CardSource struct {
	ID       string
	Brand    string
	Last4    string
	ExpMonth int
	ExpYear  int
}

// ResultError is one nested error entry of a remote result payload.
type ResultError struct {
	Code    int64
	Message string
}

// Result is the normalized remote result payload: remote id, status, and
// any nested errors. Anything outside this schema is dropped at the
// gateway boundary rather than trusted downstream.
type Result struct {
	ID     string
	Status string
	Errors []ResultError
}
