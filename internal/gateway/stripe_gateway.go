package gateway

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// StripeGateway implements PaymentGateway against the Stripe API. The
// client is constructed per gateway configuration with the mode-selected
// secret key; no process-global key is ever set.
type StripeGateway struct {
	api *client.API
}

// StripeGatewayConfig holds configuration for the Stripe gateway.
type StripeGatewayConfig struct {
	SecretKey string
}

// NewStripeGateway creates a new Stripe gateway.
func NewStripeGateway(cfg *StripeGatewayConfig) (*StripeGateway, error) {
	if cfg == nil || cfg.SecretKey == "" {
		return nil, fmt.Errorf("stripe secret key is required")
	}

	api := &client.API{}
	api.Init(cfg.SecretKey, nil)

	return &StripeGateway{api: api}, nil
}

// Name returns the gateway name.
func (g *StripeGateway) Name() string {
	return "stripe"
}

// VerifyMode retrieves the account balance and reports whether the secret
// key is a live-mode key. Used at startup to catch credentials configured
// for the wrong mode.
func (g *StripeGateway) VerifyMode(ctx context.Context) (bool, error) {
	balance, err := g.api.Balance.Get(&stripe.BalanceParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return false, TranslateError(err)
	}
	return balance.Livemode, nil
}

// CreateCharge creates a charge. The capture flag decides between an
// uncaptured authorization and an immediate capture.
func (g *StripeGateway) CreateCharge(ctx context.Context, req *ChargeRequest) (*Result, error) {
	if req == nil {
		return nil, fmt.Errorf("charge request is required")
	}

	params := &stripe.ChargeParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		Capture:  stripe.Bool(req.Capture),
	}
	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	}
	if req.SourceID != "" {
		if err := params.SetSource(req.SourceID); err != nil {
			return nil, fmt.Errorf("invalid charge source: %w", err)
		}
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}

	ch, err := g.api.Charges.New(params)
	if err != nil {
		return nil, TranslateError(err)
	}
	return chargeResult(ch), nil
}

// CaptureCharge retrieves the charge by remote id and captures the given
// amount against it.
func (g *StripeGateway) CaptureCharge(ctx context.Context, chargeID string, amount int64) (*Result, error) {
	_, err := g.api.Charges.Get(chargeID, &stripe.ChargeParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, TranslateError(err)
	}

	ch, err := g.api.Charges.Capture(chargeID, captureParams(ctx, amount))
	if err != nil {
		return nil, TranslateError(err)
	}
	return chargeResult(ch), nil
}

// RefundCharge issues a refund of the given amount against a charge.
func (g *StripeGateway) RefundCharge(ctx context.Context, chargeID string, amount int64) (*Result, error) {
	ref, err := g.api.Refunds.New(&stripe.RefundParams{
		Params: stripe.Params{Context: ctx},
		Charge: stripe.String(chargeID),
		Amount: stripe.Int64(amount),
	})
	if err != nil {
		return nil, TranslateError(err)
	}
	return &Result{ID: ref.ID, Status: string(ref.Status)}, nil
}

// CreateCustomer creates a customer with the opaque token as its initial
// source.
func (g *StripeGateway) CreateCustomer(ctx context.Context, req *CreateCustomerRequest) (*Customer, error) {
	if req == nil {
		return nil, fmt.Errorf("create customer request is required")
	}

	cust, err := g.api.Customers.New(customerParams(ctx, req))
	if err != nil {
		return nil, TranslateError(err)
	}
	return &Customer{ID: cust.ID, Email: cust.Email}, nil
}

// AttachSource attaches a new source built from the opaque token to an
// existing customer and returns its card metadata.
func (g *StripeGateway) AttachSource(ctx context.Context, customerID, token string) (*CardSource, error) {
	src, err := g.api.PaymentSources.New(attachSourceParams(ctx, customerID, token))
	if err != nil {
		return nil, TranslateError(err)
	}
	card, ok := cardSource(src)
	if !ok {
		return nil, TranslateError(fmt.Errorf("source %s is not a card", src.ID))
	}
	return card, nil
}

// ListCardSources returns the customer's card-type sources.
func (g *StripeGateway) ListCardSources(ctx context.Context, customerID string) ([]*CardSource, error) {
	params := &stripe.PaymentSourceListParams{
		ListParams: stripe.ListParams{Context: ctx},
		Customer:   stripe.String(customerID),
	}

	var cards []*CardSource
	iter := g.api.PaymentSources.List(params)
	for iter.Next() {
		if card, ok := cardSource(iter.PaymentSource()); ok {
			cards = append(cards, card)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, TranslateError(err)
	}
	return cards, nil
}

// DeleteSource retrieves the customer and deletes the given source from it.
func (g *StripeGateway) DeleteSource(ctx context.Context, customerID, sourceID string) error {
	_, err := g.api.Customers.Get(customerID, &stripe.CustomerParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return TranslateError(err)
	}

	_, err = g.api.PaymentSources.Del(sourceID, &stripe.PaymentSourceParams{
		Params:   stripe.Params{Context: ctx},
		Customer: stripe.String(customerID),
	})
	if err != nil {
		return TranslateError(err)
	}
	return nil
}

func captureParams(ctx context.Context, amount int64) *stripe.ChargeCaptureParams {
	return &stripe.ChargeCaptureParams{
		Params: stripe.Params{Context: ctx},
		Amount: stripe.Int64(amount),
	}
}

func customerParams(ctx context.Context, req *CreateCustomerRequest) *stripe.CustomerParams {
	params := &stripe.CustomerParams{
		Params:      stripe.Params{Context: ctx},
		Email:       stripe.String(req.Email),
		Description: stripe.String(fmt.Sprintf("Customer for %s", req.Email)),
	}
	if req.Token != "" {
		params.Source = stripe.String(req.Token)
	}
	return params
}

func attachSourceParams(ctx context.Context, customerID, token string) *stripe.PaymentSourceParams {
	return &stripe.PaymentSourceParams{
		Params:   stripe.Params{Context: ctx},
		Customer: stripe.String(customerID),
		Source:   &stripe.PaymentSourceSourceParams{Token: stripe.String(token)},
	}
}

// chargeResult normalizes a Stripe charge into the fixed result schema.
// Charges carry at most one failure entry (failure_code/failure_message).
func chargeResult(ch *stripe.Charge) *Result {
	result := &Result{
		ID:     ch.ID,
		Status: string(ch.Status),
	}
	if ch.FailureCode != "" {
		code, err := strconv.ParseInt(ch.FailureCode, 10, 64)
		if err != nil {
			code = 0
		}
		result.Errors = append(result.Errors, ResultError{
			Code:    code,
			Message: ch.FailureMessage,
		})
	}
	return result
}

// cardSource extracts card metadata from a payment source.
func cardSource(src *stripe.PaymentSource) (*CardSource, bool) {
	if src == nil || src.Card == nil {
		return nil, false
	}
	return &CardSource{
		ID:       src.ID,
		Brand:    string(src.Card.Brand),
		Last4:    src.Card.Last4,
		ExpMonth: int(src.Card.ExpMonth),
		ExpYear:  int(src.Card.ExpYear),
	}, true
}
