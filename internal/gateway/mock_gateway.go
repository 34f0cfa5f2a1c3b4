package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/commercekit/stripe-gateway/internal/domain"
)

// MockGateway implements PaymentGateway in memory for development and load
// testing. Charges, customers and sources behave like their remote
// counterparts but never leave the process.
type MockGateway struct {
	mu        sync.Mutex
	charges   map[string]*mockCharge
	customers map[string]*mockCustomer
}

type mockCharge struct {
	amount   int64
	refunded int64
	captured bool
}

type mockCustomer struct {
	email   string
	sources []*CardSource
}

// NewMockGateway creates a new mock gateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		charges:   make(map[string]*mockCharge),
		customers: make(map[string]*mockCustomer),
	}
}

// Name returns the gateway name.
func (g *MockGateway) Name() string {
	return "mock"
}

// CreateCharge records a charge and reports it as succeeded.
func (g *MockGateway) CreateCharge(ctx context.Context, req *ChargeRequest) (*Result, error) {
	if req == nil {
		return nil, fmt.Errorf("charge request is required")
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	id := "ch_mock_" + uuid.New().String()[:8]
	g.charges[id] = &mockCharge{amount: req.Amount, captured: req.Capture}
	return &Result{ID: id, Status: "succeeded"}, nil
}

// CaptureCharge captures a previously created charge.
func (g *MockGateway) CaptureCharge(ctx context.Context, chargeID string, amount int64) (*Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ch, ok := g.charges[chargeID]
	if !ok {
		return nil, domain.NewInvalidRequest("no such charge: "+chargeID, 0)
	}
	ch.captured = true
	ch.amount = amount
	return &Result{ID: chargeID, Status: "succeeded"}, nil
}

// RefundCharge refunds part or all of a charge.
func (g *MockGateway) RefundCharge(ctx context.Context, chargeID string, amount int64) (*Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ch, ok := g.charges[chargeID]
	if !ok {
		return nil, domain.NewInvalidRequest("no such charge: "+chargeID, 0)
	}
	if ch.refunded+amount > ch.amount {
		return nil, domain.NewInvalidRequest("refund exceeds charge amount", 0)
	}
	ch.refunded += amount
	return &Result{ID: "re_mock_" + uuid.New().String()[:8], Status: "succeeded"}, nil
}

// CreateCustomer creates a customer with one Visa card source derived from
// the token.
func (g *MockGateway) CreateCustomer(ctx context.Context, req *CreateCustomerRequest) (*Customer, error) {
	if req == nil {
		return nil, fmt.Errorf("create customer request is required")
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	id := "cus_mock_" + uuid.New().String()[:8]
	cust := &mockCustomer{email: req.Email}
	if req.Token != "" {
		cust.sources = append(cust.sources, mockCard())
	}
	g.customers[id] = cust
	return &Customer{ID: id, Email: req.Email}, nil
}

// AttachSource attaches a new card source to an existing customer.
func (g *MockGateway) AttachSource(ctx context.Context, customerID, token string) (*CardSource, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	cust, ok := g.customers[customerID]
	if !ok {
		return nil, domain.NewInvalidRequest("no such customer: "+customerID, 0)
	}
	card := mockCard()
	cust.sources = append(cust.sources, card)
	return card, nil
}

// ListCardSources returns the customer's card sources.
func (g *MockGateway) ListCardSources(ctx context.Context, customerID string) ([]*CardSource, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	cust, ok := g.customers[customerID]
	if !ok {
		return nil, domain.NewInvalidRequest("no such customer: "+customerID, 0)
	}
	return append([]*CardSource(nil), cust.sources...), nil
}

// DeleteSource removes a source from a customer.
func (g *MockGateway) DeleteSource(ctx context.Context, customerID, sourceID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	cust, ok := g.customers[customerID]
	if !ok {
		return domain.NewInvalidRequest("no such customer: "+customerID, 0)
	}
	for i, src := range cust.sources {
		if src.ID == sourceID {
			cust.sources = append(cust.sources[:i], cust.sources[i+1:]...)
			return nil
		}
	}
	return domain.NewInvalidRequest("no such source: "+sourceID, 0)
}

func mockCard() *CardSource {
	return &CardSource{
		ID:       "card_mock_" + uuid.New().String()[:8],
		Brand:    "Visa",
		Last4:    "4242",
		ExpMonth: 12,
		ExpYear:  2040,
	}
}
